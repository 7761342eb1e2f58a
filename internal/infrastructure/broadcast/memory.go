package broadcast

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultSubscriberBuffer = 64

// MemoryBroadcaster is an in-process Broadcaster. Subscribers of the same
// section share nothing but the registry; a full subscriber channel drops
// the event for that subscriber only.
type MemoryBroadcaster struct {
	mu       sync.RWMutex
	sections map[uuid.UUID]map[string]chan Event
	buffer   int
	logger   *zap.Logger
	closed   bool
}

// MemoryOption is a functional option for configuring the broadcaster
type MemoryOption func(*MemoryBroadcaster)

// WithMemoryLogger sets the logger for the broadcaster
func WithMemoryLogger(logger *zap.Logger) MemoryOption {
	return func(b *MemoryBroadcaster) {
		b.logger = logger
	}
}

// WithMemoryBuffer sets the per-subscriber channel buffer size
func WithMemoryBuffer(size int) MemoryOption {
	return func(b *MemoryBroadcaster) {
		if size > 0 {
			b.buffer = size
		}
	}
}

// NewMemoryBroadcaster creates a new in-memory broadcaster
func NewMemoryBroadcaster(opts ...MemoryOption) *MemoryBroadcaster {
	b := &MemoryBroadcaster{
		sections: make(map[uuid.UUID]map[string]chan Event),
		buffer:   defaultSubscriberBuffer,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish delivers the event to every current subscriber of the section.
func (b *MemoryBroadcaster) Publish(_ context.Context, sectionID uuid.UUID, event Event) error {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UnixNano()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return fmt.Errorf("broadcaster is closed")
	}

	for id, ch := range b.sections[sectionID] {
		select {
		case ch <- event:
		default:
			// Subscriber is not keeping up; drop rather than block the publisher.
			b.logger.Warn("Subscriber channel full, dropping event",
				zap.String("subscriber_id", id),
				zap.String("section_id", sectionID.String()),
				zap.String("event", event.Name))
		}
	}
	return nil
}

// Subscribe registers a new observer for the section.
func (b *MemoryBroadcaster) Subscribe(_ context.Context, sectionID uuid.UUID) (*Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, fmt.Errorf("broadcaster is closed")
	}

	id := uuid.New().String()
	ch := make(chan Event, b.buffer)

	subs, ok := b.sections[sectionID]
	if !ok {
		subs = make(map[string]chan Event)
		b.sections[sectionID] = subs
	}
	subs[id] = ch

	b.logger.Debug("Subscriber registered",
		zap.String("subscriber_id", id),
		zap.String("section_id", sectionID.String()))

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			subs, ok := b.sections[sectionID]
			if !ok {
				// Close already tore the registry down and closed the channel.
				return
			}
			if _, ok := subs[id]; !ok {
				return
			}
			delete(subs, id)
			if len(subs) == 0 {
				delete(b.sections, sectionID)
			}
			close(ch)
		})
	}

	return &Subscription{ID: id, Events: ch, cancel: cancel}, nil
}

// Close drops all subscribers and rejects further use.
func (b *MemoryBroadcaster) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	for _, subs := range b.sections {
		for _, ch := range subs {
			close(ch)
		}
	}
	b.sections = make(map[uuid.UUID]map[string]chan Event)
	return nil
}

// SubscriberCount returns the number of subscribers for a section.
func (b *MemoryBroadcaster) SubscriberCount(sectionID uuid.UUID) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.sections[sectionID])
}

// Ensure MemoryBroadcaster implements Broadcaster
var _ Broadcaster = (*MemoryBroadcaster)(nil)
