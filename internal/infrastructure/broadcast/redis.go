package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultChannelPrefix = "stocktrack:section:"

// RedisBroadcaster carries events across process boundaries via Redis
// Pub/Sub, one channel per section. Every replica that serves stream
// connections subscribes to the sections its clients watch.
type RedisBroadcaster struct {
	client     *redis.Client
	ownsClient bool
	prefix     string
	buffer     int
	logger     *zap.Logger

	mu     sync.Mutex
	closed bool
}

// RedisOption is a functional option for configuring the broadcaster
type RedisOption func(*RedisBroadcaster)

// WithRedisLogger sets the logger for the broadcaster
func WithRedisLogger(logger *zap.Logger) RedisOption {
	return func(b *RedisBroadcaster) {
		b.logger = logger
	}
}

// WithChannelPrefix sets the Pub/Sub channel name prefix
func WithChannelPrefix(prefix string) RedisOption {
	return func(b *RedisBroadcaster) {
		if prefix != "" {
			b.prefix = prefix
		}
	}
}

// WithRedisBuffer sets the per-subscriber channel buffer size
func WithRedisBuffer(size int) RedisOption {
	return func(b *RedisBroadcaster) {
		if size > 0 {
			b.buffer = size
		}
	}
}

// NewRedisBroadcaster creates a broadcaster on a freshly dialed client.
func NewRedisBroadcaster(addr, password string, db int, opts ...RedisOption) (*RedisBroadcaster, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	b := newRedisBroadcaster(client, opts...)
	b.ownsClient = true
	return b, nil
}

// NewRedisBroadcasterWithClient creates a broadcaster on an existing client.
// The caller retains ownership of the client and is responsible for closing it.
func NewRedisBroadcasterWithClient(client *redis.Client, opts ...RedisOption) *RedisBroadcaster {
	return newRedisBroadcaster(client, opts...)
}

func newRedisBroadcaster(client *redis.Client, opts ...RedisOption) *RedisBroadcaster {
	b := &RedisBroadcaster{
		client: client,
		prefix: defaultChannelPrefix,
		buffer: defaultSubscriberBuffer,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *RedisBroadcaster) channelName(sectionID uuid.UUID) string {
	return b.prefix + sectionID.String()
}

// Publish sends the event to the section's Pub/Sub channel.
func (b *RedisBroadcaster) Publish(ctx context.Context, sectionID uuid.UUID, event Event) error {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UnixNano()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	channel := b.channelName(sectionID)
	if err := b.client.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish event",
			zap.String("channel", channel),
			zap.Error(err))
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Published event",
		zap.String("channel", channel),
		zap.String("event", event.Name))
	return nil
}

// Subscribe opens a Pub/Sub subscription for the section and pumps its
// messages into the returned channel until Cancel is called.
func (b *RedisBroadcaster) Subscribe(ctx context.Context, sectionID uuid.UUID) (*Subscription, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, fmt.Errorf("broadcaster is closed")
	}
	b.mu.Unlock()

	subCtx, cancelCtx := context.WithCancel(ctx)
	pubsub := b.client.Subscribe(subCtx, b.channelName(sectionID))

	// Wait for the subscription to be confirmed so no events are missed.
	if _, err := pubsub.Receive(subCtx); err != nil {
		cancelCtx()
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to channel: %w", err)
	}

	id := uuid.New().String()
	events := make(chan Event, b.buffer)

	go func() {
		defer close(events)
		ch := pubsub.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					b.logger.Error("Failed to unmarshal event",
						zap.String("payload", msg.Payload),
						zap.Error(err))
					continue
				}
				select {
				case events <- event:
				default:
					b.logger.Warn("Subscriber channel full, dropping event",
						zap.String("subscriber_id", id),
						zap.String("section_id", sectionID.String()))
				}
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			cancelCtx()
			if err := pubsub.Close(); err != nil {
				b.logger.Warn("Failed to close pubsub", zap.Error(err))
			}
		})
	}

	return &Subscription{ID: id, Events: events, cancel: cancel}, nil
}

// Close closes the underlying client when this broadcaster owns it.
func (b *RedisBroadcaster) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	if b.ownsClient {
		return b.client.Close()
	}
	return nil
}

// Ensure RedisBroadcaster implements Broadcaster
var _ Broadcaster = (*RedisBroadcaster)(nil)
