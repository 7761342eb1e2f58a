// Package broadcast fans section-scoped item events out to stream
// subscribers. The in-memory driver serves a single process; the redis
// driver carries events across replicas via Pub/Sub.
package broadcast

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

// Event is one message delivered to section subscribers.
type Event struct {
	// Name is the SSE event name, e.g. "itemUpdate".
	Name string `json:"name"`
	// Data is the JSON payload forwarded verbatim to clients.
	Data json.RawMessage `json:"data"`
	// Timestamp is the publish time in Unix nanoseconds, used as the SSE
	// event id so clients can resume ordering.
	Timestamp int64 `json:"timestamp"`
}

// Subscription is one observer of a section's event stream. Cancel must be
// called when the observer disconnects.
type Subscription struct {
	ID     string
	Events <-chan Event
	cancel func()
}

// Cancel deregisters the subscription and releases its resources.
func (s *Subscription) Cancel() {
	if s.cancel != nil {
		s.cancel()
	}
}

// Broadcaster delivers events to all current subscribers of a section.
// Publish is fire-and-forget: it never blocks on slow consumers and a
// failure to deliver does not affect the mutation that produced the event.
type Broadcaster interface {
	Publish(ctx context.Context, sectionID uuid.UUID, event Event) error
	Subscribe(ctx context.Context, sectionID uuid.UUID) (*Subscription, error)
	Close() error
}
