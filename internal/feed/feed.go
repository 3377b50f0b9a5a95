// Package feed delivers asynchronous change notifications from the
// remote store as an ordered stream of insert/update/delete events
// per entity kind.
package feed

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/nhle/planhub/internal/model"
)

// Op identifies the kind of change an event describes.
type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Event is a single row-level change notification.
// Payload holds the full post-change entity for inserts and updates,
// and is empty for deletes.
type Event struct {
	ID        string          `json:"id"`
	Kind      model.Kind      `json:"kind"`
	Op        Op              `json:"op"`
	EntityID  string          `json:"entity_id"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewEventID returns a lexically sortable unique event identifier.
func NewEventID() string {
	return ulid.Make().String()
}

// Feed is the change-feed boundary: one subscription per entity kind,
// delivering events in arrival order on a channel.
type Feed interface {
	Subscribe(kind model.Kind) (*Subscription, error)
}

// Subscription is a live event stream for one entity kind.
// Close must be called when the consumer unmounts to avoid leaking
// the handler.
type Subscription struct {
	events chan Event
	once   sync.Once
	unsub  func()
}

// Events returns the channel events are delivered on. The channel is
// closed when the subscription (or the feed behind it) shuts down.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Close detaches the subscription and closes its event channel.
// Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		if s.unsub != nil {
			s.unsub()
		}
		close(s.events)
	})
}
