package feed

import (
	"sync"

	"github.com/nhle/planhub/internal/model"
)

// defaultBufferSize is the per-subscription channel capacity used
// when none is configured.
const defaultBufferSize = 64

// Hub is an in-process Feed that fans events out to subscribers by
// entity kind. The embedded SQLite gateway publishes its own writes
// here; tests use it to inject remote events deterministically.
type Hub struct {
	mu      sync.Mutex
	bufSize int
	subs    map[model.Kind][]*Subscription
	closed  bool
}

// NewHub creates a Hub with the given per-subscription buffer size.
// A non-positive size falls back to the default.
func NewHub(bufSize int) *Hub {
	if bufSize <= 0 {
		bufSize = defaultBufferSize
	}
	return &Hub{
		bufSize: bufSize,
		subs:    make(map[model.Kind][]*Subscription),
	}
}

// Subscribe registers a new subscription for one entity kind.
func (h *Hub) Subscribe(kind model.Kind) (*Subscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub := &Subscription{events: make(chan Event, h.bufSize)}
	sub.unsub = func() { h.drop(kind, sub) }

	if h.closed {
		// Hand back an already-terminated stream rather than an error;
		// the consumer sees a closed channel on first receive.
		close(sub.events)
		sub.once.Do(func() {})
		return sub, nil
	}

	h.subs[kind] = append(h.subs[kind], sub)
	return sub, nil
}

// Publish delivers an event to every subscription of its kind.
// Sends never block: a subscriber that has fallen behind its buffer
// misses the event.
func (h *Hub) Publish(ev Event) {
	if ev.ID == "" {
		ev.ID = NewEventID()
	}

	// Deliver under the lock so a concurrent Close cannot close a
	// channel mid-send. Sends are non-blocking, so the critical
	// section stays short.
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, sub := range h.subs[ev.Kind] {
		select {
		case sub.events <- ev:
		default:
			// Drop if the subscriber's buffer is full to avoid blocking
		}
	}
}

// Close terminates all subscriptions. Further publishes are ignored.
func (h *Hub) Close() {
	h.mu.Lock()
	subs := h.subs
	h.subs = make(map[model.Kind][]*Subscription)
	h.closed = true
	h.mu.Unlock()

	for _, kindSubs := range subs {
		for _, sub := range kindSubs {
			sub.once.Do(func() { close(sub.events) })
		}
	}
}

// drop removes a single subscription from the fan-out list.
func (h *Hub) drop(kind model.Kind, target *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	kindSubs := h.subs[kind]
	for i, sub := range kindSubs {
		if sub == target {
			h.subs[kind] = append(kindSubs[:i], kindSubs[i+1:]...)
			return
		}
	}
}
