// Package collection provides the in-memory, per-kind ordered entity
// collection the sync engine mutates. All operations are synchronous
// and atomic with respect to each other; the collection performs no
// I/O of its own.
package collection

import "sync"

// Status describes the fetch lifecycle of a collection.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusError
)

// String returns the lowercase status name.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Snapshot is a point-in-time copy of a collection's renderable state,
// the shape handed to UI collaborators.
type Snapshot[E any] struct {
	Entities []E
	Status   Status
	Err      error
	Version  uint64
}

// Collection is an ordered, id-keyed entity mapping for one kind.
// No two entries share an id; ordering is whatever the active fetch
// or the per-kind insert convention established, not server order.
type Collection[E any] struct {
	mu      sync.Mutex
	id      func(E) string
	order   []string
	items   map[string]E
	status  Status
	lastErr error
	version uint64
}

// New creates an empty collection keyed by the given id accessor.
func New[E any](id func(E) string) *Collection[E] {
	return &Collection[E]{
		id:    id,
		items: make(map[string]E),
	}
}

// ReplaceAll swaps the entire contents for the given entities,
// preserving their order, and marks the collection ready.
func (c *Collection[E]) ReplaceAll(entities []E) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order = c.order[:0]
	c.items = make(map[string]E, len(entities))
	for _, e := range entities {
		id := c.id(e)
		if _, dup := c.items[id]; dup {
			continue
		}
		c.order = append(c.order, id)
		c.items[id] = e
	}
	c.status = StatusReady
	c.lastErr = nil
	c.version++
}

// Upsert overwrites the entity by id if present (keeping its position),
// else inserts it at the front (prepend true) or back.
func (c *Collection[E]) Upsert(e E, prepend bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.id(e)
	if _, ok := c.items[id]; ok {
		c.items[id] = e
		c.version++
		return
	}

	if prepend {
		c.order = append([]string{id}, c.order...)
	} else {
		c.order = append(c.order, id)
	}
	c.items[id] = e
	c.version++
}

// InsertAt inserts the entity at the given position, clamped to the
// current bounds. If the id already exists the call degrades to an
// in-place overwrite.
func (c *Collection[E]) InsertAt(e E, index int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.id(e)
	if _, ok := c.items[id]; ok {
		c.items[id] = e
		c.version++
		return
	}

	if index < 0 {
		index = 0
	}
	if index > len(c.order) {
		index = len(c.order)
	}
	c.order = append(c.order, "")
	copy(c.order[index+1:], c.order[index:])
	c.order[index] = id
	c.items[id] = e
	c.version++
}

// Remove deletes the entity by id. Removing an absent id is a no-op,
// not an error: an inbound delete event may arrive after a local
// optimistic delete already dropped the row.
func (c *Collection[E]) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[id]; !ok {
		return
	}
	delete(c.items, id)
	for i, oid := range c.order {
		if oid == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.version++
}

// Rename atomically replaces the entry stored under oldID with the
// given entity (keyed by its own id), keeping the original position.
// If the entity's id is already present (a change-feed echo landed
// before confirmation), the old entry is dropped and the existing one
// overwritten in place. If oldID is absent the entity is appended.
func (c *Collection[E]) Rename(oldID string, e E) {
	c.mu.Lock()
	defer c.mu.Unlock()

	newID := c.id(e)
	if newID == oldID {
		if _, ok := c.items[oldID]; ok {
			c.items[oldID] = e
			c.version++
			return
		}
	}

	if _, exists := c.items[newID]; exists {
		// Keep the existing entry's position; drop the stale one.
		c.items[newID] = e
		if _, ok := c.items[oldID]; ok {
			delete(c.items, oldID)
			for i, oid := range c.order {
				if oid == oldID {
					c.order = append(c.order[:i], c.order[i+1:]...)
					break
				}
			}
		}
		c.version++
		return
	}

	if _, ok := c.items[oldID]; !ok {
		c.order = append(c.order, newID)
		c.items[newID] = e
		c.version++
		return
	}

	delete(c.items, oldID)
	for i, oid := range c.order {
		if oid == oldID {
			c.order[i] = newID
			break
		}
	}
	c.items[newID] = e
	c.version++
}

// Get returns the entity by id.
func (c *Collection[E]) Get(id string) (E, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[id]
	return e, ok
}

// IndexOf returns the position of id in the collection order, or -1.
func (c *Collection[E]) IndexOf(id string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, oid := range c.order {
		if oid == id {
			return i
		}
	}
	return -1
}

// List returns the entities in collection order.
func (c *Collection[E]) List() []E {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]E, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.items[id])
	}
	return out
}

// Len returns the number of entities.
func (c *Collection[E]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.order)
}

// SetStatus updates the fetch status.
func (c *Collection[E]) SetStatus(s Status) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.status = s
	c.version++
}

// SetError records a non-fatal error and flips the status to error.
// The error sticks until the next successful fetch.
func (c *Collection[E]) SetError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastErr = err
	c.status = StatusError
	c.version++
}

// Status returns the current fetch status.
func (c *Collection[E]) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.status
}

// LastError returns the most recent surfaced error, if any.
func (c *Collection[E]) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.lastErr
}

// Version returns the mutation counter. Every mutating call bumps it,
// which is the collection's only side effect; renderers compare
// versions to decide whether to recompute derived views.
func (c *Collection[E]) Version() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.version
}

// Snapshot returns the renderable state in one consistent read.
func (c *Collection[E]) Snapshot() Snapshot[E] {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]E, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.items[id])
	}
	return Snapshot[E]{
		Entities: out,
		Status:   c.status,
		Err:      c.lastErr,
		Version:  c.version,
	}
}
