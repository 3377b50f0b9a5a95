package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nhle/planhub/internal/collection"
	"github.com/nhle/planhub/internal/feed"
	"github.com/nhle/planhub/internal/gateway"
	"github.com/nhle/planhub/internal/model"
)

// Engine coordinates optimistic mutations for one entity kind. Every
// action mutates the collection synchronously before the remote write
// is dispatched, rolls back on failure, and surfaces the error both
// as its return value and on the collection's LastError. Actions
// never panic across the boundary.
//
// Multiple in-flight writes for the same entity are permitted; a
// per-entity local sequence resolves them as "last local apply wins",
// so a stale confirmation or rollback never clobbers a newer local
// intent.
type Engine[E, P any] struct {
	schema Schema[E, P]
	gw     gateway.Gateway[E, P]
	col    *collection.Collection[E]
	filter gateway.Filter

	mu       sync.Mutex
	seq      map[string]uint64
	inflight map[string]int
	aliases  map[string]string
}

// New creates an engine for one entity kind over the given gateway
// and fetch filter.
func New[E, P any](schema Schema[E, P], gw gateway.Gateway[E, P], filter gateway.Filter) *Engine[E, P] {
	return &Engine[E, P]{
		schema:   schema,
		gw:       gw,
		col:      collection.New(schema.ID),
		filter:   filter,
		seq:      make(map[string]uint64),
		inflight: make(map[string]int),
		aliases:  make(map[string]string),
	}
}

// Collection exposes the engine's entity collection for rendering.
func (e *Engine[E, P]) Collection() *collection.Collection[E] {
	return e.col
}

// Load fetches the collection's contents from the gateway, replacing
// whatever is held locally.
func (e *Engine[E, P]) Load(ctx context.Context) error {
	e.col.SetStatus(collection.StatusLoading)

	entities, err := e.gw.FetchAll(ctx, e.filter)
	if err != nil {
		e.col.SetError(fmt.Errorf("loading %ss: %w", e.schema.Kind, err))
		return err
	}

	e.col.ReplaceAll(entities)
	return nil
}

// Add inserts the entity optimistically under a synthesized temporary
// id, dispatches the remote insert, and on success atomically swaps
// the temporary id for the server-assigned one. On failure the
// temporary entity is removed entirely.
func (e *Engine[E, P]) Add(ctx context.Context, entity E) (E, error) {
	var zero E

	tempID := NewTempID()
	e.schema.SetID(&entity, tempID)
	e.schema.SetUpdatedAt(&entity, time.Now().UTC())

	e.bumpSeq(tempID)
	e.beginWrite(tempID)
	e.col.Upsert(entity, e.schema.PrependNew)

	canonical, err := e.gw.Insert(ctx, entity)
	e.endWrite(tempID)
	if err != nil {
		e.col.Remove(tempID)
		e.col.SetError(err)
		return zero, err
	}

	serverID := e.schema.ID(canonical)
	e.adopt(tempID, serverID)
	e.col.Rename(tempID, canonical)
	return canonical, nil
}

// Update merges the patch into the local entity immediately, then
// dispatches the remote write. On failure the pre-mutation snapshot
// is restored verbatim, every field, unless a newer local mutation has
// superseded this one.
func (e *Engine[E, P]) Update(ctx context.Context, id string, patch P) (E, error) {
	var zero E

	id = e.Resolve(id)
	snapshot, ok := e.col.Get(id)
	if !ok {
		err := fmt.Errorf("%s %s not present locally", e.schema.Kind, id)
		e.col.SetError(err)
		return zero, err
	}

	next := snapshot
	e.schema.Apply(&next, patch)
	e.schema.SetUpdatedAt(&next, time.Now().UTC())

	mySeq := e.bumpSeq(id)
	e.beginWrite(id)
	e.col.Upsert(next, e.schema.PrependNew)

	canonical, err := e.gw.Update(ctx, id, patch)
	e.endWrite(id)
	if err != nil {
		if e.seqIs(id, mySeq) {
			e.col.Upsert(snapshot, e.schema.PrependNew)
		}
		e.col.SetError(err)
		return zero, err
	}

	// A newer local apply wins over this confirmation.
	if e.seqIs(id, mySeq) {
		e.col.Upsert(canonical, e.schema.PrependNew)
	}
	return canonical, nil
}

// Remove deletes the entity locally, dispatches the remote delete,
// and on failure re-inserts the snapshot at its original position.
// Removing an id that is not held locally is a no-op.
func (e *Engine[E, P]) Remove(ctx context.Context, id string) error {
	id = e.Resolve(id)
	snapshot, ok := e.col.Get(id)
	if !ok {
		return nil
	}
	index := e.col.IndexOf(id)

	mySeq := e.bumpSeq(id)
	e.beginWrite(id)
	e.col.Remove(id)

	err := e.gw.Delete(ctx, id)
	e.endWrite(id)
	if err != nil {
		if e.seqIs(id, mySeq) {
			e.col.InsertAt(snapshot, index)
		}
		e.col.SetError(err)
		return err
	}
	return nil
}

// Resolve maps a temporary id to the server id it was confirmed as.
// Ids with no alias pass through unchanged, so callers can hold an id
// across an in-flight create and keep addressing the same entity.
func (e *Engine[E, P]) Resolve(id string) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	for {
		next, ok := e.aliases[id]
		if !ok {
			return id
		}
		id = next
	}
}

// Run attaches a change-feed subscription for this engine's kind and
// merges events in arrival order until ctx is cancelled or the feed
// shuts down. One subscription is held per engine; the subscription
// is closed on return so handlers never leak across navigation.
func (e *Engine[E, P]) Run(ctx context.Context, f feed.Feed) error {
	sub, err := f.Subscribe(e.schema.Kind)
	if err != nil {
		return fmt.Errorf("subscribing to %s feed: %w", e.schema.Kind, err)
	}
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-sub.Events():
			if !ok {
				return nil
			}
			e.ApplyEvent(ev)
		}
	}
}

// ApplyEvent merges a single inbound change event into the
// collection. Inserts and updates are authoritative upserts, except
// that an event must not overwrite an entity with a pending local
// write of newer intent: while a write is in flight, events whose
// timestamp is not newer than the local copy's are discarded.
// Deletes are removed unconditionally. No event ever triggers an
// outbound write.
func (e *Engine[E, P]) ApplyEvent(ev feed.Event) {
	if ev.Kind != e.schema.Kind {
		return
	}

	switch ev.Op {
	case feed.OpDelete:
		e.col.Remove(ev.EntityID)

	case feed.OpInsert, feed.OpUpdate:
		var entity E
		if err := json.Unmarshal(ev.Payload, &entity); err != nil {
			return
		}
		id := e.schema.ID(entity)

		if e.writePending(id) {
			if cur, ok := e.col.Get(id); ok &&
				!e.schema.UpdatedAt(entity).After(e.schema.UpdatedAt(cur)) {
				return
			}
		}
		e.col.Upsert(entity, e.schema.PrependNew)
	}
}

// Kind returns the entity kind this engine coordinates.
func (e *Engine[E, P]) Kind() model.Kind {
	return e.schema.Kind
}

// bumpSeq advances the entity's local mutation sequence and returns
// the new value.
func (e *Engine[E, P]) bumpSeq(id string) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	id = e.resolveLocked(id)
	e.seq[id]++
	return e.seq[id]
}

// seqIs reports whether the entity's sequence still matches s, i.e.
// no newer local mutation has been applied since.
func (e *Engine[E, P]) seqIs(id string, s uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.seq[e.resolveLocked(id)] == s
}

// beginWrite and endWrite bracket an in-flight remote write for the
// staleness guard.
func (e *Engine[E, P]) beginWrite(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id = e.resolveLocked(id)
	e.inflight[id]++
}

func (e *Engine[E, P]) endWrite(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id = e.resolveLocked(id)
	if e.inflight[id] <= 1 {
		delete(e.inflight, id)
		return
	}
	e.inflight[id]--
}

// writePending reports whether any remote write is in flight for id.
func (e *Engine[E, P]) writePending(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.inflight[e.resolveLocked(id)] > 0
}

// adopt records the temp id's server alias and migrates per-entity
// bookkeeping to the server id.
func (e *Engine[E, P]) adopt(tempID, serverID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if tempID == serverID {
		return
	}
	e.aliases[tempID] = serverID
	if n, ok := e.seq[tempID]; ok {
		e.seq[serverID] += n
		delete(e.seq, tempID)
	}
	if n, ok := e.inflight[tempID]; ok {
		e.inflight[serverID] += n
		delete(e.inflight, tempID)
	}
}

// resolveLocked follows alias chains; callers must hold e.mu.
func (e *Engine[E, P]) resolveLocked(id string) string {
	for {
		next, ok := e.aliases[id]
		if !ok {
			return id
		}
		id = next
	}
}
