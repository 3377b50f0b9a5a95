// Package gateway defines the boundary to the hosted entity store:
// typed fetch/insert/update/delete per entity kind, predicate filters
// on indexed fields, and the error kinds mutations can fail with.
// Two implementations are provided: an embedded SQLite driver and an
// HTTP/JSON client.
package gateway

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/nhle/planhub/internal/model"
)

// Filter restricts a fetch to entities matching simple predicates on
// indexed fields. Nil fields are not applied.
type Filter struct {
	// Workspace scopes the query to one tenant. Required for fetches.
	Workspace string

	// ID restricts to a single entity (used for targeted re-fetches).
	ID *string

	// Status matches entities with exactly this status.
	Status *string

	// NotStatus excludes entities with this status.
	NotStatus *string

	// DueBefore matches entities due strictly before this instant.
	DueBefore *time.Time

	// DueAfter matches entities due strictly after this instant.
	DueAfter *time.Time

	// Active restricts habits by their active flag.
	Active *bool
}

// Values encodes the filter as URL query parameters for the HTTP
// gateway.
func (f Filter) Values() url.Values {
	v := url.Values{}
	if f.Workspace != "" {
		v.Set("workspace", f.Workspace)
	}
	if f.ID != nil {
		v.Set("id", *f.ID)
	}
	if f.Status != nil {
		v.Set("status", *f.Status)
	}
	if f.NotStatus != nil {
		v.Set("not_status", *f.NotStatus)
	}
	if f.DueBefore != nil {
		v.Set("due_before", f.DueBefore.UTC().Format(time.RFC3339))
	}
	if f.DueAfter != nil {
		v.Set("due_after", f.DueAfter.UTC().Format(time.RFC3339))
	}
	if f.Active != nil {
		v.Set("active", strconv.FormatBool(*f.Active))
	}
	return v
}

// Gateway is the remote store boundary for one entity kind. Each call
// is independent and asynchronous with respect to the collection; no
// batching or cross-call ordering is implied.
//
// Insert returns the server-canonicalized row, including the
// generated id and timestamps. Update fails with a NotFoundError when
// the id no longer exists server-side. Delete is idempotent: deleting
// an already-deleted id succeeds silently.
type Gateway[E, P any] interface {
	FetchAll(ctx context.Context, filter Filter) ([]E, error)
	Insert(ctx context.Context, entity E) (E, error)
	Update(ctx context.Context, id string, patch P) (E, error)
	Delete(ctx context.Context, id string) error
}

// CheckinGateway manages habit checkin child rows, keyed by
// (habit id, calendar day). Delete is idempotent.
type CheckinGateway interface {
	Insert(ctx context.Context, checkin model.Checkin) (model.Checkin, error)
	Delete(ctx context.Context, habitID, date string) error
	FetchForHabit(ctx context.Context, habitID string) ([]model.Checkin, error)
}
