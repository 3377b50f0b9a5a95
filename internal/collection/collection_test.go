package collection_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/planhub/internal/collection"
)

type item struct {
	ID    string
	Title string
}

func newCol() *collection.Collection[item] {
	return collection.New(func(i item) string { return i.ID })
}

func ids(items []item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestReplaceAllMarksReady(t *testing.T) {
	t.Parallel()

	c := newCol()
	require.Equal(t, collection.StatusIdle, c.Status())

	c.ReplaceAll([]item{{ID: "a"}, {ID: "b"}})

	assert.Equal(t, collection.StatusReady, c.Status())
	assert.Equal(t, []string{"a", "b"}, ids(c.List()))
	assert.NoError(t, c.LastError())
}

func TestUpsertPrependAndAppend(t *testing.T) {
	t.Parallel()

	c := newCol()
	c.ReplaceAll([]item{{ID: "a"}})

	c.Upsert(item{ID: "b"}, true)
	c.Upsert(item{ID: "c"}, false)

	assert.Equal(t, []string{"b", "a", "c"}, ids(c.List()))
}

func TestUpsertIsIdempotentAndKeepsPosition(t *testing.T) {
	t.Parallel()

	c := newCol()
	c.ReplaceAll([]item{{ID: "a", Title: "one"}, {ID: "b", Title: "two"}})

	c.Upsert(item{ID: "a", Title: "updated"}, true)
	c.Upsert(item{ID: "a", Title: "updated"}, true)

	require.Equal(t, 2, c.Len())
	assert.Equal(t, []string{"a", "b"}, ids(c.List()))
	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "updated", got.Title)
}

func TestRemoveAbsentIsNoOp(t *testing.T) {
	t.Parallel()

	c := newCol()
	c.ReplaceAll([]item{{ID: "a"}})

	c.Remove("missing")
	c.Remove("a")
	c.Remove("a")

	assert.Equal(t, 0, c.Len())
}

func TestInsertAtRestoresPosition(t *testing.T) {
	t.Parallel()

	c := newCol()
	c.ReplaceAll([]item{{ID: "a"}, {ID: "b"}, {ID: "c"}})

	c.Remove("b")
	c.InsertAt(item{ID: "b"}, 1)

	assert.Equal(t, []string{"a", "b", "c"}, ids(c.List()))

	// Out-of-range positions clamp.
	c.Remove("c")
	c.InsertAt(item{ID: "c"}, 99)
	assert.Equal(t, []string{"a", "b", "c"}, ids(c.List()))
}

func TestRenameSwapsIDInPlace(t *testing.T) {
	t.Parallel()

	c := newCol()
	c.ReplaceAll([]item{{ID: "a"}, {ID: "local-1"}, {ID: "c"}})

	c.Rename("local-1", item{ID: "srv-9", Title: "confirmed"})

	assert.Equal(t, []string{"a", "srv-9", "c"}, ids(c.List()))
	_, ok := c.Get("local-1")
	assert.False(t, ok)
	got, ok := c.Get("srv-9")
	require.True(t, ok)
	assert.Equal(t, "confirmed", got.Title)
}

func TestRenameMergesWhenServerIDAlreadyArrived(t *testing.T) {
	t.Parallel()

	c := newCol()
	// A feed echo landed before the create confirmation.
	c.ReplaceAll([]item{{ID: "local-1", Title: "draft"}, {ID: "srv-9", Title: "echo"}})

	c.Rename("local-1", item{ID: "srv-9", Title: "confirmed"})

	require.Equal(t, 1, c.Len())
	got, ok := c.Get("srv-9")
	require.True(t, ok)
	assert.Equal(t, "confirmed", got.Title)
}

func TestVersionBumpsOnEveryMutation(t *testing.T) {
	t.Parallel()

	c := newCol()
	v0 := c.Version()

	c.Upsert(item{ID: "a"}, false)
	v1 := c.Version()
	assert.Greater(t, v1, v0)

	c.Remove("a")
	assert.Greater(t, c.Version(), v1)
}

func TestSetErrorSticksUntilNextFetch(t *testing.T) {
	t.Parallel()

	c := newCol()
	boom := errors.New("boom")
	c.SetError(boom)

	assert.Equal(t, collection.StatusError, c.Status())
	assert.ErrorIs(t, c.LastError(), boom)

	c.ReplaceAll([]item{{ID: "a"}})
	assert.Equal(t, collection.StatusReady, c.Status())
	assert.NoError(t, c.LastError())
}

func TestSnapshotIsConsistent(t *testing.T) {
	t.Parallel()

	c := newCol()
	c.ReplaceAll([]item{{ID: "a"}, {ID: "b"}})

	snap := c.Snapshot()
	assert.Equal(t, []string{"a", "b"}, ids(snap.Entities))
	assert.Equal(t, collection.StatusReady, snap.Status)
	assert.Equal(t, c.Version(), snap.Version)
}
