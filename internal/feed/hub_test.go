package feed_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/planhub/internal/feed"
	"github.com/nhle/planhub/internal/model"
)

func TestHubFanOutByKind(t *testing.T) {
	t.Parallel()

	hub := feed.NewHub(8)
	defer hub.Close()

	tasks, err := hub.Subscribe(model.KindTask)
	require.NoError(t, err)
	projects, err := hub.Subscribe(model.KindProject)
	require.NoError(t, err)

	hub.Publish(feed.Event{Kind: model.KindTask, Op: feed.OpInsert, EntityID: "t1"})

	ev := recv(t, tasks)
	assert.Equal(t, "t1", ev.EntityID)
	assert.NotEmpty(t, ev.ID)

	select {
	case ev := <-projects.Events():
		t.Fatalf("project subscriber received task event %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubMultipleSubscribersSameKind(t *testing.T) {
	t.Parallel()

	hub := feed.NewHub(8)
	defer hub.Close()

	a, err := hub.Subscribe(model.KindTask)
	require.NoError(t, err)
	b, err := hub.Subscribe(model.KindTask)
	require.NoError(t, err)

	hub.Publish(feed.Event{Kind: model.KindTask, Op: feed.OpUpdate, EntityID: "t1"})

	assert.Equal(t, "t1", recv(t, a).EntityID)
	assert.Equal(t, "t1", recv(t, b).EntityID)
}

func TestHubSlowSubscriberMissesEvents(t *testing.T) {
	t.Parallel()

	hub := feed.NewHub(1)
	defer hub.Close()

	sub, err := hub.Subscribe(model.KindTask)
	require.NoError(t, err)

	hub.Publish(feed.Event{Kind: model.KindTask, Op: feed.OpInsert, EntityID: "kept"})
	hub.Publish(feed.Event{Kind: model.KindTask, Op: feed.OpInsert, EntityID: "dropped"})

	assert.Equal(t, "kept", recv(t, sub).EntityID)

	select {
	case ev := <-sub.Events():
		t.Fatalf("expected overflow event to be dropped, got %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubscriptionCloseStopsDelivery(t *testing.T) {
	t.Parallel()

	hub := feed.NewHub(8)
	defer hub.Close()

	sub, err := hub.Subscribe(model.KindTask)
	require.NoError(t, err)
	sub.Close()
	sub.Close()

	hub.Publish(feed.Event{Kind: model.KindTask, Op: feed.OpInsert, EntityID: "t1"})

	_, open := <-sub.Events()
	assert.False(t, open)
}

func TestHubCloseTerminatesSubscriptions(t *testing.T) {
	t.Parallel()

	hub := feed.NewHub(8)
	sub, err := hub.Subscribe(model.KindTask)
	require.NoError(t, err)

	hub.Close()

	_, open := <-sub.Events()
	assert.False(t, open)

	// Subscribing after close yields an already-terminated stream.
	late, err := hub.Subscribe(model.KindGoal)
	require.NoError(t, err)
	_, open = <-late.Events()
	assert.False(t, open)
}

func recv(t *testing.T, sub *feed.Subscription) feed.Event {
	t.Helper()

	select {
	case ev := <-sub.Events():
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return feed.Event{}
	}
}
