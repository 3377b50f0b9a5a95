package gateway_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/planhub/internal/feed"
	"github.com/nhle/planhub/internal/gateway"
	"github.com/nhle/planhub/internal/model"
	"github.com/nhle/planhub/tests/testutil"
)

func TestTaskRoundTrip(t *testing.T) {
	t.Parallel()

	s := testutil.NewTestGateway(t)
	tasks := s.Tasks()
	ctx := context.Background()

	created, err := tasks.Insert(ctx, model.Task{
		WorkspaceID: "ws1",
		Title:       "write tests",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, model.TaskStatusOpen, created.Status)
	assert.Equal(t, model.PriorityMedium, created.Priority)
	assert.False(t, created.UpdatedAt.IsZero())

	got, err := tasks.FetchAll(ctx, gateway.Filter{Workspace: "ws1"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, created.ID, got[0].ID)
	assert.Equal(t, "write tests", got[0].Title)
}

func TestTaskInsertValidation(t *testing.T) {
	t.Parallel()

	s := testutil.NewTestGateway(t)
	ctx := context.Background()

	_, err := s.Tasks().Insert(ctx, model.Task{WorkspaceID: "ws1", Title: "   "})
	assert.True(t, gateway.IsValidation(err))

	_, err = s.Tasks().Insert(ctx, model.Task{Title: "no workspace"})
	assert.True(t, gateway.IsValidation(err))
}

func TestTaskUpdateReturnsCanonicalRow(t *testing.T) {
	t.Parallel()

	s := testutil.NewTestGateway(t)
	ctx := context.Background()

	created, err := s.Tasks().Insert(ctx, model.Task{WorkspaceID: "ws1", Title: "initial"})
	require.NoError(t, err)

	done := model.TaskStatusDone
	updated, err := s.Tasks().Update(ctx, created.ID, model.TaskPatch{Status: &done})
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusDone, updated.Status)
	require.NotNil(t, updated.CompletedAt)
	assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))
}

func TestTaskUpdateMissingIsNotFound(t *testing.T) {
	t.Parallel()

	s := testutil.NewTestGateway(t)

	title := "x"
	_, err := s.Tasks().Update(context.Background(), "missing", model.TaskPatch{Title: &title})
	assert.True(t, gateway.IsNotFound(err))
}

func TestTaskDeleteIsIdempotent(t *testing.T) {
	t.Parallel()

	s := testutil.NewTestGateway(t)
	ctx := context.Background()

	created, err := s.Tasks().Insert(ctx, model.Task{WorkspaceID: "ws1", Title: "doomed"})
	require.NoError(t, err)

	require.NoError(t, s.Tasks().Delete(ctx, created.ID))
	require.NoError(t, s.Tasks().Delete(ctx, created.ID))
	require.NoError(t, s.Tasks().Delete(ctx, "never existed"))
}

func TestTaskFilterPredicates(t *testing.T) {
	t.Parallel()

	s := testutil.NewTestGateway(t)
	ctx := context.Background()

	soon := time.Now().UTC().Add(24 * time.Hour)
	later := time.Now().UTC().Add(240 * time.Hour)

	a, err := s.Tasks().Insert(ctx, model.Task{WorkspaceID: "ws1", Title: "due soon", DueDate: &soon})
	require.NoError(t, err)
	_, err = s.Tasks().Insert(ctx, model.Task{WorkspaceID: "ws1", Title: "due later", DueDate: &later})
	require.NoError(t, err)
	_, err = s.Tasks().Insert(ctx, model.Task{WorkspaceID: "ws2", Title: "other tenant"})
	require.NoError(t, err)

	// Workspace scoping.
	got, err := s.Tasks().FetchAll(ctx, gateway.Filter{Workspace: "ws1"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	// Due-date comparison.
	cutoff := time.Now().UTC().Add(48 * time.Hour)
	got, err = s.Tasks().FetchAll(ctx, gateway.Filter{Workspace: "ws1", DueBefore: &cutoff})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, a.ID, got[0].ID)

	// Status exclusion.
	done := model.TaskStatusDone
	_, err = s.Tasks().Update(ctx, a.ID, model.TaskPatch{Status: &done})
	require.NoError(t, err)
	got, err = s.Tasks().FetchAll(ctx, gateway.Filter{Workspace: "ws1", NotStatus: &done})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "due later", got[0].Title)

	// Targeted id fetch.
	got, err = s.Tasks().FetchAll(ctx, gateway.Filter{Workspace: "ws1", ID: &a.ID})
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestWritesPublishChangeEvents(t *testing.T) {
	t.Parallel()

	s := testutil.NewTestGateway(t)
	ctx := context.Background()

	sub, err := s.Feed().Subscribe(model.KindTask)
	require.NoError(t, err)
	defer sub.Close()

	created, err := s.Tasks().Insert(ctx, model.Task{WorkspaceID: "ws1", Title: "observed"})
	require.NoError(t, err)

	ev := recvEvent(t, sub)
	assert.Equal(t, feed.OpInsert, ev.Op)
	assert.Equal(t, created.ID, ev.EntityID)
	assert.NotEmpty(t, ev.ID)
	assert.NotEmpty(t, ev.Payload)

	require.NoError(t, s.Tasks().Delete(ctx, created.ID))
	ev = recvEvent(t, sub)
	assert.Equal(t, feed.OpDelete, ev.Op)
	assert.Equal(t, created.ID, ev.EntityID)
}

func TestProjectRoundTrip(t *testing.T) {
	t.Parallel()

	s := testutil.NewTestGateway(t)
	ctx := context.Background()

	created, err := s.Projects().Insert(ctx, model.Project{WorkspaceID: "ws1", Name: "Home"})
	require.NoError(t, err)

	archived := true
	updated, err := s.Projects().Update(ctx, created.ID, model.ProjectPatch{Archived: &archived})
	require.NoError(t, err)
	assert.True(t, updated.Archived)

	require.NoError(t, s.Projects().Delete(ctx, created.ID))
	got, err := s.Projects().FetchAll(ctx, gateway.Filter{Workspace: "ws1"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGoalRoundTrip(t *testing.T) {
	t.Parallel()

	s := testutil.NewTestGateway(t)
	ctx := context.Background()

	created, err := s.Goals().Insert(ctx, model.Goal{
		WorkspaceID: "ws1",
		Title:       "Read 12 books",
		TargetValue: 12,
	})
	require.NoError(t, err)
	assert.Equal(t, model.GoalStatusActive, created.Status)

	progress := 6.0
	updated, err := s.Goals().Update(ctx, created.ID, model.GoalPatch{CurrentValue: &progress})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, updated.Progress(), 1e-9)
}

func TestHabitCheckinDenormalization(t *testing.T) {
	t.Parallel()

	s := testutil.NewTestGateway(t)
	ctx := context.Background()

	habit, err := s.Habits().Insert(ctx, model.Habit{
		WorkspaceID: "ws1",
		Title:       "stretch",
		Active:      true,
	})
	require.NoError(t, err)
	assert.Empty(t, habit.Checkins)

	_, err = s.Checkins().Insert(ctx, model.Checkin{HabitID: habit.ID, Date: "2026-08-29"})
	require.NoError(t, err)
	_, err = s.Checkins().Insert(ctx, model.Checkin{HabitID: habit.ID, Date: "2026-08-30"})
	require.NoError(t, err)

	// Inserting the same day again is absorbed.
	_, err = s.Checkins().Insert(ctx, model.Checkin{HabitID: habit.ID, Date: "2026-08-30"})
	require.NoError(t, err)

	got, err := s.Habits().FetchAll(ctx, gateway.Filter{Workspace: "ws1"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []string{"2026-08-29", "2026-08-30"}, got[0].Checkins)

	require.NoError(t, s.Checkins().Delete(ctx, habit.ID, "2026-08-29"))
	require.NoError(t, s.Checkins().Delete(ctx, habit.ID, "2026-08-29"))

	rows, err := s.Checkins().FetchForHabit(ctx, habit.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "2026-08-30", rows[0].Date)
}

func TestCheckinWriteTouchesParentHabit(t *testing.T) {
	t.Parallel()

	s := testutil.NewTestGateway(t)
	ctx := context.Background()

	habit, err := s.Habits().Insert(ctx, model.Habit{WorkspaceID: "ws1", Title: "run", Active: true})
	require.NoError(t, err)

	sub, err := s.Feed().Subscribe(model.KindHabit)
	require.NoError(t, err)
	defer sub.Close()

	_, err = s.Checkins().Insert(ctx, model.Checkin{HabitID: habit.ID, Date: "2026-08-30"})
	require.NoError(t, err)

	ev := recvEvent(t, sub)
	assert.Equal(t, feed.OpUpdate, ev.Op)
	assert.Equal(t, habit.ID, ev.EntityID)
	assert.Contains(t, string(ev.Payload), "2026-08-30")
}

func TestCheckinForMissingHabitIsNotFound(t *testing.T) {
	t.Parallel()

	s := testutil.NewTestGateway(t)

	_, err := s.Checkins().Insert(context.Background(), model.Checkin{HabitID: "missing", Date: "2026-08-30"})
	assert.True(t, gateway.IsNotFound(err))
}

func recvEvent(t *testing.T, sub *feed.Subscription) feed.Event {
	t.Helper()

	select {
	case ev := <-sub.Events():
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for change event")
		return feed.Event{}
	}
}
