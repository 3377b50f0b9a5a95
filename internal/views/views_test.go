package views_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/planhub/internal/model"
	"github.com/nhle/planhub/internal/views"
)

func datePtr(t time.Time) *time.Time { return &t }

func strPtr(s string) *string { return &s }

func TestPartitionByStatus(t *testing.T) {
	t.Parallel()

	tasks := []model.Task{
		{ID: "a", Status: model.TaskStatusOpen},
		{ID: "b", Status: model.TaskStatusDone},
		{ID: "c", Status: model.TaskStatusOpen},
	}

	open, done := views.PartitionByStatus(tasks)
	require.Len(t, open, 2)
	require.Len(t, done, 1)
	assert.Equal(t, "a", open[0].ID)
	assert.Equal(t, "c", open[1].ID)
	assert.Equal(t, "b", done[0].ID)
}

func TestDueBucket(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.Local)

	tests := []struct {
		name string
		due  *time.Time
		want views.Bucket
	}{
		{"no due date", nil, views.BucketNone},
		{"yesterday", datePtr(now.AddDate(0, 0, -1)), views.BucketOverdue},
		{"earlier today", datePtr(now.Add(-3 * time.Hour)), views.BucketToday},
		{"later today", datePtr(now.Add(3 * time.Hour)), views.BucketToday},
		{"tomorrow", datePtr(now.AddDate(0, 0, 1)), views.BucketUpcoming},
		{"six days out", datePtr(now.AddDate(0, 0, 6)), views.BucketUpcoming},
		{"two weeks out", datePtr(now.AddDate(0, 0, 14)), views.BucketNone},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, views.DueBucket(tt.due, now))
		})
	}
}

func TestBucketByDue(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.Local)
	tasks := []model.Task{
		{ID: "a", DueDate: datePtr(now.AddDate(0, 0, -2))},
		{ID: "b", DueDate: datePtr(now)},
		{ID: "c"},
	}

	buckets := views.BucketByDue(tasks, now)
	assert.Len(t, buckets[views.BucketOverdue], 1)
	assert.Len(t, buckets[views.BucketToday], 1)
	assert.Len(t, buckets[views.BucketNone], 1)
}

func TestGroupByProject(t *testing.T) {
	t.Parallel()

	tasks := []model.Task{
		{ID: "a", ProjectID: strPtr("p1")},
		{ID: "b"},
		{ID: "c", ProjectID: strPtr("p1")},
		{ID: "d", ProjectID: strPtr("")},
	}

	groups := views.GroupByProject(tasks)
	assert.Len(t, groups["p1"], 2)
	assert.Len(t, groups[views.InboxGroup], 2)
}

func TestActiveHabitsAndGoals(t *testing.T) {
	t.Parallel()

	habits := []model.Habit{
		{ID: "h1", Active: true},
		{ID: "h2", Active: false},
	}
	require.Len(t, views.ActiveHabits(habits), 1)

	goals := []model.Goal{
		{ID: "g1", Status: model.GoalStatusActive},
		{ID: "g2", Status: model.GoalStatusAchieved},
	}
	require.Len(t, views.ActiveGoals(goals), 1)
}

func TestViewsAreReferentiallyTransparent(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.Local)
	tasks := []model.Task{
		{ID: "a", Status: model.TaskStatusOpen, DueDate: datePtr(now)},
		{ID: "b", Status: model.TaskStatusDone},
	}

	first := views.BucketByDue(tasks, now)
	second := views.BucketByDue(tasks, now)
	assert.Equal(t, first, second)
}
