// Package views computes read-only projections over entity
// collections: status partitions, due-date buckets, project grouping,
// habit streaks, and saved-filter evaluation. Every function is a pure
// function of its inputs and holds no state of its own.
package views

import (
	"time"

	"github.com/nhle/planhub/internal/model"
)

// Bucket classifies a task's due date relative to "today".
type Bucket string

const (
	BucketOverdue  Bucket = "overdue"
	BucketToday    Bucket = "today"
	BucketUpcoming Bucket = "upcoming"
	BucketNone     Bucket = "none"
)

// InboxGroup is the grouping key for tasks with no project.
const InboxGroup = "inbox"

// upcomingWindow is how far ahead a due date still counts as
// "upcoming" rather than unscheduled noise.
const upcomingWindow = 7

// PartitionByStatus splits tasks into open and done, preserving
// collection order within each partition.
func PartitionByStatus(tasks []model.Task) (open, done []model.Task) {
	for _, t := range tasks {
		if t.Status == model.TaskStatusDone {
			done = append(done, t)
		} else {
			open = append(open, t)
		}
	}
	return open, done
}

// DueBucket classifies a single due date against now. Completed-ness
// is not considered; callers partition first if they need it.
func DueBucket(due *time.Time, now time.Time) Bucket {
	if due == nil {
		return BucketNone
	}

	day := func(t time.Time) time.Time {
		y, m, d := t.Local().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
	}

	today := day(now)
	dueDay := day(*due)

	switch {
	case dueDay.Before(today):
		return BucketOverdue
	case dueDay.Equal(today):
		return BucketToday
	case dueDay.Before(today.AddDate(0, 0, upcomingWindow)):
		return BucketUpcoming
	default:
		return BucketNone
	}
}

// BucketByDue groups tasks by their due-date relationship to now.
func BucketByDue(tasks []model.Task, now time.Time) map[Bucket][]model.Task {
	out := make(map[Bucket][]model.Task)
	for _, t := range tasks {
		b := DueBucket(t.DueDate, now)
		out[b] = append(out[b], t)
	}
	return out
}

// GroupByProject groups tasks by project id; tasks without a project
// land in the inbox group.
func GroupByProject(tasks []model.Task) map[string][]model.Task {
	out := make(map[string][]model.Task)
	for _, t := range tasks {
		key := InboxGroup
		if t.ProjectID != nil && *t.ProjectID != "" {
			key = *t.ProjectID
		}
		out[key] = append(out[key], t)
	}
	return out
}

// ActiveHabits returns the habits currently being tracked, in
// collection order.
func ActiveHabits(habits []model.Habit) []model.Habit {
	var out []model.Habit
	for _, h := range habits {
		if h.Active {
			out = append(out, h)
		}
	}
	return out
}

// ActiveGoals returns goals still in progress, in collection order.
func ActiveGoals(goals []model.Goal) []model.Goal {
	var out []model.Goal
	for _, g := range goals {
		if g.Status == model.GoalStatusActive {
			out = append(out, g)
		}
	}
	return out
}
