// Package engine implements the optimistic mutation coordinator: one
// generic engine per entity kind that applies mutations to the local
// collection immediately, dispatches the remote write, reconciles
// success and failure, and merges inbound change-feed events.
package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/nhle/planhub/internal/model"
)

// Schema carries the per-kind hooks the generic engine is
// parameterized with: identity access, staleness timestamps, local
// patch application, and the insert-ordering convention.
type Schema[E, P any] struct {
	// Kind names the entity type for feed subscriptions and errors.
	Kind model.Kind

	// ID returns the entity's identifier.
	ID func(E) string

	// SetID rewrites the entity's identifier (temp-id synthesis and
	// the confirm-time swap to the server id).
	SetID func(*E, string)

	// UpdatedAt returns the staleness timestamp.
	UpdatedAt func(E) time.Time

	// SetUpdatedAt stamps the placeholder timestamp on an optimistic
	// local apply.
	SetUpdatedAt func(*E, time.Time)

	// Apply merges a partial patch into the entity locally, mirroring
	// what the server will do on the remote write.
	Apply func(*E, P)

	// PrependNew controls where freshly inserted entities land:
	// true prepends (newest first), false appends.
	PrependNew bool
}

// NewTempID synthesizes a temporary client-side id for an optimistic
// insert.
func NewTempID() string {
	return model.LocalIDPrefix + uuid.New().String()
}

// TaskSchema returns the task parameterization.
func TaskSchema() Schema[model.Task, model.TaskPatch] {
	return Schema[model.Task, model.TaskPatch]{
		Kind:         model.KindTask,
		ID:           func(t model.Task) string { return t.ID },
		SetID:        func(t *model.Task, id string) { t.ID = id },
		UpdatedAt:    func(t model.Task) time.Time { return t.UpdatedAt },
		SetUpdatedAt: func(t *model.Task, at time.Time) { t.UpdatedAt = at },
		Apply:        model.ApplyTaskPatch,
		PrependNew:   true,
	}
}

// ProjectSchema returns the project parameterization.
func ProjectSchema() Schema[model.Project, model.ProjectPatch] {
	return Schema[model.Project, model.ProjectPatch]{
		Kind:         model.KindProject,
		ID:           func(p model.Project) string { return p.ID },
		SetID:        func(p *model.Project, id string) { p.ID = id },
		UpdatedAt:    func(p model.Project) time.Time { return p.UpdatedAt },
		SetUpdatedAt: func(p *model.Project, at time.Time) { p.UpdatedAt = at },
		Apply:        model.ApplyProjectPatch,
		PrependNew:   false,
	}
}

// GoalSchema returns the goal parameterization.
func GoalSchema() Schema[model.Goal, model.GoalPatch] {
	return Schema[model.Goal, model.GoalPatch]{
		Kind:         model.KindGoal,
		ID:           func(g model.Goal) string { return g.ID },
		SetID:        func(g *model.Goal, id string) { g.ID = id },
		UpdatedAt:    func(g model.Goal) time.Time { return g.UpdatedAt },
		SetUpdatedAt: func(g *model.Goal, at time.Time) { g.UpdatedAt = at },
		Apply:        model.ApplyGoalPatch,
		PrependNew:   true,
	}
}

// HabitSchema returns the habit parameterization.
func HabitSchema() Schema[model.Habit, model.HabitPatch] {
	return Schema[model.Habit, model.HabitPatch]{
		Kind:         model.KindHabit,
		ID:           func(h model.Habit) string { return h.ID },
		SetID:        func(h *model.Habit, id string) { h.ID = id },
		UpdatedAt:    func(h model.Habit) time.Time { return h.UpdatedAt },
		SetUpdatedAt: func(h *model.Habit, at time.Time) { h.UpdatedAt = at },
		Apply:        model.ApplyHabitPatch,
		PrependNew:   false,
	}
}
