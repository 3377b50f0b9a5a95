package views_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/planhub/internal/model"
	"github.com/nhle/planhub/internal/views"
)

func TestMatchesConjunction(t *testing.T) {
	t.Parallel()

	task := model.Task{
		Title:    "Write report",
		Status:   model.TaskStatusOpen,
		Priority: model.PriorityHigh,
	}

	f := views.SavedFilter{
		Name: "urgent open",
		Conditions: []views.Condition{
			{Field: "status", Op: views.OpEq, Value: "open"},
			{Field: "priority", Op: views.OpLte, Value: "2"},
		},
	}

	assert.True(t, views.Matches(task, f, views.TaskField))

	task.Priority = model.PriorityLow
	assert.False(t, views.Matches(task, f, views.TaskField))
}

func TestMatchesStringOperators(t *testing.T) {
	t.Parallel()

	task := model.Task{Title: "Buy groceries"}

	contains := views.SavedFilter{Conditions: []views.Condition{
		{Field: "title", Op: views.OpContains, Value: "GROCER"},
	}}
	assert.True(t, views.Matches(task, contains, views.TaskField))

	neq := views.SavedFilter{Conditions: []views.Condition{
		{Field: "title", Op: views.OpNeq, Value: "Buy groceries"},
	}}
	assert.False(t, views.Matches(task, neq, views.TaskField))
}

func TestMatchesDueDateComparison(t *testing.T) {
	t.Parallel()

	due := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	task := model.Task{DueDate: &due}

	before := views.SavedFilter{Conditions: []views.Condition{
		{Field: "due_date", Op: views.OpLt, Value: "2026-09-15"},
	}}
	assert.True(t, views.Matches(task, before, views.TaskField))

	after := views.SavedFilter{Conditions: []views.Condition{
		{Field: "due_date", Op: views.OpGt, Value: "2026-09-15"},
	}}
	assert.False(t, views.Matches(task, after, views.TaskField))
}

func TestMatchesUnsetField(t *testing.T) {
	t.Parallel()

	task := model.Task{}

	unset := views.SavedFilter{Conditions: []views.Condition{
		{Field: "due_date", Op: views.OpEq, Value: ""},
	}}
	assert.True(t, views.Matches(task, unset, views.TaskField))

	set := views.SavedFilter{Conditions: []views.Condition{
		{Field: "due_date", Op: views.OpLt, Value: "2026-09-15"},
	}}
	assert.False(t, views.Matches(task, set, views.TaskField))
}

func TestMatchesUnknownFieldFails(t *testing.T) {
	t.Parallel()

	f := views.SavedFilter{Conditions: []views.Condition{
		{Field: "nonsense", Op: views.OpEq, Value: "x"},
	}}
	assert.False(t, views.Matches(model.Task{}, f, views.TaskField))
}

func TestApplyPreservesOrder(t *testing.T) {
	t.Parallel()

	tasks := []model.Task{
		{ID: "a", Status: model.TaskStatusOpen},
		{ID: "b", Status: model.TaskStatusDone},
		{ID: "c", Status: model.TaskStatusOpen},
	}

	f := views.SavedFilter{Conditions: []views.Condition{
		{Field: "status", Op: views.OpEq, Value: "open"},
	}}

	got := views.Apply(tasks, f, views.TaskField)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "c", got[1].ID)
}
