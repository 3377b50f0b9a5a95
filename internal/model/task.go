package model

import "time"

// Task status constants.
const (
	TaskStatusOpen = "open"
	TaskStatusDone = "done"
)

// Normalized priority constants (lower number = higher priority).
const (
	PriorityCritical = 1
	PriorityHigh     = 2
	PriorityMedium   = 3
	PriorityLow      = 4
	PriorityLowest   = 5
)

// Task is a dated work item scoped to a workspace.
type Task struct {
	ID          string     `json:"id" db:"id"`
	WorkspaceID string     `json:"workspace_id" db:"workspace_id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	Status      string     `json:"status" db:"status"`
	Priority    int        `json:"priority" db:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty" db:"due_date"`
	ProjectID   *string    `json:"project_id,omitempty" db:"project_id"`
	SortOrder   int        `json:"sort_order" db:"sort_order"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// TaskPatch carries partial field updates for a task.
// Nil fields are left unchanged.
type TaskPatch struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Status      *string    `json:"status,omitempty"`
	Priority    *int       `json:"priority,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	ProjectID   *string    `json:"project_id,omitempty"`
	SortOrder   *int       `json:"sort_order,omitempty"`
}

// ApplyTaskPatch merges the non-nil fields of p into t.
// Completion timestamps follow the status transition.
func ApplyTaskPatch(t *Task, p TaskPatch) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
		if *p.Status == TaskStatusDone && t.CompletedAt == nil {
			now := time.Now().UTC()
			t.CompletedAt = &now
		} else if *p.Status == TaskStatusOpen {
			t.CompletedAt = nil
		}
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.DueDate != nil {
		t.DueDate = p.DueDate
	}
	if p.ProjectID != nil {
		t.ProjectID = p.ProjectID
	}
	if p.SortOrder != nil {
		t.SortOrder = *p.SortOrder
	}
}
