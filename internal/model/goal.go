package model

import "time"

// Goal status constants.
const (
	GoalStatusActive   = "active"
	GoalStatusAchieved = "achieved"
	GoalStatusArchived = "archived"
)

// Goal is a long-running objective with numeric progress.
type Goal struct {
	ID           string     `json:"id" db:"id"`
	WorkspaceID  string     `json:"workspace_id" db:"workspace_id"`
	Title        string     `json:"title" db:"title"`
	Description  string     `json:"description" db:"description"`
	Status       string     `json:"status" db:"status"`
	TargetValue  float64    `json:"target_value" db:"target_value"`
	CurrentValue float64    `json:"current_value" db:"current_value"`
	TargetDate   *time.Time `json:"target_date,omitempty" db:"target_date"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// Progress returns completion as a fraction in [0, 1].
// A zero target reports 0 to avoid division by zero.
func (g Goal) Progress() float64 {
	if g.TargetValue <= 0 {
		return 0
	}
	p := g.CurrentValue / g.TargetValue
	if p > 1 {
		return 1
	}
	if p < 0 {
		return 0
	}
	return p
}

// GoalPatch carries partial field updates for a goal.
type GoalPatch struct {
	Title        *string    `json:"title,omitempty"`
	Description  *string    `json:"description,omitempty"`
	Status       *string    `json:"status,omitempty"`
	TargetValue  *float64   `json:"target_value,omitempty"`
	CurrentValue *float64   `json:"current_value,omitempty"`
	TargetDate   *time.Time `json:"target_date,omitempty"`
}

// ApplyGoalPatch merges the non-nil fields of p into g.
func ApplyGoalPatch(g *Goal, p GoalPatch) {
	if p.Title != nil {
		g.Title = *p.Title
	}
	if p.Description != nil {
		g.Description = *p.Description
	}
	if p.Status != nil {
		g.Status = *p.Status
	}
	if p.TargetValue != nil {
		g.TargetValue = *p.TargetValue
	}
	if p.CurrentValue != nil {
		g.CurrentValue = *p.CurrentValue
	}
	if p.TargetDate != nil {
		g.TargetDate = p.TargetDate
	}
}
