package model

import (
	"sort"
	"time"
)

// CheckinDateLayout is the calendar-day format used for checkin dates.
const CheckinDateLayout = "2006-01-02"

// Habit is a recurring practice tracked by daily checkins.
// Checkins denormalizes the habit's checkin rows into a set of
// calendar-day strings; it must always be derivable from the
// underlying Checkin rows for this habit.
type Habit struct {
	ID          string    `json:"id" db:"id"`
	WorkspaceID string    `json:"workspace_id" db:"workspace_id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Cadence     string    `json:"cadence" db:"cadence"`
	Active      bool      `json:"active" db:"active"`
	Checkins    []string  `json:"checkins,omitempty" db:"-"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// HasCheckin reports whether the habit has a checkin on the given day.
func (h Habit) HasCheckin(date string) bool {
	for _, d := range h.Checkins {
		if d == date {
			return true
		}
	}
	return false
}

// NormalizeCheckins deduplicates and sorts the checkin dates ascending.
func (h *Habit) NormalizeCheckins() {
	seen := make(map[string]bool, len(h.Checkins))
	out := h.Checkins[:0]
	for _, d := range h.Checkins {
		if seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	sort.Strings(out)
	h.Checkins = out
}

// HabitPatch carries partial field updates for a habit.
// Checkin changes go through the checkin gateway, not the patch.
type HabitPatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Cadence     *string `json:"cadence,omitempty"`
	Active      *bool   `json:"active,omitempty"`
}

// ApplyHabitPatch merges the non-nil fields of p into h.
func ApplyHabitPatch(h *Habit, p HabitPatch) {
	if p.Title != nil {
		h.Title = *p.Title
	}
	if p.Description != nil {
		h.Description = *p.Description
	}
	if p.Cadence != nil {
		h.Cadence = *p.Cadence
	}
	if p.Active != nil {
		h.Active = *p.Active
	}
}

// Checkin is a child row recording completion of a habit on one day.
// Presence of a row for (HabitID, Date) means "completed that day".
type Checkin struct {
	ID          string    `json:"id" db:"id"`
	HabitID     string    `json:"habit_id" db:"habit_id"`
	WorkspaceID string    `json:"workspace_id" db:"workspace_id"`
	Date        string    `json:"date" db:"date"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
