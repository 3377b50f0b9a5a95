package model

import "time"

// Project is a grouping container for related tasks.
type Project struct {
	ID          string    `json:"id" db:"id"`
	WorkspaceID string    `json:"workspace_id" db:"workspace_id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Color       string    `json:"color" db:"color"`
	Archived    bool      `json:"archived" db:"archived"`
	SortOrder   int       `json:"sort_order" db:"sort_order"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// ProjectPatch carries partial field updates for a project.
type ProjectPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Color       *string `json:"color,omitempty"`
	Archived    *bool   `json:"archived,omitempty"`
	SortOrder   *int    `json:"sort_order,omitempty"`
}

// ApplyProjectPatch merges the non-nil fields of p into pr.
func ApplyProjectPatch(pr *Project, p ProjectPatch) {
	if p.Name != nil {
		pr.Name = *p.Name
	}
	if p.Description != nil {
		pr.Description = *p.Description
	}
	if p.Color != nil {
		pr.Color = *p.Color
	}
	if p.Archived != nil {
		pr.Archived = *p.Archived
	}
	if p.SortOrder != nil {
		pr.SortOrder = *p.SortOrder
	}
}
