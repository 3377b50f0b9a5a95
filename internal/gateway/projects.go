package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/planhub/internal/feed"
	"github.com/nhle/planhub/internal/model"
)

// Projects returns the project-typed view over this gateway.
func (s *SQLite) Projects() Gateway[model.Project, model.ProjectPatch] {
	return &sqliteProjects{s}
}

type sqliteProjects struct {
	s *SQLite
}

// FetchAll retrieves projects matching the filter, ordered by sort
// order then name.
func (g *sqliteProjects) FetchAll(ctx context.Context, f Filter) ([]model.Project, error) {
	conditions, args := filterClauses(f, "")
	query := "SELECT * FROM projects" + whereSQL(conditions) +
		" ORDER BY sort_order ASC, name ASC"

	rows, err := g.s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr("fetch projects", err)
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// Insert stores a new project and returns the canonicalized row.
func (g *sqliteProjects) Insert(ctx context.Context, p model.Project) (model.Project, error) {
	if strings.TrimSpace(p.Name) == "" {
		return model.Project{}, &ValidationError{Kind: model.KindProject, Field: "name", Reason: "must not be empty"}
	}
	if p.WorkspaceID == "" {
		return model.Project{}, &ValidationError{Kind: model.KindProject, Field: "workspace_id", Reason: "must not be empty"}
	}

	p.ID = uuid.New().String()
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := g.s.db.ExecContext(ctx, `
		INSERT INTO projects (
			id, workspace_id, name, description, color,
			archived, sort_order, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.WorkspaceID, p.Name, p.Description, p.Color,
		boolToInt(p.Archived), p.SortOrder, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return model.Project{}, storeErr("insert project", err)
	}

	g.s.publish(model.KindProject, feed.OpInsert, p.ID, p, p.UpdatedAt)
	return p, nil
}

// Update applies a partial patch to an existing project.
func (g *sqliteProjects) Update(ctx context.Context, id string, patch model.ProjectPatch) (model.Project, error) {
	cur, err := g.getByID(ctx, id)
	if err != nil {
		return model.Project{}, err
	}

	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return model.Project{}, &ValidationError{Kind: model.KindProject, Field: "name", Reason: "must not be empty"}
	}

	model.ApplyProjectPatch(&cur, patch)
	cur.UpdatedAt = time.Now().UTC()

	result, err := g.s.db.ExecContext(ctx, `
		UPDATE projects SET
			name = ?, description = ?, color = ?,
			archived = ?, sort_order = ?, updated_at = ?
		WHERE id = ?`,
		cur.Name, cur.Description, cur.Color,
		boolToInt(cur.Archived), cur.SortOrder, cur.UpdatedAt,
		id,
	)
	if err != nil {
		return model.Project{}, storeErr("update project", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return model.Project{}, &NotFoundError{Kind: model.KindProject, ID: id}
	}

	g.s.publish(model.KindProject, feed.OpUpdate, id, cur, cur.UpdatedAt)
	return cur, nil
}

// Delete removes a project by id; tasks referencing it fall back to
// the inbox (project_id set NULL by the schema). Idempotent.
func (g *sqliteProjects) Delete(ctx context.Context, id string) error {
	result, err := g.s.db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return storeErr("delete project", err)
	}

	if rows, _ := result.RowsAffected(); rows > 0 {
		g.s.publish(model.KindProject, feed.OpDelete, id, nil, time.Now().UTC())
	}
	return nil
}

func (g *sqliteProjects) getByID(ctx context.Context, id string) (model.Project, error) {
	row := g.s.db.QueryRowxContext(ctx, "SELECT * FROM projects WHERE id = ?", id)
	p, err := scanProject(row)
	if err != nil {
		if isNoRows(err) {
			return model.Project{}, &NotFoundError{Kind: model.KindProject, ID: id}
		}
		return model.Project{}, storeErr("get project", err)
	}
	return p, nil
}

// scanProject scans a project row.
func scanProject(row interface{ Scan(dest ...interface{}) error }) (model.Project, error) {
	var (
		p        model.Project
		archived int
	)

	err := row.Scan(
		&p.ID, &p.WorkspaceID, &p.Name, &p.Description, &p.Color,
		&archived, &p.SortOrder, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return model.Project{}, fmt.Errorf("scanning project row: %w", err)
	}

	p.Archived = archived != 0
	return p, nil
}
