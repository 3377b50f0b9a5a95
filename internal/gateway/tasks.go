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

// Tasks returns the task-typed view over this gateway.
func (s *SQLite) Tasks() Gateway[model.Task, model.TaskPatch] {
	return &sqliteTasks{s}
}

type sqliteTasks struct {
	s *SQLite
}

// FetchAll retrieves tasks matching the filter, newest first within
// their sort order.
func (g *sqliteTasks) FetchAll(ctx context.Context, f Filter) ([]model.Task, error) {
	conditions, args := filterClauses(f, "due_date")
	query := "SELECT * FROM tasks" + whereSQL(conditions) +
		" ORDER BY sort_order ASC, created_at DESC"

	rows, err := g.s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr("fetch tasks", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// Insert stores a new task and returns the canonicalized row with the
// server-assigned id and timestamps.
func (g *sqliteTasks) Insert(ctx context.Context, t model.Task) (model.Task, error) {
	if strings.TrimSpace(t.Title) == "" {
		return model.Task{}, &ValidationError{Kind: model.KindTask, Field: "title", Reason: "must not be empty"}
	}
	if t.WorkspaceID == "" {
		return model.Task{}, &ValidationError{Kind: model.KindTask, Field: "workspace_id", Reason: "must not be empty"}
	}

	// Canonicalize: the store owns ids and timestamps.
	t.ID = uuid.New().String()
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	if t.Status == "" {
		t.Status = model.TaskStatusOpen
	}
	if t.Priority < 1 || t.Priority > 5 {
		t.Priority = model.PriorityMedium
	}

	_, err := g.s.db.ExecContext(ctx, `
		INSERT INTO tasks (
			id, workspace_id, title, description, status, priority,
			due_date, project_id, sort_order,
			created_at, completed_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.WorkspaceID, t.Title, t.Description, t.Status, t.Priority,
		t.DueDate, t.ProjectID, t.SortOrder,
		t.CreatedAt, t.CompletedAt, t.UpdatedAt,
	)
	if err != nil {
		return model.Task{}, storeErr("insert task", err)
	}

	g.s.publish(model.KindTask, feed.OpInsert, t.ID, t, t.UpdatedAt)
	return t, nil
}

// Update applies a partial patch to an existing task and returns the
// canonical post-update row.
func (g *sqliteTasks) Update(ctx context.Context, id string, p model.TaskPatch) (model.Task, error) {
	cur, err := g.getByID(ctx, id)
	if err != nil {
		return model.Task{}, err
	}

	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return model.Task{}, &ValidationError{Kind: model.KindTask, Field: "title", Reason: "must not be empty"}
	}

	model.ApplyTaskPatch(&cur, p)
	cur.UpdatedAt = time.Now().UTC()

	result, err := g.s.db.ExecContext(ctx, `
		UPDATE tasks SET
			title = ?, description = ?, status = ?, priority = ?,
			due_date = ?, project_id = ?, sort_order = ?,
			completed_at = ?, updated_at = ?
		WHERE id = ?`,
		cur.Title, cur.Description, cur.Status, cur.Priority,
		cur.DueDate, cur.ProjectID, cur.SortOrder,
		cur.CompletedAt, cur.UpdatedAt,
		id,
	)
	if err != nil {
		return model.Task{}, storeErr("update task", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return model.Task{}, &NotFoundError{Kind: model.KindTask, ID: id}
	}

	g.s.publish(model.KindTask, feed.OpUpdate, id, cur, cur.UpdatedAt)
	return cur, nil
}

// Delete removes a task by id. Deleting an absent id succeeds
// silently.
func (g *sqliteTasks) Delete(ctx context.Context, id string) error {
	result, err := g.s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return storeErr("delete task", err)
	}

	if rows, _ := result.RowsAffected(); rows > 0 {
		g.s.publish(model.KindTask, feed.OpDelete, id, nil, time.Now().UTC())
	}
	return nil
}

// getByID fetches a single task row.
func (g *sqliteTasks) getByID(ctx context.Context, id string) (model.Task, error) {
	row := g.s.db.QueryRowxContext(ctx, "SELECT * FROM tasks WHERE id = ?", id)
	t, err := scanTask(row)
	if err != nil {
		if isNoRows(err) {
			return model.Task{}, &NotFoundError{Kind: model.KindTask, ID: id}
		}
		return model.Task{}, storeErr("get task", err)
	}
	return t, nil
}

// scanTask scans a task row.
func scanTask(row interface{ Scan(dest ...interface{}) error }) (model.Task, error) {
	var (
		t           model.Task
		dueDate     *time.Time
		completedAt *time.Time
		projectID   *string
	)

	err := row.Scan(
		&t.ID, &t.WorkspaceID, &t.Title, &t.Description, &t.Status, &t.Priority,
		&dueDate, &projectID, &t.SortOrder,
		&t.CreatedAt, &completedAt, &t.UpdatedAt,
	)
	if err != nil {
		return model.Task{}, fmt.Errorf("scanning task row: %w", err)
	}

	t.DueDate = dueDate
	t.CompletedAt = completedAt
	t.ProjectID = projectID
	return t, nil
}
