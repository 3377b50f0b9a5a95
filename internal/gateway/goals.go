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

// Goals returns the goal-typed view over this gateway.
func (s *SQLite) Goals() Gateway[model.Goal, model.GoalPatch] {
	return &sqliteGoals{s}
}

type sqliteGoals struct {
	s *SQLite
}

// FetchAll retrieves goals matching the filter, newest first.
func (g *sqliteGoals) FetchAll(ctx context.Context, f Filter) ([]model.Goal, error) {
	conditions, args := filterClauses(f, "target_date")
	query := "SELECT * FROM goals" + whereSQL(conditions) +
		" ORDER BY created_at DESC"

	rows, err := g.s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr("fetch goals", err)
	}
	defer rows.Close()

	var goals []model.Goal
	for rows.Next() {
		goal, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, goal)
	}
	return goals, rows.Err()
}

// Insert stores a new goal and returns the canonicalized row.
func (g *sqliteGoals) Insert(ctx context.Context, goal model.Goal) (model.Goal, error) {
	if strings.TrimSpace(goal.Title) == "" {
		return model.Goal{}, &ValidationError{Kind: model.KindGoal, Field: "title", Reason: "must not be empty"}
	}
	if goal.WorkspaceID == "" {
		return model.Goal{}, &ValidationError{Kind: model.KindGoal, Field: "workspace_id", Reason: "must not be empty"}
	}
	if goal.TargetValue < 0 {
		return model.Goal{}, &ValidationError{Kind: model.KindGoal, Field: "target_value", Reason: "must not be negative"}
	}

	goal.ID = uuid.New().String()
	now := time.Now().UTC()
	goal.CreatedAt = now
	goal.UpdatedAt = now
	if goal.Status == "" {
		goal.Status = model.GoalStatusActive
	}

	_, err := g.s.db.ExecContext(ctx, `
		INSERT INTO goals (
			id, workspace_id, title, description, status,
			target_value, current_value, target_date,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		goal.ID, goal.WorkspaceID, goal.Title, goal.Description, goal.Status,
		goal.TargetValue, goal.CurrentValue, goal.TargetDate,
		goal.CreatedAt, goal.UpdatedAt,
	)
	if err != nil {
		return model.Goal{}, storeErr("insert goal", err)
	}

	g.s.publish(model.KindGoal, feed.OpInsert, goal.ID, goal, goal.UpdatedAt)
	return goal, nil
}

// Update applies a partial patch to an existing goal.
func (g *sqliteGoals) Update(ctx context.Context, id string, patch model.GoalPatch) (model.Goal, error) {
	cur, err := g.getByID(ctx, id)
	if err != nil {
		return model.Goal{}, err
	}

	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return model.Goal{}, &ValidationError{Kind: model.KindGoal, Field: "title", Reason: "must not be empty"}
	}

	model.ApplyGoalPatch(&cur, patch)
	cur.UpdatedAt = time.Now().UTC()

	result, err := g.s.db.ExecContext(ctx, `
		UPDATE goals SET
			title = ?, description = ?, status = ?,
			target_value = ?, current_value = ?, target_date = ?,
			updated_at = ?
		WHERE id = ?`,
		cur.Title, cur.Description, cur.Status,
		cur.TargetValue, cur.CurrentValue, cur.TargetDate,
		cur.UpdatedAt,
		id,
	)
	if err != nil {
		return model.Goal{}, storeErr("update goal", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return model.Goal{}, &NotFoundError{Kind: model.KindGoal, ID: id}
	}

	g.s.publish(model.KindGoal, feed.OpUpdate, id, cur, cur.UpdatedAt)
	return cur, nil
}

// Delete removes a goal by id. Idempotent.
func (g *sqliteGoals) Delete(ctx context.Context, id string) error {
	result, err := g.s.db.ExecContext(ctx, "DELETE FROM goals WHERE id = ?", id)
	if err != nil {
		return storeErr("delete goal", err)
	}

	if rows, _ := result.RowsAffected(); rows > 0 {
		g.s.publish(model.KindGoal, feed.OpDelete, id, nil, time.Now().UTC())
	}
	return nil
}

func (g *sqliteGoals) getByID(ctx context.Context, id string) (model.Goal, error) {
	row := g.s.db.QueryRowxContext(ctx, "SELECT * FROM goals WHERE id = ?", id)
	goal, err := scanGoal(row)
	if err != nil {
		if isNoRows(err) {
			return model.Goal{}, &NotFoundError{Kind: model.KindGoal, ID: id}
		}
		return model.Goal{}, storeErr("get goal", err)
	}
	return goal, nil
}

// scanGoal scans a goal row.
func scanGoal(row interface{ Scan(dest ...interface{}) error }) (model.Goal, error) {
	var (
		goal       model.Goal
		targetDate *time.Time
	)

	err := row.Scan(
		&goal.ID, &goal.WorkspaceID, &goal.Title, &goal.Description, &goal.Status,
		&goal.TargetValue, &goal.CurrentValue, &targetDate,
		&goal.CreatedAt, &goal.UpdatedAt,
	)
	if err != nil {
		return model.Goal{}, fmt.Errorf("scanning goal row: %w", err)
	}

	goal.TargetDate = targetDate
	return goal, nil
}
