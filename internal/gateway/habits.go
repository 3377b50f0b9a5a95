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

// Habits returns the habit-typed view over this gateway. Fetched
// habits carry their checkin rows denormalized into the Checkins
// date array.
func (s *SQLite) Habits() Gateway[model.Habit, model.HabitPatch] {
	return &sqliteHabits{s}
}

// Checkins returns the checkin child-row gateway. Checkin writes
// touch the parent habit's updated_at and publish a habit update
// event carrying the refreshed date array, so subscribed sessions
// converge on the same denormalized state.
func (s *SQLite) Checkins() CheckinGateway {
	return &sqliteCheckins{s}
}

type sqliteHabits struct {
	s *SQLite
}

// FetchAll retrieves habits matching the filter with their checkin
// dates attached.
func (g *sqliteHabits) FetchAll(ctx context.Context, f Filter) ([]model.Habit, error) {
	conditions, args := filterClauses(f, "")
	query := "SELECT * FROM habits" + whereSQL(conditions) +
		" ORDER BY created_at DESC"

	rows, err := g.s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr("fetch habits", err)
	}
	defer rows.Close()

	var habits []model.Habit
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("fetch habits", err)
	}

	for i := range habits {
		dates, err := g.s.checkinDates(ctx, habits[i].ID)
		if err != nil {
			return nil, err
		}
		habits[i].Checkins = dates
	}
	return habits, nil
}

// Insert stores a new habit and returns the canonicalized row.
func (g *sqliteHabits) Insert(ctx context.Context, h model.Habit) (model.Habit, error) {
	if strings.TrimSpace(h.Title) == "" {
		return model.Habit{}, &ValidationError{Kind: model.KindHabit, Field: "title", Reason: "must not be empty"}
	}
	if h.WorkspaceID == "" {
		return model.Habit{}, &ValidationError{Kind: model.KindHabit, Field: "workspace_id", Reason: "must not be empty"}
	}

	h.ID = uuid.New().String()
	now := time.Now().UTC()
	h.CreatedAt = now
	h.UpdatedAt = now
	if h.Cadence == "" {
		h.Cadence = "daily"
	}
	// Checkins are child rows; a fresh habit has none regardless of
	// what the optimistic draft carried.
	h.Checkins = nil

	_, err := g.s.db.ExecContext(ctx, `
		INSERT INTO habits (
			id, workspace_id, title, description, cadence,
			active, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		h.ID, h.WorkspaceID, h.Title, h.Description, h.Cadence,
		boolToInt(h.Active), h.CreatedAt, h.UpdatedAt,
	)
	if err != nil {
		return model.Habit{}, storeErr("insert habit", err)
	}

	g.s.publish(model.KindHabit, feed.OpInsert, h.ID, h, h.UpdatedAt)
	return h, nil
}

// Update applies a partial patch to an existing habit.
func (g *sqliteHabits) Update(ctx context.Context, id string, patch model.HabitPatch) (model.Habit, error) {
	cur, err := g.s.getHabit(ctx, id)
	if err != nil {
		return model.Habit{}, err
	}

	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return model.Habit{}, &ValidationError{Kind: model.KindHabit, Field: "title", Reason: "must not be empty"}
	}

	model.ApplyHabitPatch(&cur, patch)
	cur.UpdatedAt = time.Now().UTC()

	result, err := g.s.db.ExecContext(ctx, `
		UPDATE habits SET
			title = ?, description = ?, cadence = ?,
			active = ?, updated_at = ?
		WHERE id = ?`,
		cur.Title, cur.Description, cur.Cadence,
		boolToInt(cur.Active), cur.UpdatedAt,
		id,
	)
	if err != nil {
		return model.Habit{}, storeErr("update habit", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return model.Habit{}, &NotFoundError{Kind: model.KindHabit, ID: id}
	}

	g.s.publish(model.KindHabit, feed.OpUpdate, id, cur, cur.UpdatedAt)
	return cur, nil
}

// Delete removes a habit by id; its checkins cascade. Idempotent.
func (g *sqliteHabits) Delete(ctx context.Context, id string) error {
	result, err := g.s.db.ExecContext(ctx, "DELETE FROM habits WHERE id = ?", id)
	if err != nil {
		return storeErr("delete habit", err)
	}

	if rows, _ := result.RowsAffected(); rows > 0 {
		g.s.publish(model.KindHabit, feed.OpDelete, id, nil, time.Now().UTC())
	}
	return nil
}

type sqliteCheckins struct {
	s *SQLite
}

// Insert records a checkin for one day. Inserting an already-present
// (habit, date) pair is absorbed silently so toggles racing across
// sessions stay idempotent.
func (g *sqliteCheckins) Insert(ctx context.Context, c model.Checkin) (model.Checkin, error) {
	if c.HabitID == "" || c.Date == "" {
		return model.Checkin{}, &ValidationError{Kind: model.KindCheckin, Field: "habit_id/date", Reason: "must not be empty"}
	}
	if _, err := time.Parse(model.CheckinDateLayout, c.Date); err != nil {
		return model.Checkin{}, &ValidationError{Kind: model.KindCheckin, Field: "date", Reason: "must be a YYYY-MM-DD day"}
	}

	habit, err := g.s.getHabit(ctx, c.HabitID)
	if err != nil {
		return model.Checkin{}, err
	}

	c.ID = uuid.New().String()
	c.WorkspaceID = habit.WorkspaceID
	c.CreatedAt = time.Now().UTC()

	_, err = g.s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO habit_checkins (
			id, habit_id, workspace_id, date, created_at
		) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.HabitID, c.WorkspaceID, c.Date, c.CreatedAt,
	)
	if err != nil {
		return model.Checkin{}, storeErr("insert checkin", err)
	}

	if err := g.s.touchHabit(ctx, c.HabitID); err != nil {
		return model.Checkin{}, err
	}
	return c, nil
}

// Delete removes the checkin for (habitID, date). Deleting an absent
// row succeeds silently.
func (g *sqliteCheckins) Delete(ctx context.Context, habitID, date string) error {
	result, err := g.s.db.ExecContext(ctx,
		"DELETE FROM habit_checkins WHERE habit_id = ? AND date = ?",
		habitID, date,
	)
	if err != nil {
		return storeErr("delete checkin", err)
	}

	if rows, _ := result.RowsAffected(); rows > 0 {
		if err := g.s.touchHabit(ctx, habitID); err != nil {
			return err
		}
	}
	return nil
}

// FetchForHabit returns all checkin rows for a habit, oldest first.
func (g *sqliteCheckins) FetchForHabit(ctx context.Context, habitID string) ([]model.Checkin, error) {
	rows, err := g.s.db.QueryxContext(ctx,
		"SELECT * FROM habit_checkins WHERE habit_id = ? ORDER BY date ASC",
		habitID,
	)
	if err != nil {
		return nil, storeErr("fetch checkins", err)
	}
	defer rows.Close()

	var checkins []model.Checkin
	for rows.Next() {
		var c model.Checkin
		if err := rows.Scan(&c.ID, &c.HabitID, &c.WorkspaceID, &c.Date, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning checkin row: %w", err)
		}
		checkins = append(checkins, c)
	}
	return checkins, rows.Err()
}

// getHabit fetches a habit with its checkin dates attached.
func (s *SQLite) getHabit(ctx context.Context, id string) (model.Habit, error) {
	row := s.db.QueryRowxContext(ctx, "SELECT * FROM habits WHERE id = ?", id)
	h, err := scanHabit(row)
	if err != nil {
		if isNoRows(err) {
			return model.Habit{}, &NotFoundError{Kind: model.KindHabit, ID: id}
		}
		return model.Habit{}, storeErr("get habit", err)
	}

	dates, err := s.checkinDates(ctx, id)
	if err != nil {
		return model.Habit{}, err
	}
	h.Checkins = dates
	return h, nil
}

// touchHabit bumps the habit's updated_at and publishes an update
// event with the refreshed denormalized entity.
func (s *SQLite) touchHabit(ctx context.Context, id string) error {
	now := time.Now().UTC()
	if _, err := s.db.ExecContext(ctx,
		"UPDATE habits SET updated_at = ? WHERE id = ?", now, id,
	); err != nil {
		return storeErr("touch habit", err)
	}

	h, err := s.getHabit(ctx, id)
	if err != nil {
		return err
	}
	s.publish(model.KindHabit, feed.OpUpdate, id, h, h.UpdatedAt)
	return nil
}

// checkinDates returns the sorted checkin dates for a habit.
func (s *SQLite) checkinDates(ctx context.Context, habitID string) ([]string, error) {
	var dates []string
	err := s.db.SelectContext(ctx, &dates,
		"SELECT date FROM habit_checkins WHERE habit_id = ? ORDER BY date ASC",
		habitID,
	)
	if err != nil {
		return nil, storeErr("fetch checkin dates", err)
	}
	return dates, nil
}

// scanHabit scans a habit row (without checkins).
func scanHabit(row interface{ Scan(dest ...interface{}) error }) (model.Habit, error) {
	var (
		h      model.Habit
		active int
	)

	err := row.Scan(
		&h.ID, &h.WorkspaceID, &h.Title, &h.Description, &h.Cadence,
		&active, &h.CreatedAt, &h.UpdatedAt,
	)
	if err != nil {
		return model.Habit{}, fmt.Errorf("scanning habit row: %w", err)
	}

	h.Active = active != 0
	return h, nil
}
