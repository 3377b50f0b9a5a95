package gateway

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/planhub/internal/feed"
	"github.com/nhle/planhub/internal/model"
)

// SQLite is the embedded-driver implementation of the gateway
// boundary. Every committed write is also published to the attached
// change-feed hub as a row-level event, the same shape a hosted
// store's push channel would deliver.
type SQLite struct {
	db  *sqlx.DB
	hub *feed.Hub
}

// NewSQLite opens (or creates) a SQLite database at dbPath, enables
// WAL mode, and runs any pending schema migrations. Change events for
// its own writes are published to hub; a nil hub disables publishing.
func NewSQLite(dbPath string, hub *feed.Hub) (*SQLite, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// SQLite serializes writes anyway, and a single pooled connection
	// keeps ":memory:" databases from splitting per connection.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys.
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLite{db: db, hub: hub}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Feed returns the hub this gateway publishes change events to.
func (s *SQLite) Feed() *feed.Hub {
	return s.hub
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLite) runMigrations() error {
	currentVersion := 0

	// Check if schema_version table exists.
	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// publish emits a change event for a committed write. The payload is
// the full post-change entity.
func (s *SQLite) publish(kind model.Kind, op feed.Op, entityID string, entity any, at time.Time) {
	if s.hub == nil {
		return
	}

	var payload json.RawMessage
	if entity != nil {
		data, err := json.Marshal(entity)
		if err != nil {
			return
		}
		payload = data
	}

	s.hub.Publish(feed.Event{
		Kind:      kind,
		Op:        op,
		EntityID:  entityID,
		Payload:   payload,
		UpdatedAt: at,
	})
}

// filterClauses translates a Filter into WHERE conditions and args
// for the given table. dueColumn names the date column the due-date
// predicates apply to; empty disables them.
func filterClauses(f Filter, dueColumn string) ([]string, []interface{}) {
	var conditions []string
	var args []interface{}

	if f.Workspace != "" {
		conditions = append(conditions, "workspace_id = ?")
		args = append(args, f.Workspace)
	}
	if f.ID != nil {
		conditions = append(conditions, "id = ?")
		args = append(args, *f.ID)
	}
	if f.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, *f.Status)
	}
	if f.NotStatus != nil {
		conditions = append(conditions, "status != ?")
		args = append(args, *f.NotStatus)
	}
	if dueColumn != "" {
		if f.DueBefore != nil {
			conditions = append(conditions, dueColumn+" < ?")
			args = append(args, f.DueBefore.UTC())
		}
		if f.DueAfter != nil {
			conditions = append(conditions, dueColumn+" > ?")
			args = append(args, f.DueAfter.UTC())
		}
	}
	if f.Active != nil {
		conditions = append(conditions, "active = ?")
		args = append(args, boolToInt(*f.Active))
	}

	return conditions, args
}

// whereSQL joins conditions into a WHERE clause, or returns "".
func whereSQL(conditions []string) string {
	if len(conditions) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conditions, " AND ")
}

// storeErr wraps unexpected driver failures as TransportErrors so the
// coordinator's error policy sees the embedded driver and a remote
// server identically.
func storeErr(op string, err error) error {
	return &TransportError{Op: op, Err: err}
}

// isNoRows reports whether err is sql.ErrNoRows anywhere in its chain.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// boolToInt converts a boolean to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
