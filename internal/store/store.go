package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const currentVersion = 2

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write would violate a uniqueness rule
	// or remove a row that is still referenced.
	ErrConflict = errors.New("conflict")
	// ErrInvalidReference is returned when a write points at a missing row.
	ErrInvalidReference = errors.New("invalid reference")
)

type Store struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
func New(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	// Configure pragmas.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory() (*Store, error) {
	return New(":memory:")
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *Store) Ping() error {
	return s.db.Ping()
}

func (s *Store) migrate() error {
	var version int
	err := s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}
	if version < 2 {
		if err := s.migrateV2(); err != nil {
			return err
		}
	}

	_, err = s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (s *Store) migrateV1() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS teams (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		name        TEXT NOT NULL UNIQUE,
		manager_id  INTEGER,
		created_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE TABLE IF NOT EXISTS users (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		full_name   TEXT NOT NULL,
		username    TEXT NOT NULL UNIQUE,
		email       TEXT NOT NULL DEFAULT '',
		role        TEXT NOT NULL DEFAULT 'user',
		team_id     INTEGER REFERENCES teams(id),
		created_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE TABLE IF NOT EXISTS tasks (
		id               INTEGER PRIMARY KEY AUTOINCREMENT,
		description      TEXT NOT NULL,
		priority         TEXT NOT NULL DEFAULT 'Medium',
		status           TEXT NOT NULL DEFAULT 'Not Started',
		start_date       TEXT NOT NULL,
		completion_date  TEXT NOT NULL,
		planned_labor    REAL NOT NULL DEFAULT 0,
		actual_labor     REAL NOT NULL DEFAULT 0,
		work_size        INTEGER NOT NULL DEFAULT 1,
		creator_id       INTEGER REFERENCES users(id) ON DELETE SET NULL,
		team_id          INTEGER REFERENCES teams(id),
		created_at       TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
		updated_at       TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_team  ON tasks(team_id);
	CREATE INDEX IF NOT EXISTS idx_tasks_dates ON tasks(start_date, completion_date);

	CREATE TABLE IF NOT EXISTS task_assignees (
		task_id        INTEGER NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		user_id        INTEGER NOT NULL REFERENCES users(id),
		role           TEXT NOT NULL DEFAULT 'assignee',
		planned_labor  REAL NOT NULL DEFAULT 0,
		actual_labor   REAL NOT NULL DEFAULT 0,
		PRIMARY KEY (task_id, user_id)
	);

	CREATE INDEX IF NOT EXISTS idx_assignees_user ON task_assignees(user_id);

	CREATE TABLE IF NOT EXISTS notifications (
		id                INTEGER PRIMARY KEY AUTOINCREMENT,
		task_id           INTEGER REFERENCES tasks(id) ON DELETE SET NULL,
		sender_user_id    INTEGER REFERENCES users(id) ON DELETE SET NULL,
		receiver_user_id  INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		type              TEXT NOT NULL,
		message           TEXT NOT NULL DEFAULT '',
		is_read           INTEGER NOT NULL DEFAULT 0,
		created_at        TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE INDEX IF NOT EXISTS idx_notifications_receiver ON notifications(receiver_user_id);

	CREATE TABLE IF NOT EXISTS task_logs (
		id                  INTEGER PRIMARY KEY AUTOINCREMENT,
		task_id             INTEGER NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		changed_by_user_id  INTEGER REFERENCES users(id) ON DELETE SET NULL,
		description         TEXT NOT NULL,
		created_at          TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(ddl)
	return err
}

func (s *Store) migrateV2() error {
	const ddl = `
	INSERT OR IGNORE INTO settings (key, value) VALUES
		('window_days',    '14'),
		('default_policy', 'priority'),
		('daily_capacity', '8'),
		('week_start',     'monday');
	`
	_, err := s.db.Exec(ddl)
	return err
}

// DefaultDBPath returns ~/.config/taskflow/taskflow.db
func DefaultDBPath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "taskflow", "taskflow.db"), nil
}

// classify maps SQLite constraint failures onto the package's sentinel errors.
func classify(err error) error {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return err
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return fmt.Errorf("%w: %v", ErrConflict, err)
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return fmt.Errorf("%w: %v", ErrInvalidReference, err)
	case sqlite3.SQLITE_CONSTRAINT:
		if strings.Contains(err.Error(), "FOREIGN KEY") {
			return fmt.Errorf("%w: %v", ErrInvalidReference, err)
		}
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}

// notFound turns sql.ErrNoRows into ErrNotFound.
func notFound(err error, what string, id int64) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
	}
	return fmt.Errorf("get %s %d: %w", what, id, err)
}
