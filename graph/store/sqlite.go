package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a SQLite implementation of Store[S] backed by a single-file
// database. It is the default persistence for local, single-process runs:
// zero setup, survives restarts, and the whole run history is one portable
// file next to the audit trail.
//
// WAL mode is enabled so diagnostic reads (e.g. inspecting a stuck run) do
// not block the writer.
type SQLiteStore[S any] struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (or creates) the database file at path and ensures the
// schema exists. Use ":memory:" for an ephemeral database in tests.
func NewSQLiteStore[S any](path string) (*SQLiteStore[S], error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite supports a single writer; keep one connection to avoid lock churn.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx := context.Background()
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	s := &SQLiteStore[S]{db: db, path: path}
	if err := s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore[S]) createTables(ctx context.Context) error {
	steps := `
		CREATE TABLE IF NOT EXISTS workflow_steps (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			step INTEGER NOT NULL,
			node_id TEXT NOT NULL,
			state TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(run_id, step)
		)
	`
	if _, err := s.db.ExecContext(ctx, steps); err != nil {
		return fmt.Errorf("create workflow_steps: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "CREATE INDEX IF NOT EXISTS idx_steps_run ON workflow_steps(run_id, step)"); err != nil {
		return fmt.Errorf("create idx_steps_run: %w", err)
	}

	checkpoints := `
		CREATE TABLE IF NOT EXISTS workflow_checkpoints (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			checkpoint_id TEXT NOT NULL UNIQUE,
			state TEXT NOT NULL,
			step INTEGER NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`
	if _, err := s.db.ExecContext(ctx, checkpoints); err != nil {
		return fmt.Errorf("create workflow_checkpoints: %w", err)
	}
	return nil
}

// SaveStep persists one execution step, replacing any earlier save of the
// same (run, step) pair.
func (s *SQLiteStore[S]) SaveStep(ctx context.Context, runID string, step int, nodeID string, state S) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO workflow_steps (run_id, step, node_id, state)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(run_id, step) DO UPDATE SET node_id=excluded.node_id, state=excluded.state
	`, runID, step, nodeID, string(data))
	if err != nil {
		return fmt.Errorf("save step: %w", err)
	}
	return nil
}

// LoadLatest retrieves the highest-numbered state for a run.
func (s *SQLiteStore[S]) LoadLatest(ctx context.Context, runID string) (S, int, error) {
	var zero S

	row := s.db.QueryRowContext(ctx, `
		SELECT state, step FROM workflow_steps
		WHERE run_id = ? ORDER BY step DESC LIMIT 1
	`, runID)

	var data string
	var step int
	if err := row.Scan(&data, &step); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return zero, 0, ErrNotFound
		}
		return zero, 0, fmt.Errorf("load latest: %w", err)
	}

	var state S
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return zero, 0, fmt.Errorf("unmarshal state: %w", err)
	}
	return state, step, nil
}

// SaveCheckpoint stores or replaces a named snapshot.
func (s *SQLiteStore[S]) SaveCheckpoint(ctx context.Context, cpID string, state S, step int) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO workflow_checkpoints (checkpoint_id, state, step)
		VALUES (?, ?, ?)
		ON CONFLICT(checkpoint_id) DO UPDATE SET state=excluded.state, step=excluded.step
	`, cpID, string(data), step)
	if err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

// LoadCheckpoint retrieves a named snapshot.
func (s *SQLiteStore[S]) LoadCheckpoint(ctx context.Context, cpID string) (S, int, error) {
	var zero S

	row := s.db.QueryRowContext(ctx, `
		SELECT state, step FROM workflow_checkpoints WHERE checkpoint_id = ?
	`, cpID)

	var data string
	var step int
	if err := row.Scan(&data, &step); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return zero, 0, ErrNotFound
		}
		return zero, 0, fmt.Errorf("load checkpoint: %w", err)
	}

	var state S
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return zero, 0, fmt.Errorf("unmarshal state: %w", err)
	}
	return state, step, nil
}

// Close closes the underlying database.
func (s *SQLiteStore[S]) Close() error {
	return s.db.Close()
}
