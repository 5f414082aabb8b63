package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLStore is a MySQL/MariaDB implementation of Store[S] for deployments
// where runs must survive host failures or be inspectable from elsewhere.
//
// Tables use utf8mb4 so state containing arbitrary multilingual or symbol
// content round-trips without an encoding loss; add parseTime=true to the DSN
// if you also read the timestamp columns.
//
// Never hardcode credentials; read the DSN from the environment:
//
//	store, err := store.NewMySQLStore[State](os.Getenv("MYSQL_DSN"))
type MySQLStore[S any] struct {
	db *sql.DB
}

// NewMySQLStore opens a connection pool for the given DSN, verifies
// connectivity, and ensures the schema exists.
func NewMySQLStore[S any](dsn string) (*MySQLStore[S], error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}

	m := &MySQLStore[S]{db: db}
	if err := m.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return m, nil
}

func (m *MySQLStore[S]) createTables(ctx context.Context) error {
	steps := `
		CREATE TABLE IF NOT EXISTS workflow_steps (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			run_id VARCHAR(255) NOT NULL,
			step INT NOT NULL,
			node_id VARCHAR(255) NOT NULL,
			state JSON NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_run_step (run_id, step),
			UNIQUE KEY unique_run_step (run_id, step)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci
	`
	if _, err := m.db.ExecContext(ctx, steps); err != nil {
		return fmt.Errorf("create workflow_steps: %w", err)
	}

	checkpoints := `
		CREATE TABLE IF NOT EXISTS workflow_checkpoints (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			checkpoint_id VARCHAR(255) NOT NULL UNIQUE,
			state JSON NOT NULL,
			step INT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci
	`
	if _, err := m.db.ExecContext(ctx, checkpoints); err != nil {
		return fmt.Errorf("create workflow_checkpoints: %w", err)
	}
	return nil
}

// SaveStep persists one execution step, replacing any earlier save of the
// same (run, step) pair.
func (m *MySQLStore[S]) SaveStep(ctx context.Context, runID string, step int, nodeID string, state S) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	_, err = m.db.ExecContext(ctx, `
		INSERT INTO workflow_steps (run_id, step, node_id, state)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE node_id = VALUES(node_id), state = VALUES(state)
	`, runID, step, nodeID, string(data))
	if err != nil {
		return fmt.Errorf("save step: %w", err)
	}
	return nil
}

// LoadLatest retrieves the highest-numbered state for a run.
func (m *MySQLStore[S]) LoadLatest(ctx context.Context, runID string) (S, int, error) {
	var zero S

	row := m.db.QueryRowContext(ctx, `
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
func (m *MySQLStore[S]) SaveCheckpoint(ctx context.Context, cpID string, state S, step int) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	_, err = m.db.ExecContext(ctx, `
		INSERT INTO workflow_checkpoints (checkpoint_id, state, step)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE state = VALUES(state), step = VALUES(step)
	`, cpID, string(data), step)
	if err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

// LoadCheckpoint retrieves a named snapshot.
func (m *MySQLStore[S]) LoadCheckpoint(ctx context.Context, cpID string) (S, int, error) {
	var zero S

	row := m.db.QueryRowContext(ctx, `
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

// Close closes the connection pool.
func (m *MySQLStore[S]) Close() error {
	return m.db.Close()
}
