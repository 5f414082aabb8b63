// Package store provides persistence backends for workflow state.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested run ID or checkpoint ID does not
// exist in the store.
var ErrNotFound = errors.New("not found")

// Store persists workflow state during execution.
//
// The engine saves the merged state after every step, so the store always
// holds a complete, strictly ordered history of a run. Checkpoints are named
// snapshots used for suspension points (e.g. a human gate) and branching.
//
// State values must be JSON-serializable; database-backed implementations
// store them as JSON documents.
//
// Type parameter S is the state type to persist.
type Store[S any] interface {
	// SaveStep persists the state after one node execution. Steps are
	// identified by runID + step number; saving the same pair twice replaces
	// the earlier record (a retried step produces one row, not two).
	SaveStep(ctx context.Context, runID string, step int, nodeID string, state S) error

	// LoadLatest retrieves the highest-numbered persisted state for a run.
	// Returns ErrNotFound if the run has no persisted steps.
	LoadLatest(ctx context.Context, runID string) (state S, step int, err error)

	// SaveCheckpoint stores a named snapshot of workflow state. Saving an
	// existing checkpoint ID replaces it.
	SaveCheckpoint(ctx context.Context, cpID string, state S, step int) error

	// LoadCheckpoint retrieves a previously saved checkpoint.
	// Returns ErrNotFound if the checkpoint does not exist.
	LoadCheckpoint(ctx context.Context, cpID string) (state S, step int, err error)
}

// StepRecord is a single execution step in a run's history.
type StepRecord[S any] struct {
	Step   int
	NodeID string
	State  S
}

// Checkpoint is a named snapshot of workflow state.
type Checkpoint[S any] struct {
	ID    string
	State S
	Step  int
}
