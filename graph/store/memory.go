package store

import (
	"context"
	"sync"
)

// MemStore is an in-memory Store[S] for tests, development, and short-lived
// runs where persistence across processes is not needed. It is thread-safe.
type MemStore[S any] struct {
	mu          sync.RWMutex
	steps       map[string][]StepRecord[S]
	checkpoints map[string]Checkpoint[S]
}

// NewMemStore creates an empty in-memory store.
func NewMemStore[S any]() *MemStore[S] {
	return &MemStore[S]{
		steps:       make(map[string][]StepRecord[S]),
		checkpoints: make(map[string]Checkpoint[S]),
	}
}

// SaveStep records one execution step. A step number already present for the
// run is replaced in place, matching the retry semantics of the SQL stores.
func (m *MemStore[S]) SaveStep(_ context.Context, runID string, step int, nodeID string, state S) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	record := StepRecord[S]{Step: step, NodeID: nodeID, State: state}
	for i, existing := range m.steps[runID] {
		if existing.Step == step {
			m.steps[runID][i] = record
			return nil
		}
	}
	m.steps[runID] = append(m.steps[runID], record)
	return nil
}

// LoadLatest returns the record with the highest step number for the run.
func (m *MemStore[S]) LoadLatest(_ context.Context, runID string) (S, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := m.steps[runID]
	if len(records) == 0 {
		var zero S
		return zero, 0, ErrNotFound
	}

	latest := records[0]
	for _, record := range records[1:] {
		if record.Step > latest.Step {
			latest = record
		}
	}
	return latest.State, latest.Step, nil
}

// SaveCheckpoint stores or replaces a named snapshot.
func (m *MemStore[S]) SaveCheckpoint(_ context.Context, cpID string, state S, step int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.checkpoints[cpID] = Checkpoint[S]{ID: cpID, State: state, Step: step}
	return nil
}

// LoadCheckpoint retrieves a named snapshot.
func (m *MemStore[S]) LoadCheckpoint(_ context.Context, cpID string) (S, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cp, exists := m.checkpoints[cpID]
	if !exists {
		var zero S
		return zero, 0, ErrNotFound
	}
	return cp.State, cp.Step, nil
}

// History returns a copy of the run's step records in save order. Intended
// for tests and diagnostics.
func (m *MemStore[S]) History(runID string) []StepRecord[S] {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := m.steps[runID]
	out := make([]StepRecord[S], len(records))
	copy(out, records)
	return out
}
