package graph

import (
	"context"
	"sync"
	"time"

	"github.com/martymcenroe/draftloop/graph/emit"
	"github.com/martymcenroe/draftloop/graph/store"
)

// Reducer merges a partial state update produced by a node into the
// accumulated state. It must be deterministic: the engine relies on it to
// rebuild identical state when a run is resumed from persistence.
type Reducer[S any] func(prev, delta S) S

// Engine executes a workflow graph one node at a time.
//
// The engine:
//   - holds the graph topology (nodes and optional conditional edges)
//   - merges each node's partial update via the reducer
//   - persists the merged state after every step via the store
//   - emits an observability event per step
//   - enforces the MaxSteps ceiling
//
// Execution is strictly sequential. There is exactly one in-flight node at any
// moment, so state never needs locking during a run; the engine mutex only
// guards graph construction.
//
// Type parameter S is the state type shared across the workflow.
type Engine[S any] struct {
	mu sync.RWMutex

	reducer   Reducer[S]
	nodes     map[string]Node[S]
	edges     []Edge[S]
	startNode string
	store     store.Store[S]
	emitter   emit.Emitter
	opts      Options
}

// Options configures Engine execution behavior. Zero values are valid.
type Options struct {
	// MaxSteps limits total node executions per run. 0 means no limit.
	MaxSteps int

	// Metrics, when non-nil, receives per-step and per-run observations.
	Metrics *Metrics
}

// Option is a functional option for configuring an Engine.
type Option func(*Options)

// WithMaxSteps limits workflow execution to n node executions.
//
// For looping workflows, size this as graph depth times the expected maximum
// number of loop iterations, plus slack for the terminal stages.
func WithMaxSteps(n int) Option {
	return func(o *Options) { o.MaxSteps = n }
}

// WithMetrics attaches a Prometheus metrics collector to the engine.
func WithMetrics(m *Metrics) Option {
	return func(o *Options) { o.Metrics = m }
}

// New creates an Engine with the given reducer, store, and emitter.
//
// The emitter may be nil (no events). The reducer and store are required but
// validated lazily at Run time, so a partially configured engine can still be
// assembled and inspected.
func New[S any](reducer Reducer[S], st store.Store[S], emitter emit.Emitter, opts ...Option) *Engine[S] {
	e := &Engine[S]{
		reducer: reducer,
		nodes:   make(map[string]Node[S]),
		edges:   make([]Edge[S], 0),
		store:   st,
		emitter: emitter,
	}
	for _, opt := range opts {
		opt(&e.opts)
	}
	return e
}

// Add registers a node under a unique ID. It must be called before Run.
func (e *Engine[S]) Add(nodeID string, node Node[S]) error {
	if nodeID == "" {
		return &EngineError{Message: "node ID cannot be empty"}
	}
	if node == nil {
		return &EngineError{Message: "node cannot be nil"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.nodes[nodeID]; exists {
		return &EngineError{Message: "duplicate node ID: " + nodeID, Code: "DUPLICATE_NODE"}
	}
	e.nodes[nodeID] = node
	return nil
}

// StartAt sets the entry point for workflow execution. The node must already
// be registered.
func (e *Engine[S]) StartAt(nodeID string) error {
	if nodeID == "" {
		return &EngineError{Message: "start node ID cannot be empty"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.nodes[nodeID]; !exists {
		return &EngineError{Message: "start node does not exist: " + nodeID, Code: "NODE_NOT_FOUND"}
	}
	e.startNode = nodeID
	return nil
}

// Connect creates an edge between two nodes, used as fallback routing when a
// node returns a zero Route. A nil predicate makes the edge unconditional.
// Edges are evaluated in registration order; the first match wins.
func (e *Engine[S]) Connect(from, to string, predicate Predicate[S]) error {
	if from == "" {
		return &EngineError{Message: "from node ID cannot be empty"}
	}
	if to == "" {
		return &EngineError{Message: "to node ID cannot be empty"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.edges = append(e.edges, Edge[S]{From: from, To: to, When: predicate})
	return nil
}

// Run executes the workflow from the start node until a node returns a
// terminal route, a node fails, or a limit is reached. The merged state after
// every step is persisted under runID, so a crashed run can be continued with
// Resume.
func (e *Engine[S]) Run(ctx context.Context, runID string, initial S) (S, error) {
	var zero S

	if err := e.validate(); err != nil {
		return zero, err
	}

	e.mu.RLock()
	start := e.startNode
	e.mu.RUnlock()

	return e.loop(ctx, runID, initial, start, 0)
}

// Resume continues a previously persisted run from its latest stored state,
// beginning execution at startNode. Step numbering continues from where the
// original run stopped, so the persisted history stays strictly ordered.
func (e *Engine[S]) Resume(ctx context.Context, runID string, startNode string) (S, error) {
	var zero S

	if err := e.validate(); err != nil {
		return zero, err
	}
	if startNode == "" {
		return zero, &EngineError{Message: "start node not specified for resume", Code: "NO_START_NODE"}
	}

	e.mu.RLock()
	_, exists := e.nodes[startNode]
	e.mu.RUnlock()
	if !exists {
		return zero, &EngineError{Message: "resume start node does not exist: " + startNode, Code: "NODE_NOT_FOUND"}
	}

	state, step, err := e.store.LoadLatest(ctx, runID)
	if err != nil {
		return zero, &EngineError{Message: "cannot resume run " + runID, Code: "RUN_NOT_FOUND", Cause: err}
	}

	if e.emitter != nil {
		e.emitter.Emit(emit.Event{RunID: runID, Step: step, NodeID: startNode, Msg: "run_resumed"})
	}
	return e.loop(ctx, runID, state, startNode, step)
}

// SaveCheckpoint snapshots the latest persisted state of a run under a named
// checkpoint. Checkpoints are how a suspended run (for example one waiting on
// a human decision) survives a process restart.
func (e *Engine[S]) SaveCheckpoint(ctx context.Context, runID string, cpID string) error {
	state, step, err := e.store.LoadLatest(ctx, runID)
	if err != nil {
		return &EngineError{Message: "cannot checkpoint run " + runID, Code: "RUN_NOT_FOUND", Cause: err}
	}
	if err := e.store.SaveCheckpoint(ctx, cpID, state, step); err != nil {
		return &EngineError{Message: "failed to save checkpoint " + cpID, Code: "CHECKPOINT_SAVE_FAILED", Cause: err}
	}
	if e.emitter != nil {
		e.emitter.Emit(emit.Event{
			RunID: runID, Step: step, Msg: "checkpoint_saved",
			Meta: map[string]interface{}{"checkpoint_id": cpID},
		})
	}
	return nil
}

// ResumeFromCheckpoint starts a new run from a named checkpoint's state,
// beginning execution at startNode.
func (e *Engine[S]) ResumeFromCheckpoint(ctx context.Context, cpID string, newRunID string, startNode string) (S, error) {
	var zero S

	if err := e.validate(); err != nil {
		return zero, err
	}
	state, step, err := e.store.LoadCheckpoint(ctx, cpID)
	if err != nil {
		return zero, &EngineError{Message: "checkpoint not found: " + cpID, Code: "CHECKPOINT_NOT_FOUND", Cause: err}
	}
	if e.emitter != nil {
		e.emitter.Emit(emit.Event{
			RunID: newRunID, NodeID: startNode, Msg: "checkpoint_resumed",
			Meta: map[string]interface{}{"checkpoint_id": cpID, "checkpoint_step": step},
		})
	}
	return e.loop(ctx, newRunID, state, startNode, 0)
}

func (e *Engine[S]) validate() error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.reducer == nil {
		return &EngineError{Message: "reducer is required", Code: "MISSING_REDUCER"}
	}
	if e.store == nil {
		return &EngineError{Message: "store is required", Code: "MISSING_STORE"}
	}
	if e.startNode == "" {
		return &EngineError{Message: "start node not set (call StartAt before Run)", Code: "NO_START_NODE"}
	}
	if _, exists := e.nodes[e.startNode]; !exists {
		return &EngineError{Message: "start node does not exist: " + e.startNode, Code: "NODE_NOT_FOUND"}
	}
	return nil
}

// loop is the shared execution loop for Run and the resume paths.
func (e *Engine[S]) loop(ctx context.Context, runID string, state S, nodeID string, stepOffset int) (S, error) {
	var zero S
	step := stepOffset

	for {
		step++

		if e.opts.MaxSteps > 0 && step-stepOffset > e.opts.MaxSteps {
			e.finishRun(runID, "max_steps")
			return zero, &EngineError{Message: "workflow exceeded MaxSteps limit", Code: "MAX_STEPS_EXCEEDED", Cause: ErrMaxStepsExceeded}
		}

		select {
		case <-ctx.Done():
			e.finishRun(runID, "canceled")
			return zero, ctx.Err()
		default:
		}

		e.mu.RLock()
		nodeImpl, exists := e.nodes[nodeID]
		e.mu.RUnlock()
		if !exists {
			return zero, &EngineError{Message: "node not found during execution: " + nodeID, Code: "NODE_NOT_FOUND"}
		}

		started := time.Now()
		result := nodeImpl.Run(ctx, state)
		elapsed := time.Since(started)

		if result.Err != nil {
			e.observeStep(nodeID, "error", elapsed)
			if e.emitter != nil {
				e.emitter.Emit(emit.Event{
					RunID: runID, Step: step, NodeID: nodeID, Msg: "node_error",
					Meta: map[string]interface{}{"error": result.Err.Error()},
				})
			}
			e.finishRun(runID, "error")
			return zero, result.Err
		}
		e.observeStep(nodeID, "success", elapsed)

		state = e.reducer(state, result.Delta)

		if err := e.store.SaveStep(ctx, runID, step, nodeID, state); err != nil {
			e.finishRun(runID, "error")
			return zero, &EngineError{Message: "failed to save step", Code: "STORE_ERROR", Cause: err}
		}

		if e.emitter != nil {
			e.emitter.Emit(emit.Event{
				RunID: runID, Step: step, NodeID: nodeID, Msg: "node_completed",
				Meta: map[string]interface{}{"duration_ms": elapsed.Milliseconds(), "next": result.Route.To},
			})
		}

		if result.Route.Terminal {
			e.finishRun(runID, "completed")
			return state, nil
		}
		if result.Route.To != "" {
			nodeID = result.Route.To
			continue
		}

		next := e.evaluateEdges(nodeID, state)
		if next == "" {
			e.finishRun(runID, "error")
			return zero, &EngineError{Message: "no valid route from node: " + nodeID, Code: "NO_ROUTE", Cause: ErrNoRoute}
		}
		nodeID = next
	}
}

// evaluateEdges finds the first matching outgoing edge for the current state.
func (e *Engine[S]) evaluateEdges(fromNode string, state S) string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, edge := range e.edges {
		if edge.From != fromNode {
			continue
		}
		if edge.When == nil || edge.When(state) {
			return edge.To
		}
	}
	return ""
}

func (e *Engine[S]) observeStep(nodeID, status string, d time.Duration) {
	if e.opts.Metrics != nil {
		e.opts.Metrics.ObserveStep(nodeID, status, d)
	}
}

func (e *Engine[S]) finishRun(runID, outcome string) {
	if e.opts.Metrics != nil {
		e.opts.Metrics.RunFinished(outcome)
	}
	if e.emitter != nil && (outcome == "completed" || outcome == "error" || outcome == "max_steps" || outcome == "canceled") {
		e.emitter.Emit(emit.Event{RunID: runID, Msg: "run_finished", Meta: map[string]interface{}{"outcome": outcome}})
	}
}
