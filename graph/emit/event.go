// Package emit provides pluggable observability for workflow execution.
package emit

// Event is an observability event emitted during workflow execution:
// node completions, routing decisions, capability failures, checkpoint
// operations, archival skips.
type Event struct {
	// RunID identifies the workflow execution that emitted this event.
	RunID string

	// Step is the sequential step number in the workflow (1-indexed).
	// Zero for run-level events.
	Step int

	// NodeID identifies which node emitted this event. Empty for run-level
	// events.
	NodeID string

	// Msg is a short machine-friendly event name, e.g. "node_completed".
	Msg string

	// Meta carries additional structured data. Common keys: "duration_ms",
	// "error", "next", "outcome", "checkpoint_id".
	Meta map[string]interface{}
}
