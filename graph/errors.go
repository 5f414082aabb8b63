package graph

import "errors"

// ErrMaxStepsExceeded indicates that graph execution reached the configured
// step ceiling without completing. The ceiling exists so that a routing bug or
// an unbounded revision loop can never run forever.
var ErrMaxStepsExceeded = errors.New("execution exceeded maximum steps limit")

// ErrNoRoute indicates that a node finished without an explicit route and no
// outgoing edge matched the current state.
var ErrNoRoute = errors.New("no valid route from node")

// EngineError is a configuration or orchestration failure from the Engine.
// Node-level failures are returned as-is from the failing node.
type EngineError struct {
	Message string
	Code    string
	Cause   error
}

func (e *EngineError) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any.
func (e *EngineError) Unwrap() error {
	return e.Cause
}
