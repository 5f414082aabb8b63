// Package graph provides a sequential, checkpointed workflow execution engine.
package graph

// Edge is a connection between two nodes in the workflow graph.
//
// Edges are evaluated only when a node returns a zero Route; explicit routing
// via NodeResult.Route always takes precedence. An edge with a nil When
// predicate is unconditional.
//
// Type parameter S is the state type used for predicate evaluation.
type Edge[S any] struct {
	// From is the source node ID.
	From string

	// To is the destination node ID.
	To string

	// When is an optional predicate controlling traversal. If nil, the edge
	// always matches.
	When Predicate[S]
}

// Predicate evaluates state to decide whether an edge should be traversed.
// Predicates must be pure: deterministic and free of side effects, since the
// engine may evaluate several of them for a single routing decision.
type Predicate[S any] func(state S) bool
