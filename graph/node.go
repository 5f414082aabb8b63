package graph

import "context"

// Node is a processing unit in the workflow graph. It receives the current
// state of type S, performs its work, and returns a NodeResult describing the
// state changes it produced and where execution should go next.
//
// Nodes never mutate the state they are given. All changes flow through the
// Delta field and are merged by the engine's reducer, so a node that fails
// leaves the accumulated state untouched.
type Node[S any] interface {
	// Run executes the node's logic with the given context and state.
	Run(ctx context.Context, state S) NodeResult[S]
}

// NodeResult is the output of one node execution.
type NodeResult[S any] struct {
	// Delta is the partial state update produced by this node. It is merged
	// with the current state using the configured reducer.
	Delta S

	// Route specifies the next step in workflow execution. Use Stop() for
	// terminal nodes and Goto(id) for explicit routing. A zero Route falls
	// back to edge-based routing.
	Route Next

	// Err is a node-level failure. A non-nil Err halts the workflow without
	// merging Delta; recoverable conditions belong in the state, not here.
	Err error
}

// Next specifies where execution goes after a node completes: either a single
// named node (To) or nowhere (Terminal).
type Next struct {
	// To is the ID of the next node to execute.
	To string

	// Terminal indicates workflow execution should stop.
	Terminal bool
}

// Stop returns a Next that terminates workflow execution.
func Stop() Next {
	return Next{Terminal: true}
}

// Goto returns a Next that routes to the specified node.
func Goto(nodeID string) Next {
	return Next{To: nodeID}
}

// NodeFunc adapts a plain function to the Node interface.
//
//	draft := NodeFunc[State](func(ctx context.Context, s State) NodeResult[State] {
//	    return NodeResult[State]{Delta: State{Draft: "..."}, Route: Goto("review")}
//	})
type NodeFunc[S any] func(ctx context.Context, state S) NodeResult[S]

// Run implements the Node interface for NodeFunc.
func (f NodeFunc[S]) Run(ctx context.Context, state S) NodeResult[S] {
	return f(ctx, state)
}
