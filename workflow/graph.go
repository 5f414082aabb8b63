package workflow

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/martymcenroe/draftloop/graph"
	"github.com/martymcenroe/draftloop/graph/emit"
	"github.com/martymcenroe/draftloop/graph/model"
	"github.com/martymcenroe/draftloop/graph/store"
)

type nodeResult = graph.NodeResult[State]

// routeDelta packages a stage's delta with its routing decision. NodeEnd maps
// to the engine's terminal route.
func routeDelta(delta State, next string) nodeResult {
	if next == NodeEnd {
		return nodeResult{Delta: delta, Route: graph.Stop()}
	}
	return nodeResult{Delta: delta, Route: graph.Goto(next)}
}

// emitEvent sends a stage-level observability event. Nil emitters are fine.
func emitEvent(e emit.Emitter, s State, nodeID, msg string, meta map[string]interface{}) {
	if e == nil {
		return
	}
	e.Emit(emit.Event{RunID: s.RunID, NodeID: nodeID, Msg: msg, Meta: meta})
}

// Deps holds everything the workflow graph needs beyond the state itself.
type Deps struct {
	Drafter  model.ChatModel
	Reviewer model.ChatModel

	DraftApprover   Approver
	VerdictApprover Approver

	Tracker   Tracker
	Registry  StatusRegistry
	Templates *TemplateSet

	Store   store.Store[State]
	Emitter emit.Emitter
	Metrics *graph.Metrics
}

// NewEngine assembles the document-production graph: load, draft, the
// optional draft gate, review, the optional verdict gate, finalize. Routing
// is computed inside the nodes through the pure router functions, so the
// engine needs no conditional edges.
//
// maxIterations bounds the revision loop; the engine's own step ceiling is
// derived from it as a backstop, sized for the deepest possible pass through
// the graph per iteration.
func NewEngine(d Deps, maxIterations int) (*graph.Engine[State], error) {
	if d.Drafter == nil || d.Reviewer == nil {
		return nil, fmt.Errorf("drafter and reviewer models are required")
	}
	if d.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if d.Templates == nil {
		return nil, fmt.Errorf("template set is required")
	}
	if d.Tracker == nil {
		d.Tracker = &MockTracker{Items: map[string]TrackedItem{}}
	}
	if d.Registry == nil {
		d.Registry = NullRegistry{}
	}
	if d.DraftApprover == nil {
		d.DraftApprover = NewConsoleApprover(nil, nil)
	}
	if d.VerdictApprover == nil {
		d.VerdictApprover = NewConsoleApprover(nil, nil)
	}

	eng := graph.New(Reduce, d.Store, d.Emitter,
		graph.WithMaxSteps(maxIterations*6+10),
		graph.WithMetrics(d.Metrics),
	)

	nodes := map[string]graph.Node[State]{
		NodeLoad:   &LoadNode{Tracker: d.Tracker, Emitter: d.Emitter},
		NodeDraft:  &DraftNode{Model: d.Drafter, Templates: d.Templates, Emitter: d.Emitter},
		NodeReview: &ReviewNode{Model: d.Reviewer, Templates: d.Templates, Emitter: d.Emitter},
		NodeGateDraft: &GateNode{
			Stage:    NodeGateDraft,
			Allowed:  []string{NodeReview, NodeDraft, NodeEnd},
			Approver: d.DraftApprover,
			Reason:   ReasonHumanFeedback,
		},
		NodeGateVerdict: &GateNode{
			Stage:    NodeGateVerdict,
			Allowed:  []string{NodeFinalize, NodeDraft, NodeEnd},
			Approver: d.VerdictApprover,
			Reason:   ReasonHumanFeedback,
		},
		NodeFinalize: &FinalizeNode{Tracker: d.Tracker, Registry: d.Registry, Emitter: d.Emitter},
	}
	for id, node := range nodes {
		if err := eng.Add(id, node); err != nil {
			return nil, err
		}
	}
	if err := eng.StartAt(NodeLoad); err != nil {
		return nil, err
	}
	return eng, nil
}

// NewRunID generates a unique, sortable run identifier.
func NewRunID() string {
	buf := make([]byte, 4)
	_, _ = rand.Read(buf)
	return fmt.Sprintf("run-%s-%s", time.Now().UTC().Format("20060102T150405"), hex.EncodeToString(buf))
}
