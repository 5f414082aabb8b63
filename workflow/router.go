package workflow

// Node names, the closed set of stages a router function may return.
const (
	NodeLoad        = "load"
	NodeDraft       = "draft"
	NodeGateDraft   = "gate-draft"
	NodeReview      = "review"
	NodeGateVerdict = "gate-verdict"
	NodeFinalize    = "finalize"
	NodeEnd         = "end"
)

// The router is a set of pure functions over State. They never mutate state
// and only switch on enums the parsing layer produced; raw verdict text never
// reaches routing decisions.
//
// The iteration budget is checked at every loop-back edge, not at one
// chokepoint: both the open-question loop and the human-revision loop route
// through it, which is what bounds the run.

// AfterLoad routes out of the load stage.
func AfterLoad(s State) string {
	if s.ErrorMessage != "" {
		return NodeEnd
	}
	return NodeDraft
}

// AfterDraft routes out of the draft stage.
func AfterDraft(s State) string {
	if s.ErrorMessage != "" {
		return NodeEnd
	}
	if s.GateDraft {
		return NodeGateDraft
	}
	return NodeReview
}

// AfterReview routes out of the review stage. Rule order is the correctness
// property here: the open-question obligation is evaluated strictly before
// the approval verdict, so an approved draft with an unresolved question
// never silently finalizes.
func AfterReview(s State) string {
	if s.ErrorMessage != "" {
		return NodeEnd
	}

	switch s.QuestionStatus {
	case QuestionsHumanRequired:
		// A human-required signal always escalates, even when the verdict
		// gate is disabled.
		return NodeGateVerdict
	case QuestionsUnanswered:
		if s.IterationCount < s.MaxIterations {
			return NodeDraft
		}
		// Budget exhausted: escalate rather than loop forever.
		return NodeGateVerdict
	}

	if s.GateVerdict {
		return NodeGateVerdict
	}
	if s.VerdictStatus == VerdictApproved {
		return NodeFinalize
	}
	if s.IterationCount < s.MaxIterations {
		return NodeDraft
	}
	// Forced completion at budget exhaustion, carrying whatever status was
	// reached.
	return NodeFinalize
}

// FromGateDraft routes out of the post-draft human gate. The human's choice
// is honored except that a revise with no budget left falls through to
// review, whose own routing then terminates the run.
func FromGateDraft(s State) string {
	if s.ErrorMessage != "" {
		return NodeEnd
	}
	switch s.NextNode {
	case NodeReview:
		return NodeReview
	case NodeDraft:
		if s.IterationCount < s.MaxIterations {
			return NodeDraft
		}
		return NodeReview
	case NodeEnd:
		return NodeEnd
	}
	return NodeEnd
}

// FromGateVerdict routes out of the post-review human gate. A revise with no
// budget left finalizes instead, mirroring the forced completion rule.
func FromGateVerdict(s State) string {
	if s.ErrorMessage != "" {
		return NodeEnd
	}
	switch s.NextNode {
	case NodeFinalize:
		return NodeFinalize
	case NodeDraft:
		if s.IterationCount < s.MaxIterations {
			return NodeDraft
		}
		return NodeFinalize
	case NodeEnd:
		return NodeEnd
	}
	return NodeEnd
}

// AfterFinalize always terminates.
func AfterFinalize(State) string {
	return NodeEnd
}
