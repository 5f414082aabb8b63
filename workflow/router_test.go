package workflow

import "testing"

func baseState() State {
	return State{
		Kind:          KindDocument,
		MaxIterations: 20,
		AuditDir:      "/tmp/audit",
		InstallRoot:   "/tmp/install",
		TargetRoot:    "/tmp/target",
	}
}

func TestAfterReview(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*State)
		want string
	}{
		{
			"error short-circuits everything",
			func(s *State) {
				s.ErrorMessage = "boom"
				s.VerdictStatus = VerdictApproved
				s.QuestionStatus = QuestionsNone
			},
			NodeEnd,
		},
		{
			"human required escalates",
			func(s *State) {
				s.QuestionStatus = QuestionsHumanRequired
				s.VerdictStatus = VerdictApproved
			},
			NodeGateVerdict,
		},
		{
			"human required escalates even with gate disabled",
			func(s *State) {
				s.GateVerdict = false
				s.QuestionStatus = QuestionsHumanRequired
			},
			NodeGateVerdict,
		},
		{
			"unanswered loops back under budget",
			func(s *State) {
				s.QuestionStatus = QuestionsUnanswered
				s.VerdictStatus = VerdictApproved
				s.IterationCount = 2
			},
			NodeDraft,
		},
		{
			"unanswered at budget escalates",
			func(s *State) {
				s.QuestionStatus = QuestionsUnanswered
				s.IterationCount = 20
			},
			NodeGateVerdict,
		},
		{
			"approved finalizes",
			func(s *State) {
				s.QuestionStatus = QuestionsNone
				s.VerdictStatus = VerdictApproved
			},
			NodeFinalize,
		},
		{
			"resolved approved finalizes",
			func(s *State) {
				s.QuestionStatus = QuestionsResolved
				s.VerdictStatus = VerdictApproved
			},
			NodeFinalize,
		},
		{
			"gate enabled intercepts approval",
			func(s *State) {
				s.GateVerdict = true
				s.QuestionStatus = QuestionsNone
				s.VerdictStatus = VerdictApproved
			},
			NodeGateVerdict,
		},
		{
			"blocked loops back under budget",
			func(s *State) {
				s.QuestionStatus = QuestionsNone
				s.VerdictStatus = VerdictBlocked
				s.IterationCount = 3
			},
			NodeDraft,
		},
		{
			"blocked at budget forces completion",
			func(s *State) {
				s.QuestionStatus = QuestionsNone
				s.VerdictStatus = VerdictBlocked
				s.IterationCount = 20
			},
			NodeFinalize,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := baseState()
			tt.mod(&s)
			if got := AfterReview(s); got != tt.want {
				t.Errorf("AfterReview() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAfterLoadAndDraft(t *testing.T) {
	s := baseState()
	if got := AfterLoad(s); got != NodeDraft {
		t.Errorf("AfterLoad() = %q, want %q", got, NodeDraft)
	}

	s.ErrorMessage = "boom"
	if got := AfterLoad(s); got != NodeEnd {
		t.Errorf("AfterLoad() with error = %q, want %q", got, NodeEnd)
	}

	s = baseState()
	if got := AfterDraft(s); got != NodeReview {
		t.Errorf("AfterDraft() = %q, want %q", got, NodeReview)
	}
	s.GateDraft = true
	if got := AfterDraft(s); got != NodeGateDraft {
		t.Errorf("AfterDraft() with gate = %q, want %q", got, NodeGateDraft)
	}
}

func TestFromGates(t *testing.T) {
	tests := []struct {
		name  string
		route func(State) string
		mod   func(*State)
		want  string
	}{
		{"draft gate continue", FromGateDraft, func(s *State) { s.NextNode = NodeReview }, NodeReview},
		{"draft gate revise", FromGateDraft, func(s *State) { s.NextNode = NodeDraft; s.IterationCount = 1 }, NodeDraft},
		{
			"draft gate revise at budget goes to review",
			FromGateDraft,
			func(s *State) { s.NextNode = NodeDraft; s.IterationCount = 20 },
			NodeReview,
		},
		{"draft gate quit", FromGateDraft, func(s *State) { s.NextNode = NodeEnd }, NodeEnd},
		{"draft gate invalid next", FromGateDraft, func(s *State) { s.NextNode = "bogus" }, NodeEnd},
		{"verdict gate continue", FromGateVerdict, func(s *State) { s.NextNode = NodeFinalize }, NodeFinalize},
		{"verdict gate revise", FromGateVerdict, func(s *State) { s.NextNode = NodeDraft; s.IterationCount = 5 }, NodeDraft},
		{
			"verdict gate revise at budget finalizes",
			FromGateVerdict,
			func(s *State) { s.NextNode = NodeDraft; s.IterationCount = 20 },
			NodeFinalize,
		},
		{"verdict gate quit", FromGateVerdict, func(s *State) { s.NextNode = NodeEnd }, NodeEnd},
		{"verdict gate error wins", FromGateVerdict, func(s *State) { s.NextNode = NodeFinalize; s.ErrorMessage = "x" }, NodeEnd},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := baseState()
			tt.mod(&s)
			if got := tt.route(s); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

// TestRouterTermination drives the router functions alone: every loop-back
// consumes budget, so any reachable state must hit a terminal decision within
// the budget plus a constant number of transitions.
func TestRouterTermination(t *testing.T) {
	s := baseState()
	s.MaxIterations = 5
	s.VerdictStatus = VerdictBlocked
	s.QuestionStatus = QuestionsUnanswered

	node := NodeLoad
	transitions := 0
	for node != NodeEnd && node != NodeGateVerdict && node != NodeFinalize {
		transitions++
		if transitions > s.MaxIterations*6+10 {
			t.Fatalf("router did not terminate, stuck at %q", node)
		}
		switch node {
		case NodeLoad:
			node = AfterLoad(s)
		case NodeDraft:
			s.IterationCount++
			node = AfterDraft(s)
		case NodeReview:
			s.IterationCount++
			node = AfterReview(s)
		}
	}
	if node != NodeGateVerdict {
		t.Errorf("unanswered questions at budget should escalate, got %q", node)
	}
}

func TestAfterFinalize(t *testing.T) {
	if got := AfterFinalize(baseState()); got != NodeEnd {
		t.Errorf("AfterFinalize() = %q, want %q", got, NodeEnd)
	}
}
