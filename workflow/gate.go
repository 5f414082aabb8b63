package workflow

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// GateRequest is what an Approver sees when the workflow suspends for a
// human decision.
type GateRequest struct {
	// Stage is the gate node asking, NodeGateDraft or NodeGateVerdict.
	Stage string

	Draft   string
	Verdict string

	IterationCount int
	MaxIterations  int

	// Allowed is the closed set of next nodes the human may choose.
	Allowed []string
}

// Decision is the human's answer at a gate.
type Decision struct {
	// Next must be one of the request's Allowed nodes.
	Next string

	// Feedback is optional free text carried into the next revision prompt.
	Feedback string
}

// Approver supplies human decisions at gates. The workflow blocks on Decide;
// it holds no other resources while waiting.
type Approver interface {
	Decide(ctx context.Context, req GateRequest) (Decision, error)
}

// ConsoleApprover prompts on a terminal. It is the interactive default; an
// automated deployment plugs in its own Approver.
type ConsoleApprover struct {
	in  *bufio.Reader
	out io.Writer
}

// NewConsoleApprover reads from in and writes prompts to out; nil arguments
// default to stdin and stdout.
func NewConsoleApprover(in io.Reader, out io.Writer) *ConsoleApprover {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleApprover{in: bufio.NewReader(in), out: out}
}

// Decide implements Approver. "c" continues to the gate's forward node, "r"
// loops back to drafting (with optional feedback), "q" ends the run.
func (a *ConsoleApprover) Decide(ctx context.Context, req GateRequest) (Decision, error) {
	if ctx.Err() != nil {
		return Decision{}, ctx.Err()
	}

	fmt.Fprintf(a.out, "\n--- %s (iteration %d/%d) ---\n", req.Stage, req.IterationCount, req.MaxIterations)
	if req.Stage == NodeGateVerdict && req.Verdict != "" {
		fmt.Fprintf(a.out, "\nLatest verdict:\n%s\n", req.Verdict)
	} else if req.Draft != "" {
		fmt.Fprintf(a.out, "\nCurrent draft:\n%s\n", req.Draft)
	}
	fmt.Fprintf(a.out, "\n[c]ontinue, [r]evise, [q]uit: ")

	line, err := a.in.ReadString('\n')
	if err != nil && line == "" {
		return Decision{}, fmt.Errorf("read gate decision: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "c", "continue", "":
		return Decision{Next: forwardNode(req)}, nil
	case "r", "revise":
		fmt.Fprintf(a.out, "Feedback (single line, optional): ")
		feedback, err := a.in.ReadString('\n')
		if err != nil && feedback == "" {
			return Decision{}, fmt.Errorf("read gate feedback: %w", err)
		}
		return Decision{Next: NodeDraft, Feedback: strings.TrimSpace(feedback)}, nil
	case "q", "quit":
		return Decision{Next: NodeEnd}, nil
	}
	return Decision{Next: NodeEnd}, nil
}

// forwardNode picks the gate's continue target: the first allowed node that
// is not a loop-back or termination.
func forwardNode(req GateRequest) string {
	for _, node := range req.Allowed {
		if node != NodeDraft && node != NodeEnd {
			return node
		}
	}
	return NodeEnd
}

// GateNode suspends the workflow for a human decision. One implementation
// serves both gates; Stage and Allowed differ per instance.
type GateNode struct {
	Stage    string
	Allowed  []string
	Approver Approver
	Reason   RevisionReason
}

// Run asks the Approver for a decision, validates it against the gate's
// allowed set, records it in NextNode, and routes through the pure gate
// router so the budget check applies to human revise choices too.
func (g *GateNode) Run(ctx context.Context, s State) nodeResult {
	decision, err := g.Approver.Decide(ctx, GateRequest{
		Stage:          g.Stage,
		Draft:          s.CurrentDraft,
		Verdict:        s.CurrentVerdict,
		IterationCount: s.IterationCount,
		MaxIterations:  s.MaxIterations,
		Allowed:        g.Allowed,
	})
	if err != nil {
		delta := State{ErrorMessage: fmt.Sprintf("%s: %v", g.Stage, err)}
		return routeDelta(delta, NodeEnd)
	}

	if !contains(g.Allowed, decision.Next) {
		delta := State{ErrorMessage: fmt.Sprintf("%s: invalid next node %q", g.Stage, decision.Next)}
		return routeDelta(delta, NodeEnd)
	}

	delta := State{NextNode: decision.Next}
	if decision.Next == NodeDraft {
		delta.RevisionReason = g.Reason
		if decision.Feedback != "" {
			delta.HumanFeedback = decision.Feedback
		}
	}

	next := NodeEnd
	switch g.Stage {
	case NodeGateDraft:
		next = FromGateDraft(Reduce(s, delta))
	case NodeGateVerdict:
		next = FromGateVerdict(Reduce(s, delta))
	}
	return routeDelta(delta, next)
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
