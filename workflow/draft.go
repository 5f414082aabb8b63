package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/martymcenroe/draftloop/graph/emit"
	"github.com/martymcenroe/draftloop/graph/model"
)

// DraftNode builds the drafter prompt and invokes the drafter capability.
//
// The stage performs no structural gate on the draft's content: open
// questions inside the draft are the reviewer's problem, not grounds to
// refuse to proceed (see ResolveQuestionStatus and the post-review routing).
type DraftNode struct {
	Model     model.ChatModel
	Templates *TemplateSet
	Emitter   emit.Emitter
}

// Run implements graph.Node[State].
func (d *DraftNode) Run(ctx context.Context, s State) nodeResult {
	prompt, err := d.buildPrompt(s)
	if err != nil {
		delta := State{ErrorMessage: fmt.Sprintf("draft: %v", err)}
		return routeDelta(delta, AfterDraft(Reduce(s, delta)))
	}

	system, err := d.Templates.Load(TemplateDraftSystem)
	if err != nil {
		delta := State{ErrorMessage: fmt.Sprintf("draft: %v", err)}
		return routeDelta(delta, AfterDraft(Reduce(s, delta)))
	}

	out, err := d.Model.Chat(ctx, []model.Message{
		{Role: model.RoleSystem, Content: system},
		{Role: model.RoleUser, Content: prompt},
	})
	if err != nil {
		// Capability failure: record it and stop, without advancing any
		// counter. The engine never retries on its own.
		emitEvent(d.Emitter, s, NodeDraft, "drafter_failed", map[string]interface{}{"error": err.Error()})
		delta := State{ErrorMessage: fmt.Sprintf("drafter invocation failed: %v", err)}
		return routeDelta(delta, AfterDraft(Reduce(s, delta)))
	}

	draft := strings.TrimSpace(out.Text)
	if draft == "" {
		delta := State{ErrorMessage: "drafter returned empty output"}
		return routeDelta(delta, AfterDraft(Reduce(s, delta)))
	}

	_, seq, err := appendAudit(s.AuditDir, "draft.md", draft)
	if err != nil {
		return nodeResult{Err: err}
	}

	delta := State{
		CurrentDraft:   draft,
		DraftCount:     s.DraftCount + 1,
		IterationCount: s.IterationCount + 1,
		FileCounter:    seq,
		ClearFeedback:  true,
		ClearError:     true,
	}
	return routeDelta(delta, AfterDraft(Reduce(s, delta)))
}

// buildPrompt selects the initial or revision prompt shape. Revision prompts
// embed the entire cumulative verdict history so earlier feedback is never
// silently dropped across rounds, plus any pending human feedback.
func (d *DraftNode) buildPrompt(s State) (string, error) {
	if s.DraftCount == 0 {
		tmpl, err := d.Templates.Load(TemplateDraftInitial)
		if err != nil {
			return "", err
		}
		return Render(tmpl, map[string]string{"input": s.InputContent()}), nil
	}

	tmpl, err := d.Templates.Load(TemplateDraftRevision)
	if err != nil {
		return "", err
	}

	var history strings.Builder
	for i, verdict := range s.VerdictHistory {
		fmt.Fprintf(&history, "--- Verdict %d ---\n%s\n\n", i+1, verdict)
	}

	feedback := ""
	if s.HumanFeedback != "" {
		feedback = "Human feedback:\n" + s.HumanFeedback + "\n"
	}

	return Render(tmpl, map[string]string{
		"draft":    s.CurrentDraft,
		"history":  history.String(),
		"feedback": feedback,
	}), nil
}

// InputContent returns the source content the drafter works from: the brief
// for a document run, the fetched item for a tracked-item run.
func (s State) InputContent() string {
	if s.Kind == KindTrackedItem {
		return "# " + s.Item.Title + "\n\n" + s.Item.Body
	}
	return s.Brief
}
