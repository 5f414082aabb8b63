package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/martymcenroe/draftloop/graph/emit"
	"github.com/martymcenroe/draftloop/graph/model"
)

// ReviewNode invokes the reviewer capability and derives three independent
// classifications from the raw verdict and the unmodified draft: the verdict
// status, the draft's open-question obligation, and the obligation's
// resolution status.
type ReviewNode struct {
	Model     model.ChatModel
	Templates *TemplateSet
	Emitter   emit.Emitter
}

// Run implements graph.Node[State].
func (r *ReviewNode) Run(ctx context.Context, s State) nodeResult {
	if s.CurrentDraft == "" {
		delta := State{ErrorMessage: "review: no draft to review"}
		return routeDelta(delta, AfterReview(Reduce(s, delta)))
	}

	system, err := r.Templates.Load(TemplateReviewSystem)
	if err != nil {
		delta := State{ErrorMessage: fmt.Sprintf("review: %v", err)}
		return routeDelta(delta, AfterReview(Reduce(s, delta)))
	}
	tmpl, err := r.Templates.Load(TemplateReview)
	if err != nil {
		delta := State{ErrorMessage: fmt.Sprintf("review: %v", err)}
		return routeDelta(delta, AfterReview(Reduce(s, delta)))
	}

	out, err := r.Model.Chat(ctx, []model.Message{
		{Role: model.RoleSystem, Content: system},
		{Role: model.RoleUser, Content: Render(tmpl, map[string]string{"draft": s.CurrentDraft})},
	})
	if err != nil {
		emitEvent(r.Emitter, s, NodeReview, "reviewer_failed", map[string]interface{}{"error": err.Error()})
		delta := State{ErrorMessage: fmt.Sprintf("reviewer invocation failed: %v", err)}
		return routeDelta(delta, AfterReview(Reduce(s, delta)))
	}

	verdict := strings.TrimSpace(out.Text)

	verdictStatus, recognized := ClassifyVerdict(verdict)
	questionStatus := ResolveQuestionStatus(s.CurrentDraft, verdict)

	_, seq, err := appendAudit(s.AuditDir, "verdict.md", verdict)
	if err != nil {
		return nodeResult{Err: err}
	}

	if !recognized {
		// An unrecognized verdict marker must be surfaced loudly, not only
		// reflected in the conservative BLOCKED default: emit an operator-
		// visible event and persist a dedicated audit artifact.
		emitEvent(r.Emitter, s, NodeReview, "verdict_unrecognized", map[string]interface{}{
			"verdict_count": s.VerdictCount + 1,
		})
		note := "No recognizable verdict marker (APPROVE / REVISE / DISCUSS) was found in the reviewer output.\n" +
			"The verdict was classified BLOCKED by default. Reviewer output follows.\n\n" + verdict
		_, noteSeq, err := appendAudit(s.AuditDir, "verdict-unrecognized.md", note)
		if err != nil {
			return nodeResult{Err: err}
		}
		seq = noteSeq
	}

	delta := State{
		CurrentVerdict: verdict,
		VerdictHistory: []string{verdict},
		VerdictCount:   s.VerdictCount + 1,
		IterationCount: s.IterationCount + 1,
		VerdictStatus:  verdictStatus,
		QuestionStatus: questionStatus,
		FileCounter:    seq,
	}

	next := AfterReview(Reduce(s, delta))
	if next == NodeDraft {
		if questionStatus == QuestionsUnanswered {
			delta.RevisionReason = ReasonOpenQuestions
		} else {
			delta.RevisionReason = ReasonBlocked
		}
	}
	return routeDelta(delta, next)
}
