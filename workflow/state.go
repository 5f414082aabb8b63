// Package workflow implements the document-production loop: an iterative
// drafter/reviewer cycle with optional human gates, a bounded revision budget,
// a sequentially numbered audit trail, and idempotent archival of completed
// work.
package workflow

import (
	"errors"
	"fmt"
)

// Kind selects which production flow a run follows.
type Kind string

const (
	// KindDocument produces a design document written to the target tree.
	KindDocument Kind = "document"

	// KindTrackedItem produces a new item in the issue tracker.
	KindTrackedItem Kind = "tracked_item"
)

// VerdictStatus is the classification of the reviewer's latest verdict.
type VerdictStatus string

const (
	VerdictPending  VerdictStatus = "pending"
	VerdictApproved VerdictStatus = "approved"
	VerdictBlocked  VerdictStatus = "blocked"
)

// QuestionStatus is the open-question resolution status derived fresh on
// every review cycle.
type QuestionStatus string

const (
	// QuestionsNone means the draft carries no open-question obligation.
	QuestionsNone QuestionStatus = "none"

	// QuestionsResolved means the reviewer resolved every open question.
	QuestionsResolved QuestionStatus = "resolved"

	// QuestionsHumanRequired means the reviewer flagged at least one question
	// as needing a human decision. Always escalates to the verdict gate.
	QuestionsHumanRequired QuestionStatus = "human_required"

	// QuestionsUnanswered means the draft has open questions the reviewer did
	// not address.
	QuestionsUnanswered QuestionStatus = "unanswered"
)

// RevisionReason records why the workflow looped back to the draft stage.
// The human-feedback loop and the automatic open-question loop share one
// budget counter but are distinguishable in the audit trail through this
// field.
type RevisionReason string

const (
	ReasonHumanFeedback RevisionReason = "human_feedback"
	ReasonOpenQuestions RevisionReason = "open_questions"
	ReasonBlocked       RevisionReason = "verdict_blocked"
)

// TrackedItem is the fetched content of an issue-tracker item.
type TrackedItem struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// State is the single record threaded through every stage of a run. Stages
// receive it read-only and return a partial delta; Reduce merges deltas.
//
// Identity fields (Kind, model specs, gates, budget, roots) are set once at
// construction and never change. Each stage writes only its own fields.
type State struct {
	RunID        string `json:"run_id,omitempty"`
	Kind         Kind   `json:"kind"`
	DrafterSpec  string `json:"drafter_spec"`
	ReviewerSpec string `json:"reviewer_spec"`

	GateDraft     bool `json:"gate_draft"`
	GateVerdict   bool `json:"gate_verdict"`
	MaxIterations int  `json:"max_iterations"`

	// Input, one of the two depending on Kind.
	Brief  string      `json:"brief,omitempty"`
	ItemID string      `json:"item_id,omitempty"`
	Item   TrackedItem `json:"item,omitempty"`

	IterationCount int `json:"iteration_count"`
	DraftCount     int `json:"draft_count"`
	VerdictCount   int `json:"verdict_count"`

	CurrentDraft   string   `json:"current_draft,omitempty"`
	CurrentVerdict string   `json:"current_verdict,omitempty"`
	VerdictHistory []string `json:"verdict_history,omitempty"`

	QuestionStatus QuestionStatus `json:"question_status,omitempty"`
	VerdictStatus  VerdictStatus  `json:"verdict_status,omitempty"`

	// NextNode is the routing hint written only by the human gates.
	NextNode       string         `json:"next_node,omitempty"`
	RevisionReason RevisionReason `json:"revision_reason,omitempty"`
	HumanFeedback  string         `json:"human_feedback,omitempty"`

	AuditDir    string `json:"audit_dir"`
	FileCounter int    `json:"file_counter"`

	InstallRoot string `json:"install_root"`
	TargetRoot  string `json:"target_root"`

	// ErrorMessage non-empty means the run is unrecoverable; the router
	// terminates unconditionally.
	ErrorMessage string `json:"error_message,omitempty"`

	// Outputs.
	OutputPath   string   `json:"output_path,omitempty"`
	ItemRef      string   `json:"item_ref,omitempty"`
	WorkingFiles []string `json:"working_files,omitempty"`
	Archived     []string `json:"archived,omitempty"`
	Skipped      []string `json:"skipped,omitempty"`

	// Delta-only directives consumed by Reduce. A stage cannot express
	// "set this string to empty" through the merge, so clearing is explicit.
	ClearError    bool `json:"-"`
	ClearFeedback bool `json:"-"`
}

// NewRunState builds the initial state for a run, failing fast on
// configuration errors so a misconfigured run never enters the graph.
func NewRunState(kind Kind, drafterSpec, reviewerSpec, auditDir, installRoot, targetRoot string, maxIterations int) (State, error) {
	switch kind {
	case KindDocument, KindTrackedItem:
	default:
		return State{}, fmt.Errorf("unknown workflow kind %q", kind)
	}
	if auditDir == "" {
		return State{}, errors.New("audit dir cannot be empty")
	}
	if installRoot == "" {
		return State{}, errors.New("install root cannot be empty")
	}
	if targetRoot == "" {
		return State{}, errors.New("target root cannot be empty")
	}
	if maxIterations <= 0 {
		return State{}, fmt.Errorf("max iterations must be positive, got %d", maxIterations)
	}

	return State{
		Kind:           kind,
		DrafterSpec:    drafterSpec,
		ReviewerSpec:   reviewerSpec,
		MaxIterations:  maxIterations,
		AuditDir:       auditDir,
		InstallRoot:    installRoot,
		TargetRoot:     targetRoot,
		VerdictStatus:  VerdictPending,
		QuestionStatus: QuestionsNone,
	}, nil
}

// Reduce merges a stage's partial delta into the previous state.
//
// Strings and enums overwrite only when non-empty, counters only move
// forward, and VerdictHistory is append-only. Identity fields set at
// construction (Kind, specs, gates, budget, roots) are never taken from a
// delta. Clear directives apply last.
func Reduce(prev, delta State) State {
	if delta.RunID != "" {
		prev.RunID = delta.RunID
	}
	if delta.Brief != "" {
		prev.Brief = delta.Brief
	}
	if delta.ItemID != "" {
		prev.ItemID = delta.ItemID
	}
	if delta.Item.Title != "" || delta.Item.Body != "" {
		prev.Item = delta.Item
	}

	if delta.IterationCount > prev.IterationCount {
		prev.IterationCount = delta.IterationCount
	}
	if delta.DraftCount > prev.DraftCount {
		prev.DraftCount = delta.DraftCount
	}
	if delta.VerdictCount > prev.VerdictCount {
		prev.VerdictCount = delta.VerdictCount
	}
	if delta.FileCounter > prev.FileCounter {
		prev.FileCounter = delta.FileCounter
	}

	if delta.CurrentDraft != "" {
		prev.CurrentDraft = delta.CurrentDraft
	}
	if delta.CurrentVerdict != "" {
		prev.CurrentVerdict = delta.CurrentVerdict
	}
	if len(delta.VerdictHistory) > 0 {
		prev.VerdictHistory = append(prev.VerdictHistory, delta.VerdictHistory...)
	}

	if delta.QuestionStatus != "" {
		prev.QuestionStatus = delta.QuestionStatus
	}
	if delta.VerdictStatus != "" {
		prev.VerdictStatus = delta.VerdictStatus
	}
	if delta.NextNode != "" {
		prev.NextNode = delta.NextNode
	}
	if delta.RevisionReason != "" {
		prev.RevisionReason = delta.RevisionReason
	}
	if delta.HumanFeedback != "" {
		prev.HumanFeedback = delta.HumanFeedback
	}
	if delta.ErrorMessage != "" {
		prev.ErrorMessage = delta.ErrorMessage
	}

	if delta.OutputPath != "" {
		prev.OutputPath = delta.OutputPath
	}
	if delta.ItemRef != "" {
		prev.ItemRef = delta.ItemRef
	}
	if len(delta.WorkingFiles) > 0 {
		prev.WorkingFiles = delta.WorkingFiles
	}
	if len(delta.Archived) > 0 {
		prev.Archived = delta.Archived
	}
	if len(delta.Skipped) > 0 {
		prev.Skipped = delta.Skipped
	}

	if delta.ClearError {
		prev.ErrorMessage = ""
	}
	if delta.ClearFeedback {
		prev.HumanFeedback = ""
	}
	return prev
}
