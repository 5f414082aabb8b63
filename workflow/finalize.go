package workflow

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/martymcenroe/draftloop/graph/emit"
)

// FinalizeNode persists the final artifact and, for document runs, promotes
// the working files from active to done.
type FinalizeNode struct {
	Tracker  Tracker
	Registry StatusRegistry
	Emitter  emit.Emitter
}

// Run implements graph.Node[State].
func (f *FinalizeNode) Run(ctx context.Context, s State) nodeResult {
	if s.CurrentDraft == "" {
		delta := State{ErrorMessage: "finalize: no draft to finalize"}
		return routeDelta(delta, NodeEnd)
	}

	var delta State
	if s.Kind == KindTrackedItem {
		delta = f.finalizeTrackedItem(ctx, s)
	} else {
		delta = f.finalizeDocument(s)
	}

	if delta.ErrorMessage == "" {
		summary := f.summary(Reduce(s, delta))
		_, seq, err := appendAudit(s.AuditDir, "final.md", summary)
		if err != nil {
			return nodeResult{Err: err}
		}
		delta.FileCounter = seq
	}
	return routeDelta(delta, AfterFinalize(Reduce(s, delta)))
}

// finalizeTrackedItem extracts the title and body from the draft and files a
// new item through the tracker. The title extraction depends on the drafter's
// formatting contract: the artifact starts at its title line.
func (f *FinalizeNode) finalizeTrackedItem(ctx context.Context, s State) State {
	title, body := SplitTitleBody(s.CurrentDraft)
	if title == "" {
		return State{ErrorMessage: "finalize: draft has no title line"}
	}

	ref, err := f.Tracker.Create(ctx, title, body)
	if err != nil {
		return State{ErrorMessage: fmt.Sprintf("finalize: create tracked item: %v", err)}
	}

	emitEvent(f.Emitter, s, NodeFinalize, "item_created", map[string]interface{}{"ref": ref})
	return State{ItemRef: ref}
}

// finalizeDocument writes the final draft to its active output location,
// records the status transition, then archives the working files. Archival
// only promotes completed work: an unapproved (budget-exhausted) outcome
// skips every candidate.
func (f *FinalizeNode) finalizeDocument(s State) State {
	if s.OutputPath == "" {
		return State{ErrorMessage: "finalize: no output path"}
	}
	if err := os.MkdirAll(filepath.Dir(s.OutputPath), 0o755); err != nil {
		return State{ErrorMessage: fmt.Sprintf("finalize: %v", err)}
	}
	if err := os.WriteFile(s.OutputPath, []byte(s.CurrentDraft), 0o644); err != nil {
		return State{ErrorMessage: fmt.Sprintf("finalize: write output: %v", err)}
	}

	approved := s.VerdictStatus == VerdictApproved
	status := StatusApproved
	if !approved {
		status = StatusExhausted
	}
	if err := f.Registry.SetStatus(s.OutputPath, status); err != nil {
		return State{ErrorMessage: fmt.Sprintf("finalize: update status registry: %v", err)}
	}

	var archived, skipped []string
	for _, result := range ArchiveAll(s.WorkingFiles, approved) {
		if result.Archived() {
			archived = append(archived, result.Dest)
			continue
		}
		skipped = append(skipped, result.Source)
		emitEvent(f.Emitter, s, NodeFinalize, "archive_skipped", map[string]interface{}{
			"path": result.Source, "reason": result.Reason,
		})
	}

	return State{OutputPath: s.OutputPath, Archived: archived, Skipped: skipped}
}

func (f *FinalizeNode) summary(s State) string {
	var b strings.Builder
	b.WriteString("# Run summary\n\n")
	fmt.Fprintf(&b, "- Kind: %s\n", s.Kind)
	fmt.Fprintf(&b, "- Verdict: %s\n", s.VerdictStatus)
	fmt.Fprintf(&b, "- Open questions: %s\n", s.QuestionStatus)
	fmt.Fprintf(&b, "- Iterations: %d/%d (drafts %d, verdicts %d)\n", s.IterationCount, s.MaxIterations, s.DraftCount, s.VerdictCount)
	if s.ItemRef != "" {
		fmt.Fprintf(&b, "- Tracked item: %s\n", s.ItemRef)
	}
	if s.OutputPath != "" {
		fmt.Fprintf(&b, "- Output: %s\n", s.OutputPath)
	}
	for _, p := range s.Archived {
		fmt.Fprintf(&b, "- Archived: %s\n", p)
	}
	for _, p := range s.Skipped {
		fmt.Fprintf(&b, "- Skipped: %s\n", p)
	}
	return b.String()
}

// SplitTitleBody splits an artifact into its title (the first line beginning
// with the markdown title marker, without the marker) and the remaining
// blank-line-trimmed body.
func SplitTitleBody(doc string) (title, body string) {
	lines := strings.Split(doc, "\n")
	for i, line := range lines {
		if strings.HasPrefix(line, "# ") {
			title = strings.TrimSpace(strings.TrimPrefix(line, "# "))
			body = strings.Trim(strings.Join(lines[i+1:], "\n"), "\n")
			return title, body
		}
	}
	return "", strings.Trim(doc, "\n")
}
