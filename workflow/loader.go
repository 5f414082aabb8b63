package workflow

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/martymcenroe/draftloop/graph/emit"
)

// LoadNode turns the run's raw input into workable state: the brief for a
// document run, a tracker fetch for a tracked-item run. The input is
// persisted as the run's first audit artifact so the trail reconstructs the
// whole history, input included.
type LoadNode struct {
	Tracker Tracker
	Emitter emit.Emitter
}

// Run implements graph.Node[State].
func (l *LoadNode) Run(ctx context.Context, s State) nodeResult {
	var delta State

	switch s.Kind {
	case KindTrackedItem:
		if s.ItemID == "" {
			delta = State{ErrorMessage: "load: no item id"}
			return routeDelta(delta, AfterLoad(Reduce(s, delta)))
		}
		item, err := l.Tracker.Fetch(ctx, s.ItemID)
		if err != nil {
			emitEvent(l.Emitter, s, NodeLoad, "fetch_failed", map[string]interface{}{"item_id": s.ItemID, "error": err.Error()})
			delta = State{ErrorMessage: fmt.Sprintf("load: fetch item %s: %v", s.ItemID, err)}
			return routeDelta(delta, AfterLoad(Reduce(s, delta)))
		}
		delta.Item = item

	default:
		if strings.TrimSpace(s.Brief) == "" {
			delta = State{ErrorMessage: "load: empty brief"}
			return routeDelta(delta, AfterLoad(Reduce(s, delta)))
		}
		// The document's working home: written by finalize, promoted to the
		// sibling done/ directory on success.
		output := filepath.Join(s.TargetRoot, "docs", "active", slugify(firstLine(s.Brief))+".md")
		delta.OutputPath = output
		delta.WorkingFiles = []string{output}
	}

	input := Reduce(s, delta).InputContent()
	_, seq, err := appendAudit(s.AuditDir, "input.md", input)
	if err != nil {
		return nodeResult{Err: err}
	}
	delta.FileCounter = seq

	return routeDelta(delta, AfterLoad(Reduce(s, delta)))
}

func firstLine(text string) string {
	line := text
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		line = text[:i]
	}
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "# "))
}
