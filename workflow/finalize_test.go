package workflow

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFinalizeTrackedItem(t *testing.T) {
	install, target, _ := newTestRoots(t)
	s := newTestState(t, install, target)
	s.Kind = KindTrackedItem
	s.CurrentDraft = "# Fix flaky login test\n\nThe login test fails when run after midnight UTC.\n"
	s.VerdictStatus = VerdictApproved

	tracker := &MockTracker{}
	node := &FinalizeNode{Tracker: tracker, Registry: NullRegistry{}}

	result := node.Run(context.Background(), s)
	if result.Err != nil {
		t.Fatalf("Run() error: %v", result.Err)
	}
	if result.Delta.ItemRef == "" {
		t.Fatal("expected a tracked item reference")
	}
	if len(tracker.Created) != 1 {
		t.Fatalf("created %d items, want 1", len(tracker.Created))
	}
	if tracker.Created[0].Title != "Fix flaky login test" {
		t.Errorf("title = %q", tracker.Created[0].Title)
	}
	if !strings.Contains(tracker.Created[0].Body, "after midnight UTC") {
		t.Errorf("body = %q", tracker.Created[0].Body)
	}
	if !result.Route.Terminal {
		t.Errorf("route = %+v, want terminal", result.Route)
	}
}

func TestFinalizeDocumentApproved(t *testing.T) {
	install, target, _ := newTestRoots(t)
	s := newTestState(t, install, target)
	s.CurrentDraft = "# Cache Layer\n\nFinal body.\n"
	s.VerdictStatus = VerdictApproved
	s.OutputPath = filepath.Join(target, "docs", "active", "cache-layer.md")
	s.WorkingFiles = []string{s.OutputPath}

	registry := NewYAMLRegistry(filepath.Join(target, "status.yaml"))
	node := &FinalizeNode{Tracker: &MockTracker{}, Registry: registry}

	result := node.Run(context.Background(), s)
	if result.Err != nil {
		t.Fatalf("Run() error: %v", result.Err)
	}

	// Approved output is promoted from active to done.
	if len(result.Delta.Archived) != 1 {
		t.Fatalf("archived = %v, want one path", result.Delta.Archived)
	}
	done := filepath.Join(target, "docs", "done", "cache-layer.md")
	if result.Delta.Archived[0] != done {
		t.Errorf("archived to %q, want %q", result.Delta.Archived[0], done)
	}
	data, err := os.ReadFile(done)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != s.CurrentDraft {
		t.Error("final content not preserved through archival")
	}

	// The status registry saw the transition.
	reg, err := os.ReadFile(filepath.Join(target, "status.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(reg), StatusApproved) {
		t.Errorf("registry = %q, want %q recorded", reg, StatusApproved)
	}

	// A run summary landed in the audit trail.
	entries, err := os.ReadDir(s.AuditDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || !strings.Contains(entries[0].Name(), "final") {
		t.Errorf("audit entries = %v, want a final summary", entries)
	}
}

func TestFinalizeDocumentBudgetExhausted(t *testing.T) {
	install, target, _ := newTestRoots(t)
	s := newTestState(t, install, target)
	s.CurrentDraft = "# Cache Layer\n\nBest effort body.\n"
	s.VerdictStatus = VerdictBlocked
	s.OutputPath = filepath.Join(target, "docs", "active", "cache-layer.md")
	s.WorkingFiles = []string{s.OutputPath}

	node := &FinalizeNode{Tracker: &MockTracker{}, Registry: NullRegistry{}}
	result := node.Run(context.Background(), s)
	if result.Err != nil {
		t.Fatalf("Run() error: %v", result.Err)
	}

	// Archival only promotes completed work: the output stays in active.
	if len(result.Delta.Archived) != 0 {
		t.Errorf("archived = %v, want none", result.Delta.Archived)
	}
	if len(result.Delta.Skipped) != 1 {
		t.Errorf("skipped = %v, want the working file", result.Delta.Skipped)
	}
	if _, err := os.Stat(s.OutputPath); err != nil {
		t.Error("output must still be written to the active location")
	}
}

func TestFinalizeWithoutDraft(t *testing.T) {
	install, target, _ := newTestRoots(t)
	s := newTestState(t, install, target)

	node := &FinalizeNode{Tracker: &MockTracker{}, Registry: NullRegistry{}}
	result := node.Run(context.Background(), s)
	if result.Delta.ErrorMessage == "" {
		t.Fatal("finalizing without a draft must fail")
	}
}

func TestSplitTitleBody(t *testing.T) {
	tests := []struct {
		name      string
		doc       string
		wantTitle string
		wantBody  string
	}{
		{"title and body", "# Title\n\nBody line.\n", "Title", "Body line."},
		{"preamble before title", "note\n# Title\nBody", "Title", "Body"},
		{"no title", "just text\n", "", "just text"},
		{"multilingual title", "# 設計文書\n\n内容\n", "設計文書", "内容"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, body := SplitTitleBody(tt.doc)
			if title != tt.wantTitle || body != tt.wantBody {
				t.Errorf("SplitTitleBody() = (%q, %q), want (%q, %q)", title, body, tt.wantTitle, tt.wantBody)
			}
		})
	}
}
