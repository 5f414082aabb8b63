package workflow

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

// newTestRoots scaffolds an install root with the default templates and a
// target root, returning both plus a ready template set.
func newTestRoots(t *testing.T) (installRoot, targetRoot string, templates *TemplateSet) {
	t.Helper()

	installRoot = t.TempDir()
	targetRoot = t.TempDir()

	dir := filepath.Join(installRoot, "templates")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	for name, content := range DefaultTemplates {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return installRoot, targetRoot, NewTemplateSet(installRoot)
}

// newTestState builds a valid document-kind state rooted in temp dirs.
func newTestState(t *testing.T, installRoot, targetRoot string) State {
	t.Helper()

	s, err := NewRunState(KindDocument, "mock:drafter", "mock:reviewer",
		filepath.Join(targetRoot, "audit", "run-test"), installRoot, targetRoot, 5)
	if err != nil {
		t.Fatal(err)
	}
	s.RunID = "run-test"
	s.Brief = "# Cache layer\n\nDesign a cache layer for the API."
	return s
}

// scriptedApprover returns canned decisions in order.
type scriptedApprover struct {
	decisions []Decision
	err       error
	calls     int
}

func (a *scriptedApprover) Decide(_ context.Context, _ GateRequest) (Decision, error) {
	if a.err != nil {
		return Decision{}, a.err
	}
	if a.calls >= len(a.decisions) {
		return Decision{Next: NodeEnd}, nil
	}
	d := a.decisions[a.calls]
	a.calls++
	return d, nil
}
