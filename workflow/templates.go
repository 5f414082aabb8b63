package workflow

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Template names the stages load. Each resolves to a file under
// <install root>/templates/.
const (
	TemplateDraftSystem   = "draft_system.md"
	TemplateDraftInitial  = "draft_initial.md"
	TemplateDraftRevision = "draft_revision.md"
	TemplateReviewSystem  = "review_system.md"
	TemplateReview        = "review.md"
)

// TemplateSet loads prompt templates by name from the installation root.
// A missing template is a stage-level failure (ErrorMessage), never a crash.
type TemplateSet struct {
	root string
}

// NewTemplateSet creates a template set rooted at installRoot/templates.
func NewTemplateSet(installRoot string) *TemplateSet {
	return &TemplateSet{root: filepath.Join(installRoot, "templates")}
}

// Load reads one template file as UTF-8 text.
func (t *TemplateSet) Load(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(t.root, name))
	if err != nil {
		return "", fmt.Errorf("load template %s: %w", name, err)
	}
	return string(data), nil
}

// Render substitutes {{key}} placeholders. Unknown placeholders are left in
// place so a template typo shows up in the audit trail instead of vanishing.
func Render(tmpl string, vars map[string]string) string {
	out := tmpl
	for key, val := range vars {
		out = strings.ReplaceAll(out, "{{"+key+"}}", val)
	}
	return out
}

// DefaultTemplates is the scaffold written by `draftloop init`. The engine
// itself never depends on this wording; it only needs a prompt.
var DefaultTemplates = map[string]string{
	TemplateDraftSystem: `You are a technical drafter. You produce complete, structured markdown documents.

Output ONLY the document body, starting at its title line ("# ..."). No preamble, no commentary, no code fences around the document.
`,
	TemplateDraftInitial: `Write a design document for the following request.

Include an "## Open Questions" section listing anything you could not decide, as unchecked list items.

Request:
{{input}}
`,
	TemplateDraftRevision: `Revise the document below. Address every point of reviewer feedback; earlier feedback still applies unless later feedback supersedes it.

Current document:
{{draft}}

Reviewer feedback, oldest first:
{{history}}
{{feedback}}
Output ONLY the revised document body, starting at its title line.
`,
	TemplateReviewSystem: `You are a critical reviewer of technical documents. Be specific and decisive.
`,
	TemplateReview: `Review the document below.

1. Render exactly one verdict as a checked item: "- [x] APPROVE", "- [x] REVISE", or "- [x] DISCUSS".
2. If the document has an "Open Questions" section, answer each question under a "## Resolved" heading as "- [x] <question> - Resolved: <answer>". If a question genuinely requires a human decision, say so explicitly.
3. List concrete required changes for a REVISE verdict.

Document:
{{draft}}
`,
}
