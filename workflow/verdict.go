package workflow

import (
	"regexp"
	"strings"
)

// Reviewer output is free text; everything here classifies it into closed
// enums so the router never touches raw text. Classification is conservative:
// nothing is ever treated as approved by default.

var (
	// checkedOutcome matches an affirmatively checked outcome marker, e.g.
	// "- [x] **APPROVE**" or "* [X] Revise". Capture group 1 is the label.
	checkedOutcome = regexp.MustCompile(`(?im)^\s*(?:[-*]\s*)?\[[xX]\]\s*\*{0,2}(approve|revise|discuss)`)

	// openQuestionsHeading matches the draft's open-questions section heading
	// at any depth.
	openQuestionsHeading = regexp.MustCompile(`(?i)^#{1,6}\s*open\s+questions?\b`)

	// resolvedHeading matches the verdict section where reviewers record
	// question resolutions.
	resolvedHeading = regexp.MustCompile(`(?i)^#{1,6}\s*(?:open\s+questions?|resolved|question\s+resolutions?)\b`)

	anyHeading    = regexp.MustCompile(`^#{1,6}\s`)
	uncheckedItem = regexp.MustCompile(`^\s*[-*]\s*\[\s?\]\s*(.*)$`)
	checkedItem   = regexp.MustCompile(`^\s*[-*]\s*\[[xX]\]\s*(.*)$`)

	// humanRequired matches the phrasings reviewers use to punt a question to
	// a human. Any one of them escalates, regardless of everything else.
	humanRequired = regexp.MustCompile(`(?i)requires?\s+(?:a\s+)?human\s+(?:decision|input|review)|human\s+decision\s+(?:is\s+)?(?:required|needed)|needs?\s+(?:a\s+)?human\s+decision|escalate\s+to\s+(?:a\s+)?human`)

	// resolutionMark matches an explicit resolution annotation on a checked
	// item or its own line, e.g. "- [x] Q1: Resolved, use UTC" or
	// "Resolution: keep both".
	resolutionMark = regexp.MustCompile(`(?i)\bresol(?:ved|ution)\b`)
)

// ClassifyVerdict extracts the verdict classification from free reviewer
// text. A checked revise or discuss marker wins over a checked approve; the
// second return reports whether any recognizable marker was present so
// callers can surface an unrecognized verdict loudly rather than let the
// conservative default mask it.
func ClassifyVerdict(verdict string) (VerdictStatus, bool) {
	matches := checkedOutcome.FindAllStringSubmatch(verdict, -1)
	if len(matches) == 0 {
		return VerdictBlocked, false
	}

	approved := false
	for _, m := range matches {
		switch strings.ToLower(m[1]) {
		case "revise", "discuss":
			return VerdictBlocked, true
		case "approve":
			approved = true
		}
	}
	if approved {
		return VerdictApproved, true
	}
	return VerdictBlocked, true
}

// OpenQuestionItems returns the unchecked list items inside the draft's
// "Open Questions" section. The section ends at the next heading of any
// level; unchecked items elsewhere in the document (a definition-of-done
// checklist, say) are not open questions. No section, or no unchecked items
// in it, means no open-question obligation exists.
func OpenQuestionItems(draft string) []string {
	section := sectionAfter(draft, openQuestionsHeading)
	if section == "" {
		return nil
	}

	var items []string
	for _, line := range strings.Split(section, "\n") {
		if m := uncheckedItem.FindStringSubmatch(line); m != nil {
			items = append(items, strings.TrimSpace(m[1]))
		}
	}
	return items
}

// ResolveQuestionStatus derives the open-question resolution status for one
// review cycle from the unmodified draft and the raw verdict.
//
// Priority: no obligation in the draft is NONE; a human-required marker
// anywhere in the verdict is HUMAN_REQUIRED regardless of anything else; at
// least one explicit resolution with no unresolved items remaining in the
// verdict's question section is RESOLVED; everything else is UNANSWERED.
func ResolveQuestionStatus(draft, verdict string) QuestionStatus {
	if len(OpenQuestionItems(draft)) == 0 {
		return QuestionsNone
	}

	if humanRequired.MatchString(verdict) {
		return QuestionsHumanRequired
	}

	// Scope the resolution scan to the verdict's own question section when it
	// has one, else the whole verdict. Inside a section whose heading already
	// says "resolved", a checked item needs no per-item annotation.
	headingLine, scope, found := sectionWithHeading(verdict, resolvedHeading)
	inResolutionSection := found && resolutionMark.MatchString(headingLine)
	if !found {
		scope = verdict
	}

	resolved := 0
	unresolved := 0
	for _, line := range strings.Split(scope, "\n") {
		if m := checkedItem.FindStringSubmatch(line); m != nil {
			if inResolutionSection || resolutionMark.MatchString(m[1]) {
				resolved++
			}
			continue
		}
		if uncheckedItem.MatchString(line) {
			unresolved++
		}
	}

	if resolved > 0 && unresolved == 0 {
		return QuestionsResolved
	}
	return QuestionsUnanswered
}

// DraftHasUnresolvedQuestions reports whether the draft itself contains an
// open-question obligation. Retained for callers that predate the move of
// the question gate to after review; the workflow no longer calls it.
func DraftHasUnresolvedQuestions(draft string) bool {
	return len(OpenQuestionItems(draft)) > 0
}

// sectionAfter returns the text between the first line matching heading and
// the next markdown heading of any level, or "" when the heading is absent.
func sectionAfter(text string, heading *regexp.Regexp) string {
	_, body, _ := sectionWithHeading(text, heading)
	return body
}

// sectionWithHeading is sectionAfter plus the matched heading line itself.
func sectionWithHeading(text string, heading *regexp.Regexp) (headingLine, body string, found bool) {
	lines := strings.Split(text, "\n")

	start := -1
	for i, line := range lines {
		if heading.MatchString(line) {
			headingLine = line
			start = i + 1
			break
		}
	}
	if start < 0 {
		return "", "", false
	}

	end := len(lines)
	for i := start; i < len(lines); i++ {
		if anyHeading.MatchString(lines[i]) {
			end = i
			break
		}
	}
	return headingLine, strings.Join(lines[start:end], "\n"), true
}
