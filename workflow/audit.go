package workflow

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// auditNamePattern matches the sequence prefix of audit artifact filenames,
// e.g. "003-draft.md".
var auditNamePattern = regexp.MustCompile(`^(\d{3})-`)

// NextAuditSeq scans dir for NNN-* files and returns the next free sequence
// number. A missing directory yields 1; any other read error propagates.
func NextAuditSeq(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 1, nil
		}
		return 0, fmt.Errorf("scan audit dir: %w", err)
	}

	max := 0
	for _, entry := range entries {
		m := auditNamePattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		var n int
		fmt.Sscanf(m[1], "%d", &n)
		if n > max {
			max = n
		}
	}
	return max + 1, nil
}

// WriteAudit writes content verbatim to dir/{seq:03d}-{label}, creating dir
// if absent, and returns the written path. Audit files are UTF-8 markdown.
//
// Numbers are never reused within a run: callers must fetch a fresh sequence
// number per write, even when one stage writes several artifacts. I/O errors
// propagate; a silently failing audit trail is worse than a crashed workflow.
func WriteAudit(dir string, seq int, label, content string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create audit dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%03d-%s", seq, label))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write audit artifact: %w", err)
	}
	return path, nil
}

// appendAudit allocates the next sequence number and writes one artifact.
// Allocation happens immediately before the write it labels so a retried
// stage cannot collide with its own earlier artifact.
func appendAudit(dir, label, content string) (string, int, error) {
	seq, err := NextAuditSeq(dir)
	if err != nil {
		return "", 0, err
	}
	path, err := WriteAudit(dir, seq, label, content)
	if err != nil {
		return "", 0, err
	}
	return path, seq, nil
}
