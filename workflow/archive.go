package workflow

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ArchiveResult is the outcome for one working file: a destination path on
// success, a skip reason otherwise. Archival never raises past its caller.
type ArchiveResult struct {
	Source string `json:"source"`
	Dest   string `json:"dest,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// Archived reports whether the file was moved.
func (r ArchiveResult) Archived() bool { return r.Dest != "" }

// Skip reasons.
const (
	SkipMissing       = "missing"
	SkipNotActive     = "not under active"
	SkipUnsuccessful  = "workflow not successful"
	skipRenamePrefix  = "rename failed"
	archiveTimeLayout = "20060102T150405"
)

// ArchiveAll promotes each working file from its "active" parent directory to
// the sibling "done" directory, but only when the overall outcome was
// successful; otherwise every candidate is recorded as skipped and nothing is
// touched. Per-file failures never abort archival of the remaining files.
//
// The promotion is a rename, not a copy, so content is preserved byte for
// byte and there is no partial-write state. Running archival twice is safe:
// the second pass finds the sources missing and skips them.
func ArchiveAll(paths []string, successful bool) []ArchiveResult {
	results := make([]ArchiveResult, 0, len(paths))
	for _, path := range paths {
		if !successful {
			results = append(results, ArchiveResult{Source: path, Reason: SkipUnsuccessful})
			continue
		}
		results = append(results, ArchiveFile(path))
	}
	return results
}

// ArchiveFile moves one file from active to done. Every failure mode is
// converted into a skip result.
func ArchiveFile(path string) ArchiveResult {
	if _, err := os.Stat(path); err != nil {
		return ArchiveResult{Source: path, Reason: SkipMissing}
	}

	dest, ok := promotePath(path)
	if !ok {
		return ArchiveResult{Source: path, Reason: SkipNotActive}
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return ArchiveResult{Source: path, Reason: fmt.Sprintf("%s: %v", skipRenamePrefix, err)}
	}

	if _, err := os.Stat(dest); err == nil {
		// Never overwrite completed work: keep both files.
		dest = timestamped(dest)
	}

	if err := os.Rename(path, dest); err != nil {
		return ArchiveResult{Source: path, Reason: fmt.Sprintf("%s: %v", skipRenamePrefix, err)}
	}
	return ArchiveResult{Source: path, Dest: dest}
}

// promotePath replaces the last "active" path segment with "done", keeping
// the relative structure below it. Returns false when the path has no
// "active" segment.
func promotePath(path string) (string, bool) {
	segments := strings.Split(filepath.ToSlash(path), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if segments[i] == "active" {
			segments[i] = "done"
			return filepath.FromSlash(strings.Join(segments, "/")), true
		}
	}
	return "", false
}

// timestamped appends a timestamp suffix before the extension, e.g.
// report.md becomes report-20240131T101500.md.
func timestamped(path string) string {
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	return stem + "-" + time.Now().Format(archiveTimeLayout) + ext
}
