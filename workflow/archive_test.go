package workflow

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestArchiveFile(t *testing.T) {
	t.Run("moves active to done", func(t *testing.T) {
		root := t.TempDir()
		src := filepath.Join(root, "docs", "active", "design.md")
		writeFile(t, src, "content")

		result := ArchiveFile(src)
		if !result.Archived() {
			t.Fatalf("expected archive, got skip: %s", result.Reason)
		}
		want := filepath.Join(root, "docs", "done", "design.md")
		if result.Dest != want {
			t.Errorf("dest = %q, want %q", result.Dest, want)
		}
		if _, err := os.Stat(src); !os.IsNotExist(err) {
			t.Error("source still exists after archive")
		}
		data, err := os.ReadFile(result.Dest)
		if err != nil || string(data) != "content" {
			t.Errorf("content not preserved: %q, %v", data, err)
		}
	})

	t.Run("missing source skips", func(t *testing.T) {
		result := ArchiveFile(filepath.Join(t.TempDir(), "active", "gone.md"))
		if result.Archived() || result.Reason != SkipMissing {
			t.Errorf("got %+v, want missing skip", result)
		}
	})

	t.Run("path without active segment skips", func(t *testing.T) {
		root := t.TempDir()
		src := filepath.Join(root, "docs", "design.md")
		writeFile(t, src, "content")

		result := ArchiveFile(src)
		if result.Archived() || result.Reason != SkipNotActive {
			t.Errorf("got %+v, want not-under-active skip", result)
		}
		if _, err := os.Stat(src); err != nil {
			t.Error("skipped file must be untouched")
		}
	})

	t.Run("conflict preserves both files", func(t *testing.T) {
		root := t.TempDir()
		src := filepath.Join(root, "active", "report.md")
		existing := filepath.Join(root, "done", "report.md")
		writeFile(t, src, "new")
		writeFile(t, existing, "old")

		result := ArchiveFile(src)
		if !result.Archived() {
			t.Fatalf("expected archive, got skip: %s", result.Reason)
		}
		if result.Dest == existing {
			t.Fatal("archive overwrote existing file")
		}
		if data, _ := os.ReadFile(existing); string(data) != "old" {
			t.Error("pre-existing file was modified")
		}
		if data, _ := os.ReadFile(result.Dest); string(data) != "new" {
			t.Error("archived file content lost")
		}
		if !strings.Contains(filepath.Base(result.Dest), "report-") {
			t.Errorf("expected timestamp suffix, got %q", result.Dest)
		}
	})

	t.Run("last active segment is replaced", func(t *testing.T) {
		root := t.TempDir()
		src := filepath.Join(root, "active", "sub", "active", "file.md")
		writeFile(t, src, "x")

		result := ArchiveFile(src)
		want := filepath.Join(root, "active", "sub", "done", "file.md")
		if result.Dest != want {
			t.Errorf("dest = %q, want %q", result.Dest, want)
		}
	})
}

func TestArchiveAll(t *testing.T) {
	t.Run("idempotent across runs", func(t *testing.T) {
		root := t.TempDir()
		src := filepath.Join(root, "active", "design.md")
		writeFile(t, src, "content")

		first := ArchiveAll([]string{src}, true)
		if !first[0].Archived() {
			t.Fatalf("first run skipped: %s", first[0].Reason)
		}

		second := ArchiveAll([]string{src}, true)
		if second[0].Archived() {
			t.Fatal("second run archived again")
		}
		if second[0].Reason != SkipMissing {
			t.Errorf("second run reason = %q, want %q", second[0].Reason, SkipMissing)
		}

		entries, err := os.ReadDir(filepath.Join(root, "done"))
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 1 {
			t.Errorf("got %d files in done, want 1", len(entries))
		}
	})

	t.Run("unsuccessful outcome touches nothing", func(t *testing.T) {
		root := t.TempDir()
		src := filepath.Join(root, "active", "design.md")
		writeFile(t, src, "content")

		results := ArchiveAll([]string{src, filepath.Join(root, "active", "report.md")}, false)
		for _, result := range results {
			if result.Archived() || result.Reason != SkipUnsuccessful {
				t.Errorf("got %+v, want unsuccessful skip", result)
			}
		}
		if _, err := os.Stat(src); err != nil {
			t.Error("file moved despite unsuccessful outcome")
		}
	})

	t.Run("per-file failure does not abort the rest", func(t *testing.T) {
		root := t.TempDir()
		good := filepath.Join(root, "active", "good.md")
		writeFile(t, good, "x")
		missing := filepath.Join(root, "active", "missing.md")

		results := ArchiveAll([]string{missing, good}, true)
		if results[0].Archived() {
			t.Error("missing file should skip")
		}
		if !results[1].Archived() {
			t.Errorf("good file should archive, got %s", results[1].Reason)
		}
	})
}
