package workflow

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNextAuditSeq(t *testing.T) {
	t.Run("absent directory starts at 1", func(t *testing.T) {
		seq, err := NextAuditSeq(filepath.Join(t.TempDir(), "missing"))
		if err != nil {
			t.Fatalf("NextAuditSeq() error: %v", err)
		}
		if seq != 1 {
			t.Errorf("seq = %d, want 1", seq)
		}
	})

	t.Run("empty directory starts at 1", func(t *testing.T) {
		seq, err := NextAuditSeq(t.TempDir())
		if err != nil {
			t.Fatalf("NextAuditSeq() error: %v", err)
		}
		if seq != 1 {
			t.Errorf("seq = %d, want 1", seq)
		}
	})

	t.Run("continues from max regardless of writer", func(t *testing.T) {
		dir := t.TempDir()
		for _, name := range []string{"001-input.md", "002-draft.md", "005-verdict.md", "notes.txt"} {
			if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
				t.Fatal(err)
			}
		}
		seq, err := NextAuditSeq(dir)
		if err != nil {
			t.Fatalf("NextAuditSeq() error: %v", err)
		}
		if seq != 6 {
			t.Errorf("seq = %d, want 6", seq)
		}
	})
}

func TestWriteAudit(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "audit")

	path, err := WriteAudit(dir, 3, "draft.md", "# Draft\n\n内容テスト\n")
	if err != nil {
		t.Fatalf("WriteAudit() error: %v", err)
	}
	if filepath.Base(path) != "003-draft.md" {
		t.Errorf("path = %q, want base 003-draft.md", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "# Draft\n\n内容テスト\n" {
		t.Errorf("content round-trip failed: %q", data)
	}
}

func TestAppendAuditSequencing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "audit")

	for i := 1; i <= 3; i++ {
		_, seq, err := appendAudit(dir, "draft.md", "round")
		if err != nil {
			t.Fatalf("appendAudit() error: %v", err)
		}
		if seq != i {
			t.Errorf("seq = %d, want %d", seq, i)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Errorf("got %d artifacts, want 3", len(entries))
	}
}
