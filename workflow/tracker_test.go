package workflow

import (
	"context"
	"strings"
	"testing"
)

func TestFileTrackerRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		title string
		body  string
	}{
		{"ascii", "Fix login timeout", "Sessions expire too early."},
		{"japanese", "ログイン改善", "セッションの有効期限を見直す。"},
		{"mixed symbols", "Café naïve µservice №7", "Ünïcode body with 中文 and émoji ✓"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := NewFileTracker(t.TempDir())
			ctx := context.Background()

			ref, err := tracker.Create(ctx, tt.title, tt.body)
			if err != nil {
				t.Fatalf("Create() error: %v", err)
			}

			item, err := tracker.Fetch(ctx, strings.TrimSuffix(refBase(ref), ".md"))
			if err != nil {
				t.Fatalf("Fetch() error: %v", err)
			}
			if item.Title != tt.title {
				t.Errorf("title = %q, want %q", item.Title, tt.title)
			}
			if item.Body != tt.body {
				t.Errorf("body = %q, want %q", item.Body, tt.body)
			}
		})
	}
}

func refBase(ref string) string {
	if i := strings.LastIndexByte(ref, '/'); i >= 0 {
		return ref[i+1:]
	}
	return ref
}

func TestFileTrackerUpdate(t *testing.T) {
	tracker := NewFileTracker(t.TempDir())
	ctx := context.Background()

	ref, err := tracker.Create(ctx, "Original", "old body")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tracker.Update(ctx, ref, "new body"); err != nil {
		t.Fatalf("Update() error: %v", err)
	}

	item, err := tracker.Fetch(ctx, "original")
	if err != nil {
		t.Fatal(err)
	}
	if item.Title != "Original" {
		t.Errorf("update must preserve the title, got %q", item.Title)
	}
	if item.Body != "new body" {
		t.Errorf("body = %q, want %q", item.Body, "new body")
	}
}

func TestFileTrackerFetchMissing(t *testing.T) {
	tracker := NewFileTracker(t.TempDir())
	if _, err := tracker.Fetch(context.Background(), "nope"); err == nil {
		t.Fatal("expected error for a missing item")
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Fix login timeout", "fix-login-timeout"},
		{"  Spaces  ", "spaces"},
		{"a/b\\c:d", "a-b-c-d"},
		{"設計文書", "設計文書"},
		{"", "untitled"},
	}

	for _, tt := range tests {
		if got := slugify(tt.in); got != tt.want {
			t.Errorf("slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
