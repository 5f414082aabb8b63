package workflow

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"
)

// Tracker is the issue-tracking collaborator. All payloads are UTF-8 text;
// implementations must never re-encode content, since multilingual titles
// and bodies are expected on this boundary.
type Tracker interface {
	// Fetch retrieves an existing item by id.
	Fetch(ctx context.Context, id string) (TrackedItem, error)

	// Create files a new item and returns its reference.
	Create(ctx context.Context, title, body string) (string, error)

	// Update replaces an item's body and returns its (possibly new) reference.
	Update(ctx context.Context, ref, body string) (string, error)
}

// FileTracker files items as UTF-8 markdown under <root>/items, one file per
// item, first "# " line as the title. It is the local default when no remote
// tracker is configured.
type FileTracker struct {
	root string
}

// NewFileTracker creates a tracker rooted at root.
func NewFileTracker(root string) *FileTracker {
	return &FileTracker{root: filepath.Join(root, "items")}
}

func (t *FileTracker) itemPath(id string) string {
	if !strings.HasSuffix(id, ".md") {
		id += ".md"
	}
	return filepath.Join(t.root, id)
}

// Fetch implements Tracker.
func (t *FileTracker) Fetch(ctx context.Context, id string) (TrackedItem, error) {
	if ctx.Err() != nil {
		return TrackedItem{}, ctx.Err()
	}

	data, err := os.ReadFile(t.itemPath(id))
	if err != nil {
		return TrackedItem{}, fmt.Errorf("fetch item %s: %w", id, err)
	}
	if !utf8.Valid(data) {
		return TrackedItem{}, fmt.Errorf("fetch item %s: content is not valid UTF-8", id)
	}

	title, body := SplitTitleBody(string(data))
	return TrackedItem{Title: title, Body: body}, nil
}

// Create implements Tracker. The returned reference is the item's path.
func (t *FileTracker) Create(ctx context.Context, title, body string) (string, error) {
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if err := os.MkdirAll(t.root, 0o755); err != nil {
		return "", fmt.Errorf("create items dir: %w", err)
	}

	path := t.itemPath(slugify(title))
	content := "# " + title + "\n\n" + body + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("create item: %w", err)
	}
	return path, nil
}

// Update implements Tracker. The title line is preserved.
func (t *FileTracker) Update(ctx context.Context, ref, body string) (string, error) {
	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	data, err := os.ReadFile(ref)
	if err != nil {
		return "", fmt.Errorf("update item %s: %w", ref, err)
	}
	title, _ := SplitTitleBody(string(data))

	content := "# " + title + "\n\n" + body + "\n"
	if err := os.WriteFile(ref, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("update item %s: %w", ref, err)
	}
	return ref, nil
}

// slugify turns a title into a safe filename stem. Multibyte characters pass
// through untouched; only path-hostile ASCII is replaced.
func slugify(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		switch {
		case r == ' ' || r == '/' || r == '\\' || r == ':':
			b.WriteRune('-')
		case r < 0x20 || r == 0x7f:
		default:
			b.WriteRune(r)
		}
	}
	s := strings.Trim(b.String(), "-")
	if s == "" {
		s = "untitled"
	}
	return s
}

// MockTracker is an in-memory Tracker for tests. Thread-safe.
type MockTracker struct {
	mu sync.Mutex

	// Items maps id to fetchable content.
	Items map[string]TrackedItem

	// Err, if set, is returned by every call.
	Err error

	// Created records every Create call in order.
	Created []TrackedItem

	nextRef int
}

// Fetch implements Tracker.
func (m *MockTracker) Fetch(_ context.Context, id string) (TrackedItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return TrackedItem{}, m.Err
	}
	item, exists := m.Items[id]
	if !exists {
		return TrackedItem{}, fmt.Errorf("item %s not found", id)
	}
	return item, nil
}

// Create implements Tracker.
func (m *MockTracker) Create(_ context.Context, title, body string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return "", m.Err
	}
	m.Created = append(m.Created, TrackedItem{Title: title, Body: body})
	m.nextRef++
	return fmt.Sprintf("ITEM-%d", m.nextRef), nil
}

// Update implements Tracker.
func (m *MockTracker) Update(_ context.Context, ref, body string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return "", m.Err
	}
	return ref, nil
}
