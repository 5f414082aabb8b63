package workflow

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// StatusRegistry records document status transitions so external tooling can
// see which documents are drafted, approved, or archived.
type StatusRegistry interface {
	SetStatus(doc, status string) error
}

// Document statuses written by the finalize stage.
const (
	StatusApproved  = "approved"
	StatusExhausted = "budget_exhausted"
)

// YAMLRegistry stores statuses as a flat YAML map in one file, read-modify-
// write on every update. Good enough for single-process runs; a shared
// deployment should point this at a real registry service instead.
type YAMLRegistry struct {
	path string
}

// NewYAMLRegistry creates a registry persisted at path.
func NewYAMLRegistry(path string) *YAMLRegistry {
	return &YAMLRegistry{path: path}
}

// SetStatus implements StatusRegistry.
func (r *YAMLRegistry) SetStatus(doc, status string) error {
	statuses := make(map[string]string)

	data, err := os.ReadFile(r.path)
	if err == nil {
		if err := yaml.Unmarshal(data, &statuses); err != nil {
			return fmt.Errorf("parse registry: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("read registry: %w", err)
	}

	statuses[doc] = status

	out, err := yaml.Marshal(statuses)
	if err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("create registry dir: %w", err)
	}
	if err := os.WriteFile(r.path, out, 0o644); err != nil {
		return fmt.Errorf("write registry: %w", err)
	}
	return nil
}

// NullRegistry discards status updates. Used for the tracked-item kind,
// which records its outcome through the Tracker instead.
type NullRegistry struct{}

// SetStatus implements StatusRegistry.
func (NullRegistry) SetStatus(string, string) error { return nil }
