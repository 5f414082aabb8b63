package workflow

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// StoreConfig selects the run-persistence backend.
type StoreConfig struct {
	// Driver is memory, sqlite, or mysql.
	Driver string `yaml:"driver"`

	// DSN is the sqlite file path or the mysql data source name. MySQL DSNs
	// belong in the environment, not in this file; use ${VAR} style expansion
	// at the call site instead of committing credentials.
	DSN string `yaml:"dsn"`
}

// Config is the run configuration, loaded from YAML and overridable by CLI
// flags.
type Config struct {
	Kind     Kind   `yaml:"kind"`
	Drafter  string `yaml:"drafter"`
	Reviewer string `yaml:"reviewer"`

	GateDraft     bool `yaml:"gate_draft"`
	GateVerdict   bool `yaml:"gate_verdict"`
	MaxIterations int  `yaml:"max_iterations"`

	InstallRoot string `yaml:"install_root"`
	TargetRoot  string `yaml:"target_root"`

	Store    StoreConfig `yaml:"store"`
	Registry string      `yaml:"registry"`

	JSONLogs bool `yaml:"json_logs"`
	Tracing  bool `yaml:"tracing"`
	Metrics  bool `yaml:"metrics"`
}

// DefaultConfig returns a runnable local configuration rooted at the current
// directory with the mock models, so a fresh checkout works offline.
func DefaultConfig() Config {
	return Config{
		Kind:          KindDocument,
		Drafter:       "mock:drafter",
		Reviewer:      "mock:reviewer",
		MaxIterations: 5,
		InstallRoot:   ".",
		TargetRoot:    ".",
		Store:         StoreConfig{Driver: "sqlite", DSN: "draftloop.db"},
		Registry:      "status.yaml",
	}
}

// LoadConfig reads a YAML config file over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects configurations the state constructor would also reject,
// plus CLI-level mistakes, before any work starts.
func (c Config) Validate() error {
	switch c.Kind {
	case KindDocument, KindTrackedItem:
	default:
		return fmt.Errorf("config: unknown kind %q", c.Kind)
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("config: max_iterations must be positive, got %d", c.MaxIterations)
	}
	if c.Drafter == "" || c.Reviewer == "" {
		return fmt.Errorf("config: drafter and reviewer model specs are required")
	}
	switch c.Store.Driver {
	case "memory", "sqlite", "mysql":
	default:
		return fmt.Errorf("config: unknown store driver %q", c.Store.Driver)
	}
	return nil
}
