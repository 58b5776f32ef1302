package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FactoryDefaults holds every tunable consulted by internal/factory/engine.
// Deliberately does not import PlannerDefaults or vice versa: no
// cross-subsystem imports between the two defaults containers.
type FactoryDefaults struct {
	// MaxAttempts bounds the SE -> TR -> PO -> finalize retry cycle per
	// work order.
	// Duplicated in spirit by PlannerDefaults.MaxAttempts: both default to
	// 3, but one counts LLM-compile revisions and the other counts
	// execution retries against a single work order.
	MaxAttempts int `yaml:"max_attempts"`

	// CommandTimeoutSeconds bounds verify and acceptance command
	// invocations through internal/cmdrunner.
	CommandTimeoutSeconds int `yaml:"command_timeout_seconds"`

	// GitCommandTimeoutSeconds bounds the git operations in
	// internal/gitutil (status, reset, clean, write-tree).
	GitCommandTimeoutSeconds int `yaml:"git_command_timeout_seconds"`

	// RollbackRetryAttempts is the number of additional rollback attempts
	// made in the emergency handler after the first one fails.
	RollbackRetryAttempts int `yaml:"rollback_retry_attempts"`
}

// DefaultFactoryConfig returns the built-in factory-side defaults.
func DefaultFactoryConfig() FactoryDefaults {
	return FactoryDefaults{
		MaxAttempts:              3,
		CommandTimeoutSeconds:    300,
		GitCommandTimeoutSeconds: 30,
		RollbackRetryAttempts:    1,
	}
}

// LoadFactoryConfig returns the defaults with any fields present in the YAML
// file at path overlaid on top. An empty path returns the defaults
// unchanged.
func LoadFactoryConfig(path string) (FactoryDefaults, error) {
	cfg := DefaultFactoryConfig()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Snapshot returns the effective configuration as a JSON-friendly map for
// embedding into RunSummary.EffectiveConfig.
func (f FactoryDefaults) Snapshot() map[string]any {
	return map[string]any{
		"max_attempts":                f.MaxAttempts,
		"command_timeout_seconds":     f.CommandTimeoutSeconds,
		"git_command_timeout_seconds": f.GitCommandTimeoutSeconds,
		"rollback_retry_attempts":     f.RollbackRetryAttempts,
	}
}
