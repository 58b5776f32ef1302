// Package config centralizes the tunables that would otherwise be scattered
// module-level constants: one defaults container for the planner compile
// loop, one for the factory execution engine. Neither imports the other, so
// a constant that happens to carry the same value on both sides (e.g. a
// retry count of 3) is declared twice rather than shared, and is flagged
// with a comment where that duplication exists.
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PlannerDefaults holds every tunable consulted by internal/planner/compile
// and internal/planner/validate. Zero value is never used directly; callers
// get a populated struct from DefaultPlannerConfig and optionally apply a
// YAML override file on top of it.
type PlannerDefaults struct {
	// MaxAttempts is K, the bound on compile-loop revision attempts.
	MaxAttempts int `yaml:"max_attempts"`

	// TransportMaxAttempts bounds retries of a single LLM call on a
	// retryable transport error.
	// Duplicated in spirit by FactoryDefaults.MaxAttempts: both happen to
	// default to 3, but the two numbers mean different things and must
	// stay independently tunable.
	TransportMaxAttempts    int     `yaml:"transport_max_attempts"`
	TransportBackoffInitial int     `yaml:"transport_backoff_initial_ms"`
	TransportBackoffFactor  float64 `yaml:"transport_backoff_factor"`
	TransportBackoffMax     int     `yaml:"transport_backoff_max_ms"`
	TransportBackoffJitter  bool    `yaml:"transport_backoff_jitter"`

	// TokenBudgetCap is a ceiling for LLM output tokens. It is recorded in
	// Snapshot only: the compile loop has no truncation-specific retry and
	// does not read it.
	TokenBudgetCap int `yaml:"token_budget_cap"`

	// MaxRevisionResponseChars bounds how much of a failed attempt's raw
	// response is echoed back into the next revision prompt.
	MaxRevisionResponseChars int `yaml:"max_revision_response_chars"`

	// PySyntaxCheckTimeoutSeconds bounds the E006 python3 -c ast.parse
	// subprocess invoked by internal/planner/validate.
	PySyntaxCheckTimeoutSeconds int `yaml:"py_syntax_check_timeout_seconds"`
}

// DefaultPlannerConfig returns the built-in planner-side defaults. These
// values are the ones already hard-coded in internal/planner/compile and
// internal/planner/validate. Only MaxAttempts is passed on by `harness plan`;
// overriding any other field via --config changes nothing at run time,
// since compile and validate keep using their own constants.
func DefaultPlannerConfig() PlannerDefaults {
	return PlannerDefaults{
		MaxAttempts:                 3,
		TransportMaxAttempts:        3,
		TransportBackoffInitial:     3000,
		TransportBackoffFactor:      2.0,
		TransportBackoffMax:         30_000,
		TransportBackoffJitter:      true,
		TokenBudgetCap:              65_000,
		MaxRevisionResponseChars:    20_000,
		PySyntaxCheckTimeoutSeconds: 5,
	}
}

// LoadPlannerConfig returns the defaults with any fields present in the YAML
// file at path overlaid on top. An empty path returns the defaults
// unchanged. Unknown fields are rejected so a typo'd key fails loudly rather
// than silently being ignored.
func LoadPlannerConfig(path string) (PlannerDefaults, error) {
	cfg := DefaultPlannerConfig()
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

// Snapshot returns the effective configuration as a JSON-friendly map in the
// shape of CompileSummary.EffectiveConfig. The compile loop does not receive
// it, so persisted compile summaries leave that field empty.
func (p PlannerDefaults) Snapshot() map[string]any {
	return map[string]any{
		"max_attempts":                    p.MaxAttempts,
		"transport_max_attempts":          p.TransportMaxAttempts,
		"transport_backoff_initial_ms":    p.TransportBackoffInitial,
		"transport_backoff_factor":        p.TransportBackoffFactor,
		"transport_backoff_max_ms":        p.TransportBackoffMax,
		"transport_backoff_jitter":        p.TransportBackoffJitter,
		"token_budget_cap":                p.TokenBudgetCap,
		"max_revision_response_chars":     p.MaxRevisionResponseChars,
		"py_syntax_check_timeout_seconds": p.PySyntaxCheckTimeoutSeconds,
	}
}
