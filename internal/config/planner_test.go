package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultPlannerConfigMatchesDocumentedDefaults(t *testing.T) {
	cfg := DefaultPlannerConfig()
	if cfg.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", cfg.MaxAttempts)
	}
	if cfg.TokenBudgetCap != 65_000 {
		t.Errorf("TokenBudgetCap = %d, want 65000", cfg.TokenBudgetCap)
	}
}

func TestLoadPlannerConfigOverridesSubsetOfFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "planner.yaml")
	if err := os.WriteFile(path, []byte("max_attempts: 5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadPlannerConfig(path)
	if err != nil {
		t.Fatalf("LoadPlannerConfig: %v", err)
	}
	if cfg.MaxAttempts != 5 {
		t.Errorf("MaxAttempts = %d, want 5 (override)", cfg.MaxAttempts)
	}
	if cfg.TransportMaxAttempts != 3 {
		t.Errorf("TransportMaxAttempts = %d, want 3 (default preserved)", cfg.TransportMaxAttempts)
	}
}

func TestLoadPlannerConfigEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := LoadPlannerConfig("")
	if err != nil {
		t.Fatalf("LoadPlannerConfig(\"\"): %v", err)
	}
	if cfg != DefaultPlannerConfig() {
		t.Errorf("got %+v, want defaults", cfg)
	}
}

func TestLoadPlannerConfigRejectsUnknownField(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "planner.yaml")
	if err := os.WriteFile(path, []byte("not_a_real_field: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadPlannerConfig(path); err == nil {
		t.Fatal("expected an error for an unknown field")
	}
}

func TestPlannerSnapshotIncludesAllFields(t *testing.T) {
	snap := DefaultPlannerConfig().Snapshot()
	for _, key := range []string{
		"max_attempts", "transport_max_attempts", "transport_backoff_initial_ms",
		"transport_backoff_factor", "transport_backoff_max_ms", "transport_backoff_jitter",
		"token_budget_cap", "max_revision_response_chars", "py_syntax_check_timeout_seconds",
	} {
		if _, ok := snap[key]; !ok {
			t.Errorf("snapshot missing key %q", key)
		}
	}
}
