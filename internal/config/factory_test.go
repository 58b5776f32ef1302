package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultFactoryConfigMatchesDocumentedDefaults(t *testing.T) {
	cfg := DefaultFactoryConfig()
	if cfg.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", cfg.MaxAttempts)
	}
	if cfg.RollbackRetryAttempts != 1 {
		t.Errorf("RollbackRetryAttempts = %d, want 1", cfg.RollbackRetryAttempts)
	}
}

func TestLoadFactoryConfigOverridesSubsetOfFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "factory.yaml")
	if err := os.WriteFile(path, []byte("command_timeout_seconds: 600\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFactoryConfig(path)
	if err != nil {
		t.Fatalf("LoadFactoryConfig: %v", err)
	}
	if cfg.CommandTimeoutSeconds != 600 {
		t.Errorf("CommandTimeoutSeconds = %d, want 600 (override)", cfg.CommandTimeoutSeconds)
	}
	if cfg.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3 (default preserved)", cfg.MaxAttempts)
	}
}

func TestLoadFactoryConfigRejectsUnknownField(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "factory.yaml")
	if err := os.WriteFile(path, []byte("bogus_field: true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFactoryConfig(path); err == nil {
		t.Fatal("expected an error for an unknown field")
	}
}

func TestFactorySnapshotIncludesAllFields(t *testing.T) {
	snap := DefaultFactoryConfig().Snapshot()
	for _, key := range []string{
		"max_attempts", "command_timeout_seconds", "git_command_timeout_seconds", "rollback_retry_attempts",
	} {
		if _, ok := snap[key]; !ok {
			t.Errorf("snapshot missing key %q", key)
		}
	}
}
