package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/teerev/llm-contract-harness/internal/pathutil"
)

// runDir returns (and creates) {out}/{run_id}.
func runDir(outDir, runID string) (string, error) {
	dir := filepath.Join(outDir, runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("engine: create run dir: %w", err)
	}
	return dir, nil
}

// attemptDir returns (and creates) {run_dir}/attempt_{n}.
func attemptDir(runDir string, attemptIndex int) (string, error) {
	dir := filepath.Join(runDir, fmt.Sprintf("attempt_%d", attemptIndex))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("engine: create attempt dir: %w", err)
	}
	return dir, nil
}

func writeText(dir, name, content string) error {
	return pathutil.AtomicWrite(filepath.Join(dir, name), []byte(content), 0o644)
}

func writeJSON(dir, name string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("engine: marshal %s: %w", name, err)
	}
	return pathutil.AtomicWriteJSON(filepath.Join(dir, name), b)
}
