package compile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/teerev/llm-contract-harness/internal/pathutil"
)

// artifactDir returns (and creates) the canonical per-compile artifacts
// directory, keyed by the compile hash so repeated runs of the same inputs
// land in the same place.
func artifactDir(root, compileHash string) (string, error) {
	dir := filepath.Join(root, compileHash)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("compile: create artifacts dir: %w", err)
	}
	return dir, nil
}

func writeText(dir, name, content string) error {
	return pathutil.AtomicWrite(filepath.Join(dir, name), []byte(content), 0o644)
}

func writeJSON(dir, name string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("compile: marshal %s: %w", name, err)
	}
	return pathutil.AtomicWriteJSON(filepath.Join(dir, name), b)
}

// exportManifest mirrors the canonical manifest as WO-NN.json files plus a
// manifest.json in an optional export directory. The canonical copy under
// the artifacts directory remains authoritative and is written first; a
// failure to write the export mirror is returned and fails the compile.
func exportManifest(exportDir string, manifestJSON []byte, workOrderJSON map[string][]byte) error {
	if exportDir == "" {
		return nil
	}
	if err := os.MkdirAll(exportDir, 0o755); err != nil {
		return fmt.Errorf("compile: create export dir: %w", err)
	}
	if err := pathutil.AtomicWriteJSON(filepath.Join(exportDir, "manifest.json"), manifestJSON); err != nil {
		return err
	}
	for id, raw := range workOrderJSON {
		if err := pathutil.AtomicWriteJSON(filepath.Join(exportDir, id+".json"), raw); err != nil {
			return err
		}
	}
	return nil
}
