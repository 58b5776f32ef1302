package compile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/teerev/llm-contract-harness/internal/llmclient"
)

const validManifest = `{
	"system_overview": "build a widget",
	"work_orders": [
		{
			"id": "WO-01",
			"title": "create a",
			"intent": "write a.py",
			"allowed_files": ["src/a.py"],
			"context_files": [],
			"acceptance_commands": ["python -m compileall -q ."],
			"postconditions": [{"kind": "file_exists", "path": "src/a.py"}]
		}
	]
}`

func TestRunSucceedsOnFirstAttempt(t *testing.T) {
	dir := t.TempDir()
	opts := Options{
		SpecText:      "build a widget",
		TemplateText:  "{{PRODUCT_SPEC}}",
		Model:         "test-model",
		Client:        &llmclient.MockClient{Responses: []string{"```json\n" + validManifest + "\n```"}},
		ArtifactsRoot: dir,
	}
	res, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Success {
		t.Fatalf("expected success, errors=%v", res.Errors)
	}
	if res.Manifest == nil || len(res.Manifest.WorkOrders) != 1 {
		t.Fatalf("got manifest %v", res.Manifest)
	}
	if len(res.Attempts) != 1 {
		t.Errorf("Attempts = %d, want 1", len(res.Attempts))
	}

	artifactsDir := filepath.Join(dir, res.CompileHash)
	for _, name := range []string{"prompt_rendered.txt", "llm_raw_response_attempt_1.txt", "manifest_raw_attempt_1.json", "validation_errors_attempt_1.json", "manifest_normalized.json", "compile_summary.json"} {
		if _, err := os.Stat(filepath.Join(artifactsDir, name)); err != nil {
			t.Errorf("expected artifact %s: %v", name, err)
		}
	}
}

func TestRunRecoversAfterOneRevision(t *testing.T) {
	dir := t.TempDir()
	badManifest := `{"system_overview": "x", "work_orders": []}`
	opts := Options{
		SpecText:      "build a widget",
		TemplateText:  "{{PRODUCT_SPEC}}",
		Model:         "test-model",
		Client:        &llmclient.MockClient{Responses: []string{badManifest, validManifest}},
		ArtifactsRoot: dir,
	}
	res, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Success {
		t.Fatalf("expected eventual success, errors=%v", res.Errors)
	}
	if len(res.Attempts) != 2 {
		t.Fatalf("Attempts = %d, want 2", len(res.Attempts))
	}
	if !res.Attempts[0].ParseFailed {
		t.Error("first attempt should be recorded as a parse/schema failure (empty work_orders)")
	}
}

func TestRunFailsAfterExhaustingAttempts(t *testing.T) {
	dir := t.TempDir()
	badManifest := `{"system_overview": "x", "work_orders": []}`
	opts := Options{
		SpecText:      "build a widget",
		TemplateText:  "{{PRODUCT_SPEC}}",
		Model:         "test-model",
		Client:        &llmclient.MockClient{Responses: []string{badManifest}},
		ArtifactsRoot: dir,
		MaxAttempts:   2,
	}
	res, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Success {
		t.Fatal("expected failure after exhausting attempts")
	}
	if len(res.Attempts) != 2 {
		t.Fatalf("Attempts = %d, want 2", len(res.Attempts))
	}
	if len(res.Errors) == 0 {
		t.Error("expected a final error list")
	}

	var summary struct {
		Success  bool `json:"success"`
		Attempts int  `json:"attempts"`
	}
	raw, err := os.ReadFile(filepath.Join(dir, res.CompileHash, "compile_summary.json"))
	if err != nil {
		t.Fatalf("read compile_summary.json: %v", err)
	}
	if err := json.Unmarshal(raw, &summary); err != nil {
		t.Fatalf("unmarshal compile_summary.json: %v", err)
	}
	if summary.Success || summary.Attempts != 2 {
		t.Errorf("summary = %+v, want success=false attempts=2", summary)
	}
}

func TestRunFailsWhenTransportExhausted(t *testing.T) {
	dir := t.TempDir()
	busy := llmclient.ErrorFromHTTPStatus(503, "busy", nil)
	opts := Options{
		SpecText:      "build a widget",
		TemplateText:  "{{PRODUCT_SPEC}}",
		Model:         "test-model",
		Client:        &llmclient.MockClient{Errors: []error{busy, busy, busy}},
		ArtifactsRoot: dir,
	}
	_, err := Run(context.Background(), opts)
	if err == nil {
		t.Fatal("expected a transport-exhaustion error")
	}
}
