package schema

import "testing"

func validManifestJSON() []byte {
	return []byte(`{
		"system_overview": "build a widget",
		"verify_contract": {"requires": [{"kind": "file_exists", "path": "src/a.py"}]},
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
	}`)
}

func TestValidateManifestJSONAccepts(t *testing.T) {
	if err := ValidateManifestJSON(validManifestJSON()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateManifestJSONRejectsMissingWorkOrders(t *testing.T) {
	raw := []byte(`{"system_overview": "x"}`)
	if err := ValidateManifestJSON(raw); err == nil {
		t.Fatal("expected error for missing work_orders")
	}
}

func TestValidateManifestJSONRejectsBadIDPattern(t *testing.T) {
	raw := []byte(`{
		"system_overview": "x",
		"work_orders": [{"id": "1", "title": "t", "intent": "i", "allowed_files": [], "context_files": [], "acceptance_commands": ["x"]}]
	}`)
	if err := ValidateManifestJSON(raw); err == nil {
		t.Fatal("expected error for malformed work order id")
	}
}

func TestValidateManifestJSONRejectsFileAbsentPostcondition(t *testing.T) {
	raw := []byte(`{
		"system_overview": "x",
		"work_orders": [
			{
				"id": "WO-01",
				"title": "t",
				"intent": "i",
				"allowed_files": ["src/a.py"],
				"context_files": [],
				"acceptance_commands": ["x"],
				"postconditions": [{"kind": "file_absent", "path": "src/a.py"}]
			}
		]
	}`)
	if err := ValidateManifestJSON(raw); err == nil {
		t.Fatal("expected error for a file_absent postcondition")
	}
}

func TestValidateManifestJSONRejectsDuplicateKeys(t *testing.T) {
	raw := []byte(`{"system_overview": "x", "system_overview": "y", "work_orders": []}`)
	if err := ValidateManifestJSON(raw); err == nil {
		t.Fatal("expected error for duplicate key")
	}
}

func TestValidateManifestJSONRejectsOversized(t *testing.T) {
	huge := make([]byte, MaxManifestJSONBytes+1)
	for i := range huge {
		huge[i] = ' '
	}
	if err := ValidateManifestJSON(huge); err == nil {
		t.Fatal("expected error for oversized payload")
	}
}

func TestValidateWriteProposalJSONAccepts(t *testing.T) {
	raw := []byte(`{
		"summary": "added a.py",
		"writes": [{"path": "src/a.py", "base_sha256": "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", "content": "print(1)"}]
	}`)
	if err := ValidateWriteProposalJSON(raw); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateWriteProposalJSONRejectsBadHash(t *testing.T) {
	raw := []byte(`{
		"summary": "x",
		"writes": [{"path": "a.py", "base_sha256": "not-a-hash", "content": "y"}]
	}`)
	if err := ValidateWriteProposalJSON(raw); err == nil {
		t.Fatal("expected error for malformed base_sha256")
	}
}
