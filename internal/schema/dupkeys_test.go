package schema

import "testing"

func TestRejectDuplicateKeysTopLevel(t *testing.T) {
	raw := []byte(`{"a": 1, "b": 2, "a": 3}`)
	if err := RejectDuplicateKeys(raw); err == nil {
		t.Fatal("expected error for duplicate top-level key")
	}
}

func TestRejectDuplicateKeysNested(t *testing.T) {
	raw := []byte(`{"a": {"x": 1, "x": 2}}`)
	if err := RejectDuplicateKeys(raw); err == nil {
		t.Fatal("expected error for duplicate nested key")
	}
}

func TestRejectDuplicateKeysInArray(t *testing.T) {
	raw := []byte(`{"items": [{"a": 1}, {"a": 1, "a": 2}]}`)
	if err := RejectDuplicateKeys(raw); err == nil {
		t.Fatal("expected error for duplicate key inside array element")
	}
}

func TestRejectDuplicateKeysAcceptsCleanPayload(t *testing.T) {
	raw := []byte(`{"a": 1, "b": {"c": 2}, "d": [1, 2, {"e": 3}]}`)
	if err := RejectDuplicateKeys(raw); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRejectDuplicateKeysSameKeyDifferentBranches(t *testing.T) {
	raw := []byte(`{"a": {"x": 1}, "b": {"x": 2}}`)
	if err := RejectDuplicateKeys(raw); err != nil {
		t.Fatalf("unexpected error: same key in sibling objects is not a duplicate: %v", err)
	}
}
