package compile

import "testing"

func TestComputeCompileHashIsDeterministic(t *testing.T) {
	a := computeCompileHash("spec", "template", "gpt", "low")
	b := computeCompileHash("spec", "template", "gpt", "low")
	if a != b {
		t.Errorf("got %q and %q, want identical", a, b)
	}
	if len(a) != 16 {
		t.Errorf("len = %d, want 16", len(a))
	}
}

func TestComputeCompileHashVariesWithInputs(t *testing.T) {
	base := computeCompileHash("spec", "template", "gpt", "low")
	if computeCompileHash("spec2", "template", "gpt", "low") == base {
		t.Error("changing spec text should change the hash")
	}
	if computeCompileHash("spec", "template2", "gpt", "low") == base {
		t.Error("changing template text should change the hash")
	}
	if computeCompileHash("spec", "template", "gpt2", "low") == base {
		t.Error("changing model should change the hash")
	}
	if computeCompileHash("spec", "template", "gpt", "high") == base {
		t.Error("changing reasoning effort should change the hash")
	}
}
