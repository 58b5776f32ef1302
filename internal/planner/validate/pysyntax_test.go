package validate

import "testing"

func TestCheckPythonSyntaxUsesInjectedChecker(t *testing.T) {
	orig := pythonSyntaxChecker
	defer func() { pythonSyntaxChecker = orig }()

	pythonSyntaxChecker = func(code string) (bool, bool) { return true, true }
	if valid, checked := checkPythonSyntax("x = 1"); !valid || !checked {
		t.Errorf("got valid=%v checked=%v, want true/true", valid, checked)
	}

	pythonSyntaxChecker = func(code string) (bool, bool) { return false, false }
	if valid, checked := checkPythonSyntax("x = 1"); valid || checked {
		t.Errorf("got valid=%v checked=%v, want false/false", valid, checked)
	}
}

func TestLooksLikeMissingInterpreter(t *testing.T) {
	if !looksLikeMissingInterpreter("exec: \"python3\": executable file not found in $PATH") {
		t.Error("expected missing-interpreter stderr to be recognized")
	}
	if looksLikeMissingInterpreter("  File \"<stdin>\", line 1\nSyntaxError: invalid syntax") {
		t.Error("real syntax error text should not be treated as missing interpreter")
	}
}
