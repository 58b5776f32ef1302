package validate

import (
	"testing"

	"github.com/teerev/llm-contract-harness/internal/schema"
)

func hasCode(errs []ValidationError, code Code) bool {
	for _, e := range errs {
		if e.Code == code {
			return true
		}
	}
	return false
}

func TestValidateEmptyWorkOrdersIsE000(t *testing.T) {
	res := Validate(&schema.Manifest{}, nil)
	if !hasCode(res.Errors, E000) {
		t.Fatalf("errors = %v, want E000", res.Errors)
	}
}

func TestValidateCleanManifestHasNoErrors(t *testing.T) {
	m := &schema.Manifest{
		VerifyContract: &schema.VerifyContract{
			Requires: []schema.Condition{{Kind: schema.FileExists, Path: "src/a.py"}},
		},
		WorkOrders: []schema.WorkOrder{
			{
				ID:                 "WO-01",
				AllowedFiles:       []string{"src/a.py"},
				AcceptanceCommands: []string{"python -m compileall -q ."},
				Postconditions:     []schema.Condition{{Kind: schema.FileExists, Path: "src/a.py"}},
			},
		},
	}
	res := Validate(m, nil)
	if res.HasErrors() {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
}

func TestValidatePreconditionNotSatisfiedIsE101(t *testing.T) {
	m := &schema.Manifest{
		WorkOrders: []schema.WorkOrder{
			{
				ID:                 "WO-01",
				AllowedFiles:       []string{"src/b.py"},
				Preconditions:      []schema.Condition{{Kind: schema.FileExists, Path: "src/a.py"}},
				AcceptanceCommands: []string{"true"},
			},
		},
	}
	res := Validate(m, nil)
	if !hasCode(res.Errors, E101) {
		t.Fatalf("errors = %v, want E101", res.Errors)
	}
}

func TestValidateContradictoryPreconditionsIsE102(t *testing.T) {
	m := &schema.Manifest{
		WorkOrders: []schema.WorkOrder{
			{
				ID:           "WO-01",
				AllowedFiles: []string{"src/a.py"},
				Preconditions: []schema.Condition{
					{Kind: schema.FileExists, Path: "src/a.py"},
					{Kind: schema.FileAbsent, Path: "src/a.py"},
				},
				AcceptanceCommands: []string{"true"},
			},
		},
	}
	res := Validate(m, map[string]bool{"src/a.py": true})
	if !hasCode(res.Errors, E102) {
		t.Fatalf("errors = %v, want E102", res.Errors)
	}
}

func TestValidatePostconditionOutsideAllowedFilesIsE103(t *testing.T) {
	m := &schema.Manifest{
		WorkOrders: []schema.WorkOrder{
			{
				ID:                 "WO-01",
				AllowedFiles:       []string{"src/a.py"},
				Postconditions:     []schema.Condition{{Kind: schema.FileExists, Path: "src/other.py"}},
				AcceptanceCommands: []string{"true"},
			},
		},
	}
	res := Validate(m, nil)
	if !hasCode(res.Errors, E103) {
		t.Fatalf("errors = %v, want E103", res.Errors)
	}
}

func TestValidateMissingPostconditionCoverageIsE104(t *testing.T) {
	m := &schema.Manifest{
		WorkOrders: []schema.WorkOrder{
			{
				ID:                 "WO-01",
				AllowedFiles:       []string{"src/a.py", "src/b.py"},
				Postconditions:     []schema.Condition{{Kind: schema.FileExists, Path: "src/a.py"}},
				AcceptanceCommands: []string{"true"},
			},
		},
	}
	res := Validate(m, nil)
	if !hasCode(res.Errors, E104) {
		t.Fatalf("errors = %v, want E104", res.Errors)
	}
}

func TestValidateBareShellOperatorIsE003(t *testing.T) {
	m := &schema.Manifest{
		WorkOrders: []schema.WorkOrder{
			{
				ID:                 "WO-01",
				AllowedFiles:       []string{"src/a.py"},
				AcceptanceCommands: []string{"echo hi && rm -rf /"},
			},
		},
	}
	res := Validate(m, nil)
	if !hasCode(res.Errors, E003) {
		t.Fatalf("errors = %v, want E003", res.Errors)
	}
}

func TestValidateUnmatchedQuoteIsE007(t *testing.T) {
	m := &schema.Manifest{
		WorkOrders: []schema.WorkOrder{
			{
				ID:                 "WO-01",
				AllowedFiles:       []string{"src/a.py"},
				AcceptanceCommands: []string{`python -c "import os`},
			},
		},
	}
	res := Validate(m, nil)
	if !hasCode(res.Errors, E007) {
		t.Fatalf("errors = %v, want E007", res.Errors)
	}
}

func TestValidateVerifyScriptInvocationIsE105(t *testing.T) {
	cases := []string{
		"bash scripts/verify.sh",
		"bash  scripts/verify.sh",
		"bash ./scripts/verify.sh",
	}
	for _, cmd := range cases {
		m := &schema.Manifest{
			WorkOrders: []schema.WorkOrder{
				{ID: "WO-01", AllowedFiles: []string{"src/a.py"}, AcceptanceCommands: []string{cmd}},
			},
		}
		res := Validate(m, nil)
		if !hasCode(res.Errors, E105) {
			t.Errorf("command %q: errors = %v, want E105", cmd, res.Errors)
		}
	}
}

func TestValidateVerifyContractUnsatisfiedAtEndIsE106(t *testing.T) {
	m := &schema.Manifest{
		VerifyContract: &schema.VerifyContract{
			Requires: []schema.Condition{{Kind: schema.FileExists, Path: "src/missing.py"}},
		},
		WorkOrders: []schema.WorkOrder{
			{
				ID:                 "WO-01",
				AllowedFiles:       []string{"src/a.py"},
				Postconditions:     []schema.Condition{{Kind: schema.FileExists, Path: "src/a.py"}},
				AcceptanceCommands: []string{"true"},
			},
		},
	}
	res := Validate(m, nil)
	if !hasCode(res.Errors, E106) {
		t.Fatalf("errors = %v, want E106", res.Errors)
	}
}

func TestValidateReferencedFileAbsentIsW101(t *testing.T) {
	m := &schema.Manifest{
		WorkOrders: []schema.WorkOrder{
			{
				ID:                 "WO-01",
				AllowedFiles:       []string{"src/a.py"},
				AcceptanceCommands: []string{"python tools/check.py"},
			},
		},
	}
	res := Validate(m, nil)
	if !hasCode(res.Warnings, W101) {
		t.Fatalf("warnings = %v, want W101", res.Warnings)
	}
	if res.HasErrors() {
		t.Fatalf("warnings must not block emission, got errors: %v", res.Errors)
	}
}

func TestValidatePythonDashCSyntaxError(t *testing.T) {
	orig := pythonSyntaxChecker
	pythonSyntaxChecker = func(code string) (bool, bool) { return false, true }
	defer func() { pythonSyntaxChecker = orig }()

	m := &schema.Manifest{
		WorkOrders: []schema.WorkOrder{
			{
				ID:                 "WO-01",
				AllowedFiles:       []string{"src/a.py"},
				AcceptanceCommands: []string{`python -c "def("`},
			},
		},
	}
	res := Validate(m, nil)
	if !hasCode(res.Errors, E006) {
		t.Fatalf("errors = %v, want E006", res.Errors)
	}
}

func TestValidateSkipsE006WhenInterpreterUnavailable(t *testing.T) {
	orig := pythonSyntaxChecker
	pythonSyntaxChecker = func(code string) (bool, bool) { return false, false }
	defer func() { pythonSyntaxChecker = orig }()

	m := &schema.Manifest{
		WorkOrders: []schema.WorkOrder{
			{
				ID:                 "WO-01",
				AllowedFiles:       []string{"src/a.py"},
				AcceptanceCommands: []string{`python -c "x = 1"`},
			},
		},
	}
	res := Validate(m, nil)
	if hasCode(res.Errors, E006) {
		t.Fatalf("errors = %v, want no E006 when interpreter unavailable", res.Errors)
	}
}

func TestValidateDotSlashPathsNormalizeAcrossOrders(t *testing.T) {
	m := &schema.Manifest{
		WorkOrders: []schema.WorkOrder{
			{
				ID:                 "WO-01",
				AllowedFiles:       []string{"./src/a.py"},
				Postconditions:     []schema.Condition{{Kind: schema.FileExists, Path: "src/a.py"}},
				AcceptanceCommands: []string{"true"},
			},
			{
				ID:                 "WO-02",
				AllowedFiles:       []string{"src/b.py"},
				Preconditions:      []schema.Condition{{Kind: schema.FileExists, Path: "./src/a.py"}},
				Postconditions:     []schema.Condition{{Kind: schema.FileExists, Path: "src/b.py"}},
				AcceptanceCommands: []string{"true"},
			},
		},
	}
	res := Validate(m, nil)
	if res.HasErrors() {
		t.Fatalf("unexpected errors after dot-slash normalization: %v", res.Errors)
	}
}

func TestValidateFileAbsentPostconditionIsE107(t *testing.T) {
	m := &schema.Manifest{
		WorkOrders: []schema.WorkOrder{
			{
				ID:                 "WO-01",
				AllowedFiles:       []string{"src/a.py"},
				Postconditions:     []schema.Condition{{Kind: schema.FileAbsent, Path: "src/a.py"}},
				AcceptanceCommands: []string{"true"},
			},
		},
	}
	res := Validate(m, nil)
	if !hasCode(res.Errors, E107) {
		t.Fatalf("errors = %v, want E107", res.Errors)
	}
}

func TestValidateFileAbsentPostconditionDoesNotCorruptCumulativeState(t *testing.T) {
	// A file_absent postcondition is rejected by E107 and must not be
	// honored as a state transition: a later order's file_exists
	// precondition on the same path should not be penalized twice with a
	// spurious E101 on top of the real E107 root cause.
	m := &schema.Manifest{
		WorkOrders: []schema.WorkOrder{
			{
				ID:                 "WO-01",
				AllowedFiles:       []string{"src/a.py"},
				Postconditions:     []schema.Condition{{Kind: schema.FileExists, Path: "src/a.py"}},
				AcceptanceCommands: []string{"true"},
			},
			{
				ID:                 "WO-02",
				AllowedFiles:       []string{"src/b.py"},
				Preconditions:      []schema.Condition{{Kind: schema.FileExists, Path: "src/a.py"}},
				Postconditions:     []schema.Condition{{Kind: schema.FileAbsent, Path: "src/a.py"}, {Kind: schema.FileExists, Path: "src/b.py"}},
				AcceptanceCommands: []string{"true"},
			},
			{
				ID:                 "WO-03",
				AllowedFiles:       []string{"src/c.py"},
				Preconditions:      []schema.Condition{{Kind: schema.FileExists, Path: "src/a.py"}},
				Postconditions:     []schema.Condition{{Kind: schema.FileExists, Path: "src/c.py"}},
				AcceptanceCommands: []string{"true"},
			},
		},
	}
	res := Validate(m, nil)
	if !hasCode(res.Errors, E107) {
		t.Fatalf("errors = %v, want E107 for WO-02's file_absent postcondition", res.Errors)
	}
	if hasCode(res.Errors, E101) {
		t.Fatalf("errors = %v, want no E101: file_absent postcondition must not remove src/a.py from cumulative state", res.Errors)
	}
}
