// Package validate implements the planner validator: a closed-enumeration
// structural/chain checker that turns a parsed manifest into an ordered
// list of ValidationError values. It never emits free-form error strings —
// every finding carries one of the codes below, generalized from
// plancritic's internal/schema/validate.go accumulation idiom (one struct
// per violation, appended to a slice as the walk proceeds).
package validate

// Code is one member of the closed error/warning enumeration. E000-E007 are
// structural (no cross-order reasoning); E101-E107 are chain checks
// requiring cumulative file_state; W101 is advisory.
type Code string

const (
	E000 Code = "E000" // top-level JSON not an object / missing or empty work_orders; compile also reports any JSON parse or schema failure of the raw response as E000
	E001 Code = "E001" // work order id format wrong or non-contiguous
	E003 Code = "E003" // acceptance command contains a bare shell operator
	E004 Code = "E004" // a path contains a glob metacharacter
	E005 Code = "E005" // path normalization failure not covered by E004
	E006 Code = "E006" // python -c "..." argument is not valid Python source
	E007 Code = "E007" // command string fails shell-free tokenization
	E101 Code = "E101" // precondition not satisfied by cumulative state
	E102 Code = "E102" // same path in both file_exists and file_absent preconditions
	E103 Code = "E103" // postcondition path not in allowed_files
	E104 Code = "E104" // allowed_files entry lacks a matching postcondition
	E105 Code = "E105" // acceptance command is argv-equivalent to ["bash", "scripts/verify.sh"]
	E106 Code = "E106" // verify_contract.requires not satisfied after the final order
	E107 Code = "E107" // postcondition kind is not file_exists
	W101 Code = "W101" // acceptance command references a file absent from cumulative state
)

// IsWarning reports whether c blocks manifest emission. Only W-prefixed
// codes are advisory; every E-prefixed code is a hard error.
func (c Code) IsWarning() bool {
	return len(c) > 0 && c[0] == 'W'
}

// ValidationError is one structured finding. WorkOrder is empty for
// manifest-level findings (E000, E106); Field is empty for E000.
type ValidationError struct {
	Code      Code
	WorkOrder string
	Field     string
	Message   string
}

func (e ValidationError) IsWarning() bool {
	return e.Code.IsWarning()
}

// Result is the outcome of a single Validate call: hard errors block
// emission, warnings never do.
type Result struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// HasErrors reports whether emission must be blocked.
func (r Result) HasErrors() bool {
	return len(r.Errors) > 0
}
