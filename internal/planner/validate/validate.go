package validate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/teerev/llm-contract-harness/internal/pathutil"
	"github.com/teerev/llm-contract-harness/internal/schema"
)

// fileState is the cumulative set of repo-relative paths known to exist at
// a given point in the order sequence.
type fileState map[string]bool

func (s fileState) clone() fileState {
	out := make(fileState, len(s))
	for k := range s {
		out[k] = true
	}
	return out
}

// Validate runs the full structural and chain check and returns every
// finding as an ordered Result. initialRepoListing holds the relative
// paths present in the repo before any work order runs.
func Validate(m *schema.Manifest, initialRepoListing map[string]bool) Result {
	var res Result

	if m == nil || len(m.WorkOrders) == 0 {
		res.Errors = append(res.Errors, ValidationError{
			Code: E000, Message: "manifest is nil or work_orders is empty",
		})
		return res
	}

	if woID, field, err := schema.NormalizeManifest(m); err != nil {
		res.Errors = append(res.Errors, normalizeErrorToValidationError(woID, field, err))
		return res
	}

	res.Errors = append(res.Errors, checkIDs(m.WorkOrders)...)

	state := fileState{}
	for p := range initialRepoListing {
		state[p] = true
	}

	for i := range m.WorkOrders {
		wo := &m.WorkOrders[i]
		errs, warns := validateOrder(wo, state)
		res.Errors = append(res.Errors, errs...)
		res.Warnings = append(res.Warnings, warns...)

		for _, c := range wo.Postconditions {
			// file_absent is already rejected by E107 above; only file_exists
			// is a legitimate postcondition kind, so only it advances state.
			// Honoring file_absent here would let an invalid manifest
			// silently delete a path from cumulative state, producing a
			// confusing cascade of unrelated E101 failures downstream
			// instead of surfacing the real, single root cause.
			if c.Kind == schema.FileExists {
				state[c.Path] = true
			}
		}
	}

	if m.VerifyContract != nil {
		for _, req := range m.VerifyContract.Requires {
			if !satisfied(req, state) {
				res.Errors = append(res.Errors, ValidationError{
					Code: E106, Field: "verify_contract.requires",
					Message: fmt.Sprintf("requirement %s(%s) not satisfied after final order", req.Kind, req.Path),
				})
			}
		}
	}

	ApplyVerifyExempt(m, initialRepoListing)

	return res
}

// validateOrder runs every per-order structural and chain check against the
// file_state as it stands *before* this order's own postconditions are
// applied.
func validateOrder(wo *schema.WorkOrder, state fileState) (errs, warns []ValidationError) {
	allowed := make(map[string]bool, len(wo.AllowedFiles))
	for _, p := range wo.AllowedFiles {
		allowed[p] = true
	}

	// (b) contradiction within this order's own preconditions.
	existsSet := map[string]bool{}
	absentSet := map[string]bool{}
	for _, c := range wo.Preconditions {
		if c.Kind == schema.FileExists {
			existsSet[c.Path] = true
		} else {
			absentSet[c.Path] = true
		}
	}
	for p := range existsSet {
		if absentSet[p] {
			errs = append(errs, ValidationError{
				Code: E102, WorkOrder: wo.ID, Field: "preconditions",
				Message: fmt.Sprintf("path %q asserted both file_exists and file_absent", p),
			})
		}
	}

	// (a) preconditions against cumulative state.
	for _, c := range wo.Preconditions {
		if !satisfied(c, state) {
			errs = append(errs, ValidationError{
				Code: E101, WorkOrder: wo.ID, Field: "preconditions",
				Message: fmt.Sprintf("precondition %s(%s) not satisfied by cumulative state", c.Kind, c.Path),
			})
		}
	}

	// (c) postconditions subset of allowed_files, surjective coverage.
	postByPath := make(map[string]bool, len(wo.Postconditions))
	for _, c := range wo.Postconditions {
		if c.Kind != schema.FileExists {
			errs = append(errs, ValidationError{
				Code: E107, WorkOrder: wo.ID, Field: "postconditions",
				Message: fmt.Sprintf("postcondition %s(%s) must use kind file_exists", c.Kind, c.Path),
			})
			continue
		}
		postByPath[c.Path] = true
		if !allowed[c.Path] {
			errs = append(errs, ValidationError{
				Code: E103, WorkOrder: wo.ID, Field: "postconditions",
				Message: fmt.Sprintf("postcondition path %q is not in allowed_files", c.Path),
			})
		}
	}
	if len(wo.Postconditions) > 0 {
		for _, p := range wo.AllowedFiles {
			if !postByPath[p] {
				errs = append(errs, ValidationError{
					Code: E104, WorkOrder: wo.ID, Field: "allowed_files",
					Message: fmt.Sprintf("allowed_files entry %q has no matching postcondition", p),
				})
			}
		}
	}

	// (d) tokenize and policy-check each acceptance command.
	for _, cmdStr := range wo.AcceptanceCommands {
		tokens, terr := Tokenize(cmdStr)
		if terr != nil {
			errs = append(errs, ValidationError{
				Code: E007, WorkOrder: wo.ID, Field: "acceptance_commands",
				Message: fmt.Sprintf("command %q fails shell-free tokenization: %v", cmdStr, terr),
			})
			continue
		}
		if len(tokens) == 0 {
			continue
		}
		for _, tok := range tokens {
			if IsShellOperator(tok) {
				errs = append(errs, ValidationError{
					Code: E003, WorkOrder: wo.ID, Field: "acceptance_commands",
					Message: fmt.Sprintf("command %q contains bare shell operator %q", cmdStr, tok),
				})
				break
			}
		}
		if isVerifyScriptInvocation(tokens) {
			errs = append(errs, ValidationError{
				Code: E105, WorkOrder: wo.ID, Field: "acceptance_commands",
				Message: fmt.Sprintf("command %q is equivalent to [\"bash\", \"scripts/verify.sh\"]", cmdStr),
			})
		}

		pyCode := extractPythonDashCCode(tokens)
		if pyCode != "" {
			if valid, checked := checkPythonSyntax(pyCode); checked && !valid {
				errs = append(errs, ValidationError{
					Code: E006, WorkOrder: wo.ID, Field: "acceptance_commands",
					Message: fmt.Sprintf("command %q: python -c argument is not valid Python source", cmdStr),
				})
			}
		}

		for _, ref := range extractReferencedFiles(tokens, pyCode) {
			norm, nerr := pathutil.Normalize(ref)
			if nerr != nil {
				continue
			}
			if !state[norm] && !allowed[norm] {
				warns = append(warns, ValidationError{
					Code: W101, WorkOrder: wo.ID, Field: "acceptance_commands",
					Message: fmt.Sprintf("command %q references %q, absent from cumulative state", cmdStr, norm),
				})
			}
		}
	}

	return errs, warns
}

// isVerifyScriptInvocation implements E105: argv-equivalence to
// ["bash", "scripts/verify.sh"] after POSIX-normpath comparison of the
// script path, independent of surface spelling (double spaces, "./" prefix,
// or any other form that tokenizes identically).
func isVerifyScriptInvocation(tokens []string) bool {
	if len(tokens) != 2 {
		return false
	}
	if tokens[0] != "bash" {
		return false
	}
	norm, err := pathutil.Normalize(tokens[1])
	if err != nil {
		return false
	}
	return norm == "scripts/verify.sh"
}

// extractPythonDashCCode returns the code argument of a `python -c "..."` /
// `python3 -c "..."` acceptance command, or "" if tokens is not such a
// command.
func extractPythonDashCCode(tokens []string) string {
	if len(tokens) < 3 {
		return ""
	}
	if tokens[0] != "python" && tokens[0] != "python3" {
		return ""
	}
	for i := 1; i < len(tokens)-1; i++ {
		if tokens[i] == "-c" {
			return tokens[i+1]
		}
	}
	return ""
}

func satisfied(c schema.Condition, state fileState) bool {
	switch c.Kind {
	case schema.FileExists:
		return state[c.Path]
	case schema.FileAbsent:
		return !state[c.Path]
	default:
		return false
	}
}

func normalizeErrorToValidationError(workOrderID, field string, err error) ValidationError {
	msg := err.Error()
	code := E005
	if errors.Is(err, pathutil.ErrInvalidPath) && strings.Contains(msg, "glob metacharacter") {
		code = E004
	}
	return ValidationError{Code: code, WorkOrder: workOrderID, Field: field, Message: msg}
}
