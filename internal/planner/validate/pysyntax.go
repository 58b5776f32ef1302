package validate

import (
	"context"
	"strings"
	"time"

	"github.com/teerev/llm-contract-harness/internal/cmdrunner"
)

const pySyntaxCheckTimeout = 5 * time.Second

// astParseProgram is piped to python3 on stdin; it never executes the
// candidate source, only parses it, matching E006's "not valid Python
// source" wording rather than "fails at runtime".
const astParseProgram = "import ast, sys\nast.parse(sys.stdin.read())\n"

// pythonSyntaxChecker is swappable in tests so they don't depend on a python3
// binary being on PATH.
var pythonSyntaxChecker = runPythonSyntaxCheck

// checkPythonSyntax reports whether code parses as valid Python source.
// valid is false both for a real syntax error and when the check could not
// be performed (python3 missing from PATH); checked is false only in the
// latter case, so a missing interpreter never produces a false E006.
func checkPythonSyntax(code string) (valid bool, checked bool) {
	return pythonSyntaxChecker(code)
}

func runPythonSyntaxCheck(code string) (valid bool, checked bool) {
	ctx, cancel := context.WithTimeout(context.Background(), pySyntaxCheckTimeout)
	defer cancel()
	res := cmdrunner.Run(ctx, cmdrunner.Options{
		Command: []string{"python3", "-c", astParseProgram},
		Timeout: pySyntaxCheckTimeout,
		Stdin:   []byte(code),
	})
	if res.ExitCode == -1 && looksLikeMissingInterpreter(res.StderrTrunc) {
		return false, false
	}
	return res.ExitCode == 0, true
}

func looksLikeMissingInterpreter(stderr string) bool {
	s := strings.ToLower(stderr)
	return strings.Contains(s, "executable file not found") || strings.Contains(s, "no such file or directory")
}
