package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/teerev/llm-contract-harness/internal/cmdrunner"
	"github.com/teerev/llm-contract-harness/internal/planner/validate"
	"github.com/teerev/llm-contract-harness/internal/schema"
)

// verifyFallbackSequence runs when work_order.verify_exempt is false and no
// scripts/verify.sh is present at the repo root.
var verifyFallbackSequence = [][]string{
	{"python", "-m", "compileall", "-q", "."},
	{"python", "-m", "pip", "--version"},
	{"python", "-m", "pytest", "-q"},
}

var verifyExemptCommand = []string{"python", "-m", "compileall", "-q", "."}

// runPO executes the verify + accept node.
func runPO(ctx context.Context, dir string, st State, cmdTimeout time.Duration) (State, error) {
	wo := st.WorkOrder

	verifyCmds := selectVerifyCommands(st.RepoRoot, wo.VerifyExempt)
	var verifyResults []schema.CmdResult
	for i, cmd := range verifyCmds {
		res := runLabeledCommand(ctx, st.RepoRoot, dir, "verify", i+1, cmd, cmdTimeout)
		verifyResults = append(verifyResults, res)
		if res.ExitCode != 0 {
			st.VerifyResults = verifyResults
			if err := writeJSON(dir, "verify_result.json", verifyResults); err != nil {
				return State{}, err
			}
			st.FailureBrief = &schema.FailureBrief{
				Stage:               schema.StageVerifyFailed,
				Command:             res.Command,
				ExitCode:            intPtr(res.ExitCode),
				PrimaryErrorExcerpt: schema.TruncateExcerpt(res.StdoutTrunc + "\n" + res.StderrTrunc),
				ConstraintsReminder: "Global verification must pass before acceptance commands run.",
			}
			return st, nil
		}
	}
	st.VerifyResults = verifyResults
	if err := writeJSON(dir, "verify_result.json", verifyResults); err != nil {
		return State{}, err
	}

	for _, c := range wo.Postconditions {
		abs := contextFilePath(st.RepoRoot, c.Path)
		if _, err := os.Stat(abs); err != nil {
			st.FailureBrief = &schema.FailureBrief{
				Stage:               schema.StageAcceptanceFailed,
				PrimaryErrorExcerpt: schema.TruncateExcerpt(fmt.Sprintf("postcondition file_exists(%s) not satisfied after writes", c.Path)),
				ConstraintsReminder: "Every postcondition path must exist on disk after the proposed writes land.",
			}
			return st, nil
		}
	}

	var acceptResults []schema.CmdResult
	for i, cmdStr := range wo.AcceptanceCommands {
		tokens, err := validate.Tokenize(cmdStr)
		if err != nil {
			st.AcceptResults = acceptResults
			_ = writeJSON(dir, "acceptance_result.json", acceptResults)
			st.FailureBrief = &schema.FailureBrief{
				Stage:               schema.StageAcceptanceFailed,
				PrimaryErrorExcerpt: schema.TruncateExcerpt(fmt.Sprintf("acceptance command %d failed to tokenize: %v", i+1, err)),
				ConstraintsReminder: "Acceptance commands must be valid, quote-balanced argv strings.",
			}
			return st, nil
		}
		res := runLabeledCommand(ctx, st.RepoRoot, dir, "acceptance", i+1, tokens, cmdTimeout)
		acceptResults = append(acceptResults, res)
		if res.ExitCode != 0 {
			st.AcceptResults = acceptResults
			if err := writeJSON(dir, "acceptance_result.json", acceptResults); err != nil {
				return State{}, err
			}
			st.FailureBrief = &schema.FailureBrief{
				Stage:               schema.StageAcceptanceFailed,
				Command:             res.Command,
				ExitCode:            intPtr(res.ExitCode),
				PrimaryErrorExcerpt: schema.TruncateExcerpt(res.StdoutTrunc + "\n" + res.StderrTrunc),
				ConstraintsReminder: "All acceptance commands must exit zero.",
			}
			return st, nil
		}
	}
	st.AcceptResults = acceptResults
	if err := writeJSON(dir, "acceptance_result.json", acceptResults); err != nil {
		return State{}, err
	}
	return st, nil
}

func selectVerifyCommands(repoRoot string, verifyExempt bool) [][]string {
	if verifyExempt {
		return [][]string{verifyExemptCommand}
	}
	if _, err := os.Stat(filepath.Join(repoRoot, "scripts", "verify.sh")); err == nil {
		return [][]string{{"bash", "scripts/verify.sh"}}
	}
	return verifyFallbackSequence
}

func runLabeledCommand(ctx context.Context, repoRoot, dir, label string, index int, cmd []string, timeout time.Duration) schema.CmdResult {
	stdoutPath := filepath.Join(dir, fmt.Sprintf("%s_%d_stdout.txt", label, index))
	stderrPath := filepath.Join(dir, fmt.Sprintf("%s_%d_stderr.txt", label, index))
	r := cmdrunner.Run(ctx, cmdrunner.Options{
		Command:    cmd,
		Cwd:        repoRoot,
		Timeout:    timeout,
		StdoutPath: stdoutPath,
		StderrPath: stderrPath,
	})
	return schema.CmdResult{
		Command:        r.Command,
		ExitCode:       r.ExitCode,
		StdoutTrunc:    r.StdoutTrunc,
		StderrTrunc:    r.StderrTrunc,
		StdoutPath:     r.StdoutPath,
		StderrPath:     r.StderrPath,
		DurationSecond: r.DurationSecond,
	}
}

func intPtr(i int) *int { return &i }
