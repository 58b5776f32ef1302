package engine

import (
	"encoding/json"
	"fmt"

	"github.com/teerev/llm-contract-harness/internal/gitutil"
	"github.com/teerev/llm-contract-harness/internal/pathutil"
	"github.com/teerev/llm-contract-harness/internal/schema"
)

// PreflightError aborts before the graph is ever entered; it is never
// retried and never produces a FailureBrief, since no attempt has started.
type PreflightError struct {
	Reason string
}

func (e *PreflightError) Error() string { return "factory preflight: " + e.Reason }

// Preflight validates the repository and output-directory invariants,
// computes the deterministic run_id, and creates the run's artifact
// directory with a copy of the work order.
func Preflight(repoRoot, outDir string, wo schema.WorkOrder, maxAttempts int) (State, string, error) {
	if !gitutil.IsRepo(repoRoot) {
		return State{}, "", &PreflightError{Reason: fmt.Sprintf("%q is not a git working tree", repoRoot)}
	}
	clean, err := gitutil.IsClean(repoRoot)
	if err != nil {
		return State{}, "", &PreflightError{Reason: fmt.Sprintf("git status: %v", err)}
	}
	if !clean {
		return State{}, "", &PreflightError{Reason: "working tree is not clean"}
	}

	contained, err := pathutil.Contains(repoRoot, outDir)
	if err != nil {
		return State{}, "", &PreflightError{Reason: fmt.Sprintf("resolve output directory: %v", err)}
	}
	if contained {
		return State{}, "", &PreflightError{Reason: "output directory must not equal or be contained in the repo root"}
	}

	baseline, err := gitutil.HeadSHA(repoRoot)
	if err != nil {
		return State{}, "", &PreflightError{Reason: fmt.Sprintf("resolve HEAD: %v", err)}
	}

	woJSON, err := json.Marshal(wo)
	if err != nil {
		return State{}, "", fmt.Errorf("engine: marshal work order: %w", err)
	}
	runID, err := computeRunID(woJSON, baseline)
	if err != nil {
		return State{}, "", err
	}

	dir, err := runDir(outDir, runID)
	if err != nil {
		return State{}, "", err
	}
	if err := writeJSON(dir, "work_order.json", wo); err != nil {
		return State{}, "", err
	}

	state := State{
		RepoRoot:       repoRoot,
		OutDir:         outDir,
		WorkOrder:      wo,
		AttemptIndex:   1,
		MaxAttempts:    maxAttempts,
		BaselineCommit: baseline,
	}
	return state, runID, nil
}

// computeRunID hashes the work order's canonical JSON bytes concatenated
// with the baseline commit, truncated to 16 hex characters. SHA-256 is used
// (via pathutil.HashBytes) rather than BLAKE3: unlike the planner's
// compile-hash, run_id determinism across hosts is itself a tested
// property, and reusing the same content-hash primitive as base_sha256
// keeps the repository to one hashing algorithm for anything
// cross-host-comparable.
func computeRunID(canonicalWorkOrderJSON []byte, baselineCommit string) (string, error) {
	buf := make([]byte, 0, len(canonicalWorkOrderJSON)+len(baselineCommit))
	buf = append(buf, canonicalWorkOrderJSON...)
	buf = append(buf, []byte(baselineCommit)...)
	digest := pathutil.HashBytes(buf)
	return digest[:16], nil
}
