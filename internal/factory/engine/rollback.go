package engine

import "github.com/teerev/llm-contract-harness/internal/gitutil"

// rollback resets repoRoot to baselineCommit and removes every untracked
// file, including gitignored ones: the preflight clean-tree check guarantees
// any untracked file present afterward was written by the attempt being
// rolled back. It retries the whole two-step sequence up to retryAttempts
// additional times before giving up, matching the "retry once in an
// emergency handler" policy; a persistent failure is reported rather than
// silently leaving the tree dirty.
func rollback(repoRoot, baselineCommit string, retryAttempts int) bool {
	attempt := func() error {
		if err := gitutil.ResetHard(repoRoot, baselineCommit); err != nil {
			return err
		}
		return gitutil.CleanUntrackedIncludingIgnored(repoRoot)
	}

	if err := attempt(); err == nil {
		return true
	}
	for i := 0; i < retryAttempts; i++ {
		if err := attempt(); err == nil {
			return true
		}
	}
	return false
}
