package engine

import (
	"log/slog"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/teerev/llm-contract-harness/internal/gitutil"
	"github.com/teerev/llm-contract-harness/internal/metrics"
	"github.com/teerev/llm-contract-harness/internal/schema"
)

// finalizeResult is everything the run loop needs to decide what happens
// next, kept distinct from State so a RunSummary-level concern
// (rollbackFailed) doesn't have to live on the per-attempt struct.
type finalizeResult struct {
	State          State
	Route          route
	RollbackFailed bool
}

// finalize records the attempt, persists the authoritative failure brief,
// rolls back on failure, computes the post-run tree hash on success, and
// decides whether to end the run or loop back to SE.
func finalize(dir string, st State, proposalArtifact string, rollbackRetryAttempts int) (finalizeResult, error) {
	record := schema.AttemptRecord{
		Index:             st.AttemptIndex,
		BaselineCommit:    st.BaselineCommit,
		ProposalArtifact:  proposalArtifact,
		TouchedFiles:      st.TouchedFiles,
		WriteOK:           st.WriteOK,
		VerifyResults:     st.VerifyResults,
		AcceptanceResults: st.AcceptResults,
		FailureBrief:      st.FailureBrief,
		ForbiddenMatches:  forbiddenMatches(st.WorkOrder.Forbidden, st.TouchedFiles),
	}
	st.Attempts = append(st.Attempts, record)

	if st.FailureBrief != nil {
		metrics.FactoryAttemptsTotal.WithLabelValues(string(st.FailureBrief.Stage), "fail").Inc()
	} else {
		metrics.FactoryAttemptsTotal.WithLabelValues("finalize", "pass").Inc()
	}

	if st.FailureBrief != nil {
		if err := writeJSON(dir, "failure_brief.json", st.FailureBrief); err != nil {
			return finalizeResult{}, err
		}
		slog.Warn("factory.attempt_failed",
			"work_order_id", st.WorkOrder.ID, "attempt", st.AttemptIndex, "stage", st.FailureBrief.Stage)

		rollbackOK := rollback(st.RepoRoot, st.BaselineCommit, rollbackRetryAttempts)
		if !rollbackOK {
			slog.Error("factory.rollback_failed", "work_order_id", st.WorkOrder.ID, "attempt", st.AttemptIndex)
		}

		if st.AttemptIndex >= st.MaxAttempts {
			st.Verdict = schema.VerdictFail
			return finalizeResult{State: st, Route: routeEnd, RollbackFailed: !rollbackOK}, nil
		}
		next := st.resetForNextAttempt()
		next.AttemptIndex = st.AttemptIndex + 1
		return finalizeResult{State: next, Route: routeRetrySE, RollbackFailed: !rollbackOK}, nil
	}

	treeHash, err := stagePostRunTreeHash(st.RepoRoot, st.TouchedFiles)
	if err != nil {
		return finalizeResult{}, err
	}
	st.Verdict = schema.VerdictPass
	st.postRunTreeHash = treeHash
	return finalizeResult{State: st, Route: routeEnd}, nil
}

// stagePostRunTreeHash stages exactly the touched files (never `git add -A`,
// which would pull in verification-command artifacts dropped elsewhere in
// the tree) and returns the resulting tree object hash.
func stagePostRunTreeHash(repoRoot string, touched []string) (string, error) {
	if len(touched) == 0 {
		return gitutil.TreeHashAt(repoRoot, "HEAD")
	}
	if err := gitutil.AddPaths(repoRoot, touched); err != nil {
		return "", err
	}
	return gitutil.WriteTree(repoRoot)
}

func forbiddenMatches(forbidden, touched []string) []string {
	var matches []string
	for _, pattern := range forbidden {
		for _, p := range touched {
			ok, err := doublestar.Match(pattern, p)
			if err == nil && ok {
				matches = append(matches, p)
			} else if filepath.Clean(pattern) == p {
				matches = append(matches, p)
			}
		}
	}
	return matches
}
