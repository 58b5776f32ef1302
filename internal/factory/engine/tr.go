package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/teerev/llm-contract-harness/internal/pathutil"
	"github.com/teerev/llm-contract-harness/internal/schema"
)

// errInterrupted signals that the apply loop stopped mid-batch because ctx
// was canceled, not because of a write failure. Run's caller treats this
// distinctly from an ordinary FailureBrief: the attempt is abandoned
// entirely and the outermost handler rolls back, rather than counting this
// as a retryable execution failure.
type errInterrupted struct{}

func (errInterrupted) Error() string { return "engine: interrupted during write application" }

// writeResultView is the persisted write_result.json shape.
type writeResultView struct {
	WriteOK      bool     `json:"write_ok"`
	TouchedFiles []string `json:"touched_files"`
	Error        string   `json:"error,omitempty"`
}

// runTR executes the apply node: scope check, path-safety check, base-hash
// batch check, then atomic application. Every failure path short-circuits
// before any write lands, except the per-file apply failure, which can only
// be detected mid-batch — that is why finalize, not TR, owns rollback.
func runTR(ctx context.Context, dir string, st State) (State, error) {
	wo := st.WorkOrder
	proposal := st.Proposal

	allowed := make(map[string]bool, len(wo.AllowedFiles))
	for _, p := range wo.AllowedFiles {
		n, err := pathutil.Normalize(p)
		if err != nil {
			return State{}, fmt.Errorf("engine: normalize allowed_files entry %q: %w", p, err)
		}
		allowed[n] = true
	}

	rawPaths := make([]string, len(proposal.Writes))
	for i, w := range proposal.Writes {
		rawPaths[i] = w.Path
	}
	normalized := make([]string, 0, len(rawPaths))
	byNormalized := make(map[string]schema.Write, len(rawPaths))
	for i, w := range proposal.Writes {
		n, err := pathutil.Normalize(w.Path)
		if err != nil {
			return failTR(dir, st, schema.StageWriteScopeViolation,
				fmt.Sprintf("write path %q does not normalize: %v", w.Path, err),
				"Every write path must be a relative, POSIX-normalized path inside allowed_files.")
		}
		normalized = append(normalized, n)
		byNormalized[n] = proposal.Writes[i]
	}

	touched, err := pathutil.Dedup(normalized)
	if err != nil {
		return State{}, fmt.Errorf("engine: dedup touched files: %w", err)
	}
	if len(touched) != len(normalized) {
		return failTR(dir, st, schema.StageWriteScopeViolation,
			"proposal writes to the same canonical path more than once",
			"Each write path must appear at most once per proposal.")
	}
	sort.Strings(touched)
	for _, p := range touched {
		if !allowed[p] {
			return failTR(dir, st, schema.StageWriteScopeViolation,
				fmt.Sprintf("path %q is not in allowed_files", p),
				"Every write path must be a member of this work order's allowed_files.")
		}
	}

	for _, p := range touched {
		if _, err := pathutil.ResolveUnderRoot(st.RepoRoot, p); err != nil {
			return failTR(dir, st, schema.StageWriteScopeViolation,
				fmt.Sprintf("path %q escapes the repository root: %v", p, err),
				"Every write path must resolve under the repository root.")
		}
	}

	var mismatches []string
	for _, p := range touched {
		w := byNormalized[p]
		abs, err := pathutil.ResolveUnderRoot(st.RepoRoot, p)
		if err != nil {
			return State{}, fmt.Errorf("engine: re-resolve %q: %w", p, err)
		}
		current, err := pathutil.ContentHash(abs)
		if err != nil {
			return State{}, fmt.Errorf("engine: hash %q: %w", p, err)
		}
		if current != w.BaseSHA256 {
			mismatches = append(mismatches, fmt.Sprintf("%s: expected base %s, found %s", p, w.BaseSHA256, current))
		}
	}
	if len(mismatches) > 0 {
		return failTR(dir, st, schema.StageStaleContext,
			fmt.Sprintf("base hash mismatch on %d file(s): %v", len(mismatches), mismatches),
			"base_sha256 must match the file's current on-disk content; re-read context and retry.")
	}

	st.TouchedFiles = touched
	for _, p := range touched {
		if ctx.Err() != nil {
			return State{}, errInterrupted{}
		}
		w := byNormalized[p]
		abs, err := pathutil.ResolveUnderRoot(st.RepoRoot, p)
		if err != nil {
			return failTR(dir, st, schema.StageWriteFailed,
				fmt.Sprintf("re-resolve %q before write: %v", p, err),
				"A path that passed containment once must still resolve under the repository root at write time.")
		}
		werr := os.MkdirAll(filepath.Dir(abs), 0o755)
		if werr == nil {
			werr = pathutil.AtomicWrite(abs, []byte(w.Content), 0o644)
		}
		if werr != nil {
			_ = writeJSON(dir, "write_result.json", writeResultView{WriteOK: false, TouchedFiles: st.TouchedFiles, Error: werr.Error()})
			st.WriteOK = false
			st.FailureBrief = &schema.FailureBrief{
				Stage:               schema.StageWriteFailed,
				PrimaryErrorExcerpt: schema.TruncateExcerpt(werr.Error()),
				ConstraintsReminder: "A write was applied partially before this failure; the run will roll back to baseline.",
			}
			return st, nil
		}
	}

	st.WriteOK = true
	if err := writeJSON(dir, "write_result.json", writeResultView{WriteOK: true, TouchedFiles: st.TouchedFiles}); err != nil {
		return State{}, err
	}
	return st, nil
}

func failTR(dir string, st State, stage schema.FailureStage, excerpt, reminder string) (State, error) {
	if err := writeJSON(dir, "write_result.json", writeResultView{WriteOK: false, Error: excerpt}); err != nil {
		return State{}, err
	}
	st.FailureBrief = &schema.FailureBrief{
		Stage:               stage,
		PrimaryErrorExcerpt: schema.TruncateExcerpt(excerpt),
		ConstraintsReminder: reminder,
	}
	return st, nil
}
