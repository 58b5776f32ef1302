package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/teerev/llm-contract-harness/internal/llmclient"
	"github.com/teerev/llm-contract-harness/internal/metrics"
	"github.com/teerev/llm-contract-harness/internal/schema"
)

// Options configures one factory run.
type Options struct {
	RepoRoot string
	OutDir   string

	WorkOrder schema.WorkOrder

	Client                llmclient.Client
	MaxAttempts           int
	CommandTimeout        time.Duration
	RollbackRetryAttempts int

	// TraceID seeds LLM-transport-retry jitter; a random one is minted if
	// empty.
	TraceID string

	EffectiveConfig map[string]any

	// OnAttempt, when non-nil, is called once at the start of every
	// SE->TR->PO cycle with the 1-based attempt index. Lets the CLI layer
	// drive a progress indicator without the engine knowing anything
	// about presentation.
	OnAttempt func(attemptIndex int)
}

// Outcome pairs the persisted RunSummary with the process exit code the CLI
// layer should use: 0 PASS, 1 FAIL (including preflight rejection), 2
// unhandled exception, 130 user interrupt.
type Outcome struct {
	Summary  schema.RunSummary
	ExitCode int
}

// Run drives the SE -> TR -> PO -> finalize cycle to completion, bounded by
// opts.MaxAttempts, and wraps the whole graph in a handler that catches both
// ordinary errors and a delivered interrupt so rollback always runs before
// the process exits. A non-nil returned error is paired with Outcome.ExitCode:
// 1 when preflight rejects the run, 2 when the run directory or the final
// summary cannot be written. Every other outcome — including PASS, FAIL,
// ERROR, and interrupt — is reported through Outcome with err == nil.
func Run(parentCtx context.Context, opts Options) (out Outcome, err error) {
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	traceID := opts.TraceID
	if traceID == "" {
		traceID = llmclient.NewTraceID()
	}

	st, runID, perr := Preflight(opts.RepoRoot, opts.OutDir, opts.WorkOrder, opts.MaxAttempts)
	if perr != nil {
		return Outcome{ExitCode: 1}, perr
	}
	dir, direrr := runDir(opts.OutDir, runID)
	if direrr != nil {
		return Outcome{ExitCode: 2}, direrr
	}
	baselineCommit := st.BaselineCommit

	defer func() {
		if r := recover(); r != nil {
			out = emergency(dir, runID, opts, st.Attempts, baselineCommit, fmt.Sprintf("panic: %v", r), 2)
		}
	}()

	for {
		if ctx.Err() != nil {
			return emergency(dir, runID, opts, st.Attempts, baselineCommit, ctx.Err().Error(), 130), nil
		}

		if opts.OnAttempt != nil {
			opts.OnAttempt(st.AttemptIndex)
		}

		adir, aerr := attemptDir(dir, st.AttemptIndex)
		if aerr != nil {
			return emergency(dir, runID, opts, st.Attempts, baselineCommit, aerr.Error(), 2), nil
		}
		proposalArtifact := filepath.Join(adir, "proposed_writes.json")

		st, err = runSE(ctx, opts.Client, traceID, adir, st)
		if err != nil {
			return emergencyFromErr(dir, runID, opts, st.Attempts, baselineCommit, ctx, err), nil
		}

		if st.FailureBrief == nil {
			st, err = runTR(ctx, adir, st)
			if err != nil {
				return emergencyFromErr(dir, runID, opts, st.Attempts, baselineCommit, ctx, err), nil
			}
		}

		if st.FailureBrief == nil {
			st, err = runPO(ctx, adir, st, opts.CommandTimeout)
			if err != nil {
				return emergencyFromErr(dir, runID, opts, st.Attempts, baselineCommit, ctx, err), nil
			}
		}

		fres, ferr := finalize(adir, st, proposalArtifact, opts.RollbackRetryAttempts)
		if ferr != nil {
			return emergencyFromErr(dir, runID, opts, st.Attempts, baselineCommit, ctx, ferr), nil
		}
		st = fres.State

		if fres.Route == routeEnd {
			summary := buildRunSummary(runID, st, opts)
			summary.RollbackFailed = fres.RollbackFailed
			metrics.FactoryVerdictTotal.WithLabelValues(string(st.Verdict)).Inc()
			if werr := writeJSON(dir, "run_summary.json", summary); werr != nil {
				return Outcome{ExitCode: 2}, werr
			}
			return Outcome{Summary: summary, ExitCode: exitCodeForVerdict(st.Verdict)}, nil
		}
	}
}

// emergencyFromErr classifies a node-returned error as either an interrupt
// (ctx canceled) or an uncategorized exception, then delegates to emergency
// with the matching exit code.
func emergencyFromErr(dir, runID string, opts Options, attempts []schema.AttemptRecord, baselineCommit string, ctx context.Context, nodeErr error) Outcome {
	if ctx.Err() != nil {
		return emergency(dir, runID, opts, attempts, baselineCommit, nodeErr.Error(), 130)
	}
	return emergency(dir, runID, opts, attempts, baselineCommit, nodeErr.Error(), 2)
}

// emergency attempts best-effort rollback, persists the emergency
// RunSummary (verdict=ERROR, error traceback excerpt, rollback_failed when
// applicable), and returns the Outcome for the caller to surface as the
// process exit code. It never returns an error itself: a failure to persist
// the summary here would leave the process with no diagnosable state at
// all, so writeJSON's error is swallowed after one attempt.
func emergency(dir, runID string, opts Options, attempts []schema.AttemptRecord, baselineCommit, excerpt string, exitCode int) Outcome {
	slog.Error("factory.emergency", "run_id", runID, "work_order_id", opts.WorkOrder.ID, "exit_code", exitCode, "excerpt", schema.TruncateExcerpt(excerpt))
	rollbackOK := rollback(opts.RepoRoot, baselineCommit, opts.RollbackRetryAttempts)
	summary := schema.RunSummary{
		RunID:           runID,
		WorkOrderID:     opts.WorkOrder.ID,
		Verdict:         schema.VerdictError,
		Attempts:        attempts,
		BaselineCommit:  baselineCommit,
		EffectiveConfig: opts.EffectiveConfig,
		ErrorTraceback:  schema.TruncateExcerpt(excerpt),
		RollbackFailed:  !rollbackOK,
	}
	metrics.FactoryVerdictTotal.WithLabelValues(string(schema.VerdictError)).Inc()
	_ = writeJSON(dir, "run_summary.json", summary)
	return Outcome{Summary: summary, ExitCode: exitCode}
}

func buildRunSummary(runID string, st State, opts Options) schema.RunSummary {
	return schema.RunSummary{
		RunID:           runID,
		WorkOrderID:     st.WorkOrder.ID,
		Verdict:         st.Verdict,
		Attempts:        st.Attempts,
		BaselineCommit:  st.BaselineCommit,
		PostRunTreeHash: st.postRunTreeHash,
		EffectiveConfig: opts.EffectiveConfig,
	}
}

func exitCodeForVerdict(v schema.Verdict) int {
	switch v {
	case schema.VerdictPass:
		return 0
	case schema.VerdictFail:
		return 1
	default:
		return 2
	}
}
