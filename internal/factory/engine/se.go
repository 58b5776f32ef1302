package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/teerev/llm-contract-harness/internal/llmclient"
	"github.com/teerev/llm-contract-harness/internal/pathutil"
	"github.com/teerev/llm-contract-harness/internal/schema"
)

// transportMaxAttempts and transportBackoff bound the SE LLM call's own
// retry against infrastructure faults, mirroring planner/compile's
// transport-retry policy exactly: a dropped connection to the SE LLM is not
// a planner-contract bug or an execution failure, it's tier (iii).
const transportMaxAttempts = 3

var transportBackoff = llmclient.BackoffConfig{InitialDelayMS: 3000, BackoffFactor: 2.0, MaxDelayMS: 30_000, Jitter: true}

// runSE executes the propose node. A non-nil error is an unexpected
// infrastructure fault that should escalate past the retry loop; an
// exhausted SE LLM call is instead folded into a FailureBrief(stage=exception)
// so a flaky endpoint still counts against the attempt budget rather than
// crashing the run.
func runSE(ctx context.Context, client llmclient.Client, traceID string, dir string, st State) (State, error) {
	wo := st.WorkOrder

	for _, c := range wo.Preconditions {
		ok, err := checkCondition(st.RepoRoot, c)
		if err != nil {
			return State{}, fmt.Errorf("engine: se precondition check: %w", err)
		}
		if !ok {
			st.FailureBrief = &schema.FailureBrief{
				Stage:               schema.StagePreflight,
				PrimaryErrorExcerpt: schema.TruncateExcerpt(fmt.Sprintf("PLANNER-CONTRACT BUG: precondition %s(%s) not satisfied", c.Kind, c.Path)),
				ConstraintsReminder: "The planner emitted a work order whose preconditions do not hold against the repository on disk.",
			}
			return st, nil
		}
	}

	ctxFiles, err := readContextFiles(st.RepoRoot, wo.ContextFiles)
	if err != nil {
		return State{}, fmt.Errorf("engine: se read context files: %w", err)
	}

	prompt := renderSEPrompt(wo, ctxFiles, st.FailureBrief)
	// The previous attempt's brief has now been fed into the prompt; clear
	// it so TR and PO run and finalize records only this attempt's outcome.
	st.FailureBrief = nil
	if err := writeText(dir, "se_prompt.txt", prompt); err != nil {
		return State{}, err
	}

	raw, callErr := llmclient.CompleteWithRetry(ctx, client, prompt,
		fmt.Sprintf("%s:se:%d", traceID, st.AttemptIndex), transportMaxAttempts, transportBackoff)
	if callErr != nil {
		if ctx.Err() != nil {
			// A canceled context (interrupt) is not a retryable SE failure;
			// let the run loop's outermost handler roll back and exit.
			return State{}, ctx.Err()
		}
		st.FailureBrief = &schema.FailureBrief{
			Stage:               schema.StageException,
			PrimaryErrorExcerpt: schema.TruncateExcerpt(callErr.Error()),
			ConstraintsReminder: "The SE LLM endpoint could not be reached after the transport retry budget was exhausted.",
		}
		return st, nil
	}

	stripped := stripMarkdownFences(raw)
	if err := schema.ValidateWriteProposalJSON([]byte(stripped)); err != nil {
		if werr := writeText(dir, "raw_llm_response.json", raw); werr != nil {
			return State{}, werr
		}
		st.FailureBrief = &schema.FailureBrief{
			Stage:               schema.StageLLMOutputInvalid,
			PrimaryErrorExcerpt: schema.TruncateExcerpt(fmt.Sprintf("%v\n\n%s", err, raw)),
			ConstraintsReminder: "Return ONLY JSON matching the WriteProposal schema: {summary, writes:[{path, base_sha256, content}]}.",
		}
		return st, nil
	}

	var proposal schema.WriteProposal
	if err := json.Unmarshal([]byte(stripped), &proposal); err != nil {
		if werr := writeText(dir, "raw_llm_response.json", raw); werr != nil {
			return State{}, werr
		}
		st.FailureBrief = &schema.FailureBrief{
			Stage:               schema.StageLLMOutputInvalid,
			PrimaryErrorExcerpt: schema.TruncateExcerpt(fmt.Sprintf("%v\n\n%s", err, raw)),
			ConstraintsReminder: "Return ONLY JSON matching the WriteProposal schema: {summary, writes:[{path, base_sha256, content}]}.",
		}
		return st, nil
	}

	if err := writeJSON(dir, "proposed_writes.json", proposal); err != nil {
		return State{}, err
	}
	st.Proposal = &proposal
	return st, nil
}

// checkCondition evaluates one precondition/postcondition against the
// repository working tree.
func checkCondition(repoRoot string, c schema.Condition) (bool, error) {
	abs, err := pathutil.ResolveUnderRoot(repoRoot, c.Path)
	if err != nil {
		return false, err
	}
	_, statErr := os.Stat(abs)
	exists := statErr == nil
	if statErr != nil && !os.IsNotExist(statErr) {
		return false, statErr
	}
	switch c.Kind {
	case schema.FileExists:
		return exists, nil
	case schema.FileAbsent:
		return !exists, nil
	default:
		return false, fmt.Errorf("unknown condition kind %q", c.Kind)
	}
}
