// Package compile implements the planner compile loop: a bounded K=3-attempt
// render/call/validate/revise cycle that turns a product spec into a
// normalized, chain-valid manifest or gives up with a structured error
// list. Grounded on the teacher's attempt/retry bookkeeping shape
// (internal/attractor/engine) and plancritic's prompt-build/repair idiom
// (internal/prompt/prompt.go), neither copied directly since both solve a
// different shaped problem than a manifest compile loop.
package compile

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/teerev/llm-contract-harness/internal/llmclient"
	"github.com/teerev/llm-contract-harness/internal/metrics"
	"github.com/teerev/llm-contract-harness/internal/planner/validate"
	"github.com/teerev/llm-contract-harness/internal/schema"
)

// DefaultMaxAttempts is K, the bound on compile-loop revision attempts.
const DefaultMaxAttempts = 3

// transportMaxAttempts is the bounded retry count for LLM transport errors
// within a single compile attempt.
const transportMaxAttempts = 3

var transportBackoff = llmclient.BackoffConfig{InitialDelayMS: 3000, BackoffFactor: 2.0, MaxDelayMS: 30_000, Jitter: true}

// Options configures one compile run.
type Options struct {
	SpecText     string
	TemplateText string
	Doctrine     string
	RepoHints    string
	RepoListing  map[string]bool

	Model           string
	ReasoningEffort string

	Client      llmclient.Client
	MaxAttempts int

	ArtifactsRoot string
	ExportDir     string

	// TraceID seeds LLM-transport-retry jitter; a random one is minted if
	// empty.
	TraceID string
}

// AttemptRecord is one render/call/validate cycle within a compile run.
// Distinct from schema.AttemptRecord, which describes a factory execution
// attempt rather than a planner compile attempt.
type AttemptRecord struct {
	Index       int                         `json:"index"`
	ParseFailed bool                        `json:"parse_failed"`
	Errors      []validate.ValidationError  `json:"errors,omitempty"`
	Warnings    []validate.ValidationError  `json:"warnings,omitempty"`
}

// Result is the outcome of Run.
type Result struct {
	Success         bool
	Manifest        *schema.Manifest
	Errors          []validate.ValidationError
	Warnings        []validate.ValidationError
	Attempts        []AttemptRecord
	CompileHash     string
	DurationSeconds float64
}

// Run executes the compile loop end to end, persisting every artifact named
// along the way.
func Run(ctx context.Context, opts Options) (Result, error) {
	start := time.Now()

	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	traceID := opts.TraceID
	if traceID == "" {
		traceID = llmclient.NewTraceID()
	}

	compileHash := computeCompileHash(opts.SpecText, opts.TemplateText, opts.Model, opts.ReasoningEffort)
	dir, err := artifactDir(opts.ArtifactsRoot, compileHash)
	if err != nil {
		return Result{}, err
	}

	prompt, err := RenderPrompt(opts.TemplateText, opts.SpecText, opts.Doctrine, opts.RepoHints)
	if err != nil {
		return Result{}, err
	}
	if err := writeText(dir, "prompt_rendered.txt", prompt); err != nil {
		return Result{}, err
	}

	var attempts []AttemptRecord
	currentPrompt := prompt

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		raw, callErr := llmclient.CompleteWithRetry(ctx, opts.Client, currentPrompt,
			fmt.Sprintf("%s:compile:%d", traceID, attempt), transportMaxAttempts, transportBackoff)
		if callErr != nil {
			slog.Error("compile.transport_exhausted", "compile_hash", compileHash, "attempt", attempt, "err", callErr)
			metrics.CompileAttemptsTotal.WithLabelValues("transport_error").Inc()
			metrics.CompileDurationSeconds.Observe(time.Since(start).Seconds())
			return Result{CompileHash: compileHash, Attempts: attempts, DurationSeconds: time.Since(start).Seconds()},
				fmt.Errorf("compile: LLM transport exhausted on attempt %d: %w", attempt, callErr)
		}
		if err := writeText(dir, fmt.Sprintf("llm_raw_response_attempt_%d.txt", attempt), raw); err != nil {
			return Result{}, err
		}

		stripped := stripMarkdownFences(raw)
		if err := writeText(dir, fmt.Sprintf("manifest_raw_attempt_%d.json", attempt), stripped); err != nil {
			return Result{}, err
		}

		record, manifest := validateAttempt(attempt, stripped, opts.RepoListing)
		if err := writeJSON(dir, fmt.Sprintf("validation_errors_attempt_%d.json", attempt), struct {
			Errors   []validate.ValidationError `json:"errors"`
			Warnings []validate.ValidationError `json:"warnings"`
		}{record.Errors, record.Warnings}); err != nil {
			return Result{}, err
		}
		attempts = append(attempts, record)
		for _, e := range record.Errors {
			metrics.CompileHardErrorsTotal.WithLabelValues(string(e.Code)).Inc()
		}

		if len(record.Errors) == 0 {
			metrics.CompileAttemptsTotal.WithLabelValues("success").Inc()
			metrics.CompileDurationSeconds.Observe(time.Since(start).Seconds())
			return finalizeSuccess(dir, opts.ExportDir, compileHash, manifest, attempts, start)
		}
		slog.Warn("compile.attempt_hard_errors", "compile_hash", compileHash, "attempt", attempt, "error_count", len(record.Errors))
		metrics.CompileAttemptsTotal.WithLabelValues("hard_errors").Inc()

		currentPrompt = BuildRevisionPrompt(opts.SpecText, raw, record.Errors)
	}

	metrics.CompileDurationSeconds.Observe(time.Since(start).Seconds())
	last := attempts[len(attempts)-1]
	summary := schema.CompileSummary{
		CompileHash:     compileHash,
		Success:         false,
		Attempts:        len(attempts),
		AttemptErrors:   viewsPerAttempt(attempts),
		DurationSeconds: time.Since(start).Seconds(),
	}
	if err := writeJSON(dir, "compile_summary.json", summary); err != nil {
		return Result{}, err
	}
	return Result{
		Success:         false,
		Errors:          last.Errors,
		Warnings:        last.Warnings,
		Attempts:        attempts,
		CompileHash:     compileHash,
		DurationSeconds: time.Since(start).Seconds(),
	}, nil
}

// validateAttempt implements the parse-then-validate half of one attempt:
// JSON-schema-level parse (size cap, duplicate-key rejection, structural
// schema), then structural+chain validation. A schema failure is folded
// into E000.
func validateAttempt(index int, stripped string, repoListing map[string]bool) (AttemptRecord, *schema.Manifest) {
	if err := schema.ValidateManifestJSON([]byte(stripped)); err != nil {
		return AttemptRecord{
			Index:       index,
			ParseFailed: true,
			Errors:      []validate.ValidationError{{Code: validate.E000, Message: err.Error()}},
		}, nil
	}

	var manifest schema.Manifest
	if err := json.Unmarshal([]byte(stripped), &manifest); err != nil {
		return AttemptRecord{
			Index:       index,
			ParseFailed: true,
			Errors:      []validate.ValidationError{{Code: validate.E000, Message: err.Error()}},
		}, nil
	}

	res := validate.Validate(&manifest, repoListing)
	return AttemptRecord{Index: index, Errors: res.Errors, Warnings: res.Warnings}, &manifest
}

func finalizeSuccess(dir, exportDir, compileHash string, manifest *schema.Manifest, attempts []AttemptRecord, start time.Time) (Result, error) {
	manifestJSON, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return Result{}, fmt.Errorf("compile: marshal normalized manifest: %w", err)
	}
	if err := writeJSON(dir, "manifest_normalized.json", manifest); err != nil {
		return Result{}, err
	}

	workOrderJSON := make(map[string][]byte, len(manifest.WorkOrders))
	for _, wo := range manifest.WorkOrders {
		b, err := json.MarshalIndent(wo, "", "  ")
		if err != nil {
			return Result{}, fmt.Errorf("compile: marshal work order %s: %w", wo.ID, err)
		}
		workOrderJSON[wo.ID] = b
	}
	if err := exportManifest(exportDir, manifestJSON, workOrderJSON); err != nil {
		return Result{}, err
	}

	summary := schema.CompileSummary{
		CompileHash:     compileHash,
		Success:         true,
		Attempts:        len(attempts),
		AttemptErrors:   viewsPerAttempt(attempts),
		DurationSeconds: time.Since(start).Seconds(),
	}
	if err := writeJSON(dir, "compile_summary.json", summary); err != nil {
		return Result{}, err
	}

	return Result{
		Success:         true,
		Manifest:        manifest,
		Attempts:        attempts,
		CompileHash:     compileHash,
		DurationSeconds: time.Since(start).Seconds(),
	}, nil
}

func viewsPerAttempt(attempts []AttemptRecord) [][]schema.ValidationErrorView {
	out := make([][]schema.ValidationErrorView, len(attempts))
	for i, a := range attempts {
		views := make([]schema.ValidationErrorView, len(a.Errors))
		for j, e := range a.Errors {
			views[j] = schema.ValidationErrorView{Code: string(e.Code), WorkOrder: e.WorkOrder, Field: e.Field, Message: e.Message}
		}
		out[i] = views
	}
	return out
}
