package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	flag "github.com/spf13/pflag"

	"github.com/teerev/llm-contract-harness/internal/config"
	"github.com/teerev/llm-contract-harness/internal/llmclient"
	"github.com/teerev/llm-contract-harness/internal/planner/compile"
)

// runPlanCmd implements `harness plan`. Exit codes: 0 success, 1 usage or
// file-system error, 2 validation hard errors survived every revision
// attempt, 3 LLM transport exhausted, 4 the last attempt's response failed
// to parse as a manifest.
func runPlanCmd(args []string, configPath string) int {
	fs := flag.NewFlagSet("plan", flag.ContinueOnError)
	specPath := fs.String("spec", "", "path to the product spec text file")
	templatePath := fs.String("template", "", "path to the prompt template (must contain {{PRODUCT_SPEC}})")
	doctrinePath := fs.String("doctrine", "", "optional path to a doctrine/house-rules text file")
	repoDir := fs.String("repo", "", "optional repo root; its file listing seeds precondition checks")
	artifactsDir := fs.String("artifacts-dir", "./artifacts/compile", "directory the compile loop persists per-attempt artifacts under")
	exportDir := fs.String("outdir", "", "directory to export manifest.json and WO-NN.json into")
	model := fs.String("llm-model", "", "LLM model name")
	effort := fs.String("llm-reasoning-effort", "", "optional reasoning-effort label; folded into the compile hash, not sent to the model")
	printSummary := fs.Bool("print-summary", false, "print the compile summary to stdout on completion")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: harness plan --spec FILE --template FILE --outdir DIR [flags]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 1
	}

	if *specPath == "" || *templatePath == "" || *exportDir == "" {
		fmt.Fprintln(os.Stderr, "plan: --spec, --template, and --outdir are required")
		fs.Usage()
		return 1
	}

	cfg, err := config.LoadPlannerConfig(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "plan:", err)
		return 1
	}

	specText, err := os.ReadFile(*specPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "plan:", err)
		return 1
	}
	templateText, err := os.ReadFile(*templatePath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "plan:", err)
		return 1
	}
	var doctrineText string
	if *doctrinePath != "" {
		b, err := os.ReadFile(*doctrinePath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "plan:", err)
			return 1
		}
		doctrineText = string(b)
	}

	var repoListing map[string]bool
	if *repoDir != "" {
		repoListing, err = buildRepoListing(*repoDir)
		if err != nil {
			fmt.Fprintln(os.Stderr, "plan:", err)
			return 1
		}
	}

	client := llmclient.NewHTTPClient(llmclient.Config{
		BaseURL: os.Getenv("LLM_BASE_URL"),
		APIKey:  os.Getenv("LLM_API_KEY"),
		Model:   *model,
	})

	slog.Info("plan.start", "spec", *specPath, "model", *model)

	result, err := compile.Run(context.Background(), compile.Options{
		SpecText:      string(specText),
		TemplateText:  string(templateText),
		Doctrine:      doctrineText,
		RepoListing:   repoListing,
		Model:         *model,
		ReasoningEffort: *effort,
		Client:        client,
		MaxAttempts:   cfg.MaxAttempts,
		ArtifactsRoot: *artifactsDir,
		ExportDir:     *exportDir,
	})
	if err != nil {
		slog.Error("plan.transport_exhausted", "err", err)
		fmt.Fprintln(os.Stderr, "plan:", err)
		return 3
	}

	if !result.Success {
		slog.Warn("plan.validation_failed", "compile_hash", result.CompileHash, "attempts", len(result.Attempts))
		red := color.New(color.FgRed, color.Bold)
		red.Fprintln(os.Stderr, "plan: manifest failed validation after", len(result.Attempts), "attempt(s)")
		for _, e := range result.Errors {
			fmt.Fprintf(os.Stderr, "  [%s] %s: %s\n", e.Code, e.WorkOrder, e.Message)
		}
		if len(result.Attempts) > 0 && result.Attempts[len(result.Attempts)-1].ParseFailed {
			return 4
		}
		return 2
	}

	slog.Info("plan.success", "compile_hash", result.CompileHash, "work_orders", len(result.Manifest.WorkOrders))
	green := color.New(color.FgGreen, color.Bold)
	green.Printf("plan: compiled %d work order(s) in %d attempt(s), compile_hash=%s\n",
		len(result.Manifest.WorkOrders), len(result.Attempts), result.CompileHash)
	if *printSummary {
		fmt.Printf("system_overview: %s\n", result.Manifest.SystemOverview)
		for _, wo := range result.Manifest.WorkOrders {
			fmt.Printf("  %s: %s\n", wo.ID, wo.Title)
		}
	}
	return 0
}

// buildRepoListing walks root and returns the set of relative paths of every
// file on disk (tracked or not), skipping VCS and common build-output
// directories. Grounded on the
// teacher's rust sandbox preflight walk
// (internal/attractor/engine/rust_sandbox_preflight.go), generalized from a
// depth-bounded scan to an unbounded listing since precondition checks need
// the whole tree.
func buildRepoListing(root string) (map[string]bool, error) {
	listing := make(map[string]bool)
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if d.IsDir() {
			switch d.Name() {
			case ".git", "node_modules", "target", "__pycache__", ".venv":
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		listing[filepath.ToSlash(rel)] = true
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("plan: walk repo listing: %w", err)
	}
	return listing, nil
}
