package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	flag "github.com/spf13/pflag"

	"github.com/teerev/llm-contract-harness/internal/config"
	"github.com/teerev/llm-contract-harness/internal/factory/engine"
	"github.com/teerev/llm-contract-harness/internal/gitutil"
	"github.com/teerev/llm-contract-harness/internal/llmclient"
	"github.com/teerev/llm-contract-harness/internal/schema"
)

// runRunCmd implements `harness run`. Exit codes are engine.Run's own:
// 0 PASS, 1 FAIL or preflight rejection, 2 unhandled exception, 130
// interrupt.
func runRunCmd(args []string, configPath string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	repoRoot := fs.String("repo", "", "path to the git working tree the work order executes against")
	workOrderPath := fs.String("work-order", "", "path to a single WO-NN.json file")
	outDir := fs.String("out", "./artifacts/factory", "directory run artifacts are written under")
	model := fs.String("llm-model", "", "LLM model name")
	temperature := fs.Float64("llm-temperature", -1, "LLM sampling temperature (omitted from the request when unset)")
	maxAttempts := fs.Int("max-attempts", 0, "override the configured max attempts (0 keeps the config default)")
	timeoutSeconds := fs.Int("timeout-seconds", 0, "override the configured command timeout in seconds (0 keeps the config default)")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: harness run --repo DIR --work-order FILE --llm-model MODEL [flags]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 1
	}

	if *repoRoot == "" || *workOrderPath == "" || *model == "" {
		fmt.Fprintln(os.Stderr, "run: --repo, --work-order, and --llm-model are required")
		fs.Usage()
		return 1
	}

	cfg, err := config.LoadFactoryConfig(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "run:", err)
		return 1
	}
	if *maxAttempts > 0 {
		cfg.MaxAttempts = *maxAttempts
	}
	if *timeoutSeconds > 0 {
		cfg.CommandTimeoutSeconds = *timeoutSeconds
	}
	gitutil.CommandTimeout = time.Duration(cfg.GitCommandTimeoutSeconds) * time.Second

	raw, err := os.ReadFile(*workOrderPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "run:", err)
		return 1
	}
	var wo schema.WorkOrder
	if err := json.Unmarshal(raw, &wo); err != nil {
		fmt.Fprintln(os.Stderr, "run: parse work order:", err)
		return 1
	}

	var temp *float64
	if *temperature >= 0 {
		temp = temperature
	}
	client := llmclient.NewHTTPClient(llmclient.Config{
		BaseURL:     os.Getenv("LLM_BASE_URL"),
		APIKey:      os.Getenv("LLM_API_KEY"),
		Model:       *model,
		Temperature: temp,
	})

	bar := progressbar.NewOptions(cfg.MaxAttempts,
		progressbar.OptionSetDescription(fmt.Sprintf("executing %s", wo.ID)),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionClearOnFinish(),
	)

	slog.Info("run.start", "work_order_id", wo.ID, "repo", *repoRoot, "max_attempts", cfg.MaxAttempts)

	outcome, runErr := engine.Run(context.Background(), engine.Options{
		RepoRoot:              *repoRoot,
		OutDir:                outDir,
		WorkOrder:             wo,
		Client:                client,
		MaxAttempts:           cfg.MaxAttempts,
		CommandTimeout:        time.Duration(cfg.CommandTimeoutSeconds) * time.Second,
		RollbackRetryAttempts: cfg.RollbackRetryAttempts,
		EffectiveConfig:       cfg.Snapshot(),
		OnAttempt: func(attemptIndex int) {
			_ = bar.Set(attemptIndex)
		},
	})
	if runErr != nil {
		slog.Error("run.failed", "err", runErr)
		fmt.Fprintln(os.Stderr, "run:", runErr)
		return outcome.ExitCode
	}

	printVerdict(outcome.Summary)
	slog.Info("run.finished", "run_id", outcome.Summary.RunID, "verdict", string(outcome.Summary.Verdict), "exit_code", outcome.ExitCode)
	return outcome.ExitCode
}

func printVerdict(summary schema.RunSummary) {
	var c *color.Color
	switch summary.Verdict {
	case schema.VerdictPass:
		c = color.New(color.FgGreen, color.Bold)
	case schema.VerdictFail:
		c = color.New(color.FgYellow, color.Bold)
	default:
		c = color.New(color.FgRed, color.Bold)
	}
	c.Printf("run: %s verdict=%s attempts=%d\n", summary.RunID, summary.Verdict, len(summary.Attempts))
	if summary.RollbackFailed {
		color.New(color.FgRed, color.Bold).Fprintln(os.Stderr, "run: WARNING rollback failed, repository may be left dirty")
	}
}
