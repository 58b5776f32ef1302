// Package cmdrunner implements shell-free subprocess execution with
// timeouts, disk-captured streams, and OSError tolerance. Generalized from
// the teacher's runGit helper (vsavkov-kilroy/internal/attractor/gitutil/git.go)
// which wraps a single fixed git invocation; here the argv, cwd, and timeout
// are all caller-supplied since the runner backs verify commands, acceptance
// commands, and git operations alike.
package cmdrunner

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"time"
)

const excerptLen = 2000

// CmdResult mirrors schema.CmdResult.
type CmdResult struct {
	Command        []string `json:"command"`
	ExitCode       int      `json:"exit_code"`
	StdoutTrunc    string   `json:"stdout_trunc"`
	StderrTrunc    string   `json:"stderr_trunc"`
	StdoutPath     string   `json:"stdout_path"`
	StderrPath     string   `json:"stderr_path"`
	DurationSecond float64  `json:"duration_seconds"`
}

// Options configures one invocation.
type Options struct {
	Command    []string
	Cwd        string
	Timeout    time.Duration
	StdoutPath string
	StderrPath string
	// Stdin, when non-nil, is piped to the child process. Used by the
	// planner validator's python syntax check so source text never has to
	// ride on argv; every other caller leaves this nil.
	Stdin []byte
}

// Run spawns Command directly (no shell interpretation), captures stdout and
// stderr to the caller-supplied paths, and returns a CmdResult carrying
// truncated excerpts. It never returns an error to the caller: timeouts and
// OSErrors are folded into exit_code=-1.
func Run(ctx context.Context, opts Options) CmdResult {
	start := time.Now()
	result := CmdResult{
		Command:    append([]string(nil), opts.Command...),
		StdoutPath: opts.StdoutPath,
		StderrPath: opts.StderrPath,
	}

	if len(opts.Command) == 0 {
		result.ExitCode = -1
		result.StderrTrunc = "[ERROR] empty command"
		writeCaptured(opts.StdoutPath, nil)
		writeCaptured(opts.StderrPath, []byte(result.StderrTrunc))
		result.DurationSecond = time.Since(start).Seconds()
		return result
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if opts.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, opts.Command[0], opts.Command[1:]...)
	cmd.Dir = opts.Cwd
	if opts.Stdin != nil {
		cmd.Stdin = bytes.NewReader(opts.Stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	elapsed := time.Since(start)
	result.DurationSecond = elapsed.Seconds()

	writeCaptured(opts.StdoutPath, stdout.Bytes())
	writeCaptured(opts.StderrPath, stderr.Bytes())

	switch {
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		result.ExitCode = -1
		result.StdoutTrunc = truncate(stdout.String())
		result.StderrTrunc = "[TIMEOUT] " + truncate(stderr.String())
	case runErr == nil:
		result.ExitCode = 0
		result.StdoutTrunc = truncate(stdout.String())
		result.StderrTrunc = truncate(stderr.String())
	default:
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			result.StdoutTrunc = truncate(stdout.String())
			result.StderrTrunc = truncate(stderr.String())
		} else {
			// os.PathError / fork-exec failure: process never started.
			result.ExitCode = -1
			result.StdoutTrunc = truncate(stdout.String())
			result.StderrTrunc = truncate(runErr.Error())
		}
	}
	return result
}

// truncate returns the last excerptLen characters of s, deterministically.
func truncate(s string) string {
	r := []rune(s)
	if len(r) <= excerptLen {
		return s
	}
	return string(r[len(r)-excerptLen:])
}

func writeCaptured(path string, b []byte) {
	if path == "" {
		return
	}
	_ = os.WriteFile(path, b, 0o644)
}
