package cmdrunner

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestRunSuccess(t *testing.T) {
	dir := t.TempDir()
	res := Run(context.Background(), Options{
		Command:    []string{"echo", "hello"},
		Cwd:        dir,
		StdoutPath: filepath.Join(dir, "out.txt"),
		StderrPath: filepath.Join(dir, "err.txt"),
	})
	if res.ExitCode != 0 {
		t.Fatalf("exit code = %d, want 0", res.ExitCode)
	}
	if res.StdoutTrunc == "" {
		t.Fatal("expected stdout excerpt")
	}
}

func TestRunNonZeroExit(t *testing.T) {
	dir := t.TempDir()
	res := Run(context.Background(), Options{
		Command: []string{"false"},
		Cwd:     dir,
	})
	if res.ExitCode == 0 {
		t.Fatal("expected non-zero exit code")
	}
}

func TestRunTimeout(t *testing.T) {
	dir := t.TempDir()
	res := Run(context.Background(), Options{
		Command: []string{"sleep", "5"},
		Cwd:     dir,
		Timeout: 50 * time.Millisecond,
	})
	if res.ExitCode != -1 {
		t.Fatalf("exit code = %d, want -1", res.ExitCode)
	}
	if len(res.StderrTrunc) < 9 || res.StderrTrunc[:9] != "[TIMEOUT]" {
		t.Errorf("stderr excerpt = %q, want [TIMEOUT] marker", res.StderrTrunc)
	}
}

func TestRunMissingBinary(t *testing.T) {
	dir := t.TempDir()
	res := Run(context.Background(), Options{
		Command: []string{"this-binary-does-not-exist-xyz"},
		Cwd:     dir,
	})
	if res.ExitCode != -1 {
		t.Fatalf("exit code = %d, want -1", res.ExitCode)
	}
	if res.StderrTrunc == "" {
		t.Error("expected error message in stderr excerpt")
	}
}

func TestRunNoShellInterpretation(t *testing.T) {
	dir := t.TempDir()
	res := Run(context.Background(), Options{
		Command: []string{"echo", "$HOME; rm -rf /"},
		Cwd:     dir,
	})
	if res.ExitCode != 0 {
		t.Fatalf("exit code = %d, want 0", res.ExitCode)
	}
	if res.StdoutTrunc != "$HOME; rm -rf /\n" {
		t.Errorf("shell metacharacters were interpreted: %q", res.StdoutTrunc)
	}
}
