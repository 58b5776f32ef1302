// Package gitutil wraps the small, fixed set of git operations the factory
// execution state machine needs: preflight clean-tree / baseline checks,
// hard-reset-plus-clean rollback, and a post-run tree hash computed over
// only the touched files. Adapted from the teacher's worktree-oriented git
// helper (vsavkov-kilroy/internal/attractor/gitutil); the worktree/branch/push
// functions it used for parallel checkpointed runs are dropped here because
// the factory is modeled as the sole writer of a single already-checked-out
// repository, so there is nothing for them to do.
package gitutil

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// CommandTimeout bounds every git invocation in this package. Zero means no
// timeout. The `harness run` command sets this once, at startup, from
// config.FactoryDefaults.GitCommandTimeoutSeconds.
var CommandTimeout time.Duration

// CommandError wraps a failed git invocation with its captured streams.
type CommandError struct {
	Args   []string
	Stdout string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("git %s: %v", strings.Join(e.Args, " "), e.Err)
	if e.Stderr != "" {
		msg += ": " + strings.TrimSpace(e.Stderr)
	}
	return msg
}

func runGit(dir string, args ...string) (string, string, error) {
	ctx := context.Background()
	if CommandTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, CommandTimeout)
		defer cancel()
	}
	// Disable background auto-maintenance so factory runs stay deterministic
	// and don't spawn long-running helper processes during frequent
	// preflight/rollback invocations.
	base := []string{
		"-C", dir,
		"-c", "maintenance.auto=0",
		"-c", "gc.auto=0",
	}
	cmd := exec.CommandContext(ctx, "git", append(base, args...)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	outStr := stdout.String()
	errStr := stderr.String()
	if err != nil {
		return outStr, errStr, &CommandError{Args: args, Stdout: outStr, Stderr: errStr, Err: err}
	}
	return outStr, errStr, nil
}

// IsRepo reports whether dir is inside a git working tree.
func IsRepo(dir string) bool {
	out, _, err := runGit(dir, "rev-parse", "--is-inside-work-tree")
	if err != nil {
		return false
	}
	return strings.TrimSpace(out) == "true"
}

// HeadSHA returns the current HEAD commit hash.
func HeadSHA(dir string) (string, error) {
	out, _, err := runGit(dir, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// StatusPorcelain returns the raw `git status --porcelain` output, covering
// staged, unstaged, and untracked changes alike.
func StatusPorcelain(dir string) (string, error) {
	out, _, err := runGit(dir, "status", "--porcelain")
	if err != nil {
		return "", err
	}
	return out, nil
}

// IsClean reports whether the working tree has no staged, unstaged, or
// untracked changes.
func IsClean(dir string) (bool, error) {
	out, err := StatusPorcelain(dir)
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) == "", nil
}

// ResetHard resets the working tree and index to sha, discarding all
// tracked-file modifications. First half of the two-operation rollback.
func ResetHard(dir, sha string) error {
	_, _, err := runGit(dir, "reset", "--hard", sha)
	return err
}

// CleanUntrackedIncludingIgnored runs `git clean -fdx`: the `-x` is load
// bearing — the preflight clean-tree check means any untracked file present
// after rollback must have been written by the SE/TR attempt being rolled
// back, including into gitignored paths, so ignored files are removed too.
func CleanUntrackedIncludingIgnored(dir string) error {
	_, _, err := runGit(dir, "clean", "-fdx")
	return err
}

// AddPaths stages exactly the given repo-relative paths, never `-A`: the
// finalize node's post-run tree hash must reflect only the touched files,
// not any verification/acceptance-command artifacts dropped elsewhere in
// the tree.
func AddPaths(dir string, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	args := append([]string{"add", "--"}, paths...)
	_, _, err := runGit(dir, args...)
	return err
}

// WriteTree runs `git write-tree` against the current index and returns the
// resulting tree object hash, used as the deterministic post-run tree hash
// once only the touched files have been staged via AddPaths.
func WriteTree(dir string) (string, error) {
	out, _, err := runGit(dir, "write-tree")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// TreeHashAt returns the tree object hash that commit resolves to, used to
// compare a rolled-back working tree against the baseline commit's tree.
func TreeHashAt(dir, commit string) (string, error) {
	out, _, err := runGit(dir, "rev-parse", commit+"^{tree}")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// DiffNameOnly returns file paths changed between baseRef and the working
// tree, one per non-empty output line, in the order git prints them.
func DiffNameOnly(dir, baseRef string) ([]string, error) {
	out, _, err := runGit(dir, "diff", "--name-only", baseRef)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, line := range strings.Split(out, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			files = append(files, trimmed)
		}
	}
	return files, nil
}
