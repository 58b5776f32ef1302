package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Contains resolves both root and candidate with symlink-following realpath
// and reports whether candidate is root itself or strictly within it under
// segment-boundary prefix match. candidate need not exist yet: only its
// nearest existing ancestor is resolved, and the remaining suffix is
// appended back, so a not-yet-created file under an existing directory
// still resolves correctly.
func Contains(root, candidate string) (bool, error) {
	resolvedRoot, err := realpathBestEffort(root)
	if err != nil {
		return false, fmt.Errorf("resolve root: %w", err)
	}
	resolvedCandidate, err := realpathBestEffort(candidate)
	if err != nil {
		return false, fmt.Errorf("resolve candidate: %w", err)
	}
	if resolvedCandidate == resolvedRoot {
		return true, nil
	}
	rel, err := filepath.Rel(resolvedRoot, resolvedCandidate)
	if err != nil {
		return false, nil
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false, nil
	}
	return true, nil
}

// realpathBestEffort resolves symlinks on the nearest existing ancestor of p
// and reattaches the non-existent suffix. Callers re-check containment
// immediately before each atomic write to narrow the TOCTOU window; no
// earlier resolved path is stored or compared against the new one.
func realpathBestEffort(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	abs = filepath.Clean(abs)

	var suffix []string
	cur := abs
	for {
		if resolved, err := filepath.EvalSymlinks(cur); err == nil {
			full := resolved
			for i := len(suffix) - 1; i >= 0; i-- {
				full = filepath.Join(full, suffix[i])
			}
			return full, nil
		} else if !os.IsNotExist(err) {
			return "", err
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			// Reached filesystem root without finding an existing ancestor.
			full := parent
			for i := len(suffix) - 1; i >= 0; i-- {
				full = filepath.Join(full, suffix[i])
			}
			return full, nil
		}
		suffix = append(suffix, filepath.Base(cur))
		cur = parent
	}
}

// ResolveUnderRoot joins a validated relative path to root and re-verifies
// containment, returning the absolute path safe to write to. Callers must
// invoke this immediately before every atomic write, not just once at scope
// check time, to narrow the TOCTOU window.
func ResolveUnderRoot(root, relPath string) (string, error) {
	candidate := filepath.Join(root, filepath.FromSlash(relPath))
	ok, err := Contains(root, candidate)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: %q escapes root %q", ErrInvalidPath, relPath, root)
	}
	return candidate, nil
}
