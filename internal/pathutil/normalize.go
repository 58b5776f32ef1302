// Package pathutil implements canonical path normalization, containment
// checks, content hashing, and atomic file replacement.
package pathutil

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrInvalidPath is wrapped by every rejection reason below so callers can
// test with errors.Is while validator layers attach their own error codes.
var ErrInvalidPath = errors.New("invalid path")

// Normalize applies POSIX normpath semantics and reports whether the
// resulting relative path is valid: relative, normpath-idempotent, no
// parent-segment escape, no drive prefix, no null byte, no control
// character, no glob metacharacter, not "." or empty.
func Normalize(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	if strings.ContainsRune(trimmed, 0) {
		return "", fmt.Errorf("%w: contains null byte", ErrInvalidPath)
	}
	for _, r := range trimmed {
		if r < 0x20 || r == 0x7f {
			return "", fmt.Errorf("%w: contains control character", ErrInvalidPath)
		}
	}
	if hasDrivePrefix(trimmed) {
		return "", fmt.Errorf("%w: drive prefix not allowed", ErrInvalidPath)
	}
	if strings.HasPrefix(trimmed, "/") {
		return "", fmt.Errorf("%w: absolute path not allowed", ErrInvalidPath)
	}

	normalized := path.Clean(filepathToSlash(trimmed))
	if normalized == "." {
		return "", fmt.Errorf("%w: resolves to \".\"", ErrInvalidPath)
	}
	if normalized == ".." || strings.HasPrefix(normalized, "../") {
		return "", fmt.Errorf("%w: escapes repository root", ErrInvalidPath)
	}
	// Idempotence: normpath(x) == x after a single pass, matching the
	// round-trip law. path.Clean is already idempotent by construction, but
	// we assert it explicitly as the contract the validator relies on.
	if again := path.Clean(normalized); again != normalized {
		return "", fmt.Errorf("%w: not normpath-idempotent", ErrInvalidPath)
	}
	if HasGlobMeta(normalized) {
		return "", fmt.Errorf("%w: contains glob metacharacter", ErrInvalidPath)
	}
	return normalized, nil
}

func filepathToSlash(s string) string {
	return strings.ReplaceAll(s, "\\", "/")
}

func hasDrivePrefix(s string) bool {
	if len(s) >= 2 && s[1] == ':' {
		c := s[0]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			return true
		}
	}
	return false
}

// HasGlobMeta reports whether s contains a glob metacharacter. It checks
// the literal character set first, then cross-checks with doublestar: if
// doublestar treats s as a pattern that does not match itself literally, s
// carries special meaning doublestar would expand, which is itself
// disqualifying even if it isn't one of the four characters scanned for
// directly.
func HasGlobMeta(s string) bool {
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']':
			return true
		}
	}
	ok, err := doublestar.Match(s, s)
	if err != nil {
		return true
	}
	return !ok
}

// Dedup normalizes and deduplicates a list of raw path strings, preserving
// first-occurrence order. Normalization happens before deduplication so
// "./a" and "a" collapse to one entry.
func Dedup(raw []string) ([]string, error) {
	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		n, err := Normalize(r)
		if err != nil {
			return nil, err
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out, nil
}
