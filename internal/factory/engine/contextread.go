package engine

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/teerev/llm-contract-harness/internal/pathutil"
)

// contextFileBudget is the aggregate read budget across a work order's
// context_files.
const contextFileBudget = 200 * 1024

// contextFile is one rendered context entry: its path, the (possibly
// truncated) content, and the SHA-256 of the file as read from disk — the
// base-hash hint the SE prompt gives the LLM.
type contextFile struct {
	Path      string
	Content   string
	SHA256    string
	Truncated bool
}

// readContextFiles reads work_order.context_files in sorted order,
// enforcing the aggregate budget: once the budget is exhausted mid-file, the
// remainder of that file is dropped (the "last-read file" truncation named
// in the node spec) and no further files are opened.
func readContextFiles(repoRoot string, paths []string) ([]contextFile, error) {
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)

	var out []contextFile
	remaining := contextFileBudget
	for _, p := range sorted {
		if remaining <= 0 {
			break
		}
		abs, err := pathutil.ResolveUnderRoot(repoRoot, p)
		if err != nil {
			return nil, err
		}
		hash, err := pathutil.ContentHash(abs)
		if err != nil {
			return nil, err
		}
		b, err := os.ReadFile(abs)
		if err != nil {
			if os.IsNotExist(err) {
				out = append(out, contextFile{Path: p, SHA256: pathutil.EmptyDigest})
				continue
			}
			return nil, err
		}
		truncated := false
		if len(b) > remaining {
			b = b[:remaining]
			truncated = true
		}
		remaining -= len(b)
		out = append(out, contextFile{Path: p, Content: string(b), SHA256: hash, Truncated: truncated})
	}
	return out, nil
}

// contextFilePath joins repoRoot and a validated relative context path,
// reused by the PO node's postcondition gate.
func contextFilePath(repoRoot, relPath string) string {
	return filepath.Join(repoRoot, filepath.FromSlash(relPath))
}
