package validate

import "regexp"

// stdlibAllowlist holds common CPython standard-library top-level module
// names. W101 never fires for these even when the named file is absent from
// the cumulative state, since they are never repo-relative paths.
var stdlibAllowlist = map[string]bool{
	"os": true, "sys": true, "re": true, "json": true, "ast": true,
	"io": true, "time": true, "math": true, "random": true, "itertools": true,
	"functools": true, "collections": true, "subprocess": true, "shutil": true,
	"pathlib": true, "typing": true, "dataclasses": true, "abc": true,
	"unittest": true, "logging": true, "argparse": true, "enum": true,
	"datetime": true, "hashlib": true, "glob": true, "csv": true, "copy": true,
	"traceback": true, "tempfile": true, "contextlib": true, "string": true,
	"textwrap": true, "inspect": true, "importlib": true, "pickle": true,
	"socket": true, "threading": true, "multiprocessing": true, "asyncio": true,
	"sqlite3": true, "struct": true, "base64": true, "uuid": true, "warnings": true,
	"decimal": true, "fractions": true, "statistics": true, "operator": true,
	"platform": true, "signal": true, "queue": true, "heapq": true, "bisect": true,
	"ctypes": true, "array": true, "zlib": true, "gzip": true, "tarfile": true,
	"zipfile": true, "configparser": true, "xml": true, "html": true, "http": true,
	"urllib": true, "email": true, "types": true, "weakref": true, "gc": true,
	"__future__": true, "builtins": true, "compileall": true, "py_compile": true,
	"pytest": true,
}

var (
	reImport     = regexp.MustCompile(`\bimport\s+([A-Za-z_][A-Za-z0-9_]*)`)
	reFromImport = regexp.MustCompile(`\bfrom\s+([A-Za-z_][A-Za-z0-9_.]*)\s+import\b`)
)

// extractReferencedFiles gathers path-like references an acceptance command
// makes, for W101. It handles three shapes: import statements inside a
// `python -c "..."` code argument, a `bash script.sh` argv pattern, and a
// `python script.py` argv pattern. Stdlib module names found via import
// statements are filtered by stdlibAllowlist; everything else is returned
// as a repo-relative path candidate for cumulative-state membership
// checking.
func extractReferencedFiles(tokens []string, pyCode string) []string {
	var refs []string
	if pyCode != "" {
		// Drop "from X import" heads first so the name after a from-import
		// is not mistaken for a module of its own.
		plainImports := reFromImport.ReplaceAllString(pyCode, "")
		for _, m := range reImport.FindAllStringSubmatch(plainImports, -1) {
			root := topLevelPackage(m[1])
			if !stdlibAllowlist[root] {
				refs = append(refs, root+".py")
			}
		}
		for _, m := range reFromImport.FindAllStringSubmatch(pyCode, -1) {
			root := topLevelPackage(m[1])
			if !stdlibAllowlist[root] {
				refs = append(refs, root+".py")
			}
		}
	}
	if len(tokens) >= 2 {
		switch tokens[0] {
		case "bash", "sh":
			refs = append(refs, tokens[1])
		case "python", "python3":
			if tokens[1] != "-c" && tokens[1] != "-m" {
				refs = append(refs, tokens[1])
			}
		}
	}
	return refs
}

func topLevelPackage(dotted string) string {
	for i := 0; i < len(dotted); i++ {
		if dotted[i] == '.' {
			return dotted[:i]
		}
	}
	return dotted
}
