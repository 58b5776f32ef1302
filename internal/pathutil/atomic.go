package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// AtomicWrite creates a sibling tempfile in dest's directory, writes b,
// fsyncs, and renames it over dest. On any failure the tempfile is removed
// before the error is returned.
func AtomicWrite(dest string, b []byte, perm os.FileMode) (err error) {
	dir := filepath.Dir(dest)
	tmp, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(dest)+"-*")
	if err != nil {
		return fmt.Errorf("create tempfile: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err = tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write tempfile: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("fsync tempfile: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close tempfile: %w", err)
	}
	if err = os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("chmod tempfile: %w", err)
	}
	if err = os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("rename tempfile over %q: %w", dest, err)
	}
	return nil
}

// AtomicWriteJSON is the single entry point every JSON artifact in this
// repository must go through (planner manifests, factory summaries and
// briefs): routing every post-mortem JSON write through the same
// tempfile-fsync-rename primitive as the manifest writer prevents a crash
// during serialization from corrupting the verdict record.
func AtomicWriteJSON(dest string, b []byte) error {
	return AtomicWrite(dest, b, 0o644)
}
