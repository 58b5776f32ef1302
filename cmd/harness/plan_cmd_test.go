package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBuildRepoListingSkipsVCSDirs(t *testing.T) {
	dir := t.TempDir()
	mustWrite := func(rel string) {
		t.Helper()
		full := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	mustWrite("src/a.py")
	mustWrite(".git/HEAD")
	mustWrite("node_modules/pkg/index.js")

	listing, err := buildRepoListing(dir)
	if err != nil {
		t.Fatalf("buildRepoListing: %v", err)
	}
	if !listing["src/a.py"] {
		t.Error("expected src/a.py in listing")
	}
	if listing[".git/HEAD"] {
		t.Error(".git contents should be skipped")
	}
	if listing["node_modules/pkg/index.js"] {
		t.Error("node_modules contents should be skipped")
	}
}
