package schema

import "testing"

func TestNormalizeManifestCollapsesDotSlash(t *testing.T) {
	m := &Manifest{
		WorkOrders: []WorkOrder{
			{
				ID:           "WO-01",
				AllowedFiles: []string{"./src/a.py", "src/a.py"},
				Postconditions: []Condition{
					{Kind: FileExists, Path: "./src/a.py"},
				},
			},
		},
	}
	_, _, err := NormalizeManifest(m)
	if err != nil {
		t.Fatalf("NormalizeManifest: %v", err)
	}
	if len(m.WorkOrders[0].AllowedFiles) != 1 || m.WorkOrders[0].AllowedFiles[0] != "src/a.py" {
		t.Errorf("AllowedFiles = %v, want deduplicated [src/a.py]", m.WorkOrders[0].AllowedFiles)
	}
	if m.WorkOrders[0].Postconditions[0].Path != "src/a.py" {
		t.Errorf("postcondition path = %q, want src/a.py", m.WorkOrders[0].Postconditions[0].Path)
	}
}

func TestNormalizeManifestRejectsEscape(t *testing.T) {
	m := &Manifest{
		WorkOrders: []WorkOrder{
			{ID: "WO-01", AllowedFiles: []string{"../escape.py"}},
		},
	}
	id, field, err := NormalizeManifest(m)
	if err == nil {
		t.Fatal("expected error for escaping path")
	}
	if id != "WO-01" || field != "allowed_files" {
		t.Errorf("got id=%q field=%q, want WO-01/allowed_files", id, field)
	}
}

func TestNormalizeManifestTruncatesContextFiles(t *testing.T) {
	files := make([]string, 0, MaxContextFiles+5)
	for i := 0; i < MaxContextFiles+5; i++ {
		files = append(files, string(rune('a'+i))+".py")
	}
	m := &Manifest{WorkOrders: []WorkOrder{{ID: "WO-01", ContextFiles: files}}}
	if _, _, err := NormalizeManifest(m); err != nil {
		t.Fatalf("NormalizeManifest: %v", err)
	}
	if len(m.WorkOrders[0].ContextFiles) != MaxContextFiles {
		t.Errorf("ContextFiles len = %d, want %d", len(m.WorkOrders[0].ContextFiles), MaxContextFiles)
	}
}
