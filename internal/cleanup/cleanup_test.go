package cleanup

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

// writeExport creates an exported document last modified at ts.
func writeExport(t *testing.T, dir, name string, ts time.Time) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("# policy\n"), 0644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	if err := os.Chtimes(path, ts, ts); err != nil {
		t.Fatalf("chtimes %s: %v", name, err)
	}
}

func exists(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}

func TestPruneByAge(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		dryRun   bool
		wantGone bool
	}{
		{name: "removes old exports", dryRun: false, wantGone: true},
		{name: "dry run keeps files", dryRun: true, wantGone: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeExport(t, dir, "POL-OLD.md", now.AddDate(0, 0, -60))
			writeExport(t, dir, "POL-NEW.md", now.AddDate(0, 0, -5))

			pruned, err := PruneByAge(dir, 30, tt.dryRun)
			if err != nil {
				t.Fatalf("PruneByAge: %v", err)
			}
			if !slices.Equal(pruned, []string{"POL-OLD.md"}) {
				t.Errorf("pruned = %v", pruned)
			}
			if exists(dir, "POL-OLD.md") == tt.wantGone {
				t.Errorf("POL-OLD.md exists = %v", !tt.wantGone)
			}
			if !exists(dir, "POL-NEW.md") {
				t.Error("recent export was removed")
			}
		})
	}
}

func TestPruneByAge_SkipsOtherFiles(t *testing.T) {
	dir := t.TempDir()
	old := time.Now().AddDate(0, 0, -90)
	writeExport(t, dir, "notes.txt", old)
	if err := os.MkdirAll(filepath.Join(dir, "archive.md"), 0755); err != nil {
		t.Fatal(err)
	}

	pruned, err := PruneByAge(dir, 1, false)
	if err != nil {
		t.Fatalf("PruneByAge: %v", err)
	}
	if len(pruned) != 0 {
		t.Errorf("pruned = %v, want none", pruned)
	}
	if !exists(dir, "notes.txt") || !exists(dir, "archive.md") {
		t.Error("non-export entries were removed")
	}
}

func TestPruneKeepRecent(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	for i, name := range []string{"POL-A.md", "POL-B.md", "POL-C.md", "POL-D.md"} {
		writeExport(t, dir, name, now.Add(time.Duration(i-4)*time.Hour))
	}

	pruned, err := PruneKeepRecent(dir, 2, false)
	if err != nil {
		t.Fatalf("PruneKeepRecent: %v", err)
	}
	if !slices.Equal(pruned, []string{"POL-A.md", "POL-B.md"}) {
		t.Errorf("pruned = %v", pruned)
	}
	for _, name := range []string{"POL-C.md", "POL-D.md"} {
		if !exists(dir, name) {
			t.Errorf("%s was removed", name)
		}
	}
}

func TestPruneKeepRecent_FewerThanKeep(t *testing.T) {
	dir := t.TempDir()
	writeExport(t, dir, "POL-A.md", time.Now())

	pruned, err := PruneKeepRecent(dir, 5, false)
	if err != nil {
		t.Fatalf("PruneKeepRecent: %v", err)
	}
	if pruned != nil {
		t.Errorf("pruned = %v", pruned)
	}
}

func TestPruneMissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	if pruned, err := PruneByAge(dir, 1, false); err != nil || pruned != nil {
		t.Errorf("PruneByAge = %v, %v", pruned, err)
	}
	if pruned, err := PruneKeepRecent(dir, 0, false); err != nil || pruned != nil {
		t.Errorf("PruneKeepRecent = %v, %v", pruned, err)
	}
}
