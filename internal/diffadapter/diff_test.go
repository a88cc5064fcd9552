package diffadapter

import (
	"testing"

	"github.com/evo-hydra/seraph/internal/types"
)

func TestParseOutputPreservesFileOrder(t *testing.T) {
	raw := `diff --git a/a.go b/a.go
@@ -1,2 +1,3 @@
diff --git a/b.go b/b.go
new file mode 100644
@@ -0,0 +1,5 @@
diff --git a/c.go b/c.go
deleted file mode 100644
@@ -1,4 +0,0 @@
`
	result := parseOutput(raw)

	want := []string{"a.go", "b.go", "c.go"}
	got := result.FilePaths()
	if len(got) != len(want) {
		t.Fatalf("got %d files, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("file %d = %q, want %q", i, got[i], want[i])
		}
	}

	if !result.Files[1].IsNew {
		t.Errorf("b.go should be marked new")
	}
	if !result.Files[2].IsDeleted {
		t.Errorf("c.go should be marked deleted")
	}
	if len(result.Files[0].AddedLines) != 1 || result.Files[0].AddedLines[0].Start != 1 || result.Files[0].AddedLines[0].Length != 3 {
		t.Errorf("a.go added hunk = %+v", result.Files[0].AddedLines)
	}
}

func TestSourceFilesFiltersByExtension(t *testing.T) {
	result := Result{Files: []types.FileChange{
		{Path: "main.go"},
		{Path: "README.md"},
		{Path: "util.go"},
	}}
	got := result.SourceFiles([]string{".go"})
	if len(got) != 2 {
		t.Fatalf("got %d source files, want 2: %v", len(got), got)
	}
}
