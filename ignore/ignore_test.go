package ignore

import (
	"os"
	"path/filepath"
	"testing"
)

func Test_Matcher_NoIgnoreFiles(t *testing.T) {
	matcher := NewMatcher(t.TempDir())

	if matcher.ShouldIgnore("main.go", false) {
		t.Error("expected nothing to be ignored without ignore files")
	}
}

func Test_Matcher_GitignoreIntegration(t *testing.T) {
	tmpDir := t.TempDir()
	os.WriteFile(filepath.Join(tmpDir, ".gitignore"), []byte("*.generated.go\nsecret/\n"), 0644)

	matcher := NewMatcher(tmpDir)

	if !matcher.ShouldIgnore("models.generated.go", false) {
		t.Error("expected .gitignore pattern to ignore *.generated.go")
	}
	if !matcher.ShouldIgnore("secret", true) {
		t.Error("expected .gitignore pattern to ignore secret/ directory")
	}
	if matcher.ShouldIgnore("main.go", false) {
		t.Error("expected normal .go files to NOT be ignored")
	}
}

func Test_Matcher_CodesnapignoreIntegration(t *testing.T) {
	tmpDir := t.TempDir()
	os.WriteFile(filepath.Join(tmpDir, ".codesnapignore"), []byte("docs/internal/\n*.draft.md\n"), 0644)

	matcher := NewMatcher(tmpDir)

	if !matcher.ShouldIgnore("notes.draft.md", false) {
		t.Error("expected .codesnapignore pattern to ignore *.draft.md")
	}
	if !matcher.ShouldIgnore("docs/internal", true) {
		t.Error("expected docs/internal/ directory to be ignored")
	}
}

func Test_Matcher_Reload(t *testing.T) {
	tmpDir := t.TempDir()
	matcher := NewMatcher(tmpDir)

	if matcher.ShouldIgnore("build.log", false) {
		t.Fatal("expected build.log to be eligible before .gitignore exists")
	}

	os.WriteFile(filepath.Join(tmpDir, ".gitignore"), []byte("*.log\n"), 0644)
	matcher.Reload()

	if !matcher.ShouldIgnore("build.log", false) {
		t.Error("expected build.log to be ignored after reload")
	}
}

func Test_Matcher_IsIgnoreFile(t *testing.T) {
	tmpDir := t.TempDir()
	matcher := NewMatcher(tmpDir)

	tests := []struct {
		path string
		want bool
	}{
		{filepath.Join(tmpDir, ".gitignore"), true},
		{filepath.Join(tmpDir, ".codesnapignore"), true},
		{filepath.Join(tmpDir, "sub", ".gitignore"), false},
		{filepath.Join(tmpDir, "main.go"), false},
	}

	for _, tt := range tests {
		if got := matcher.IsIgnoreFile(tt.path); got != tt.want {
			t.Errorf("IsIgnoreFile(%s) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
