package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/lexandro/codesnap/index"
)

func newTestFilesHandler(entries ...index.Entry) *FilesHandler {
	ix := index.New().Apply(index.Changes{}, entries)
	return &FilesHandler{
		Index:  func() *index.Index { return ix },
		Logger: testLogger(),
	}
}

func Test_FilesHandler_EmptyPattern(t *testing.T) {
	h := newTestFilesHandler()

	result, _, err := h.Handle(context.Background(), nil, FilesArgs{Pattern: ""})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected IsError=true for empty pattern")
	}
	if text := resultText(t, result); !strings.Contains(text, "pattern parameter is required") {
		t.Errorf("expected error message about empty pattern, got: %s", text)
	}
}

func Test_FilesHandler_GlobSearch(t *testing.T) {
	h := newTestFilesHandler(newTestEntry("src/main.go", 512), newTestEntry("README.md", 256))

	result, _, err := h.Handle(context.Background(), nil, FilesArgs{Pattern: "**/*.go"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatal("expected success, got error result")
	}

	text := resultText(t, result)
	if !strings.Contains(text, "src/main.go") {
		t.Errorf("expected result to contain src/main.go, got:\n%s", text)
	}
	if strings.Contains(text, "README.md") {
		t.Errorf("expected result to NOT contain README.md, got:\n%s", text)
	}
}

func Test_FilesHandler_InvalidPattern(t *testing.T) {
	h := newTestFilesHandler(newTestEntry("main.go", 1))

	result, _, err := h.Handle(context.Background(), nil, FilesArgs{Pattern: "[bad"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected IsError=true for invalid pattern")
	}
}

func Test_FilesHandler_NoResults(t *testing.T) {
	h := newTestFilesHandler(newTestEntry("main.go", 512))

	result, _, err := h.Handle(context.Background(), nil, FilesArgs{Pattern: "**/*.rs"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatal("expected success (no error), got error result")
	}
	if text := resultText(t, result); !strings.Contains(text, "No files matched") {
		t.Errorf("expected 'No files matched', got:\n%s", text)
	}
}
