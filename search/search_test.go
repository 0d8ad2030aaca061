package search

import (
	"errors"
	"testing"

	"github.com/lexandro/codesnap/index"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	ix, err := New()
	if err != nil {
		t.Fatalf("failed to create search index: %v", err)
	}
	t.Cleanup(func() { ix.Close() })
	return ix
}

func mustPut(t *testing.T, ix *Index, path string, content string) {
	t.Helper()
	if err := ix.Put(path, content); err != nil {
		t.Fatalf("Put(%s) failed: %v", path, err)
	}
}

func Test_Index_PutAndSearch(t *testing.T) {
	ix := newTestIndex(t)
	mustPut(t, ix, "main.go", "package main\n\nfunc main() {\n\tfmt.Println(\"hello world\")\n}")

	results, total, err := ix.Search(Options{Query: "hello", MaxResults: 10})
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if len(results) != 1 || total != 1 {
		t.Fatalf("expected one match, got %d results / %d matches", len(results), total)
	}
	if results[0].Path != "main.go" || results[0].Matches[0].LineNumber != 4 {
		t.Errorf("unexpected result: %+v", results[0])
	}
}

func Test_Index_PhraseSearch(t *testing.T) {
	ix := newTestIndex(t)
	mustPut(t, ix, "app.go", "func handle() {\n\tw.Write([]byte(\"hello world\"))\n}")

	results, _, err := ix.Search(Options{Query: `"hello world"`})
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected phrase match")
	}
}

func Test_Index_RegexSearch(t *testing.T) {
	ix := newTestIndex(t)
	mustPut(t, ix, "svc.go", "func handleRequest() {}\nfunc other() {}")

	results, total, err := ix.Search(Options{Query: "/handle.*/"})
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if len(results) != 1 || total != 1 {
		t.Fatalf("expected one regex line match, got %d results / %d matches", len(results), total)
	}
	if results[0].Matches[0].LineNumber != 1 {
		t.Errorf("expected line 1, got %d", results[0].Matches[0].LineNumber)
	}

	if _, _, err := ix.Search(Options{Query: "/[bad/"}); err == nil {
		t.Error("expected error for invalid regex")
	}
}

func Test_Index_SearchWithContextLines(t *testing.T) {
	ix := newTestIndex(t)
	mustPut(t, ix, "example.go", "line1\nline2\nline3 target\nline4\nline5")

	results, _, err := ix.Search(Options{Query: "target", ContextLines: 1})
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected results")
	}
	m := results[0].Matches[0]
	if m.LineNumber != 3 {
		t.Errorf("expected line 3, got %d", m.LineNumber)
	}
	if len(m.ContextBefore) != 1 || m.ContextBefore[0] != "line2" {
		t.Errorf("unexpected context before: %v", m.ContextBefore)
	}
	if len(m.ContextAfter) != 1 || m.ContextAfter[0] != "line4" {
		t.Errorf("unexpected context after: %v", m.ContextAfter)
	}
}

func Test_Index_SearchFilters(t *testing.T) {
	ix := newTestIndex(t)
	mustPut(t, ix, "main.go", "hello from main")
	mustPut(t, ix, "lib/util.go", "hello from util")
	mustPut(t, ix, "app.ts", "hello from app")

	results, _, err := ix.Search(Options{Query: "hello", FileGlob: "**/*.go"})
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 Go results, got %d", len(results))
	}

	results, _, err = ix.Search(Options{Query: "hello", FilePath: "app.ts", FileGlob: "**/*.go"})
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if len(results) != 1 || results[0].Path != "app.ts" {
		t.Errorf("expected FilePath to take precedence, got %+v", results)
	}
}

func Test_Index_Apply(t *testing.T) {
	ix := newTestIndex(t)
	mustPut(t, ix, "old.py", "stale content")
	mustPut(t, ix, "keep.py", "before")

	files := map[string]string{
		"new.py":  "fresh content",
		"keep.py": "after",
	}
	read := func(p string) ([]byte, error) {
		content, ok := files[p]
		if !ok {
			return nil, errors.New("not found")
		}
		return []byte(content), nil
	}

	err := ix.Apply(index.Changes{
		Added:    []string{"new.py"},
		Modified: []string{"keep.py"},
		Removed:  []string{"old.py"},
	}, read)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if ix.Count() != 2 {
		t.Errorf("expected 2 documents, got %d", ix.Count())
	}
	if _, ok := ix.Content("old.py"); ok {
		t.Error("removed file still indexed")
	}
	if content, _ := ix.Content("keep.py"); content != "after" {
		t.Errorf("modified file not refreshed: %q", content)
	}

	err = ix.Apply(index.Changes{Added: []string{"missing.py"}}, read)
	if err == nil {
		t.Error("expected read error to be reported")
	}
}
