package tools

import (
	"io"
	"log/slog"
	"testing"

	"github.com/lexandro/codesnap/search"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSearch(t *testing.T, files map[string]string) *search.Index {
	t.Helper()
	ix, err := search.New()
	if err != nil {
		t.Fatalf("failed to create search index: %v", err)
	}
	t.Cleanup(func() { ix.Close() })
	for p, content := range files {
		if err := ix.Put(p, content); err != nil {
			t.Fatalf("failed to index %s: %v", p, err)
		}
	}
	return ix
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("result has no content")
	}
	return result.Content[0].(*mcp.TextContent).Text
}
