package tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lexandro/codesnap/search"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ReadArgs defines the input parameters for the snapshot_read tool.
type ReadArgs struct {
	FilePath string `json:"filePath" jsonschema:"Path of a snapshot file as listed by snapshot_files (e.g. src/main.go)"`
	Offset   int    `json:"offset,omitempty" jsonschema:"1-based line number to start reading from"`
	Limit    int    `json:"limit,omitempty" jsonschema:"Maximum number of lines to return"`
}

// ReadHandler holds the dependencies for the read tool.
type ReadHandler struct {
	Search *search.Index
	Logger *slog.Logger
}

// Handle processes a snapshot_read request.
func (h *ReadHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args ReadArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	if args.FilePath == "" {
		h.Logger.Warn("snapshot_read called with empty filePath")
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: "Error: filePath parameter is required"}},
			IsError: true,
		}, nil, nil
	}

	content, ok := h.Search.Content(args.FilePath)
	if !ok {
		h.Logger.Info("snapshot_read file not found", "filePath", args.FilePath)
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("File not in snapshot: %s", args.FilePath)}},
			IsError: true,
		}, nil, nil
	}

	h.Logger.Info("snapshot_read", "filePath", args.FilePath, "elapsed", time.Since(start))

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: FormatFileContent(args.FilePath, content, args.Offset, args.Limit)}},
	}, nil, nil
}
