package tools

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RebuildArgs defines the input parameters for the snapshot_rebuild tool.
type RebuildArgs struct{}

// RebuildHandler holds the dependencies for the rebuild tool.
type RebuildHandler struct {
	DoRebuild RebuildFunc
	Logger    *slog.Logger
}

// Handle processes a snapshot_rebuild request.
func (h *RebuildHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args RebuildArgs) (*mcp.CallToolResult, any, error) {
	h.Logger.Info("snapshot_rebuild started")

	summary, err := h.DoRebuild(ctx)
	if err != nil {
		h.Logger.Error("snapshot_rebuild failed", "error", err)
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("Rebuild error: %v", err)}},
			IsError: true,
		}, nil, nil
	}

	h.Logger.Info("snapshot_rebuild complete",
		"files", summary.Included,
		"changes", summary.Changes.Count(),
		"rendered", summary.Rendered,
		"elapsed", summary.Elapsed,
	)

	state := "snapshot unchanged"
	if summary.Rendered {
		state = "snapshot rewritten"
	}
	output := fmt.Sprintf("rebuilt: %d files, %s, %s in %s",
		summary.Included, formatChanges(summary.Changes), state, summary.Elapsed)

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: output}},
	}, nil, nil
}
