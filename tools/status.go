package tools

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/lexandro/codesnap/language"
	"github.com/lexandro/codesnap/search"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// StatusArgs defines the input parameters for the snapshot_status tool (none required).
type StatusArgs struct{}

// StatusHandler holds the dependencies for the status tool.
type StatusHandler struct {
	Index     IndexFunc
	Info      InfoFunc
	Search    *search.Index
	StartTime time.Time
	Logger    *slog.Logger
}

// Handle processes a snapshot_status request.
func (h *StatusHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args StatusArgs) (*mcp.CallToolResult, any, error) {
	var builder strings.Builder

	ix := h.Index()
	info := h.Info()
	uptime := time.Since(h.StartTime)

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	h.Logger.Info("snapshot_status",
		"files", ix.Len(),
		"totalSize", ix.TotalSize(),
		"runs", info.Runs,
		"uptime", uptime,
	)

	builder.WriteString("=== codesnap Status ===\n\n")
	builder.WriteString(fmt.Sprintf("Roots: %s\n", strings.Join(info.Roots, ", ")))
	builder.WriteString(fmt.Sprintf("Snapshot: %s\n", info.Output))
	builder.WriteString(fmt.Sprintf("Index: %s\n", info.IndexPath))
	if info.WatchState != "" {
		builder.WriteString(fmt.Sprintf("Watch: %s\n", info.WatchState))
	}
	builder.WriteString(fmt.Sprintf("Uptime: %s\n", formatDuration(uptime)))
	builder.WriteString(fmt.Sprintf("Included files: %d\n", ix.Len()))
	if h.Search != nil {
		builder.WriteString(fmt.Sprintf("Searchable documents: %d\n", h.Search.Count()))
	}
	builder.WriteString(fmt.Sprintf("Total size: %s\n", formatFileSize(ix.TotalSize())))
	builder.WriteString(fmt.Sprintf("Memory usage: %s\n", formatFileSize(int64(memStats.HeapAlloc))))

	builder.WriteString(fmt.Sprintf("\nSnapshot runs: %d\n", info.Runs))
	if !info.LastRun.IsZero() {
		builder.WriteString(fmt.Sprintf("Last run: %s ago (took %s)\n",
			formatDuration(time.Since(info.LastRun)), info.LastElapsed.Round(time.Millisecond)))
		builder.WriteString(fmt.Sprintf("Last changes: %s\n", formatChanges(info.LastChanges)))
	}
	if info.LastError != nil {
		builder.WriteString(fmt.Sprintf("Last error: %v\n", info.LastError))
	}

	langCounts := language.Counts(ix.Paths())
	if len(langCounts) > 0 {
		builder.WriteString("\nLanguages:\n")

		type langEntry struct {
			lang  string
			count int
		}
		entries := make([]langEntry, 0, len(langCounts))
		for lang, count := range langCounts {
			entries = append(entries, langEntry{lang, count})
		}
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].count != entries[j].count {
				return entries[i].count > entries[j].count
			}
			return entries[i].lang < entries[j].lang
		})

		for _, entry := range entries {
			builder.WriteString(fmt.Sprintf("  %-20s %d files\n", entry.lang, entry.count))
		}
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: builder.String()}},
	}, nil, nil
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	totalSeconds := int(d.Seconds())
	if totalSeconds < 60 {
		return fmt.Sprintf("%ds", totalSeconds)
	}
	totalMinutes := totalSeconds / 60
	remainderSeconds := totalSeconds % 60
	if totalMinutes < 60 {
		return fmt.Sprintf("%dm%ds", totalMinutes, remainderSeconds)
	}
	hours := totalMinutes / 60
	remainderMinutes := totalMinutes % 60
	return fmt.Sprintf("%dh%dm", hours, remainderMinutes)
}
