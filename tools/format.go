package tools

import (
	"fmt"
	"strings"

	"github.com/lexandro/codesnap/index"
	"github.com/lexandro/codesnap/language"
	"github.com/lexandro/codesnap/search"
)

// FormatSearchResults groups matches by file with line numbers and context.
func FormatSearchResults(results []search.Result, totalMatches int) string {
	if len(results) == 0 {
		return "No matches found."
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Found %d matches in %d files:\n\n", totalMatches, len(results)))

	for i, result := range results {
		if i > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(fmt.Sprintf("── %s ──\n", result.Path))

		for _, match := range result.Matches {
			for _, line := range match.ContextBefore {
				builder.WriteString(fmt.Sprintf("  %s\n", line))
			}
			builder.WriteString(fmt.Sprintf("  %d: %s\n", match.LineNumber, match.LineText))
			for _, line := range match.ContextAfter {
				builder.WriteString(fmt.Sprintf("  %s\n", line))
			}
		}
	}

	return builder.String()
}

// FormatFileResults lists index entries, optionally with metadata.
func FormatFileResults(entries []index.Entry, nameOnly bool) string {
	if len(entries) == 0 {
		return "No files matched."
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Found %d files:\n\n", len(entries)))

	for _, e := range entries {
		if nameOnly {
			builder.WriteString(e.Path)
			builder.WriteString("\n")
			continue
		}
		builder.WriteString(fmt.Sprintf("  %s  (%s, %s, %s)\n",
			e.Path,
			language.Detect(e.Path),
			formatFileSize(e.Size),
			shortDigest(e.Fingerprint.Encoded()),
		))
	}

	return builder.String()
}

// FormatFileContent renders content as numbered lines ("N: text").
// offset is the 1-based first line to show (0 means from the start) and
// limit caps the number of lines (0 means no cap).
func FormatFileContent(filePath string, content string, offset int, limit int) string {
	lines := strings.Split(content, "\n")
	lineCount := len(lines)

	start := 0
	if offset > 1 {
		start = offset - 1
	}
	if start >= lineCount {
		return fmt.Sprintf("Offset exceeds file length: %s has %d lines", filePath, lineCount)
	}
	end := lineCount
	if limit > 0 && start+limit < end {
		end = start + limit
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("── %s (%d lines) ──\n", filePath, lineCount))

	width := len(fmt.Sprintf("%d", end))
	for i := start; i < end; i++ {
		builder.WriteString(fmt.Sprintf("%*d: %s\n", width, i+1, lines[i]))
	}

	return builder.String()
}

func formatChanges(c index.Changes) string {
	return fmt.Sprintf("+%d ~%d -%d", len(c.Added), len(c.Modified), len(c.Removed))
}

func shortDigest(encoded string) string {
	if len(encoded) > 12 {
		return encoded[:12]
	}
	return encoded
}

// formatFileSize converts bytes to a human-readable string.
func formatFileSize(bytes int64) string {
	switch {
	case bytes >= 1024*1024:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
	case bytes >= 1024:
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
