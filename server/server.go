package server

import (
	"github.com/lexandro/codesnap/tools"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Version is reported to MCP clients.
const Version = "0.1.0"

// Setup creates the MCP server and registers the snapshot tools.
func Setup(
	searchHandler *tools.SearchHandler,
	filesHandler *tools.FilesHandler,
	statusHandler *tools.StatusHandler,
	rebuildHandler *tools.RebuildHandler,
	readHandler *tools.ReadHandler,
) *mcp.Server {
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "codesnap",
			Version: Version,
		},
		&mcp.ServerOptions{
			Instructions: `This server exposes a live code snapshot: the set of files that codesnap concatenates into its snapshot artifact, kept in sync with the working tree by a filesystem watcher.

- Use snapshot_files to list files that are part of the snapshot
- Use snapshot_search to search their contents
- Use snapshot_read to read a single snapshot file with line numbers
- Use snapshot_status to see roots, last run and pending watch state
- Use snapshot_rebuild to force an incremental rebuild now`,
		},
	)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name: "snapshot_search",
		Description: `Search the contents of snapshot files.

Query formats:
  - Plain text: word-level matching (e.g., "handleRequest")
  - "quoted text": exact phrase matching (e.g., "\"func main\"")
  - /regex/: regular expression matching (e.g., "/func\s+\w+Handler/")

Filtering:
  - filePath: exact relative path to search in a single file (e.g., "src/main.go"). Overrides fileGlob.
  - fileGlob: glob pattern to filter by file type (e.g., "**/*.go").`,
	}, searchHandler.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name: "snapshot_files",
		Description: `List snapshot files by glob pattern. Each result shows language, size and content digest.

Pattern examples:
  - "**/*.go" - all Go files
  - "src/**/*.ts" - TypeScript files under src/
  - "*.json" - JSON files in the base directory only`,
	}, filesHandler.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "snapshot_read",
		Description: `Read a snapshot file's contents as of the last rebuild. Returns numbered lines (format: "N: content").`,
	}, readHandler.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "snapshot_status",
		Description: "Show snapshot status: roots, artifact and index paths, file count, languages, last run and watch state.",
	}, statusHandler.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "snapshot_rebuild",
		Description: "Rescan the roots now, re-render the snapshot if anything changed and persist the index.",
	}, rebuildHandler.Handle)

	return mcpServer
}
