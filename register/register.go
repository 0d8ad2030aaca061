// Package register adds a "codesnap serve" entry to an MCP client
// configuration file.
package register

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"github.com/lexandro/codesnap/atomicfile"
)

// ServerName is the key written under "mcpServers".
const ServerName = "codesnap"

// Scope selects which configuration file is updated.
type Scope string

const (
	ScopeProject Scope = "project" // <directory>/.mcp.json
	ScopeUser    Scope = "user"    // ~/.claude.json
)

// Entry is one server definition in the client configuration.
type Entry struct {
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
}

// Options describes one registration.
type Options struct {
	Scope      Scope
	Directory  string   // project scope only; defaults to "."
	BinaryPath string   // defaults to the running executable
	ServeArgs  []string // flags forwarded to "codesnap serve"
}

// ParseScope validates a scope name.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopeProject, ScopeUser:
		return Scope(s), nil
	default:
		return "", fmt.Errorf("unknown scope %q (must be %q or %q)", s, ScopeProject, ScopeUser)
	}
}

// Register writes the serve entry and returns the path of the updated file.
func Register(opts Options) (string, error) {
	if opts.Scope == ScopeUser && opts.Directory != "" {
		return "", errors.New("a directory can only be given for project scope")
	}

	binaryPath := opts.BinaryPath
	if binaryPath == "" {
		var err error
		if binaryPath, err = detectBinaryPath(); err != nil {
			return "", err
		}
	}

	configPath, err := ConfigPath(opts.Scope, opts.Directory)
	if err != nil {
		return "", err
	}
	if err := writeConfig(configPath, ServerName, BuildEntry(binaryPath, opts.ServeArgs)); err != nil {
		return "", err
	}
	return configPath, nil
}

// ConfigPath returns the configuration file for scope.
func ConfigPath(scope Scope, directory string) (string, error) {
	switch scope {
	case ScopeProject:
		if directory == "" {
			directory = "."
		}
		absDir, err := filepath.Abs(directory)
		if err != nil {
			return "", fmt.Errorf("resolving directory %s: %w", directory, err)
		}
		return filepath.Join(absDir, ".mcp.json"), nil
	case ScopeUser:
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		return filepath.Join(homeDir, ".claude.json"), nil
	default:
		return "", fmt.Errorf("unknown scope %q", scope)
	}
}

// BuildEntry runs binaryPath with the serve subcommand and serveArgs.
// On Windows the binary is started through cmd /C.
func BuildEntry(binaryPath string, serveArgs []string) Entry {
	args := append([]string{"serve"}, serveArgs...)
	if runtime.GOOS == "windows" {
		return Entry{
			Command: "cmd",
			Args:    append([]string{"/C", binaryPath}, args...),
		}
	}
	return Entry{Command: binaryPath, Args: args}
}

func detectBinaryPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("getting executable path: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("resolving symlinks for %s: %w", exe, err)
	}
	return resolved, nil
}

// writeConfig adds or replaces the named server and keeps every other key.
func writeConfig(configPath string, serverName string, entry Entry) error {
	config := map[string]any{}

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &config); err != nil {
			return fmt.Errorf("parsing existing config %s: %w", configPath, err)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("reading config %s: %w", configPath, err)
	}

	servers, ok := config["mcpServers"]
	if !ok || servers == nil {
		servers = map[string]any{}
		config["mcpServers"] = servers
	}
	serversMap, ok := servers.(map[string]any)
	if !ok {
		return fmt.Errorf("mcpServers in %s is not an object", configPath)
	}
	serversMap[serverName] = entry

	output, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	output = append(output, '\n')

	if err := atomicfile.WriteFile(configPath, output, 0644); err != nil {
		return fmt.Errorf("writing config %s: %w", configPath, err)
	}
	return nil
}
