// Package config holds the immutable per-invocation configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lexandro/codesnap/filter"
)

const (
	DefaultOutput    = "full_code_snapshot.txt"
	DefaultIndexFile = ".codesnap-index.json"
	DefaultDebounce  = time.Second
	DefaultWorkers   = 8

	// BytesPerMB converts the --max-size flag into bytes.
	BytesPerMB = 1_000_000
)

var (
	ErrNoRoots      = errors.New("no root directories given")
	ErrRootNotFound = errors.New("root directory not found")
)

// DefaultExtensions are used when neither flags nor user defaults name any.
var DefaultExtensions = []string{
	".py", ".js", ".ts", ".jsx", ".tsx", ".go", ".rs", ".java",
	".cpp", ".c", ".h", ".toml", ".yaml", ".yml", ".json", ".md",
}

// DefaultExcludeDirs are directory name patterns that are never walked.
var DefaultExcludeDirs = []string{
	"__pycache__", "build", "dist", "*.egg-info",
	"venv", ".venv", "env", "node_modules", "vendor", "third_party",
	".git", ".svn", ".hg",
	".idea", ".vscode", ".vs",
	".pytest_cache", ".coverage", "htmlcov",
	"tmp", "temp", ".cache",
	"logs", "log",
}

// Config is built once from flags and defaults and never mutated after
// Resolve.
type Config struct {
	Roots   []string
	BaseDir string // paths in the index and artifact are relative to it

	// Files, when set, is scanned instead of walking Roots.
	Files []string

	Extensions         []string
	ExcludeDirs        []string
	MaxSizeBytes       int64
	MaxDepth           int
	SkipHidden         bool
	RespectIgnoreFiles bool
	SkipBinary         bool

	Output    string
	IndexPath string

	Debounce       time.Duration
	ResyncInterval time.Duration
	Workers        int
}

// Defaults returns the built-in configuration rooted at the working directory.
func Defaults() Config {
	return Config{
		Roots:              []string{"."},
		Extensions:         append([]string(nil), DefaultExtensions...),
		ExcludeDirs:        append([]string(nil), DefaultExcludeDirs...),
		SkipHidden:         true,
		RespectIgnoreFiles: true,
		SkipBinary:         true,
		Output:             DefaultOutput,
		Debounce:           DefaultDebounce,
		Workers:            DefaultWorkers,
	}
}

// Resolve makes every path absolute, removes duplicate roots, fills in
// derived defaults and validates the result.
func (c *Config) Resolve() error {
	if len(c.Roots) == 0 {
		return ErrNoRoots
	}

	if c.BaseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting working directory: %w", err)
		}
		c.BaseDir = wd
	}
	baseDir, err := filepath.Abs(c.BaseDir)
	if err != nil {
		return fmt.Errorf("resolving base directory %s: %w", c.BaseDir, err)
	}
	c.BaseDir = baseDir

	seen := make(map[string]bool, len(c.Roots))
	roots := make([]string, 0, len(c.Roots))
	for _, root := range c.Roots {
		abs := c.absolute(root)
		info, err := os.Stat(abs)
		if err != nil || !info.IsDir() {
			return fmt.Errorf("%w: %s", ErrRootNotFound, root)
		}
		if seen[abs] {
			continue
		}
		seen[abs] = true
		roots = append(roots, abs)
	}
	c.Roots = roots

	seenFiles := make(map[string]bool, len(c.Files))
	files := make([]string, 0, len(c.Files))
	for _, f := range c.Files {
		abs := c.absolute(f)
		if seenFiles[abs] {
			continue
		}
		seenFiles[abs] = true
		files = append(files, abs)
	}
	c.Files = files

	if c.Output == "" {
		c.Output = DefaultOutput
	}
	c.Output = c.absolute(c.Output)
	if c.IndexPath == "" {
		c.IndexPath = DefaultIndexFile
	}
	c.IndexPath = c.absolute(c.IndexPath)

	for i, ext := range c.Extensions {
		c.Extensions[i] = filter.NormalizeExtension(ext)
	}

	if c.MaxSizeBytes < 0 {
		return fmt.Errorf("max size must not be negative: %d", c.MaxSizeBytes)
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("max depth must not be negative: %d", c.MaxDepth)
	}
	if c.Debounce <= 0 {
		c.Debounce = DefaultDebounce
	}
	if c.ResyncInterval < 0 {
		c.ResyncInterval = 0
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	return nil
}

// FilterRules derives the eligibility rules. The artifact and the index are
// always excluded so the tool never snapshots its own output.
func (c Config) FilterRules() filter.Rules {
	return filter.Rules{
		Extensions:   c.Extensions,
		ExcludeDirs:  c.ExcludeDirs,
		MaxSizeBytes: c.MaxSizeBytes,
		MaxDepth:     c.MaxDepth,
		SkipHidden:   c.SkipHidden,
		ExcludePaths: []string{c.Output, c.IndexPath},
	}
}

func (c Config) absolute(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(c.BaseDir, p)
}
