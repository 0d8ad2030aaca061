// Package filter decides which files are eligible for the snapshot.
//
// A Filter is built once from immutable Rules and never touches the
// filesystem: callers pass in the metadata they already hold.
package filter

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/lexandro/codesnap/atomicfile"
)

// Rules configures eligibility.
type Rules struct {
	Extensions   []string // e.g. ".py"; case-insensitive; empty admits every extension
	ExcludeDirs  []string // doublestar patterns matched against single directory names
	MaxSizeBytes int64    // 0 means unlimited
	MaxDepth     int      // 0 means unlimited; a file directly under a root has depth 1
	SkipHidden   bool     // skip names starting with "."
	ExcludePaths []string // absolute paths that are never eligible, nor their staged temp files
}

// EntryInfo is the metadata the caller already has for a path.
type EntryInfo struct {
	Size  int64
	IsDir bool
}

// Ignorer is an extra per-root exclusion source, e.g. ignore files.
type Ignorer interface {
	ShouldIgnore(relativePath string, isDir bool) bool
}

// Filter applies Rules. Safe for concurrent use once configured.
type Filter struct {
	rules        Rules
	extensions   map[string]struct{}
	excludePaths []string
	ignorers     map[string]Ignorer
}

// New validates rules and builds a Filter.
func New(rules Rules) (*Filter, error) {
	for _, pattern := range rules.ExcludeDirs {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude pattern: %s", pattern)
		}
	}

	f := &Filter{
		rules:      rules,
		extensions: make(map[string]struct{}, len(rules.Extensions)),
		ignorers:   make(map[string]Ignorer),
	}
	for _, ext := range rules.Extensions {
		f.extensions[NormalizeExtension(ext)] = struct{}{}
	}
	for _, p := range rules.ExcludePaths {
		if abs, err := filepath.Abs(p); err == nil {
			f.excludePaths = append(f.excludePaths, abs)
		}
	}
	return f, nil
}

// NormalizeExtension lowercases ext and ensures a leading dot.
func NormalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// Rules returns the rules the filter was built from.
func (f *Filter) Rules() Rules {
	return f.rules
}

// SetIgnorer attaches an Ignorer to the given root. Call before scanning.
func (f *Filter) SetIgnorer(root string, ignorer Ignorer) {
	f.ignorers[filepath.Clean(root)] = ignorer
}

// Eligible reports whether the file at relativePath (slash-separated,
// relative to root) belongs in the snapshot.
func (f *Filter) Eligible(root string, relativePath string, info EntryInfo) bool {
	if info.IsDir {
		return false
	}
	relativePath = filepath.ToSlash(relativePath)
	parts := strings.Split(relativePath, "/")

	if f.rules.MaxDepth > 0 && len(parts) > f.rules.MaxDepth {
		return false
	}
	if f.Pruned(root, relativePath) {
		return false
	}

	name := parts[len(parts)-1]
	if f.rules.SkipHidden && isHidden(name) {
		return false
	}
	if !f.extensionAllowed(name) || f.tooLarge(info.Size) {
		return false
	}
	if ig := f.ignorers[filepath.Clean(root)]; ig != nil && ig.ShouldIgnore(relativePath, false) {
		return false
	}
	return true
}

// EligibleFile reports whether an explicitly named file belongs in the
// snapshot. Only the own-output, extension and size rules apply; directory,
// depth, hidden and ignore-file rules are for walks.
func (f *Filter) EligibleFile(absolutePath string, info EntryInfo) bool {
	if info.IsDir || f.IsOwnOutput(absolutePath) {
		return false
	}
	return f.extensionAllowed(filepath.Base(absolutePath)) && !f.tooLarge(info.Size)
}

func (f *Filter) extensionAllowed(name string) bool {
	if len(f.extensions) == 0 {
		return true
	}
	_, ok := f.extensions[strings.ToLower(path.Ext(name))]
	return ok
}

func (f *Filter) tooLarge(size int64) bool {
	return f.rules.MaxSizeBytes > 0 && size > f.rules.MaxSizeBytes
}

// SkipDir reports whether the walk should not descend into relativeDir.
// The root itself ("" or ".") is never skipped.
func (f *Filter) SkipDir(root string, relativeDir string) bool {
	relativeDir = filepath.ToSlash(relativeDir)
	if relativeDir == "" || relativeDir == "." {
		return false
	}
	parts := strings.Split(relativeDir, "/")

	// Files inside have depth len(parts)+1.
	if f.rules.MaxDepth > 0 && len(parts) >= f.rules.MaxDepth {
		return true
	}
	if f.excludedDirName(parts[len(parts)-1]) {
		return true
	}
	if ig := f.ignorers[filepath.Clean(root)]; ig != nil && ig.ShouldIgnore(relativeDir, true) {
		return true
	}
	return false
}

// Pruned reports whether relativePath is one of the tool's own outputs or
// lies under a directory the walk would never enter. Extension, size and
// depth are not considered, so it is safe for paths that no longer exist.
func (f *Filter) Pruned(root string, relativePath string) bool {
	relativePath = filepath.ToSlash(relativePath)
	if f.IsOwnOutput(filepath.Join(root, filepath.FromSlash(relativePath))) {
		return true
	}

	parts := strings.Split(relativePath, "/")
	ig := f.ignorers[filepath.Clean(root)]
	for i := 0; i < len(parts)-1; i++ {
		if f.excludedDirName(parts[i]) {
			return true
		}
		if ig != nil && ig.ShouldIgnore(strings.Join(parts[:i+1], "/"), true) {
			return true
		}
	}
	return false
}

// IsOwnOutput reports whether absolutePath is an excluded path (the
// artifact or the index) or a temp file staged for one.
func (f *Filter) IsOwnOutput(absolutePath string) bool {
	for _, p := range f.excludePaths {
		if absolutePath == p || atomicfile.IsTempFor(absolutePath, p) {
			return true
		}
	}
	return false
}

// excludedDirName checks a single directory name against the exclude
// patterns and the hidden rule.
func (f *Filter) excludedDirName(name string) bool {
	if f.rules.SkipHidden && isHidden(name) {
		return true
	}
	for _, pattern := range f.rules.ExcludeDirs {
		if matched, err := doublestar.Match(pattern, name); err == nil && matched {
			return true
		}
	}
	return false
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}
