// Package ignore applies a root's ignore files (.gitignore and
// .codesnapignore) to paths relative to that root.
package ignore

import (
	"os"
	"path/filepath"
	"sync"

	gitignore "github.com/denormal/go-gitignore"
)

// FileNames lists the ignore files read from a root, in evaluation order.
var FileNames = []string{".gitignore", ".codesnapignore"}

// Matcher holds the parsed ignore files of one root.
// Reload takes the write lock; ShouldIgnore takes the read lock.
type Matcher struct {
	mu       sync.RWMutex
	rootDir  string
	matchers []gitignore.GitIgnore
}

// NewMatcher loads the ignore files found directly under rootDir.
// Missing files are not an error: the matcher simply ignores nothing.
func NewMatcher(rootDir string) *Matcher {
	m := &Matcher{rootDir: rootDir}
	m.matchers = loadAll(rootDir)
	return m
}

// RootDir returns the directory the ignore files were loaded from.
func (m *Matcher) RootDir() string {
	return m.rootDir
}

// ShouldIgnore reports whether relativePath (slash-separated, relative to the
// root) is excluded by any loaded ignore file.
func (m *Matcher) ShouldIgnore(relativePath string, isDir bool) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	relativePath = filepath.ToSlash(relativePath)
	for _, gi := range m.matchers {
		// Relative() does not require the path to exist on disk
		match := gi.Relative(relativePath, isDir)
		if match != nil && match.Ignore() {
			return true
		}
	}
	return false
}

// IsIgnoreFile reports whether absolutePath is one of this root's ignore files.
func (m *Matcher) IsIgnoreFile(absolutePath string) bool {
	if filepath.Dir(absolutePath) != m.rootDir {
		return false
	}
	base := filepath.Base(absolutePath)
	for _, name := range FileNames {
		if base == name {
			return true
		}
	}
	return false
}

// Reload re-reads the ignore files from disk.
// Used when the watcher sees one of them change.
func (m *Matcher) Reload() {
	matchers := loadAll(m.rootDir)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.matchers = matchers
}

func loadAll(rootDir string) []gitignore.GitIgnore {
	var matchers []gitignore.GitIgnore
	for _, name := range FileNames {
		if gi := loadIgnoreFile(filepath.Join(rootDir, name), rootDir); gi != nil {
			matchers = append(matchers, gi)
		}
	}
	return matchers
}

// loadIgnoreFile parses one ignore file. Reading through an io.Reader keeps
// the handle lifetime explicit (Windows cannot rename open files).
func loadIgnoreFile(filePath string, baseDir string) gitignore.GitIgnore {
	f, err := os.Open(filePath)
	if err != nil {
		return nil
	}
	defer f.Close()

	return gitignore.New(f, baseDir, nil)
}
