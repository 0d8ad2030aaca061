// Package atomicfile replaces files so that readers observe either the old or
// the new content, never a partially written file.
package atomicfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// tempInfix separates the target's base name from the random suffix of a
// staged temp file. Watchers use IsTempFor to drop events for staged files.
const tempInfix = ".tmp-"

// Staged is a fully written and synced temp file that has not yet replaced
// its target. Either Commit or Discard must be called.
type Staged struct {
	target  string
	tmpPath string
	done    bool
}

// Stage writes data to a temp file next to target and syncs it to disk.
// The target itself is not touched until Commit.
func Stage(target string, data []byte, perm os.FileMode) (*Staged, error) {
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmpFile, err := os.CreateTemp(dir, filepath.Base(target)+tempInfix+"*")
	if err != nil {
		return nil, fmt.Errorf("creating temp file in %s: %w", dir, err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("writing temp file %s: %w", tmpPath, err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("syncing temp file %s: %w", tmpPath, err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("closing temp file %s: %w", tmpPath, err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("chmod temp file %s: %w", tmpPath, err)
	}

	return &Staged{target: target, tmpPath: tmpPath}, nil
}

// TempPath returns the location of the staged content.
func (s *Staged) TempPath() string {
	return s.tmpPath
}

// Commit renames the staged file over the target.
func (s *Staged) Commit() error {
	if s.done {
		return fmt.Errorf("staged file %s already finished", s.tmpPath)
	}
	s.done = true
	if err := os.Rename(s.tmpPath, s.target); err != nil {
		os.Remove(s.tmpPath)
		return fmt.Errorf("renaming %s to %s: %w", s.tmpPath, s.target, err)
	}
	return nil
}

// Discard removes the staged file without touching the target.
func (s *Staged) Discard() error {
	if s.done {
		return nil
	}
	s.done = true
	return os.Remove(s.tmpPath)
}

// WriteFile atomically replaces target with data.
func WriteFile(target string, data []byte, perm os.FileMode) error {
	staged, err := Stage(target, data, perm)
	if err != nil {
		return err
	}
	return staged.Commit()
}

// IsTempFor reports whether path is a temp file staged for target.
func IsTempFor(path string, target string) bool {
	if filepath.Dir(path) != filepath.Dir(target) {
		return false
	}
	return strings.HasPrefix(filepath.Base(path), filepath.Base(target)+tempInfix)
}
