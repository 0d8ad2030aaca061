package index

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/opencontainers/go-digest"
)

// FormatVersion tags the persisted layout. An index carrying any other
// version is discarded on load.
const FormatVersion = 1

// Entry is what the index remembers about one included file.
type Entry struct {
	Path        string        `json:"path"` // relative to the base dir, forward slashes
	Fingerprint digest.Digest `json:"fingerprint"`
	Size        int64         `json:"size"`
	ModTime     time.Time     `json:"modTime"`
}

// Changes is the classification of one scan against the previous index.
// Each list is sorted.
type Changes struct {
	Added    []string `json:"added"`
	Modified []string `json:"modified"`
	Removed  []string `json:"removed"`
}

// Empty reports whether nothing changed.
func (c Changes) Empty() bool {
	return len(c.Added) == 0 && len(c.Modified) == 0 && len(c.Removed) == 0
}

// Count returns the total number of changed paths.
func (c Changes) Count() int {
	return len(c.Added) + len(c.Modified) + len(c.Removed)
}

// Index maps path to Entry. An Index is treated as immutable once built:
// Apply returns a new value, so it can be shared with readers without
// locking.
type Index struct {
	Version int              `json:"version"`
	Entries map[string]Entry `json:"entries"`
}

// New returns an empty index at the current format version.
func New() *Index {
	return &Index{Version: FormatVersion, Entries: make(map[string]Entry)}
}

// Get returns the entry for path.
func (ix *Index) Get(path string) (Entry, bool) {
	if ix == nil {
		return Entry{}, false
	}
	e, ok := ix.Entries[path]
	return e, ok
}

// Len returns the number of entries.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.Entries)
}

// Paths returns every indexed path in sorted order.
func (ix *Index) Paths() []string {
	if ix == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(ix.Entries))
}

// TotalSize returns the sum of all entry sizes.
func (ix *Index) TotalSize() int64 {
	if ix == nil {
		return 0
	}
	var total int64
	for _, e := range ix.Entries {
		total += e.Size
	}
	return total
}

// Apply returns a new index with removed paths deleted and every entry in
// updated inserted or replaced. The receiver is left untouched.
func (ix *Index) Apply(changes Changes, updated []Entry) *Index {
	next := New()
	if ix != nil {
		maps.Copy(next.Entries, ix.Entries)
	}
	for _, p := range changes.Removed {
		delete(next.Entries, p)
	}
	for _, e := range updated {
		e.ModTime = e.ModTime.UTC()
		next.Entries[e.Path] = e
	}
	return next
}

// SearchByGlob returns entries whose path matches a doublestar pattern,
// in path order, capped at maxResults (50 when not positive).
func (ix *Index) SearchByGlob(pattern string, maxResults int) ([]Entry, error) {
	if maxResults <= 0 {
		maxResults = 50
	}

	pattern = strings.ReplaceAll(pattern, "\\", "/")
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid glob pattern: %s", pattern)
	}

	var results []Entry
	for _, p := range ix.Paths() {
		if len(results) >= maxResults {
			break
		}
		matched, err := doublestar.Match(pattern, p)
		if err != nil {
			continue
		}
		if matched {
			results = append(results, ix.Entries[p])
		}
	}
	return results, nil
}
