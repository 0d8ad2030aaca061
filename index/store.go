package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/lexandro/codesnap/atomicfile"
)

// LoadStatus tells the caller why Load returned what it did.
type LoadStatus int

const (
	LoadOK LoadStatus = iota
	LoadMissing
	LoadCorrupt
	LoadVersionMismatch
)

func (s LoadStatus) String() string {
	switch s {
	case LoadOK:
		return "ok"
	case LoadMissing:
		return "missing"
	case LoadCorrupt:
		return "corrupt"
	case LoadVersionMismatch:
		return "version mismatch"
	default:
		return fmt.Sprintf("LoadStatus(%d)", int(s))
	}
}

// Store persists an Index as a JSON file.
type Store struct {
	path string
}

// NewStore returns a store backed by the file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the index file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the persisted index. It never fails: anything other than a
// readable index at the current version yields an empty index, and the
// status says why.
func (s *Store) Load() (*Index, LoadStatus) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return New(), LoadMissing
		}
		return New(), LoadCorrupt
	}

	var ix Index
	if err := json.Unmarshal(data, &ix); err != nil {
		return New(), LoadCorrupt
	}
	if ix.Version != FormatVersion {
		return New(), LoadVersionMismatch
	}
	if ix.Entries == nil {
		ix.Entries = make(map[string]Entry)
	}
	for p, e := range ix.Entries {
		if e.Fingerprint.Validate() != nil {
			return New(), LoadCorrupt
		}
		if e.Path != p {
			e.Path = p
			ix.Entries[p] = e
		}
	}
	return &ix, LoadOK
}

// Encode serializes ix. Map keys are emitted sorted, so an unchanged index
// encodes to identical bytes.
func Encode(ix *Index) ([]byte, error) {
	if ix == nil {
		ix = New()
	}
	data, err := json.MarshalIndent(ix, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding index: %w", err)
	}
	return append(data, '\n'), nil
}

// Save atomically replaces the persisted index with ix.
func (s *Store) Save(ix *Index) error {
	data, err := Encode(ix)
	if err != nil {
		return err
	}
	if err := atomicfile.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("saving index: %w", err)
	}
	return nil
}
