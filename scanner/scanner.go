// Package scanner walks the configured roots, fingerprints every eligible
// file and classifies it against the previous index.
package scanner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/lexandro/codesnap/filter"
	"github.com/lexandro/codesnap/hasher"
	"github.com/lexandro/codesnap/index"
	"github.com/lexandro/codesnap/language"
)

const (
	defaultWorkers = 8
	jobBuffer      = 100
	readRetryDelay = 50 * time.Millisecond
)

var errBinary = errors.New("binary content")

// Options configures a Scanner.
type Options struct {
	Roots      []string // absolute, de-duplicated
	BaseDir    string   // index keys are relative to it
	Workers    int
	SkipBinary bool

	// Files, when set, replaces the walk: only these absolute paths are
	// considered, subject to Filter.EligibleFile.
	Files []string

	// Open replaces os.Open for reading file contents.
	Open func(name string) (io.ReadCloser, error)
}

// Result is the outcome of one scan.
type Result struct {
	Included []string // every added, modified and unchanged path, sorted
	index.Changes
	Unchanged int
	Skipped   []string // eligible but unreadable this pass; previous entries kept
}

// HasChanges reports whether anything was added, modified or removed.
func (r Result) HasChanges() bool {
	return !r.Changes.Empty()
}

// Scanner is safe to reuse across scans but not for concurrent scans
// against the same index.
type Scanner struct {
	opts       Options
	filter     *filter.Filter
	logger     *slog.Logger
	retryDelay time.Duration
	open       func(name string) (io.ReadCloser, error)
}

// New creates a Scanner.
func New(opts Options, f *filter.Filter, logger *slog.Logger) *Scanner {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	open := opts.Open
	if open == nil {
		open = func(name string) (io.ReadCloser, error) {
			return os.Open(name)
		}
	}
	return &Scanner{
		opts:       opts,
		filter:     f,
		logger:     logger,
		retryDelay: readRetryDelay,
		open:       open,
	}
}

// Key maps an absolute path to its index key: relative to the base dir
// with forward slashes, or the absolute slash path when outside it.
func (s *Scanner) Key(absolutePath string) string {
	rel, err := filepath.Rel(s.opts.BaseDir, absolutePath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(absolutePath)
	}
	return filepath.ToSlash(rel)
}

// AbsPath maps an index key back to a filesystem path.
func (s *Scanner) AbsPath(key string) string {
	p := filepath.FromSlash(key)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.opts.BaseDir, p)
}

// ReadFile reads the file behind an index key.
func (s *Scanner) ReadFile(key string) ([]byte, error) {
	return os.ReadFile(s.AbsPath(key))
}

type candidate struct {
	absPath string
	key     string
	modTime time.Time
}

type outcome struct {
	key   string
	entry index.Entry
	err   error
}

// Scan classifies the current tree against prev and returns the result
// together with the index to persist. prev is not modified. A cancelled
// scan returns ctx.Err() and no index.
func (s *Scanner) Scan(ctx context.Context, prev *index.Index) (Result, *index.Index, error) {
	jobs := make(chan candidate, jobBuffer)

	var mu sync.Mutex
	var outcomes []outcome

	var wg sync.WaitGroup
	for i := 0; i < s.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				if ctx.Err() != nil {
					continue
				}
				entry, err := s.fingerprint(ctx, job)
				mu.Lock()
				outcomes = append(outcomes, outcome{key: job.key, entry: entry, err: err})
				mu.Unlock()
			}
		}()
	}

	queued := make(map[string]bool)
	enqueue := func(c candidate) {
		if queued[c.key] {
			return
		}
		queued[c.key] = true
		jobs <- c
	}

	var walkErr error
	if len(s.opts.Files) > 0 {
		walkErr = s.visitFiles(ctx, enqueue)
	} else {
		for _, root := range s.opts.Roots {
			if walkErr = s.walk(ctx, root, enqueue); walkErr != nil {
				break
			}
		}
	}
	close(jobs)
	wg.Wait()

	if walkErr != nil {
		return Result{}, nil, walkErr
	}
	if err := ctx.Err(); err != nil {
		return Result{}, nil, err
	}

	result, updated := classify(prev, outcomes)
	for _, p := range result.Skipped {
		s.logger.Warn("skipped unreadable file", "path", p)
	}
	return result, prev.Apply(result.Changes, updated), nil
}

func classify(prev *index.Index, outcomes []outcome) (Result, []index.Entry) {
	var result Result
	var updated []index.Entry
	present := make(map[string]bool, len(outcomes))

	for _, o := range outcomes {
		if errors.Is(o.err, errBinary) {
			continue
		}
		present[o.key] = true
		if o.err != nil {
			result.Skipped = append(result.Skipped, o.key)
			continue
		}

		result.Included = append(result.Included, o.key)
		old, ok := prev.Get(o.key)
		switch {
		case !ok:
			result.Added = append(result.Added, o.key)
			updated = append(updated, o.entry)
		case old.Fingerprint != o.entry.Fingerprint:
			result.Modified = append(result.Modified, o.key)
			updated = append(updated, o.entry)
		default:
			result.Unchanged++
		}
	}

	for _, p := range prev.Paths() {
		if !present[p] {
			result.Removed = append(result.Removed, p)
		}
	}

	slices.Sort(result.Included)
	slices.Sort(result.Added)
	slices.Sort(result.Modified)
	slices.Sort(result.Skipped)
	return result, updated
}

// walk visits every eligible file under root using an explicit stack of
// root-relative directories. Unreadable directories are logged and skipped.
func (s *Scanner) walk(ctx context.Context, root string, visit func(candidate)) error {
	stack := []string{""}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		relDir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		dir := filepath.Join(root, filepath.FromSlash(relDir))
		entries, err := os.ReadDir(dir)
		if err != nil {
			s.logger.Warn("skipping unreadable directory", "path", dir, "error", err)
			continue
		}

		for _, entry := range entries {
			relPath := path.Join(relDir, entry.Name())
			absPath := filepath.Join(dir, entry.Name())

			if entry.IsDir() {
				if !s.filter.SkipDir(root, relPath) {
					stack = append(stack, relPath)
				}
				continue
			}

			info, ok := s.fileInfo(entry, absPath)
			if !ok {
				continue
			}
			if !s.filter.Eligible(root, relPath, filter.EntryInfo{Size: info.Size()}) {
				continue
			}
			visit(candidate{absPath: absPath, key: s.Key(absPath), modTime: info.ModTime()})
		}
	}
	return nil
}

// visitFiles queues the explicitly listed files that exist and pass the
// file-level rules.
func (s *Scanner) visitFiles(ctx context.Context, visit func(candidate)) error {
	for _, absPath := range s.opts.Files {
		if err := ctx.Err(); err != nil {
			return err
		}
		info, err := os.Stat(absPath)
		if err != nil {
			s.logger.Warn("skipping listed file", "path", absPath, "error", err)
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}
		if !s.filter.EligibleFile(absPath, filter.EntryInfo{Size: info.Size()}) {
			continue
		}
		visit(candidate{absPath: absPath, key: s.Key(absPath), modTime: info.ModTime()})
	}
	return nil
}

// fileInfo resolves an entry to a regular file. Symlinks to files are
// followed; symlinks to directories are not descended.
func (s *Scanner) fileInfo(entry fs.DirEntry, absPath string) (fs.FileInfo, bool) {
	var info fs.FileInfo
	var err error
	if entry.Type()&fs.ModeSymlink != 0 {
		info, err = os.Stat(absPath)
	} else {
		info, err = entry.Info()
	}
	if err != nil {
		s.logger.Debug("skipping vanished entry", "path", absPath, "error", err)
		return nil, false
	}
	return info, info.Mode().IsRegular()
}

// fingerprint hashes one file, retrying once after a short delay when the
// file cannot be read (e.g. an editor holds it mid-save).
func (s *Scanner) fingerprint(ctx context.Context, c candidate) (index.Entry, error) {
	entry, err := s.hashFile(ctx, c)
	if err == nil || errors.Is(err, errBinary) || ctx.Err() != nil {
		return entry, err
	}

	retry := time.NewTimer(s.retryDelay)
	defer retry.Stop()
	select {
	case <-retry.C:
	case <-ctx.Done():
		return index.Entry{}, ctx.Err()
	}
	return s.hashFile(ctx, c)
}

func (s *Scanner) hashFile(ctx context.Context, c candidate) (index.Entry, error) {
	f, err := s.open(c.absPath)
	if err != nil {
		return index.Entry{}, fmt.Errorf("opening %s: %w", c.absPath, err)
	}
	defer f.Close()

	r := bufio.NewReader(contextReader{ctx: ctx, r: f})
	if s.opts.SkipBinary {
		head, err := r.Peek(language.SniffLen)
		if err != nil && !errors.Is(err, io.EOF) {
			return index.Entry{}, fmt.Errorf("reading %s: %w", c.absPath, err)
		}
		if language.IsBinary(head) {
			return index.Entry{}, errBinary
		}
	}

	digest, size, err := hasher.FingerprintReader(r)
	if err != nil {
		return index.Entry{}, fmt.Errorf("reading %s: %w", c.absPath, err)
	}
	return index.Entry{
		Path:        c.key,
		Fingerprint: digest,
		Size:        size,
		ModTime:     c.modTime.UTC(),
	}, nil
}

// contextReader stops a long read once ctx is cancelled.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
