package main

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/lexandro/codesnap/artifact"
	"github.com/lexandro/codesnap/config"
	"github.com/lexandro/codesnap/filter"
	"github.com/lexandro/codesnap/ignore"
	"github.com/lexandro/codesnap/index"
	"github.com/lexandro/codesnap/scanner"
	"github.com/lexandro/codesnap/search"
	"github.com/lexandro/codesnap/tools"
)

// snapshotBuilder renders the artifact and reports whether the artifact on
// disk already holds every included path.
type snapshotBuilder interface {
	artifact.Builder
	Covers(included []string) bool
}

// changeObserver is told about the changes of every successful run.
type changeObserver interface {
	Apply(changes index.Changes, read search.ReadFunc) error
}

// snapshotter owns the in-memory index. Runs are serialized, so a watch
// rebuild and an MCP rebuild never scan at the same time.
type snapshotter struct {
	cfg      config.Config
	filter   *filter.Filter
	store    *index.Store
	scanner  *scanner.Scanner
	builder  snapshotBuilder
	matchers []*ignore.Matcher
	logger   *slog.Logger

	runMu     sync.Mutex
	observers []changeObserver
	primed    bool

	mu      sync.RWMutex
	current *index.Index
	info    tools.SnapshotInfo
}

func newSnapshotter(cfg config.Config, logger *slog.Logger) (*snapshotter, error) {
	f, err := filter.New(cfg.FilterRules())
	if err != nil {
		return nil, fmt.Errorf("building filter: %w", err)
	}

	var matchers []*ignore.Matcher
	if cfg.RespectIgnoreFiles {
		for _, root := range cfg.Roots {
			m := ignore.NewMatcher(root)
			f.SetIgnorer(root, m)
			matchers = append(matchers, m)
		}
	}

	store := index.NewStore(cfg.IndexPath)
	current, status := store.Load()
	switch status {
	case index.LoadOK:
		logger.Debug("index loaded", "path", store.Path(), "entries", current.Len())
	case index.LoadMissing:
		logger.Info("no index found, starting full scan", "path", store.Path())
	default:
		logger.Warn("index unusable, starting full scan", "path", store.Path(), "status", status)
	}

	sc := scanner.New(scanner.Options{
		Roots:      cfg.Roots,
		BaseDir:    cfg.BaseDir,
		Workers:    cfg.Workers,
		SkipBinary: cfg.SkipBinary,
		Files:      cfg.Files,
	}, f, logger)

	return &snapshotter{
		cfg:      cfg,
		filter:   f,
		store:    store,
		scanner:  sc,
		builder:  artifact.NewFileBuilder(cfg.Output, logger),
		matchers: matchers,
		logger:   logger,
		current:  current,
		info: tools.SnapshotInfo{
			Roots:     cfg.Roots,
			Output:    cfg.Output,
			IndexPath: cfg.IndexPath,
		},
	}, nil
}

// Observe registers o. Must be called before the first Run.
func (s *snapshotter) Observe(o changeObserver) {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	s.observers = append(s.observers, o)
}

// Index returns the index of the last successful run.
func (s *snapshotter) Index() *index.Index {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Info returns the run statistics.
func (s *snapshotter) Info() tools.SnapshotInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info
}

// ReadFile reads the file behind an index key.
func (s *snapshotter) ReadFile(key string) ([]byte, error) {
	return s.scanner.ReadFile(key)
}

// Run reloads every ignore file and performs one pass.
func (s *snapshotter) Run(ctx context.Context) (tools.RebuildSummary, error) {
	return s.run(ctx, func(*ignore.Matcher) bool { return true })
}

// Rebuild is the watch loop's rebuild callback. Only ignore files named in
// changed are reloaded; an empty list is a resync and reloads them all.
func (s *snapshotter) Rebuild(ctx context.Context, changed []string) error {
	_, err := s.run(ctx, func(m *ignore.Matcher) bool {
		return len(changed) == 0 || slices.ContainsFunc(changed, m.IsIgnoreFile)
	})
	return err
}

func (s *snapshotter) run(ctx context.Context, reload func(*ignore.Matcher) bool) (tools.RebuildSummary, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	start := time.Now()
	for _, m := range s.matchers {
		if reload(m) {
			m.Reload()
		}
	}

	summary, err := s.pass(ctx)
	summary.Elapsed = time.Since(start)

	s.mu.Lock()
	s.info.Runs++
	s.info.LastRun = start
	s.info.LastElapsed = summary.Elapsed
	s.info.LastError = err
	if err == nil {
		s.info.LastChanges = summary.Changes
	}
	s.mu.Unlock()

	if err != nil {
		return summary, err
	}

	if summary.Rendered {
		s.logger.Info("snapshot updated",
			"output", s.cfg.Output,
			"files", summary.Included,
			"added", len(summary.Changes.Added),
			"modified", len(summary.Changes.Modified),
			"removed", len(summary.Changes.Removed),
			"elapsed", summary.Elapsed,
		)
	} else {
		s.logger.Debug("snapshot up to date", "files", summary.Included, "elapsed", summary.Elapsed)
	}
	return summary, nil
}

// pass scans, renders when anything changed or the artifact on disk lacks
// an included path, and persists the index only after the artifact is in
// place. The second case catches a file that was unreadable at the last
// render and is unchanged now.
func (s *snapshotter) pass(ctx context.Context) (tools.RebuildSummary, error) {
	result, next, err := s.scanner.Scan(ctx, s.Index())
	if err != nil {
		return tools.RebuildSummary{}, fmt.Errorf("scanning: %w", err)
	}

	summary := tools.RebuildSummary{
		Included: len(result.Included),
		Changes:  result.Changes,
	}

	if result.HasChanges() || !s.builder.Covers(result.Included) {
		if err := s.builder.Build(ctx, result.Included, s.scanner.ReadFile); err != nil {
			return summary, fmt.Errorf("building snapshot: %w", err)
		}
		summary.Rendered = true
	}

	if err := s.store.Save(next); err != nil {
		return summary, fmt.Errorf("saving index: %w", err)
	}

	s.mu.Lock()
	s.current = next
	s.mu.Unlock()

	s.notify(result)
	return summary, nil
}

// notify forwards changes to the observers. The first pass reports every
// included path as added so observers start from the full set.
func (s *snapshotter) notify(result scanner.Result) {
	changes := result.Changes
	if !s.primed {
		changes = index.Changes{Added: result.Included}
		s.primed = true
	}
	if changes.Empty() {
		return
	}
	for _, o := range s.observers {
		if err := o.Apply(changes, s.scanner.ReadFile); err != nil {
			s.logger.Warn("observer update incomplete", "error", err)
		}
	}
}
