// Package watcher turns filesystem notifications into debounced rebuilds.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// PathFilter decides which directories are watched and which events are
// dropped. Paths are slash-separated and relative to the given root.
type PathFilter interface {
	SkipDir(root string, relativeDir string) bool
	Pruned(root string, relativePath string) bool
}

// Watcher registers every non-pruned directory under its roots with
// fsnotify and publishes events for the paths it cares about.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	roots     []string
	filter    PathFilter
	logger    *slog.Logger
}

// New creates a recursive watcher over roots.
func New(roots []string, filter PathFilter, logger *slog.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	w := &Watcher{
		fsWatcher: fsWatcher,
		roots:     roots,
		filter:    filter,
		logger:    logger,
	}
	for _, root := range roots {
		if err := w.addTree(root, root); err != nil {
			fsWatcher.Close()
			return nil, err
		}
	}
	return w, nil
}

// WatchList returns the directories currently registered.
func (w *Watcher) WatchList() []string {
	return w.fsWatcher.WatchList()
}

// addTree registers dir and every non-pruned directory below it.
func (w *Watcher) addTree(root string, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn("skipping inaccessible directory", "path", path, "error", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.filter.SkipDir(root, w.relative(root, path)) {
			return filepath.SkipDir
		}
		if err := w.fsWatcher.Add(path); err != nil {
			if isFatalError(err) {
				return fmt.Errorf("watching %s: %w", path, err)
			}
			w.logger.Warn("failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}

// Run forwards events to out until ctx is cancelled. It closes the
// underlying watcher on return. A nil return means ctx was cancelled.
func (w *Watcher) Run(ctx context.Context, out chan<- Event) error {
	defer w.fsWatcher.Close()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return errors.New("fsnotify event channel closed")
			}
			ev, keep := w.translate(event)
			if !keep {
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return nil
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return errors.New("fsnotify error channel closed")
			}
			if isFatalError(err) {
				return fmt.Errorf("fatal watcher error: %w", err)
			}
			w.logger.Warn("watcher error", "error", err)
			// Dropped notifications can only be recovered by a full rescan.
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				select {
				case out <- Event{Kind: Resync, Time: time.Now()}:
				case <-ctx.Done():
					return nil
				}
			}
		}
	}
}

// Close releases the fsnotify watcher without running.
func (w *Watcher) Close() error {
	return w.fsWatcher.Close()
}

// translate maps an fsnotify event to an Event, registering newly created
// directories on the way.
func (w *Watcher) translate(event fsnotify.Event) (Event, bool) {
	root, ok := w.rootOf(event.Name)
	if !ok {
		return Event{}, false
	}
	rel := w.relative(root, event.Name)
	if w.filter.Pruned(root, rel) {
		return Event{}, false
	}

	var kind Kind
	switch {
	case event.Has(fsnotify.Create):
		kind = Created
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if w.filter.SkipDir(root, rel) {
				return Event{}, false
			}
			if err := w.addTree(root, event.Name); err != nil {
				w.logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
			}
		}
	case event.Has(fsnotify.Write):
		kind = Modified
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		kind = Deleted
	default:
		return Event{}, false
	}

	w.logger.Debug("filesystem event", "path", event.Name, "kind", kind)
	return Event{Path: event.Name, Kind: kind, Time: time.Now()}, true
}

// rootOf returns the deepest root containing path.
func (w *Watcher) rootOf(path string) (string, bool) {
	best := ""
	for _, root := range w.roots {
		if path == root || strings.HasPrefix(path, root+string(filepath.Separator)) {
			if len(root) > len(best) {
				best = root
			}
		}
	}
	return best, best != ""
}

func (w *Watcher) relative(root string, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
