package watcher

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/lexandro/codesnap/filter"
)

func newTestWatcher(t *testing.T, root string, rules filter.Rules) (chan Event, *Watcher) {
	t.Helper()
	f, err := filter.New(rules)
	if err != nil {
		t.Fatal(err)
	}
	w, err := New([]string{root}, f, testLogger())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	events := make(chan Event, 64)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		w.Run(ctx, events)
	}()
	t.Cleanup(func() {
		cancel()
		<-stopped
	})
	return events, w
}

func expectEvent(t *testing.T, events <-chan Event, path string) Event {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Path == path {
				return ev
			}
		case <-timeout:
			t.Fatalf("no event for %s", path)
			return Event{}
		}
	}
}

func expectNoEvent(t *testing.T, events <-chan Event, path string, wait time.Duration) {
	t.Helper()
	timeout := time.After(wait)
	for {
		select {
		case ev := <-events:
			if ev.Path == path {
				t.Fatalf("unexpected event for %s: %v", path, ev.Kind)
			}
		case <-timeout:
			return
		}
	}
}

func Test_Watcher_SkipsExcludedDirectories(t *testing.T) {
	root := t.TempDir()
	for _, dir := range []string{"src", "node_modules/pkg"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0755); err != nil {
			t.Fatal(err)
		}
	}

	_, w := newTestWatcher(t, root, filter.Rules{ExcludeDirs: []string{"node_modules"}})
	watched := w.WatchList()

	if !slices.Contains(watched, filepath.Join(root, "src")) {
		t.Errorf("src not watched: %v", watched)
	}
	if slices.Contains(watched, filepath.Join(root, "node_modules")) {
		t.Errorf("excluded dir is watched: %v", watched)
	}
}

func Test_Watcher_PublishesFileEvents(t *testing.T) {
	root := t.TempDir()
	events, _ := newTestWatcher(t, root, filter.Rules{})

	path := filepath.Join(root, "main.go")
	if err := os.WriteFile(path, []byte("package main"), 0644); err != nil {
		t.Fatal(err)
	}
	ev := expectEvent(t, events, path)
	if ev.Kind != Created && ev.Kind != Modified {
		t.Errorf("expected created or modified, got %v", ev.Kind)
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	for {
		ev = expectEvent(t, events, path)
		if ev.Kind == Deleted {
			break
		}
	}
}

func Test_Watcher_WatchesNewDirectories(t *testing.T) {
	root := t.TempDir()
	events, _ := newTestWatcher(t, root, filter.Rules{})

	dir := filepath.Join(root, "pkg")
	if err := os.Mkdir(dir, 0755); err != nil {
		t.Fatal(err)
	}
	expectEvent(t, events, dir)

	path := filepath.Join(dir, "util.go")
	if err := os.WriteFile(path, []byte("package pkg"), 0644); err != nil {
		t.Fatal(err)
	}
	expectEvent(t, events, path)
}

func Test_Watcher_DropsOwnOutputs(t *testing.T) {
	root := t.TempDir()
	output := filepath.Join(root, "snapshot.txt")
	events, _ := newTestWatcher(t, root, filter.Rules{ExcludePaths: []string{output}})

	if err := os.WriteFile(output, []byte("snapshot"), 0644); err != nil {
		t.Fatal(err)
	}
	marker := filepath.Join(root, "marker.go")
	if err := os.WriteFile(marker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	expectNoEvent(t, events, output, 300*time.Millisecond)
}

func Test_Kind_String(t *testing.T) {
	for kind, want := range map[Kind]string{Created: "created", Modified: "modified", Deleted: "deleted", Resync: "resync"} {
		if kind.String() != want {
			t.Errorf("expected %s, got %s", want, kind.String())
		}
	}
}
