package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lexandro/codesnap/config"
	"github.com/lexandro/codesnap/watcher"
)

// eventBuffer bounds the queue between the fsnotify reader and the loop.
const eventBuffer = 256

// watchRoots runs the watcher and the debounce loop until ctx is cancelled
// or the watcher fails. started, if set, receives the loop before it runs.
func watchRoots(ctx context.Context, cfg config.Config, snap *snapshotter, logger *slog.Logger, started func(*watcher.Loop)) error {
	w, err := watcher.New(cfg.Roots, snap.filter, logger)
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan watcher.Event, eventBuffer)
	loop := watcher.NewLoop(events, snap.Rebuild, watcher.LoopOptions{
		Debounce: cfg.Debounce,
		Resync:   cfg.ResyncInterval,
	}, logger)
	if started != nil {
		started(loop)
	}

	logger.Info("watching for changes",
		"roots", cfg.Roots,
		"directories", len(w.WatchList()),
		"debounce", cfg.Debounce,
		"resync", cfg.ResyncInterval,
	)

	watchErr := make(chan error, 1)
	go func() {
		err := w.Run(ctx, events)
		// A failed watcher stops the loop too.
		cancel()
		watchErr <- err
	}()

	if err := loop.Run(ctx); err != nil {
		cancel()
		<-watchErr
		return err
	}
	cancel()
	if err := <-watchErr; err != nil {
		return err
	}
	logger.Info("watch stopped")
	return nil
}
