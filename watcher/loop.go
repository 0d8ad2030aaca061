package watcher

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"sync/atomic"
	"time"
)

// DefaultDebounce is the quiet period used when none is configured.
const DefaultDebounce = time.Second

// State is the phase of the watch loop.
type State int32

const (
	Idle State = iota
	Pending
	Rebuilding
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Rebuilding:
		return "rebuilding"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// RebuildFunc performs one scan and render. changed lists the absolute
// paths seen since the previous rebuild, sorted; it is empty for a resync.
type RebuildFunc func(ctx context.Context, changed []string) error

// LoopOptions tunes the loop.
type LoopOptions struct {
	Debounce time.Duration
	// Resync, when positive, schedules a rebuild every interval even if no
	// notification arrived.
	Resync time.Duration
}

// Loop is the single consumer of events. It owns all pending state; the
// rebuild runs on its own goroutine so events keep being recorded while it
// is in progress, and at most one rebuild runs at a time.
type Loop struct {
	events   <-chan Event
	rebuild  RebuildFunc
	debounce time.Duration
	resync   time.Duration
	logger   *slog.Logger

	state    atomic.Int32
	rebuilds atomic.Int64
}

// NewLoop creates a loop reading from events.
func NewLoop(events <-chan Event, rebuild RebuildFunc, opts LoopOptions, logger *slog.Logger) *Loop {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	return &Loop{
		events:   events,
		rebuild:  rebuild,
		debounce: opts.Debounce,
		resync:   opts.Resync,
		logger:   logger,
	}
}

// State returns the current phase.
func (l *Loop) State() State {
	return State(l.state.Load())
}

// Rebuilds returns how many rebuilds have been started.
func (l *Loop) Rebuilds() int64 {
	return l.rebuilds.Load()
}

func (l *Loop) setState(s State) {
	l.state.Store(int32(s))
}

// Run consumes events until ctx is cancelled or the event channel is
// closed and all pending work is done. On cancellation it waits for an
// in-flight rebuild, which sees the same ctx, before returning.
func (l *Loop) Run(ctx context.Context) error {
	pending := make(map[string]time.Time)
	resyncDue := false

	timer := time.NewTimer(l.debounce)
	timer.Stop()
	defer timer.Stop()
	var timerC <-chan time.Time

	var resyncC <-chan time.Time
	if l.resync > 0 {
		ticker := time.NewTicker(l.resync)
		defer ticker.Stop()
		resyncC = ticker.C
	}

	var done chan error
	events := l.events

	record := func(ev Event) {
		if ev.Kind == Resync {
			resyncDue = true
		} else if last, ok := pending[ev.Path]; !ok || ev.Time.After(last) {
			pending[ev.Path] = ev.Time
		}
		if done != nil {
			// Captured; handled when the rebuild finishes.
			return
		}
		l.setState(Pending)
		timer.Reset(l.debounce)
		timerC = timer.C
	}

	l.setState(Idle)
	defer l.setState(Stopped)

	for {
		if events == nil && done == nil && timerC == nil {
			return nil
		}

		select {
		case <-ctx.Done():
			if done != nil {
				<-done
			}
			return nil

		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			record(ev)

		case now := <-resyncC:
			l.logger.Debug("resync due")
			record(Event{Kind: Resync, Time: now})

		case <-timerC:
			timerC = nil
			changed := slices.Sorted(maps.Keys(pending))
			clear(pending)
			resyncDue = false

			l.setState(Rebuilding)
			l.rebuilds.Add(1)
			done = make(chan error, 1)
			go func(ch chan<- error) {
				ch <- l.rebuild(ctx, changed)
			}(done)

		case err := <-done:
			done = nil
			if err != nil && ctx.Err() == nil {
				l.logger.Error("rebuild failed", "error", err)
			}
			if len(pending) > 0 || resyncDue {
				l.setState(Pending)
				timer.Reset(l.debounce)
				timerC = timer.C
			} else {
				l.setState(Idle)
			}
		}
	}
}
