package tools

import (
	"context"
	"time"

	"github.com/lexandro/codesnap/index"
)

// IndexFunc returns the index of the latest successful snapshot.
type IndexFunc func() *index.Index

// SnapshotInfo describes the snapshotter for the status tool.
type SnapshotInfo struct {
	Roots       []string
	Output      string
	IndexPath   string
	Runs        int
	LastRun     time.Time
	LastElapsed time.Duration
	LastChanges index.Changes
	LastError   error
	WatchState  string
}

// InfoFunc returns the current SnapshotInfo.
type InfoFunc func() SnapshotInfo

// RebuildSummary is the outcome of one snapshot run.
type RebuildSummary struct {
	Included int
	Changes  index.Changes
	Rendered bool
	Elapsed  time.Duration
}

// RebuildFunc runs one snapshot pass. Provided by main to avoid a
// dependency on the wiring package.
type RebuildFunc func(ctx context.Context) (RebuildSummary, error)
