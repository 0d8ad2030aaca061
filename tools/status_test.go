package tools

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lexandro/codesnap/index"
)

// --- formatDuration ---

func Test_FormatDuration(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		expected string
	}{
		{"Seconds_zero", 0, "0s"},
		{"Seconds_30", 30 * time.Second, "30s"},
		{"Seconds_59", 59 * time.Second, "59s"},
		{"Minutes_1m0s", 60 * time.Second, "1m0s"},
		{"Minutes_5m30s", 5*time.Minute + 30*time.Second, "5m30s"},
		{"Hours_1h30m", 90 * time.Minute, "1h30m"},
		{"Hours_2h0m", 2 * time.Hour, "2h0m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatDuration(tt.duration)
			if got != tt.expected {
				t.Errorf("formatDuration(%v) = %q, want %q", tt.duration, got, tt.expected)
			}
		})
	}
}

// --- StatusHandler ---

func Test_StatusHandler_Handle(t *testing.T) {
	ix := index.New().Apply(index.Changes{}, []index.Entry{
		newTestEntry("main.go", 1024),
		newTestEntry("util.go", 512),
		newTestEntry("README.md", 100),
	})
	h := &StatusHandler{
		Index: func() *index.Index { return ix },
		Info: func() SnapshotInfo {
			return SnapshotInfo{
				Roots:       []string{"/test/project"},
				Output:      "/test/project/full_code_snapshot.txt",
				IndexPath:   "/test/project/.codesnap-index.json",
				Runs:        3,
				LastRun:     time.Now(),
				LastChanges: index.Changes{Modified: []string{"main.go"}},
				LastError:   errors.New("disk full"),
				WatchState:  "idle",
			}
		},
		Search:    newTestSearch(t, map[string]string{"main.go": "package main\n"}),
		StartTime: time.Now(),
		Logger:    testLogger(),
	}

	result, _, err := h.Handle(context.Background(), nil, StatusArgs{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatal("expected success, got error result")
	}

	text := resultText(t, result)
	checks := []string{
		"codesnap Status",
		"/test/project",
		"full_code_snapshot.txt",
		"Watch: idle",
		"Included files: 3",
		"Searchable documents: 1",
		"Snapshot runs: 3",
		"Last changes: +0 ~1 -0",
		"Last error: disk full",
		"Go",
		"Markdown",
	}
	for _, check := range checks {
		if !strings.Contains(text, check) {
			t.Errorf("expected output to contain %q, got:\n%s", check, text)
		}
	}
}
