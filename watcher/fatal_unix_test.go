//go:build !windows

package watcher

import (
	"fmt"
	"syscall"
	"testing"
)

func Test_IsFatalError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"ENOSPC", syscall.ENOSPC, true},
		{"EMFILE", syscall.EMFILE, true},
		{"wrapped ENFILE", fmt.Errorf("fsnotify: %w", syscall.ENFILE), true},
		{"EACCES", syscall.EACCES, false},
		{"generic", fmt.Errorf("something went wrong"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isFatalError(tt.err); got != tt.want {
				t.Errorf("isFatalError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
