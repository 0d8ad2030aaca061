//go:build !windows

package watcher

import (
	"errors"
	"syscall"
)

// isFatalError reports inotify and descriptor exhaustion, after which the
// watcher can no longer see every change.
func isFatalError(err error) bool {
	return errors.Is(err, syscall.ENOSPC) ||
		errors.Is(err, syscall.EMFILE) ||
		errors.Is(err, syscall.ENFILE)
}
