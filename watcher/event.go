package watcher

import "time"

// Kind classifies a filesystem notification.
type Kind int

const (
	Created Kind = iota
	Modified
	Deleted
	// Resync is injected by the loop itself on the resync interval.
	Resync
)

func (k Kind) String() string {
	switch k {
	case Created:
		return "created"
	case Modified:
		return "modified"
	case Deleted:
		return "deleted"
	case Resync:
		return "resync"
	default:
		return "unknown"
	}
}

// Event is one notification for an absolute path.
type Event struct {
	Path string
	Kind Kind
	Time time.Time
}
