// Package watch polls a directory for changes and publishes immutable
// snapshots of it to a single consumer.
package watch

import "github.com/justyntemme/twinpane/internal/fs"

// Change is the outcome of comparing two fingerprints.
type Change int

const (
	Unchanged Change = iota
	Changed
)

func (c Change) String() string {
	if c == Changed {
		return "changed"
	}
	return "unchanged"
}

// Detect compares a freshly computed fingerprint with the last accepted one.
func Detect(old, current fs.Fingerprint) Change {
	if old == current {
		return Unchanged
	}
	return Changed
}
