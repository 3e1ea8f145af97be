package watch

import (
	"sync/atomic"

	"github.com/justyntemme/twinpane/internal/fs"
)

// Publisher holds the current snapshot of one pane. A single writer swaps in
// new snapshots; any number of readers load the current one without
// blocking. Snapshots are immutable, so a loaded pointer is always either
// the complete old or the complete new listing.
type Publisher struct {
	cur atomic.Pointer[fs.Snapshot]
	seq atomic.Uint64
}

// Load returns the current snapshot, or nil before the first publish.
func (p *Publisher) Load() *fs.Snapshot {
	return p.cur.Load()
}

// Publish replaces the current snapshot.
func (p *Publisher) Publish(s *fs.Snapshot) {
	p.cur.Store(s)
	p.seq.Add(1)
}

// Seq counts publishes. Readers compare it to notice a new snapshot.
func (p *Publisher) Seq() uint64 {
	return p.seq.Load()
}
