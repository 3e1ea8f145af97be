package watch

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/justyntemme/twinpane/internal/debug"
	"github.com/justyntemme/twinpane/internal/fs"
	"github.com/justyntemme/twinpane/internal/metrics"
)

// Default timings.
const (
	DefaultPollInterval  = 50 * time.Millisecond
	DefaultCheckInterval = time.Second
)

// State is the lifecycle position of a Watcher.
type State int32

const (
	Running State = iota
	Cancelled
	Joined
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Cancelled:
		return "cancelled"
	case Joined:
		return "joined"
	}
	return "unknown"
}

// Options configures a Watcher. Everything is copied at Start; the watcher
// keeps no reference to the pane that spawned it.
type Options struct {
	Path   string
	PaneID string

	// Fingerprint seeds change detection, normally from the synchronous
	// scan done right before Start.
	Fingerprint fs.Fingerprint

	PollInterval  time.Duration
	CheckInterval time.Duration
	ErrorTTL      time.Duration

	// Publish receives every rebuilt snapshot. OnError receives directory
	// open failures. Both run on the watcher goroutine.
	Publish func(*fs.Snapshot)
	OnError func(Message)
}

func (o *Options) setDefaults() {
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.CheckInterval <= 0 {
		o.CheckInterval = DefaultCheckInterval
	}
	if o.ErrorTTL <= 0 {
		o.ErrorTTL = DefaultErrorTTL
	}
	if o.Publish == nil {
		o.Publish = func(*fs.Snapshot) {}
	}
	if o.OnError == nil {
		o.OnError = func(Message) {}
	}
	o.Path = filepath.Clean(o.Path)
}

// Stats counts what a watcher has done. All fields only grow.
type Stats struct {
	Ticks     uint64
	Scans     uint64
	Builds    uint64
	Unchanged uint64
	Errors    uint64
}

// Watcher is the background poller for one pane directory.
type Watcher struct {
	opts   Options
	cancel context.CancelFunc
	done   chan struct{}

	state atomic.Int32
	force atomic.Bool
	fp    atomic.Uint64

	ticks     atomic.Uint64
	scans     atomic.Uint64
	builds    atomic.Uint64
	unchanged atomic.Uint64
	errors    atomic.Uint64
}

// Start spawns a watcher goroutine for opts.Path. It runs until Stop is
// called or ctx is cancelled.
func Start(ctx context.Context, opts Options) *Watcher {
	opts.setDefaults()

	ctx, cancel := context.WithCancel(ctx)
	w := &Watcher{
		opts:   opts,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	w.fp.Store(uint64(opts.Fingerprint))

	metrics.WatcherStarted()
	debug.Log(debug.WATCH, "watcher start: pane=%s path=%q fingerprint=%016x", opts.PaneID, opts.Path, uint64(opts.Fingerprint))

	go w.run(ctx)
	return w
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)
	defer metrics.WatcherStopped()

	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			debug.Log(debug.WATCH, "watcher exit: pane=%s path=%q", w.opts.PaneID, w.opts.Path)
			return

		case now := <-ticker.C:
			w.ticks.Add(1)
			force := w.force.Swap(false)
			if !force && now.Sub(last) < w.opts.CheckInterval {
				continue
			}
			last = now
			w.poll(force)
		}
	}
}

// poll runs one fingerprint pass and publishes a rebuilt snapshot when the
// directory changed or a refresh was forced.
func (w *Watcher) poll(force bool) {
	w.scans.Add(1)
	old := fs.Fingerprint(w.fp.Load())

	snap, err := Scan(w.opts.PaneID, w.opts.Path, old, force)
	if err != nil {
		w.errors.Add(1)
		metrics.RecordOpenError()
		w.opts.OnError(NewMessage(err.Error(), w.opts.ErrorTTL))
		return
	}
	if snap == nil {
		w.unchanged.Add(1)
		return
	}

	w.opts.Publish(snap)
	w.fp.Store(uint64(snap.Fingerprint))
	w.builds.Add(1)
	metrics.RecordPublish()
	debug.Log(debug.WATCH, "published: pane=%s path=%q rows=%d forced=%v", w.opts.PaneID, w.opts.Path, snap.Len(), force)
}

// Invalidate makes the next tick rebuild regardless of the fingerprint.
func (w *Watcher) Invalidate() {
	if w == nil {
		return
	}
	w.force.Store(true)
}

// Stop cancels the watcher and blocks until its goroutine has returned,
// which takes at most one poll interval. Stop is safe to call more than
// once and on a nil Watcher.
func (w *Watcher) Stop() {
	if w == nil {
		return
	}
	w.state.CompareAndSwap(int32(Running), int32(Cancelled))
	w.cancel()
	<-w.done
	w.state.Store(int32(Joined))
}

// Done is closed once the watcher goroutine has returned.
func (w *Watcher) Done() <-chan struct{} { return w.done }

// State returns the lifecycle state.
func (w *Watcher) State() State { return State(w.state.Load()) }

// Path returns the watched directory.
func (w *Watcher) Path() string { return w.opts.Path }

// Fingerprint returns the last accepted fingerprint.
func (w *Watcher) Fingerprint() fs.Fingerprint { return fs.Fingerprint(w.fp.Load()) }

// Stats returns a copy of the watcher counters.
func (w *Watcher) Stats() Stats {
	return Stats{
		Ticks:     w.ticks.Load(),
		Scans:     w.scans.Load(),
		Builds:    w.builds.Load(),
		Unchanged: w.unchanged.Load(),
		Errors:    w.errors.Load(),
	}
}

// Scan fingerprints dir and, when it differs from old or force is set,
// builds a new snapshot. A nil snapshot with a nil error means nothing
// changed. Open failures are returned and no snapshot is built.
func Scan(paneID, dir string, old fs.Fingerprint, force bool) (*fs.Snapshot, error) {
	start := time.Now()
	fp, entries, err := fs.HashDir(dir)
	if err != nil {
		return nil, err
	}

	change := Detect(old, fp)
	metrics.RecordScan(time.Since(start), change == Changed)
	if change == Unchanged && !force {
		return nil, nil
	}

	rows := fs.BuildRows(paneID, entries, fs.HasParent(dir))
	return fs.NewSnapshot(filepath.Clean(dir), fp, rows), nil
}
