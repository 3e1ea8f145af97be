// Package pane implements one independently navigable file list: its
// current directory, the watcher keeping that directory's snapshot fresh,
// multi-selection, sorting and the transient error line.
//
// A Pane is owned by a single consumer goroutine. The only state shared with
// its watcher is the published snapshot, which is immutable, and two
// hand-off points: error messages arrive on a one-slot channel drained by
// Sync, and forced refreshes leave through Watcher.Invalidate.
package pane

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/justyntemme/twinpane/internal/debug"
	"github.com/justyntemme/twinpane/internal/filter"
	"github.com/justyntemme/twinpane/internal/fs"
	"github.com/justyntemme/twinpane/internal/opener"
	"github.com/justyntemme/twinpane/internal/watch"
)

// ErrNotDirectory is returned when a navigation target is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// Message is a pane-scoped error line that expires.
type Message = watch.Message

// Options configures a Pane.
type Options struct {
	// ID disambiguates rows of the same path shown in different panes.
	// A random one is generated when empty.
	ID string

	// Path is the initial directory. Empty means the working directory.
	Path string

	PollInterval  time.Duration
	CheckInterval time.Duration
	ErrorTTL      time.Duration

	SortColumn    Column
	SortAscending bool

	// Opener launches non-directory rows. Nil disables opening.
	Opener opener.Opener
}

// Pane is one file list. All methods must be called from the goroutine that
// owns the pane.
type Pane struct {
	id   string
	opts Options
	ctx  context.Context

	path      string
	pathField string

	pub     watch.Publisher
	watcher *watch.Watcher
	errc    chan Message
	msg     Message

	pending    string
	hasPending bool
	dirty      bool

	selected map[uint64]fs.Row

	sortCol Column
	sortAsc bool
	filter  *filter.Query
	view    sortedView

	closed bool
}

// New creates a pane showing opts.Path. The directory is read once
// synchronously so the pane never starts empty; if that fails the pane is
// not created.
func New(ctx context.Context, opts Options) (*Pane, error) {
	if opts.ID == "" {
		opts.ID = uuid.NewString()
	}
	if opts.ErrorTTL <= 0 {
		opts.ErrorTTL = watch.DefaultErrorTTL
	}
	if opts.Path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		opts.Path = wd
	}

	p := &Pane{
		id:       opts.ID,
		opts:     opts,
		ctx:      ctx,
		selected: make(map[uint64]fs.Row),
		sortCol:  opts.SortColumn,
		sortAsc:  opts.SortAscending,
	}

	if err := p.Navigate(opts.Path); err != nil {
		return nil, err
	}
	debug.Log(debug.PANE, "pane %s created at %q", p.id, p.path)
	return p, nil
}

// ID returns the pane identity used in row ids.
func (p *Pane) ID() string { return p.id }

// Path returns the directory the pane currently shows.
func (p *Pane) Path() string { return p.path }

// PathField returns the editable path text.
func (p *Pane) PathField() string { return p.pathField }

// SetPathField updates the editable path text without navigating.
func (p *Pane) SetPathField(text string) { p.pathField = text }

// CommitPathField requests navigation to the path typed into the path field.
func (p *Pane) CommitPathField() {
	p.RequestNavigate(p.expandPath(p.pathField))
}

// Snapshot returns the latest published listing.
func (p *Pane) Snapshot() *fs.Snapshot { return p.pub.Load() }

// Seq counts snapshots published to this pane.
func (p *Pane) Seq() uint64 { return p.pub.Seq() }

// Watcher exposes the pane's current watcher, mainly for its statistics.
func (p *Pane) Watcher() *watch.Watcher { return p.watcher }

// MarkDirty forces the next watcher tick to rebuild regardless of the
// fingerprint. The request is handed to the watcher on the next Sync.
func (p *Pane) MarkDirty() { p.dirty = true }

// Dirty reports whether a forced refresh is waiting for Sync.
func (p *Pane) Dirty() bool { return p.dirty }

// Pending returns the navigation target waiting for Sync, if any.
func (p *Pane) Pending() (string, bool) { return p.pending, p.hasPending }

// ErrorMessage returns the error line while it is still active.
func (p *Pane) ErrorMessage(now time.Time) (string, bool) {
	if !p.msg.Active(now) {
		return "", false
	}
	return p.msg.Text, true
}

func (p *Pane) setError(err error) {
	p.msg = watch.NewMessage(err.Error(), p.opts.ErrorTTL)
}

// Sync applies everything that arrived since the last call: watcher errors,
// a pending navigation and a pending forced refresh. The consumer calls it
// once per frame or event-loop turn.
func (p *Pane) Sync() {
	if p.closed {
		return
	}

	select {
	case m := <-p.errc:
		p.msg = m
	default:
	}

	if p.hasPending {
		target := p.pending
		p.pending, p.hasPending = "", false
		p.Navigate(target)
	}

	if p.dirty {
		p.dirty = false
		p.watcher.Invalidate()
	}
}

// Close stops the watcher and waits for it to exit.
func (p *Pane) Close() {
	if p.closed {
		return
	}
	p.closed = true
	p.watcher.Stop()
	p.watcher = nil
	debug.Log(debug.PANE, "pane %s closed", p.id)
}

// spawn starts a watcher for dir seeded with fp. Errors reach the pane
// through a fresh channel so a previous watcher can never deliver into it.
func (p *Pane) spawn(dir string, fp fs.Fingerprint) {
	errc := make(chan Message, 1)
	p.errc = errc
	p.watcher = watch.Start(p.ctx, watch.Options{
		Path:          dir,
		PaneID:        p.id,
		Fingerprint:   fp,
		PollInterval:  p.opts.PollInterval,
		CheckInterval: p.opts.CheckInterval,
		ErrorTTL:      p.opts.ErrorTTL,
		Publish:       p.pub.Publish,
		OnError: func(m Message) {
			// Keep the newest message if the consumer has not drained
			// the previous one yet.
			select {
			case errc <- m:
			default:
				select {
				case <-errc:
				default:
				}
				select {
				case errc <- m:
				default:
				}
			}
		},
	})
}

// parentOf returns the directory above dir.
func parentOf(dir string) string {
	return filepath.Dir(filepath.Clean(dir))
}
