// Package app ties the panes together: it owns N panes and the index of the
// focused one, runs file operations between them and marks every pane that
// shows an affected directory for refresh.
package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/justyntemme/twinpane/internal/config"
	"github.com/justyntemme/twinpane/internal/debug"
	"github.com/justyntemme/twinpane/internal/opener"
	"github.com/justyntemme/twinpane/internal/pane"
	"github.com/justyntemme/twinpane/internal/store"
	"github.com/justyntemme/twinpane/internal/trash"
	"golang.org/x/sync/errgroup"
)

// Options configures a Commander.
type Options struct {
	// Paths are the start directories, one per pane. When empty the
	// configured pane paths and count are used.
	Paths []string

	Config config.Config
	Opener opener.Opener

	// Journal, when set, receives every executed operation. The Commander
	// closes it.
	Journal *store.Journal

	// Bin replaces the user's trash when the config enables trashing.
	Bin *trash.Bin

	// Progress, when set, is called on the calling goroutine with the byte
	// count of every write a copy or move makes.
	Progress func(req OpRequest, n int64)
}

// Commander is the coordinator of a set of panes. Like the panes it owns,
// it is driven by a single goroutine.
type Commander struct {
	panes    []*pane.Pane
	focus    int
	cfg      config.Config
	journal  *store.Journal
	bin      *trash.Bin
	progress func(OpRequest, int64)
}

// New creates one pane per start path and focuses the first. If any pane
// cannot be created the ones already started are closed again.
func New(ctx context.Context, opts Options) (*Commander, error) {
	cfg := opts.Config
	paths := opts.Paths
	if len(paths) == 0 {
		n := max(cfg.Panes.Count, 1)
		paths = make([]string, n)
		for i := range paths {
			paths[i] = cfg.PanePath(i)
		}
	}

	col, err := pane.ParseColumn(cfg.FileList.DefaultSort)
	if err != nil {
		debug.Log(debug.APP, "config: %v, sorting by name", err)
	}

	c := &Commander{
		cfg:      cfg,
		journal:  opts.Journal,
		progress: opts.Progress,
	}
	if cfg.Operations.UseTrash {
		c.bin = opts.Bin
		if c.bin == nil {
			c.bin = trash.Default()
		}
	}

	for i, path := range paths {
		p, err := pane.New(ctx, pane.Options{
			Path:          path,
			PollInterval:  cfg.Watch.PollInterval.D(),
			CheckInterval: cfg.Watch.CheckInterval.D(),
			ErrorTTL:      cfg.Watch.ErrorTTL.D(),
			SortColumn:    col,
			SortAscending: cfg.FileList.SortAscending,
			Opener:        opts.Opener,
		})
		if err != nil {
			c.closePanes()
			return nil, fmt.Errorf("pane %d: %w", i, err)
		}
		c.panes = append(c.panes, p)
	}

	debug.Log(debug.APP, "commander started with %d panes", len(c.panes))
	return c, nil
}

// Len returns the number of panes.
func (c *Commander) Len() int { return len(c.panes) }

// Pane returns pane i.
func (c *Commander) Pane(i int) *pane.Pane { return c.panes[i] }

// Panes returns all panes in order.
func (c *Commander) Panes() []*pane.Pane {
	return append([]*pane.Pane(nil), c.panes...)
}

// FocusIndex returns the index of the focused pane.
func (c *Commander) FocusIndex() int { return c.focus }

// Focused returns the focused pane.
func (c *Commander) Focused() *pane.Pane { return c.panes[c.focus] }

// Other returns the pane operations target: the one after the focused pane,
// wrapping around. With a single pane it is the focused pane itself.
func (c *Commander) Other() *pane.Pane {
	return c.panes[(c.focus+1)%len(c.panes)]
}

// Focus moves focus to pane i.
func (c *Commander) Focus(i int) error {
	if i < 0 || i >= len(c.panes) {
		return fmt.Errorf("no pane %d", i)
	}
	c.focus = i
	return nil
}

// FocusNext moves focus to the next pane, wrapping around.
func (c *Commander) FocusNext() {
	c.focus = (c.focus + 1) % len(c.panes)
}

// Sync syncs every pane. Call it once per frame.
func (c *Commander) Sync() {
	for _, p := range c.panes {
		p.Sync()
	}
}

// MarkDirtyAt marks every pane showing dir for refresh and returns how many
// were marked.
func (c *Commander) MarkDirtyAt(dir string) int {
	dir = filepath.Clean(dir)
	n := 0
	for _, p := range c.panes {
		if p.Path() == dir {
			p.MarkDirty()
			n++
		}
	}
	return n
}

// Close stops all pane watchers concurrently, then closes the journal.
func (c *Commander) Close() error {
	c.closePanes()
	return c.journal.Close()
}

func (c *Commander) closePanes() {
	var g errgroup.Group
	for _, p := range c.panes {
		p := p // per-iteration copy; go directive is 1.21 (pre-1.22 loop semantics)
		g.Go(func() error {
			p.Close()
			return nil
		})
	}
	g.Wait()
}

// Bin returns the trash deletes go to, or nil when they are permanent.
func (c *Commander) Bin() *trash.Bin { return c.bin }

// Journal returns the operation journal, or nil.
func (c *Commander) Journal() *store.Journal { return c.journal }
