package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/justyntemme/twinpane/internal/debug"
	"github.com/justyntemme/twinpane/internal/ops"
	"github.com/justyntemme/twinpane/internal/pane"
	"github.com/justyntemme/twinpane/internal/store"
)

// OpKind is a file operation a dialog can confirm.
type OpKind int

const (
	OpCopy OpKind = iota
	OpMove
	OpDelete
	OpMkdir
)

func (k OpKind) String() string {
	switch k {
	case OpCopy:
		return "copy"
	case OpMove:
		return "move"
	case OpDelete:
		return "delete"
	case OpMkdir:
		return "mkdir"
	}
	return "unknown"
}

// OpRequest is one operation as a dialog shows it before confirmation.
// Dialogs may edit Dst and Overwrite before passing it to Execute.
type OpRequest struct {
	Kind      OpKind
	Src       string // unused for mkdir
	Dst       string // unused for delete
	Overwrite bool
	Pane      string // id of the pane the operation was started from
}

func (r OpRequest) String() string {
	switch r.Kind {
	case OpDelete:
		return fmt.Sprintf("%s %s", r.Kind, r.Src)
	case OpMkdir:
		return fmt.Sprintf("%s %s", r.Kind, r.Dst)
	}
	return fmt.Sprintf("%s %s -> %s", r.Kind, r.Src, r.Dst)
}

// prepareTransfer builds one request per selected row of the focused pane,
// targeting the same name in the other pane's directory.
func (c *Commander) prepareTransfer(kind OpKind, overwrite bool) ([]OpRequest, error) {
	src := c.Focused()
	rows := src.SelectedRows()
	if len(rows) == 0 {
		return nil, pane.ErrNoSelection
	}
	dstDir := c.Other().Path()

	reqs := make([]OpRequest, 0, len(rows))
	for _, row := range rows {
		reqs = append(reqs, OpRequest{
			Kind:      kind,
			Src:       row.Path,
			Dst:       filepath.Join(dstDir, row.FileName()),
			Overwrite: overwrite,
			Pane:      src.ID(),
		})
	}
	return reqs, nil
}

// PrepareCopy returns the copy requests for the focused pane's selection.
func (c *Commander) PrepareCopy() ([]OpRequest, error) {
	return c.prepareTransfer(OpCopy, c.cfg.Operations.OverwriteOnCopy)
}

// PrepareMove returns the move requests for the focused pane's selection.
func (c *Commander) PrepareMove() ([]OpRequest, error) {
	return c.prepareTransfer(OpMove, c.cfg.Operations.OverwriteOnMove)
}

// PrepareDelete returns the delete requests for the focused pane's
// selection.
func (c *Commander) PrepareDelete() ([]OpRequest, error) {
	src := c.Focused()
	rows := src.SelectedRows()
	if len(rows) == 0 {
		return nil, pane.ErrNoSelection
	}
	reqs := make([]OpRequest, 0, len(rows))
	for _, row := range rows {
		reqs = append(reqs, OpRequest{Kind: OpDelete, Src: row.Path, Pane: src.ID()})
	}
	return reqs, nil
}

// PrepareMkdir returns the request creating name in the focused pane's
// directory.
func (c *Commander) PrepareMkdir(name string) (OpRequest, error) {
	if name == "" || filepath.Base(name) != name || name == "." || name == ".." {
		return OpRequest{}, fmt.Errorf("%w: %q", pane.ErrInvalidName, name)
	}
	src := c.Focused()
	return OpRequest{Kind: OpMkdir, Dst: filepath.Join(src.Path(), name), Pane: src.ID()}, nil
}

// Execute runs req, records it in the journal and marks every pane showing
// an affected directory dirty: the destination directory for copy and
// mkdir, both directories for move, the source directory for delete.
// Panes are marked even when the operation fails, since a failed move may
// still have created the copy.
func (c *Commander) Execute(ctx context.Context, req OpRequest) error {
	start := time.Now()
	var (
		res ops.Result
		err error
	)

	opts := ops.Options{Overwrite: req.Overwrite}
	if c.progress != nil {
		opts.Progress = func(n int64) { c.progress(req, n) }
	}

	switch req.Kind {
	case OpCopy:
		res, err = ops.Copy(req.Src, req.Dst, opts)
		c.MarkDirtyAt(filepath.Dir(req.Dst))
	case OpMove:
		res, err = ops.Move(req.Src, req.Dst, opts)
		c.MarkDirtyAt(filepath.Dir(req.Dst))
		c.MarkDirtyAt(filepath.Dir(req.Src))
	case OpDelete:
		err = ops.Delete(req.Src, c.bin)
		c.MarkDirtyAt(filepath.Dir(req.Src))
	case OpMkdir:
		err = ops.Mkdir(req.Dst)
		c.MarkDirtyAt(filepath.Dir(req.Dst))
	default:
		return fmt.Errorf("unknown operation %d", req.Kind)
	}

	c.record(ctx, req, res, time.Since(start), err)
	return err
}

// ExecuteAll runs every request and joins their errors. One failed request
// does not stop the rest.
func (c *Commander) ExecuteAll(ctx context.Context, reqs []OpRequest) error {
	var errs []error
	for _, req := range reqs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := c.Execute(ctx, req); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *Commander) record(ctx context.Context, req OpRequest, res ops.Result, took time.Duration, opErr error) {
	if c.journal == nil || !c.cfg.Journal.Enabled {
		return
	}
	e := store.Entry{
		Pane:     req.Pane,
		Op:       req.Kind.String(),
		Src:      req.Src,
		Dst:      req.Dst,
		Bytes:    res.Bytes,
		Duration: took,
	}
	if opErr != nil {
		e.Err = opErr.Error()
		if kind, ok := ops.KindOf(opErr); ok {
			e.Code = kind.Code()
		}
	}
	if _, err := c.journal.Record(ctx, e); err != nil {
		debug.Log(debug.STORE, "journal: %v", err)
	}
}

// Copy copies the focused pane's selection into the other pane.
func (c *Commander) Copy(ctx context.Context) error {
	reqs, err := c.PrepareCopy()
	if err != nil {
		return err
	}
	return c.ExecuteAll(ctx, reqs)
}

// Move moves the focused pane's selection into the other pane.
func (c *Commander) Move(ctx context.Context) error {
	reqs, err := c.PrepareMove()
	if err != nil {
		return err
	}
	return c.ExecuteAll(ctx, reqs)
}

// Delete deletes the focused pane's selection.
func (c *Commander) Delete(ctx context.Context) error {
	reqs, err := c.PrepareDelete()
	if err != nil {
		return err
	}
	if err := c.ExecuteAll(ctx, reqs); err != nil {
		return err
	}
	c.Focused().ClearSelection()
	return nil
}

// Mkdir creates name in the focused pane's directory.
func (c *Commander) Mkdir(ctx context.Context, name string) error {
	req, err := c.PrepareMkdir(name)
	if err != nil {
		return err
	}
	return c.Execute(ctx, req)
}

// Rename renames the focused pane's current row and marks any other pane
// showing the same directory dirty.
func (c *Commander) Rename(newName string) error {
	p := c.Focused()
	if err := p.Rename(newName); err != nil {
		return err
	}
	c.MarkDirtyAt(p.Path())
	return nil
}

// View loads the focused pane's current row for the viewer.
func (c *Commander) View() (string, error) {
	row, ok := c.Focused().Current()
	if !ok {
		return "", pane.ErrNoSelection
	}
	return ops.View(row.Path, c.cfg.Operations.MaxViewSize)
}
