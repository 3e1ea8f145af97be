package pane

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/justyntemme/twinpane/internal/debug"
	"github.com/justyntemme/twinpane/internal/fs"
	"github.com/justyntemme/twinpane/internal/ops"
)

var (
	// ErrNoSelection is returned by single-target actions with nothing
	// usable selected.
	ErrNoSelection = errors.New("nothing selected")

	// ErrInvalidName is returned for names that are empty or contain a
	// path separator.
	ErrInvalidName = errors.New("invalid file name")
)

// Select updates the selection from a click on row id. A plain click
// selects that row alone; a toggle click adds or removes it. Rows are
// looked up in the current snapshot and their data is kept, so a selection
// survives later snapshots even when its rows disappear from them.
//
// Clicks are ignored while a navigation is pending. Select reports whether
// the selection changed.
func (p *Pane) Select(id uint64, toggle bool) bool {
	if p.hasPending {
		return false
	}
	row, ok := p.Snapshot().Lookup(id)
	if !ok {
		return false
	}

	if !toggle {
		clear(p.selected)
		p.selected[id] = row
		return true
	}
	if _, ok := p.selected[id]; ok {
		delete(p.selected, id)
	} else {
		p.selected[id] = row
	}
	return true
}

// ClearSelection deselects everything.
func (p *Pane) ClearSelection() {
	clear(p.selected)
}

// IsSelected reports whether id is selected.
func (p *Pane) IsSelected(id uint64) bool {
	_, ok := p.selected[id]
	return ok
}

// SelectedIDs returns the selected ids in ascending order.
func (p *Pane) SelectedIDs() []uint64 {
	ids := make([]uint64, 0, len(p.selected))
	for id := range p.selected {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// SelectedRows returns the cached rows of the selection in id order,
// leaving out the parent row.
func (p *Pane) SelectedRows() []fs.Row {
	rows := make([]fs.Row, 0, len(p.selected))
	for _, id := range p.SelectedIDs() {
		if row := p.selected[id]; !row.Imaginary {
			rows = append(rows, row)
		}
	}
	return rows
}

// Current resolves the selection to one row for single-target actions such
// as rename or view: the only selected row, or with several selected the
// one with the largest id. Ids are hashes, so this is an arbitrary but
// stable choice, not the most recent click. The parent row is never
// chosen; when it is selected along with other rows the largest id among
// those wins.
func (p *Pane) Current() (fs.Row, bool) {
	var (
		best  fs.Row
		found bool
	)
	for id, row := range p.selected {
		if row.Imaginary {
			continue
		}
		if !found || id > best.ID {
			best, found = row, true
		}
	}
	return best, found
}

// Activate handles a double click: directories and the parent row navigate,
// anything else is handed to the opener. Open failures are only logged.
func (p *Pane) Activate(row fs.Row) {
	switch {
	case row.Imaginary:
		p.GoUp()
	case row.IsDir():
		p.RequestNavigate(row.Path)
	case p.opts.Opener != nil:
		if err := p.opts.Opener.Open(row.Path); err != nil {
			debug.Log(debug.PANE, "pane %s: open %q: %v", p.id, row.Path, err)
		}
	}
}

// Rename renames the current row within its directory. The cached row is
// updated at once so dialogs show the new name before the next snapshot,
// and the pane is marked dirty.
func (p *Pane) Rename(newName string) error {
	row, ok := p.Current()
	if !ok {
		return ErrNoSelection
	}
	if newName == "" || newName == "." || newName == ".." || strings.ContainsAny(newName, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, newName)
	}

	newPath := filepath.Join(filepath.Dir(row.Path), newName)
	if err := ops.Rename(row.Path, newPath); err != nil {
		return err
	}

	updated := row
	updated.Path = newPath
	if row.IsDir() {
		updated.Name, updated.Ext = newName, ""
	} else {
		updated.Name, updated.Ext = fs.SplitName(newName)
	}
	p.selected[row.ID] = updated
	p.MarkDirty()
	return nil
}
