package pane

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/justyntemme/twinpane/internal/filter"
	"github.com/justyntemme/twinpane/internal/fs"
	"golang.org/x/text/cases"
)

// Column is a sortable file list column.
type Column int

const (
	ColName Column = iota
	ColExt
	ColSize
	ColModified
	ColPerm
)

var columnNames = [...]string{"name", "ext", "size", "modified", "perm"}

func (c Column) String() string {
	if c < 0 || int(c) >= len(columnNames) {
		return "unknown"
	}
	return columnNames[c]
}

// ParseColumn maps a config or flag value to a Column.
func ParseColumn(s string) (Column, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range columnNames {
		if s == name {
			return Column(i), nil
		}
	}
	switch s {
	case "extension":
		return ColExt, nil
	case "date", "mtime":
		return ColModified, nil
	case "permissions":
		return ColPerm, nil
	}
	return ColName, fmt.Errorf("unknown sort column %q", s)
}

// SetSort changes the sort column and direction.
func (p *Pane) SetSort(col Column, ascending bool) {
	p.sortCol, p.sortAsc = col, ascending
}

// Sort returns the current sort column and direction.
func (p *Pane) Sort() (Column, bool) {
	return p.sortCol, p.sortAsc
}

// sortedView caches the sorted, filtered rows of one snapshot.
type sortedView struct {
	snap   *fs.Snapshot
	col    Column
	asc    bool
	filter *filter.Query
	rows   []fs.Row
}

// Rows returns the current snapshot's rows in display order, narrowed by
// the filter. The slice is shared until the snapshot, sort order or filter
// changes and must not be modified.
func (p *Pane) Rows() []fs.Row {
	snap := p.Snapshot()
	v := &p.view
	if v.snap == snap && v.col == p.sortCol && v.asc == p.sortAsc && v.filter == p.filter && v.rows != nil {
		return v.rows
	}
	rows := filter.NewMatcher(p.filter).Apply(snap.Rows())
	SortRows(rows, p.sortCol, p.sortAsc)
	*v = sortedView{snap: snap, col: p.sortCol, asc: p.sortAsc, filter: p.filter, rows: rows}
	return rows
}

// SetFilter narrows Rows to the entries matching query; an empty query
// shows everything. Relative dates in the query are fixed when it is set.
// The filter is dropped when the pane navigates.
func (p *Pane) SetFilter(query string) {
	if strings.TrimSpace(query) == "" {
		p.filter = nil
		return
	}
	p.filter = filter.Parse(query, time.Now())
}

// Filter returns the active filter text.
func (p *Pane) Filter() string {
	if p.filter == nil {
		return ""
	}
	return p.filter.Raw
}

type sortKey struct {
	row  fs.Row
	name string
	ext  string
	full string
}

// SortRows orders rows by col in the given direction, with two fixed
// rules on top: the parent row comes first, then directories before
// everything else. Text columns compare case-folded; equal keys fall back
// to ascending file name.
func SortRows(rows []fs.Row, col Column, ascending bool) {
	fold := cases.Fold()
	keys := make([]sortKey, len(rows))
	for i, r := range rows {
		keys[i] = sortKey{
			row:  r,
			name: fold.String(r.Name),
			ext:  fold.String(r.Ext),
			full: fold.String(r.FileName()),
		}
	}

	slices.SortStableFunc(keys, func(a, b sortKey) int {
		return compareKeys(&a, &b, col, ascending)
	})

	for i := range keys {
		rows[i] = keys[i].row
	}
}

func compareKeys(a, b *sortKey, col Column, ascending bool) int {
	if a.row.Imaginary != b.row.Imaginary {
		if a.row.Imaginary {
			return -1
		}
		return 1
	}
	if ad, bd := a.row.IsDir(), b.row.IsDir(); ad != bd {
		if ad {
			return -1
		}
		return 1
	}

	var c int
	switch col {
	case ColName:
		c = strings.Compare(a.name, b.name)
	case ColExt:
		c = strings.Compare(a.ext, b.ext)
	case ColSize:
		c = cmp.Compare(a.row.Size, b.row.Size)
	case ColModified:
		c = cmp.Compare(a.row.ModTime.Sub(b.row.ModTime), 0)
	case ColPerm:
		c = strings.Compare(strings.ToLower(a.row.PermDisplay), strings.ToLower(b.row.PermDisplay))
	}

	if c == 0 {
		if c = strings.Compare(a.full, b.full); c == 0 {
			c = strings.Compare(a.row.FileName(), b.row.FileName())
		}
		return c
	}
	if !ascending {
		c = -c
	}
	return c
}
