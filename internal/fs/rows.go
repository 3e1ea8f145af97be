package fs

import (
	"fmt"
	iofs "io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/mattn/go-runewidth"
)

const (
	// ParentName is the name and path of the synthetic "up" row.
	ParentName = ".."

	// SizeColumnWidth is the display width size strings are aligned to.
	SizeColumnWidth = 10

	// TimeLayout formats the modification column.
	TimeLayout = "01-02-06 03:04 PM"

	dirSizeLabel = "<DIR>"
)

// RowID derives a stable row identity from the owning pane and the entry's
// absolute path. The same entry always maps to the same id within a pane
// until it is renamed or moved.
func RowID(paneID, path string) uint64 {
	d := xxhash.New()
	d.WriteString(paneID)
	d.WriteString("\x00")
	d.WriteString(path)
	return d.Sum64()
}

// HasParent reports whether dir has a parent directory to navigate up to.
func HasParent(dir string) bool {
	dir = filepath.Clean(dir)
	return filepath.Dir(dir) != dir
}

// BuildRows turns raw entries into display rows, prepending the synthetic
// parent row when withParent is set. It touches no shared state.
func BuildRows(paneID string, entries []RawEntry, withParent bool) []Row {
	n := len(entries)
	if withParent {
		n++
	}
	rows := make([]Row, 0, n)
	if withParent {
		rows = append(rows, parentRow(paneID))
	}
	for _, e := range entries {
		rows = append(rows, entryRow(paneID, e))
	}
	return rows
}

func parentRow(paneID string) Row {
	return Row{
		ID:          RowID(paneID, ParentName),
		Name:        ParentName,
		Path:        ParentName,
		Kind:        KindDir,
		SizeDisplay: runewidth.FillLeft(dirSizeLabel, SizeColumnWidth),
		Imaginary:   true,
	}
}

func entryRow(paneID string, e RawEntry) Row {
	own := e.ownMode()
	r := Row{
		ID:   RowID(paneID, e.Path),
		Path: e.Path,
		Kind: kindOf(own, e.Target),
	}

	if r.IsDir() {
		r.Name = e.Name
		r.SizeDisplay = runewidth.FillLeft(dirSizeLabel, SizeColumnWidth)
	} else {
		r.Name, r.Ext = SplitName(e.Name)
		if e.Target != nil {
			r.Size = e.Target.Size()
		}
		r.SizeDisplay = SizeDisplay(r.Size)
	}

	// Modification time follows links, falling back to the link itself.
	switch {
	case e.Target != nil:
		r.ModTime = e.Target.ModTime()
	case e.Info != nil:
		r.ModTime = e.Info.ModTime()
	}
	r.ModTimeDisplay = FormatTime(r.ModTime)

	// Permissions come from the link itself for symlinks.
	if own&iofs.ModeSymlink != 0 {
		if e.Info != nil {
			r.Perm = e.Info.Mode().Perm()
		}
	} else if e.Target != nil {
		r.Perm = e.Target.Mode().Perm()
	}
	r.PermDisplay = PermString(r.Perm)

	return r
}

// SplitName splits a file name into stem and extension. A leading dot does
// not start an extension, so ".bashrc" has none.
func SplitName(name string) (stem, ext string) {
	ext = filepath.Ext(name)
	if ext == name {
		return name, ""
	}
	return strings.TrimSuffix(name, ext), ext
}

// HumanSize formats a byte count with binary prefixes: plain bytes below
// 2 KiB, otherwise one decimal place.
func HumanSize(sz int64) string {
	if sz < 0 {
		sz = 0
	}
	switch {
	case sz < 2<<10:
		return fmt.Sprintf("%d B", sz)
	case sz < 1<<20:
		return fmt.Sprintf("%.1f KiB", float64(sz)/float64(1<<10))
	case sz < 1<<30:
		return fmt.Sprintf("%.1f MiB", float64(sz)/float64(1<<20))
	case sz < 1<<40:
		return fmt.Sprintf("%.1f GiB", float64(sz)/float64(1<<30))
	default:
		return fmt.Sprintf("%.1f TiB", float64(sz)/float64(1<<40))
	}
}

// SizeDisplay is HumanSize right-aligned to SizeColumnWidth cells.
func SizeDisplay(sz int64) string {
	return runewidth.FillLeft(HumanSize(sz), SizeColumnWidth)
}

// PermString renders permission bits as rwxrwxrwx.
func PermString(p iofs.FileMode) string {
	const chars = "rwxrwxrwx"
	var b [9]byte
	for i := 0; i < 9; i++ {
		if p&(1<<uint(8-i)) != 0 {
			b[i] = chars[i]
		} else {
			b[i] = '-'
		}
	}
	return string(b[:])
}

// FormatTime renders t in the modification column layout, local zone.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(TimeLayout)
}
