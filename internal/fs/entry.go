package fs

import (
	"io/fs"
	"time"
)

// Kind is a set of filesystem type flags for a row. A symlink to a directory
// carries both KindSymlink and KindDir.
type Kind uint16

const (
	KindDir Kind = 1 << iota
	KindRegular
	KindSymlink
	KindFifo
	KindSocket
	KindBlock
	KindChar
	KindOther
)

// Has reports whether all flags in f are set.
func (k Kind) Has(f Kind) bool { return k&f == f }

// kindOf derives type flags from the entry's own mode and its followed stat.
// target is nil when a link target cannot be read.
func kindOf(own fs.FileMode, target fs.FileInfo) Kind {
	var k Kind
	if own&fs.ModeSymlink != 0 {
		k |= KindSymlink
		if target == nil {
			return k
		}
	}
	mode := own
	if target != nil {
		mode = target.Mode()
	}
	switch {
	case mode.IsDir():
		k |= KindDir
	case mode.IsRegular():
		k |= KindRegular
	case mode&fs.ModeNamedPipe != 0:
		k |= KindFifo
	case mode&fs.ModeSocket != 0:
		k |= KindSocket
	case mode&fs.ModeDevice != 0 && mode&fs.ModeCharDevice != 0:
		k |= KindChar
	case mode&fs.ModeDevice != 0:
		k |= KindBlock
	case mode&fs.ModeSymlink == 0:
		k |= KindOther
	}
	return k
}

// RawEntry is one directory entry as seen by the fingerprint pass. Info is the
// entry's own lstat result and Target the followed stat (the same value for
// anything that is not a symlink). Either is nil when it could not be read.
type RawEntry struct {
	Name   string
	Path   string
	Mode   fs.FileMode // type bits from the directory read
	Info   fs.FileInfo
	Target fs.FileInfo
}

func (e RawEntry) ownMode() fs.FileMode {
	if e.Info != nil {
		return e.Info.Mode()
	}
	return e.Mode
}

// Row is one display-ready filesystem entry.
type Row struct {
	ID             uint64
	Name           string
	Ext            string
	Size           int64
	SizeDisplay    string
	Kind           Kind
	ModTime        time.Time
	ModTimeDisplay string
	Perm           fs.FileMode
	PermDisplay    string
	Path           string
	Imaginary      bool
}

func (r Row) IsDir() bool     { return r.Kind.Has(KindDir) }
func (r Row) IsRegular() bool { return r.Kind.Has(KindRegular) }
func (r Row) IsSymlink() bool { return r.Kind.Has(KindSymlink) }

// FileName returns the entry's base name with its extension re-attached.
func (r Row) FileName() string { return r.Name + r.Ext }

// Fingerprint is an order-independent digest of a directory's entries.
type Fingerprint uint64

// Snapshot is an immutable listing of a directory. Once published it is
// never modified; a new directory state yields a new Snapshot.
type Snapshot struct {
	Path        string
	Fingerprint Fingerprint
	BuiltAt     time.Time
	rows        []Row
}

// NewSnapshot takes ownership of rows.
func NewSnapshot(path string, fp Fingerprint, rows []Row) *Snapshot {
	return &Snapshot{
		Path:        path,
		Fingerprint: fp,
		BuiltAt:     time.Now(),
		rows:        rows,
	}
}

// Len returns the number of rows, including the synthetic parent row.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.rows)
}

// At returns row i by value.
func (s *Snapshot) At(i int) Row { return s.rows[i] }

// Rows returns a copy of the rows so callers can sort or filter freely.
func (s *Snapshot) Rows() []Row {
	if s == nil {
		return nil
	}
	out := make([]Row, len(s.rows))
	copy(out, s.rows)
	return out
}

// Lookup finds a row by id.
func (s *Snapshot) Lookup(id uint64) (Row, bool) {
	if s == nil {
		return Row{}, false
	}
	for _, r := range s.rows {
		if r.ID == id {
			return r, true
		}
	}
	return Row{}, false
}
