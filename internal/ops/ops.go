// Package ops implements the file operations a pane can trigger: copy,
// move, delete, mkdir, rename and view. Every failure is returned as an
// *OpError naming the leg that failed; nothing here touches pane state.
package ops

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/justyntemme/twinpane/internal/debug"
	"github.com/justyntemme/twinpane/internal/metrics"
	"github.com/justyntemme/twinpane/internal/trash"
)

// DefaultMaxViewSize is the largest file View will load.
const DefaultMaxViewSize = 10 << 20

// Options tune Copy and Move.
type Options struct {
	// Overwrite replaces an existing destination instead of failing.
	Overwrite bool

	// Progress, when set, is called with the byte count of every write.
	Progress func(n int64)
}

// Result describes a finished operation.
type Result struct {
	Op       string
	Src      string
	Dst      string
	Bytes    int64
	Duration time.Duration
}

func record(op string, err error) {
	metrics.RecordOperation(op, err == nil)
	if err != nil {
		debug.Log(debug.OPS, "%s failed: %v", op, err)
	}
}

// Copy copies src to dst. Directories are copied recursively. When dst
// exists and opts.Overwrite is not set the copy fails with ErrExists.
func Copy(src, dst string, opts Options) (res Result, err error) {
	defer func() { record("copy", err) }()
	return copyEntry("copy", src, dst, opts)
}

func copyEntry(op, src, dst string, opts Options) (Result, error) {
	start := time.Now()
	res := Result{Op: op, Src: src, Dst: dst}
	fail := func(err error) (Result, error) {
		return res, &OpError{Op: op, Kind: KindCopy, Path: src, Err: err}
	}

	src = filepath.Clean(src)
	dst = filepath.Clean(dst)

	info, err := os.Stat(src)
	if err != nil {
		return fail(err)
	}
	if src == dst {
		return fail(ErrExists)
	}
	if pathExists(dst) && !opts.Overwrite {
		return fail(fmt.Errorf("%w: %s", ErrExists, dst))
	}

	if !info.IsDir() && !info.Mode().IsRegular() {
		return fail(fmt.Errorf("%w: %s", ErrNotRegular, src))
	}

	if info.IsDir() {
		if isInside(src, dst) {
			return fail(ErrInsideSource)
		}
		n, err := copyDir(src, dst, opts.Progress)
		if err != nil {
			return fail(err)
		}
		res.Bytes = n
	} else {
		if err := copyFile(src, dst, opts.Progress); err != nil {
			return fail(err)
		}
		res.Bytes = info.Size()
	}

	res.Duration = time.Since(start)
	debug.Log(debug.OPS, "%s: %q -> %q (%s)", op, src, dst, humanize.IBytes(uint64(res.Bytes)))
	return res, nil
}

// Move copies src to dst and then removes src. The copy is first tried
// without overwriting; when that fails only because dst exists and
// opts.Overwrite is set, it is retried with overwriting. A failed copy
// leaves src alone. A failed removal is reported with KindRemove even
// though dst now holds a complete copy.
func Move(src, dst string, opts Options) (res Result, err error) {
	defer func() { record("move", err) }()

	first := opts
	first.Overwrite = false
	res, err = copyEntry("move", src, dst, first)
	if err != nil && opts.Overwrite && errors.Is(err, ErrExists) && filepath.Clean(src) != filepath.Clean(dst) {
		res, err = copyEntry("move", src, dst, opts)
	}
	if err != nil {
		return res, err
	}

	if err := trash.PermanentDelete(src); err != nil {
		log.Printf("Move: copied %s to %s but could not remove the source: %v", src, dst, err)
		return res, &OpError{Op: "move", Kind: KindRemove, Path: src, Err: err}
	}
	return res, nil
}

// Delete removes path, recursively for directories. With a non-nil bin the
// entry is moved to the trash instead; a failed trash move is reported
// rather than falling back to permanent deletion.
func Delete(path string, bin *trash.Bin) (err error) {
	defer func() { record("delete", err) }()

	if bin != nil {
		if !bin.Available() {
			return &OpError{Op: "delete", Kind: KindRemove, Path: path, Err: trash.ErrUnavailable}
		}
		if _, err := bin.MoveToTrash(path); err != nil {
			return &OpError{Op: "delete", Kind: KindRemove, Path: path, Err: err}
		}
		return nil
	}

	if err := trash.PermanentDelete(path); err != nil {
		return &OpError{Op: "delete", Kind: KindRemove, Path: path, Err: err}
	}
	debug.Log(debug.OPS, "delete: %q", path)
	return nil
}

// Mkdir creates a single directory. The parent must exist.
func Mkdir(path string) (err error) {
	defer func() { record("mkdir", err) }()

	if pathExists(path) {
		return &OpError{Op: "mkdir", Kind: KindMkdir, Path: path, Err: ErrExists}
	}
	if err := os.Mkdir(path, DirPermission); err != nil {
		return &OpError{Op: "mkdir", Kind: KindMkdir, Path: path, Err: err}
	}
	return nil
}

// Rename renames oldPath to newPath, refusing to replace an existing entry.
func Rename(oldPath, newPath string) (err error) {
	defer func() { record("rename", err) }()

	if oldPath == "" || newPath == "" {
		return &OpError{Op: "rename", Kind: KindRename, Path: oldPath, Err: os.ErrInvalid}
	}
	if filepath.Clean(oldPath) == filepath.Clean(newPath) {
		return nil
	}
	if pathExists(newPath) {
		return &OpError{Op: "rename", Kind: KindRename, Path: oldPath, Err: fmt.Errorf("%w: %s", ErrExists, newPath)}
	}
	if err := os.Rename(oldPath, newPath); err != nil {
		return &OpError{Op: "rename", Kind: KindRename, Path: oldPath, Err: err}
	}
	log.Printf("Renamed %s to %s", oldPath, newPath)
	return nil
}

// View loads a file's text for the viewer. Files larger than maxSize are
// not read; their text is a one-line notice and the error wraps
// ErrTooLarge. A maxSize of zero or less means DefaultMaxViewSize.
func View(path string, maxSize int64) (string, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxViewSize
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", &OpError{Op: "view", Kind: KindOpen, Path: path, Err: err}
	}
	if info.IsDir() {
		return "", &OpError{Op: "view", Kind: KindOpen, Path: path, Err: errors.New("is a directory")}
	}
	if info.Size() > maxSize {
		text := fmt.Sprintf("File '%s' is too large (%s)\n", path, humanize.IBytes(uint64(info.Size())))
		return text, &OpError{Op: "view", Kind: KindOpen, Path: path, Err: ErrTooLarge}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", &OpError{Op: "view", Kind: KindOpen, Path: path, Err: err}
	}
	return string(data), nil
}
