package ops

import (
	"fmt"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/charlievieth/fastwalk"
	"github.com/justyntemme/twinpane/internal/debug"
)

// Common file permission modes
const (
	DirPermission  = 0o755
	FilePermission = 0o644
)

// pathExists checks if a path exists on the filesystem, without following
// a final symlink.
func pathExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// isInside reports whether path is root or lies below it.
func isInside(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// copyFile copies a single regular file, replacing dst if it exists. A
// symlink at dst is replaced, not written through.
func copyFile(src, dst string, progress func(int64)) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s", ErrNotRegular, src)
	}

	if st, err := os.Lstat(dst); err == nil && st.Mode()&iofs.ModeSymlink != 0 {
		if err := os.Remove(dst); err != nil {
			return err
		}
	}

	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	dstFile, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(newProgressWriter(dstFile, progress), srcFile); err != nil {
		dstFile.Close()
		return err
	}
	if err := dstFile.Close(); err != nil {
		return err
	}

	return os.Chmod(dst, info.Mode().Perm())
}

type copyItem struct {
	srcPath string
	dstPath string
	isDir   bool
	mode    iofs.FileMode
	link    string
}

// copyDir copies a directory tree. The source is listed in one fastwalk
// pass, then directories are created parents first and files copied.
// It returns the total number of bytes the tree holds.
func copyDir(src, dst string, progress func(int64)) (int64, error) {
	var totalSize atomic.Int64
	var items []copyItem
	var itemsMu sync.Mutex

	conf := &fastwalk.Config{Follow: false}
	src = filepath.Clean(src)

	err := fastwalk.Walk(conf, src, func(fullPath string, d iofs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if fullPath == src {
				return walkErr
			}
			debug.Log(debug.OPS, "copyDir: skipping %q: %v", fullPath, walkErr)
			return nil
		}

		relPath, err := filepath.Rel(src, fullPath)
		if err != nil || relPath == "." {
			return nil
		}

		item := copyItem{srcPath: fullPath, dstPath: filepath.Join(dst, relPath)}

		// Links are recreated, not followed.
		if d.Type()&iofs.ModeSymlink != 0 {
			target, err := os.Readlink(fullPath)
			if err != nil {
				debug.Log(debug.OPS, "copyDir: cannot read link %q: %v", fullPath, err)
				return nil
			}
			item.link = target
		} else {
			info, err := d.Info()
			if err != nil {
				debug.Log(debug.OPS, "copyDir: cannot stat %q: %v", fullPath, err)
				return nil
			}
			if !info.IsDir() && !info.Mode().IsRegular() {
				debug.Log(debug.OPS, "copyDir: skipping special file %q (%v)", fullPath, info.Mode().Type())
				return nil
			}
			item.isDir = info.IsDir()
			item.mode = info.Mode()
			if !item.isDir {
				totalSize.Add(info.Size())
			}
		}

		itemsMu.Lock()
		items = append(items, item)
		itemsMu.Unlock()
		return nil
	})
	if err != nil {
		return 0, err
	}

	srcInfo, err := os.Stat(src)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(dst, srcInfo.Mode().Perm()); err != nil {
		return 0, err
	}

	// Directories before files, shorter paths first so parents exist.
	sort.Slice(items, func(i, j int) bool {
		if items[i].isDir != items[j].isDir {
			return items[i].isDir
		}
		return len(items[i].dstPath) < len(items[j].dstPath)
	})

	for _, item := range items {
		if item.isDir {
			if err := os.MkdirAll(item.dstPath, item.mode.Perm()|0o700); err != nil {
				return 0, err
			}
			continue
		}
		if item.link != "" {
			os.Remove(item.dstPath)
			if err := os.Symlink(item.link, item.dstPath); err != nil {
				return 0, err
			}
			continue
		}
		if err := copyFile(item.srcPath, item.dstPath, progress); err != nil {
			return 0, err
		}
	}

	debug.Log(debug.OPS, "copyDir: %q -> %q: %d items, %d bytes", src, dst, len(items), totalSize.Load())
	return totalSize.Load(), nil
}

// progressWriter wraps an io.Writer and calls onWrite after each write
type progressWriter struct {
	w       io.Writer
	onWrite func(int64)
}

func newProgressWriter(w io.Writer, onWrite func(int64)) io.Writer {
	if onWrite == nil {
		return w
	}
	return &progressWriter{w: w, onWrite: onWrite}
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n, err := pw.w.Write(p)
	if n > 0 {
		pw.onWrite(int64(n))
	}
	return n, err
}
