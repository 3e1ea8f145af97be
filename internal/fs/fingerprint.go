package fs

import (
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/charlievieth/fastwalk"
	"github.com/justyntemme/twinpane/internal/debug"
)

// ErrOpenDir is wrapped by every error HashDir returns. Such a directory
// must not be turned into a snapshot.
var ErrOpenDir = errors.New("cannot open directory")

// HashDir lists the direct children of dir and folds each one into an
// order-independent fingerprint: the path hash, and when they can be read
// the size and modification time, each shifted left by one and XORed in.
// Entries whose metadata cannot be read still contribute their path hash.
//
// The returned entries are sorted by name.
func HashDir(dir string) (Fingerprint, []RawEntry, error) {
	dir = filepath.Clean(dir)

	f, err := os.Open(dir)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %w", ErrOpenDir, err)
	}
	f.Close()

	var (
		mu      sync.Mutex
		sum     Fingerprint
		entries = make([]RawEntry, 0, 64)
	)

	conf := &fastwalk.Config{
		Follow:   false,
		MaxDepth: 1,
	}

	err = fastwalk.Walk(conf, dir, func(fullPath string, d iofs.DirEntry, err error) error {
		if fullPath == dir {
			// Second root callback carries the ReadDir error.
			return err
		}
		if err != nil {
			debug.Log(debug.FS_ENTRY, "HashDir: walk error at %q: %v", fullPath, err)
			return nil
		}

		e := RawEntry{Name: d.Name(), Path: fullPath, Mode: d.Type()}
		if info, err := d.Info(); err == nil {
			e.Info = info
		}
		if d.Type()&iofs.ModeSymlink != 0 {
			if target, err := fastwalk.StatDirEntry(fullPath, d); err == nil {
				e.Target = target
			} else {
				debug.Log(debug.FS_ENTRY, "HashDir: %q: link target unreadable: %v", d.Name(), err)
			}
		} else {
			e.Target = e.Info
		}

		h := entryHash(e)

		mu.Lock()
		sum ^= h
		entries = append(entries, e)
		mu.Unlock()

		if d.IsDir() {
			return fastwalk.SkipDir
		}
		return nil
	})
	if err != nil {
		debug.Log(debug.FS, "HashDir: %q: %v", dir, err)
		return 0, nil, fmt.Errorf("%w: %w", ErrOpenDir, err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	debug.Log(debug.FS, "HashDir: %q: %d entries fingerprint=%016x", dir, len(entries), uint64(sum))
	return sum, entries, nil
}

// entryHash is one entry's contribution to the directory fingerprint.
// Size is taken from the followed stat and skipped for directories, which
// have no meaningful file size.
func entryHash(e RawEntry) Fingerprint {
	h := xxhash.Sum64String(e.Path) << 1
	if st := e.Target; st != nil {
		if !st.IsDir() {
			h ^= uint64(st.Size()) << 1
		}
		h ^= uint64(st.ModTime().UnixNano()) << 1
	}
	return Fingerprint(h)
}
