package pane

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/justyntemme/twinpane/internal/debug"
	"github.com/justyntemme/twinpane/internal/fs"
	"github.com/justyntemme/twinpane/internal/metrics"
	"github.com/justyntemme/twinpane/internal/watch"
)

// ErrClosed is returned when navigating a closed pane.
var ErrClosed = errors.New("pane is closed")

// RequestNavigate queues a move to path. It takes effect on the next Sync;
// until then selection changes are ignored.
func (p *Pane) RequestNavigate(path string) {
	p.pending, p.hasPending = path, true
	debug.Log(debug.PANE, "pane %s: navigate requested to %q", p.id, path)
}

// Navigate moves the pane to target right away. The target is read once
// synchronously; only when that succeeds is the old watcher stopped, the
// new listing published and a new watcher started from its fingerprint.
// Selection and the error line are cleared.
//
// On failure nothing but the path field and the error line changes: the
// path field is reset to the current path and the error is shown for the
// error TTL. The previous snapshot and watcher keep running.
func (p *Pane) Navigate(target string) error {
	if p.closed {
		return ErrClosed
	}
	target = p.expandPath(target)

	snap, err := p.load(target)
	if err != nil {
		p.pathField = p.path
		p.setError(err)
		metrics.RecordNavigation(false)
		debug.Log(debug.PANE, "pane %s: navigate to %q rejected: %v", p.id, target, err)
		return err
	}

	p.watcher.Stop()
	p.pub.Publish(snap)
	p.spawn(target, snap.Fingerprint)

	p.path = target
	p.pathField = target
	clear(p.selected)
	p.filter = nil
	p.msg = Message{}
	p.dirty = false

	metrics.RecordNavigation(true)
	debug.Log(debug.PANE, "pane %s: now at %q (%d rows)", p.id, target, snap.Len())
	return nil
}

// load validates target and builds its first snapshot.
func (p *Pane) load(target string) (*fs.Snapshot, error) {
	info, err := os.Stat(target)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", target, ErrNotDirectory)
	}
	return watch.Scan(p.id, target, 0, true)
}

// GoUp requests navigation to the parent directory. It does nothing at the
// filesystem root.
func (p *Pane) GoUp() {
	if fs.HasParent(p.path) {
		p.RequestNavigate(parentOf(p.path))
	}
}

// Refresh forces a rebuild of the current directory on the next Sync.
// Selection and filter are kept.
func (p *Pane) Refresh() {
	p.MarkDirty()
}

// expandPath expands and normalizes a typed path:
// - ~ for the home directory
// - relative paths against the current directory
// - absolute paths, including Windows drive letters and UNC paths
func (p *Pane) expandPath(input string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return p.path
	}

	if strings.HasPrefix(input, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			if input == "~" {
				return home
			}
			if strings.HasPrefix(input, "~/") || strings.HasPrefix(input, "~\\") {
				return filepath.Clean(filepath.Join(home, input[2:]))
			}
		}
	}

	if isAbsolutePath(input) {
		return filepath.Clean(input)
	}

	if p.path == "" {
		if abs, err := filepath.Abs(input); err == nil {
			return abs
		}
	}
	return filepath.Clean(filepath.Join(p.path, input))
}

// isAbsolutePath checks if a path is absolute, handling both Unix and Windows paths.
func isAbsolutePath(path string) bool {
	if len(path) == 0 {
		return false
	}

	if path[0] == '/' {
		return true
	}

	if runtime.GOOS == "windows" {
		// Drive letter paths: C:\, D:\, C:/, etc.
		if len(path) >= 2 && isLetter(path[0]) && path[1] == ':' {
			return true
		}
		// UNC paths: \\server\share
		if len(path) >= 2 && path[0] == '\\' && path[1] == '\\' {
			return true
		}
	}

	return false
}

func isLetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}
