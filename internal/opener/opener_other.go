//go:build !darwin && !windows

package opener

import (
	"io/fs"
	"os/exec"
	"path/filepath"
)

// shouldExecute is true for extension-less regular files with any execute
// bit set. Files with an extension always go to the desktop.
func shouldExecute(path string, info fs.FileInfo) bool {
	name := filepath.Base(path)
	if ext := filepath.Ext(name); ext != "" && ext != name {
		return false
	}
	return info.Mode().IsRegular() && info.Mode().Perm()&0o111 != 0
}

// platformOpen opens the file with xdg-open, falling back to kde-open.
func platformOpen(path string) error {
	for _, launcher := range []string{"xdg-open", "kde-open5", "kde-open"} {
		if _, err := exec.LookPath(launcher); err == nil {
			return start(launcher, path)
		}
	}
	return &exec.Error{Name: "xdg-open", Err: exec.ErrNotFound}
}
