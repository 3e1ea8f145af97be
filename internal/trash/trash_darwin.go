//go:build darwin

package trash

import (
	"os"
	"path/filepath"
)

// macOS keeps the user's trash in ~/.Trash with no metadata files.
func defaultBin() *Bin {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	return &Bin{Root: filepath.Join(home, ".Trash"), Flat: true}
}

// DisplayName returns the platform name for the trash.
func DisplayName() string {
	return "Trash"
}
