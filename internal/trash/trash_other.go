//go:build !darwin && !windows

package trash

import (
	"os"
	"path/filepath"
)

func defaultBin() *Bin {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return &Bin{Root: filepath.Join(dataHome, "Trash")}
}

// DisplayName returns the platform name for the trash.
func DisplayName() string {
	return "Trash"
}
