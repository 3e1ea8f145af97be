//go:build windows

package trash

// The Recycle Bin is only reachable through the shell API, so deletes on
// Windows are permanent.
func defaultBin() *Bin {
	return nil
}

// DisplayName returns the platform name for the trash.
func DisplayName() string {
	return "Recycle Bin"
}
