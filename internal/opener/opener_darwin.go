//go:build darwin

package opener

import "io/fs"

// Applications are bundles, so nothing is executed directly.
func shouldExecute(string, fs.FileInfo) bool { return false }

// platformOpen opens the file using the macOS 'open' command.
func platformOpen(path string) error {
	return start("open", path)
}
