//go:build windows

package opener

import (
	"io/fs"
	"path/filepath"
	"strings"
)

func shouldExecute(path string, info fs.FileInfo) bool {
	return info.Mode().IsRegular() && strings.EqualFold(filepath.Ext(path), ".exe")
}

// platformOpen hands the file to the shell's default handler.
func platformOpen(path string) error {
	return start("rundll32", "url.dll,FileProtocolHandler", path)
}
