// Package trash moves files to the user's trash instead of deleting them.
//
// The on-disk layout follows the freedesktop.org trash specification:
// trashed entries live under files/ and each has a matching
// info/<name>.trashinfo recording where it came from and when. On macOS the
// system trash is a flat directory with no metadata, so only files are moved.
package trash

import (
	"bufio"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/justyntemme/twinpane/internal/debug"
)

// ErrUnavailable is returned when the platform has no usable trash.
var ErrUnavailable = errors.New("trash is not available")

const infoDateLayout = "2006-01-02T15:04:05"

// Item represents a file or directory in the trash
type Item struct {
	Name         string    // Name inside the trash
	OriginalPath string    // Full path where the file was deleted from
	TrashPath    string    // Current path in trash
	DeletedAt    time.Time // When the file was deleted
	Size         int64     // Size in bytes
	IsDir        bool      // Whether this is a directory
}

// Bin is one trash directory.
type Bin struct {
	Root string

	// Flat bins keep entries directly under Root with no info files.
	Flat bool
}

// Default returns the current user's trash, or nil when the platform has
// none that can be written to.
func Default() *Bin {
	return defaultBin()
}

func (b *Bin) filesPath() string {
	if b.Flat {
		return b.Root
	}
	return filepath.Join(b.Root, "files")
}

func (b *Bin) infoPath() string {
	return filepath.Join(b.Root, "info")
}

// Available reports whether the bin exists or can be created.
func (b *Bin) Available() bool {
	if b == nil || b.Root == "" {
		return false
	}
	if b.Flat {
		info, err := os.Stat(b.Root)
		return err == nil && info.IsDir()
	}
	if err := os.MkdirAll(b.filesPath(), 0700); err != nil {
		return false
	}
	return os.MkdirAll(b.infoPath(), 0700) == nil
}

// MoveToTrash moves path into the bin. Name clashes inside the bin are
// resolved by numbering, so trashing the same name twice keeps both.
func (b *Bin) MoveToTrash(path string) (Item, error) {
	if !b.Available() {
		return Item{}, ErrUnavailable
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return Item{}, err
	}
	info, err := os.Lstat(absPath)
	if err != nil {
		return Item{}, err
	}

	destName := b.freeName(filepath.Base(absPath))
	destPath := filepath.Join(b.filesPath(), destName)
	now := time.Now()

	var infoFile string
	if !b.Flat {
		content := fmt.Sprintf("[Trash Info]\nPath=%s\nDeletionDate=%s\n",
			url.PathEscape(absPath), now.Format(infoDateLayout))
		infoFile = filepath.Join(b.infoPath(), destName+".trashinfo")
		if err := os.WriteFile(infoFile, []byte(content), 0600); err != nil {
			return Item{}, fmt.Errorf("cannot create trashinfo file: %w", err)
		}
	}

	if err := os.Rename(absPath, destPath); err != nil {
		if infoFile != "" {
			os.Remove(infoFile)
		}
		return Item{}, fmt.Errorf("cannot move file to trash: %w", err)
	}

	debug.Log(debug.OPS, "trash: %q -> %q", absPath, destPath)
	return Item{
		Name:         destName,
		OriginalPath: absPath,
		TrashPath:    destPath,
		DeletedAt:    now,
		Size:         info.Size(),
		IsDir:        info.IsDir(),
	}, nil
}

// freeName picks a name not yet used in files/ (or in info/, which may hold
// leftovers from another file manager).
func (b *Bin) freeName(base string) string {
	taken := func(name string) bool {
		if _, err := os.Lstat(filepath.Join(b.filesPath(), name)); err == nil {
			return true
		}
		if b.Flat {
			return false
		}
		_, err := os.Lstat(filepath.Join(b.infoPath(), name+".trashinfo"))
		return err == nil
	}

	if !taken(base) {
		return base
	}
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	for i := 1; ; i++ {
		name := fmt.Sprintf("%s.%d%s", stem, i, ext)
		if !taken(name) {
			return name
		}
	}
}

// List returns all items currently in the bin.
func (b *Bin) List() ([]Item, error) {
	entries, err := os.ReadDir(b.filesPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var items []Item
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		item := Item{
			Name:      entry.Name(),
			TrashPath: filepath.Join(b.filesPath(), entry.Name()),
			DeletedAt: info.ModTime(),
			Size:      info.Size(),
			IsDir:     entry.IsDir(),
		}
		if !b.Flat {
			infoFile := filepath.Join(b.infoPath(), entry.Name()+".trashinfo")
			if orig, deleted, err := parseTrashInfo(infoFile); err == nil {
				item.OriginalPath = orig
				if !deleted.IsZero() {
					item.DeletedAt = deleted
				}
			}
		}
		items = append(items, item)
	}
	return items, nil
}

func parseTrashInfo(path string) (originalPath string, deletionDate time.Time, err error) {
	file, err := os.Open(path)
	if err != nil {
		return "", time.Time{}, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "Path="):
			encoded := strings.TrimPrefix(line, "Path=")
			if decoded, err := url.PathUnescape(encoded); err == nil {
				originalPath = decoded
			} else {
				originalPath = encoded
			}
		case strings.HasPrefix(line, "DeletionDate="):
			if t, err := time.ParseInLocation(infoDateLayout, strings.TrimPrefix(line, "DeletionDate="), time.Local); err == nil {
				deletionDate = t
			}
		}
	}
	return originalPath, deletionDate, scanner.Err()
}

// Empty permanently deletes everything in the bin.
func (b *Bin) Empty() error {
	items, err := b.List()
	if err != nil {
		return err
	}
	var lastErr error
	for _, item := range items {
		if err := b.Delete(item); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// Delete permanently deletes one item from the bin.
func (b *Bin) Delete(item Item) error {
	if err := os.RemoveAll(item.TrashPath); err != nil {
		return err
	}
	if !b.Flat {
		os.Remove(filepath.Join(b.infoPath(), filepath.Base(item.TrashPath)+".trashinfo"))
	}
	return nil
}

// PermanentDelete removes path without using the trash, recursively for
// directories.
func PermanentDelete(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return os.RemoveAll(path)
	}
	return os.Remove(path)
}

// VerbPhrase returns the action phrase for moving to trash.
func VerbPhrase() string {
	return "Move to " + DisplayName()
}
