// Package opener hands files to the operating system: executables are run
// and everything else goes to the desktop's default application.
package opener

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/justyntemme/twinpane/internal/debug"
)

// ErrNotOpenable is returned for entries that are neither regular files nor
// something the desktop would know how to open.
var ErrNotOpenable = errors.New("not a file that can be opened")

// Opener launches a file. Implementations must not block on the launched
// program.
type Opener interface {
	Open(path string) error
}

// Func adapts a plain function to Opener.
type Func func(path string) error

func (f Func) Open(path string) error { return f(path) }

// System opens files with the platform launcher.
type System struct{}

// Open executes path when it is a runnable program and otherwise asks the
// desktop to open it.
func (System) Open(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if shouldExecute(path, info) {
		debug.Log(debug.APP, "opener: execute %q", path)
		return execute(path)
	}
	if !info.Mode().IsRegular() && !info.IsDir() && filepath.Ext(path) == "" {
		return ErrNotOpenable
	}
	debug.Log(debug.APP, "opener: open %q", path)
	return platformOpen(path)
}

// execute starts path in its own directory and reaps it in the background.
func execute(path string) error {
	cmd := exec.Command(path)
	cmd.Dir = filepath.Dir(path)
	if err := cmd.Start(); err != nil {
		return err
	}
	go cmd.Wait()
	return nil
}

// start runs a launcher command without waiting for the program it opens.
func start(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go cmd.Wait()
	return nil
}
