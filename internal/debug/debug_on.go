//go:build debug

// Package debug provides a centralized, categorized debug logging system.
// Build with -tags debug to enable logging.
package debug

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Enabled indicates whether debug logging is active
const Enabled = true

// Category represents a debug logging category
type Category string

const (
	// Core categories
	APP   Category = "APP"   // Commander wiring, pane focus, startup
	FS    Category = "FS"    // Fingerprinting and snapshot building
	WATCH Category = "WATCH" // Watcher lifecycle and ticks
	PANE  Category = "PANE"  // Navigation, selection, sorting
	OPS   Category = "OPS"   // Copy/move/delete/mkdir/rename
	STORE Category = "STORE" // Operation journal

	// Per-entry tracing, very verbose
	FS_ENTRY Category = "FS_ENTRY"
)

var (
	enabledCategories = map[Category]bool{
		APP:   true,
		FS:    true,
		WATCH: true,
		PANE:  true,
		OPS:   true,
		STORE: true,
		// Verbose categories disabled by default
		FS_ENTRY: false,
	}
	categoryMu sync.RWMutex

	logger = newLogger()
)

func newLogger() *zap.SugaredLogger {
	l, err := zap.NewDevelopment(zap.AddCallerSkip(1))
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return l.Sugar()
}

func init() {
	// TWINPANE_DEBUG=APP,WATCH or TWINPANE_DEBUG=all or TWINPANE_DEBUG=none
	if env := os.Getenv("TWINPANE_DEBUG"); env != "" {
		categoryMu.Lock()
		defer categoryMu.Unlock()

		env = strings.ToUpper(env)
		switch env {
		case "ALL":
			for cat := range enabledCategories {
				enabledCategories[cat] = true
			}
		case "NONE":
			for cat := range enabledCategories {
				enabledCategories[cat] = false
			}
		default:
			for cat := range enabledCategories {
				enabledCategories[cat] = false
			}
			for _, cat := range strings.Split(env, ",") {
				enabledCategories[Category(strings.TrimSpace(cat))] = true
			}
		}
	}
}

// Log logs a debug message for the specified category
func Log(cat Category, format string, args ...interface{}) {
	categoryMu.RLock()
	enabled := enabledCategories[cat]
	categoryMu.RUnlock()

	if !enabled {
		return
	}
	logger.With("cat", string(cat)).Debugf(format, args...)
}

// Enable enables a debug category
func Enable(cat Category) {
	categoryMu.Lock()
	enabledCategories[cat] = true
	categoryMu.Unlock()
}

// Disable disables a debug category
func Disable(cat Category) {
	categoryMu.Lock()
	enabledCategories[cat] = false
	categoryMu.Unlock()
}

// IsEnabled returns whether a category is enabled
func IsEnabled(cat Category) bool {
	categoryMu.RLock()
	defer categoryMu.RUnlock()
	return enabledCategories[cat]
}

// EnableAll enables all debug categories including verbose ones
func EnableAll() {
	categoryMu.Lock()
	for cat := range enabledCategories {
		enabledCategories[cat] = true
	}
	categoryMu.Unlock()
}

// Sync flushes buffered log output.
func Sync() {
	_ = logger.Sync()
}
