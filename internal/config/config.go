// Package config loads twinpane's settings from a JSON file.
package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Config holds all user-configurable settings loaded from config.json
type Config struct {
	Panes      PanesConfig      `json:"panes"`
	Watch      WatchConfig      `json:"watch"`
	FileList   FileListConfig   `json:"fileList"`
	Operations OperationsConfig `json:"operations"`
	Journal    JournalConfig    `json:"journal"`
}

// PanesConfig holds the start directories, one per pane. Empty entries
// start in the working directory.
type PanesConfig struct {
	Paths []string `json:"paths"`
	Count int      `json:"count"`
}

// WatchConfig holds directory polling timings
type WatchConfig struct {
	PollInterval  Duration `json:"pollInterval"`  // how often the watcher wakes
	CheckInterval Duration `json:"checkInterval"` // minimum time between fingerprint passes
	ErrorTTL      Duration `json:"errorTTL"`      // how long a directory error stays visible
}

// FileListConfig holds file list display settings
type FileListConfig struct {
	DefaultSort   string `json:"defaultSort"` // "name" | "ext" | "size" | "modified" | "perm"
	SortAscending bool   `json:"sortAscending"`
}

// OperationsConfig holds file operation settings
type OperationsConfig struct {
	OverwriteOnCopy bool  `json:"overwriteOnCopy"`
	OverwriteOnMove bool  `json:"overwriteOnMove"`
	UseTrash        bool  `json:"useTrash"`
	MaxViewSize     int64 `json:"maxViewSize"` // bytes; larger files are not loaded by the viewer
}

// JournalConfig holds the operation journal settings
type JournalConfig struct {
	Enabled bool `json:"enabled"`
	Size    int  `json:"size"` // entries kept
}

// Duration is a time.Duration written as a string like "50ms" in JSON.
type Duration time.Duration

// D returns the value as a time.Duration.
func (d Duration) D() time.Duration { return time.Duration(d) }

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(v)
		return nil
	}
	// Bare numbers are milliseconds.
	var ms int64
	if err := json.Unmarshal(data, &ms); err != nil {
		return fmt.Errorf("invalid duration %s", data)
	}
	*d = Duration(time.Duration(ms) * time.Millisecond)
	return nil
}

// Manager handles loading, saving, and accessing configuration
type Manager struct {
	mu       sync.RWMutex
	config   *Config
	path     string
	parseErr error // Stores parsing error if config failed to load
}

// NewManager creates a new configuration manager
func NewManager() *Manager {
	return &Manager{
		config: DefaultConfig(),
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Panes: PanesConfig{
			Paths: []string{"", ""},
			Count: 2,
		},
		Watch: WatchConfig{
			PollInterval:  Duration(50 * time.Millisecond),
			CheckInterval: Duration(time.Second),
			ErrorTTL:      Duration(5 * time.Second),
		},
		FileList: FileListConfig{
			DefaultSort:   "name",
			SortAscending: true,
		},
		Operations: OperationsConfig{
			OverwriteOnCopy: true,
			OverwriteOnMove: false,
			UseTrash:        false,
			MaxViewSize:     10 << 20,
		},
		Journal: JournalConfig{
			Enabled: true,
			Size:    256,
		},
	}
}

// normalize replaces unusable values with defaults.
func (c *Config) normalize() {
	def := DefaultConfig()
	if c.Panes.Count < 1 {
		c.Panes.Count = def.Panes.Count
	}
	if c.Watch.PollInterval <= 0 {
		c.Watch.PollInterval = def.Watch.PollInterval
	}
	if c.Watch.CheckInterval <= 0 {
		c.Watch.CheckInterval = def.Watch.CheckInterval
	}
	if c.Watch.ErrorTTL <= 0 {
		c.Watch.ErrorTTL = def.Watch.ErrorTTL
	}
	if c.FileList.DefaultSort == "" {
		c.FileList.DefaultSort = def.FileList.DefaultSort
	}
	if c.Operations.MaxViewSize <= 0 {
		c.Operations.MaxViewSize = def.Operations.MaxViewSize
	}
	if c.Journal.Size <= 0 {
		c.Journal.Size = def.Journal.Size
	}
}

// PanePath returns the configured start directory of pane i, or "".
func (c *Config) PanePath(i int) string {
	if i < 0 || i >= len(c.Panes.Paths) {
		return ""
	}
	return c.Panes.Paths[i]
}

// ConfigPath returns the config file path: ~/.config/twinpane/config.json
// This is consistent across all platforms (Windows, macOS, Linux)
func ConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "twinpane", "config.json")
}

// Load reads the configuration from the default config file.
func (m *Manager) Load() error {
	return m.LoadFrom(ConfigPath())
}

// LoadFrom reads the configuration from path.
// If the file doesn't exist, creates it with defaults
// If parsing fails, stores the error and returns defaults
func (m *Manager) LoadFrom(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.path = path
	m.parseErr = nil

	// Ensure config directory exists
	configDir := filepath.Dir(m.path)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		log.Printf("Config: failed to create directory %s: %v", configDir, err)
		return err
	}

	data, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		log.Printf("Config: creating default config at %s", m.path)
		m.config = DefaultConfig()
		if saveErr := m.saveUnlocked(); saveErr != nil {
			log.Printf("Config: failed to save default config: %v", saveErr)
			return saveErr
		}
		return nil
	}
	if err != nil {
		log.Printf("Config: failed to read %s: %v", m.path, err)
		return err
	}

	// Start from defaults so missing sections keep their default values.
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		// Store error for display, use defaults
		log.Printf("Config: JSON parse error: %v", err)
		m.parseErr = err
		m.config = DefaultConfig()
		return nil
	}
	cfg.normalize()

	log.Printf("Config: loaded from %s", m.path)
	m.config = cfg
	return nil
}

// saveUnlocked saves config without acquiring lock (caller must hold lock)
func (m *Manager) saveUnlocked() error {
	if m.path == "" {
		return fmt.Errorf("config: no path set")
	}
	data, err := json.MarshalIndent(m.config, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.path, data, 0o644)
}

// Save writes the current configuration to disk
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveUnlocked()
}

// Get returns a copy of the current configuration
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.config == nil {
		return *DefaultConfig()
	}
	cfg := *m.config
	cfg.Panes.Paths = append([]string(nil), m.config.Panes.Paths...)
	return cfg
}

// Path returns the file the configuration was loaded from.
func (m *Manager) Path() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.path
}

// ParseError returns the parsing error if config failed to load
func (m *Manager) ParseError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.parseErr
}

// SetSort updates the default sort column and direction and saves.
func (m *Manager) SetSort(column string, ascending bool) error {
	m.mu.Lock()
	m.config.FileList.DefaultSort = column
	m.config.FileList.SortAscending = ascending
	m.mu.Unlock()
	return m.Save()
}

// GenerateConfig backs up an existing config at path and writes a fresh
// default one. Returns the backup path if a backup was created, or empty
// string if there was no existing config.
func GenerateConfig(path string) (backupPath string, err error) {
	if _, err := os.Stat(path); err == nil {
		timestamp := time.Now().Format("20060102-150405")
		backupPath = filepath.Join(filepath.Dir(path), "config.backup."+timestamp+".json")

		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read existing config: %w", err)
		}
		if err := os.WriteFile(backupPath, data, 0o644); err != nil {
			return "", fmt.Errorf("failed to write backup: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return backupPath, fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(DefaultConfig(), "", "  ")
	if err != nil {
		return backupPath, fmt.Errorf("failed to marshal default config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return backupPath, fmt.Errorf("failed to write config: %w", err)
	}
	return backupPath, nil
}
