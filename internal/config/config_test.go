package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadFrom_CreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twinpane", "config.json")

	m := NewManager()
	if err := m.LoadFrom(path); err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if !strings.Contains(string(data), `"pollInterval": "50ms"`) {
		t.Errorf("durations should be written as strings:\n%s", data)
	}

	cfg := m.Get()
	if cfg.Watch.PollInterval.D() != 50*time.Millisecond {
		t.Errorf("PollInterval = %v", cfg.Watch.PollInterval.D())
	}
	if cfg.Watch.CheckInterval.D() != time.Second {
		t.Errorf("CheckInterval = %v", cfg.Watch.CheckInterval.D())
	}
	if cfg.Watch.ErrorTTL.D() != 5*time.Second {
		t.Errorf("ErrorTTL = %v", cfg.Watch.ErrorTTL.D())
	}
	if cfg.Operations.MaxViewSize != 10<<20 {
		t.Errorf("MaxViewSize = %d", cfg.Operations.MaxViewSize)
	}
	if cfg.Panes.Count != 2 {
		t.Errorf("Panes.Count = %d", cfg.Panes.Count)
	}
}

func TestLoadFrom_Partial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"watch": {"pollInterval": "10ms", "checkInterval": 250},
		"fileList": {"defaultSort": "size"},
		"panes": {"paths": ["/a", "/b", "/c"], "count": 3}
	}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	m := NewManager()
	if err := m.LoadFrom(path); err != nil {
		t.Fatal(err)
	}
	if m.ParseError() != nil {
		t.Fatalf("unexpected parse error: %v", m.ParseError())
	}

	cfg := m.Get()
	if cfg.Watch.PollInterval.D() != 10*time.Millisecond {
		t.Errorf("PollInterval = %v", cfg.Watch.PollInterval.D())
	}
	if cfg.Watch.CheckInterval.D() != 250*time.Millisecond {
		t.Errorf("numeric durations are milliseconds, got %v", cfg.Watch.CheckInterval.D())
	}
	if cfg.Watch.ErrorTTL.D() != 5*time.Second {
		t.Errorf("missing fields should keep defaults, ErrorTTL = %v", cfg.Watch.ErrorTTL.D())
	}
	if cfg.FileList.DefaultSort != "size" {
		t.Errorf("DefaultSort = %q", cfg.FileList.DefaultSort)
	}
	if !cfg.Journal.Enabled {
		t.Error("missing sections should keep defaults")
	}
	if cfg.PanePath(2) != "/c" || cfg.PanePath(5) != "" {
		t.Errorf("PanePath = %q, %q", cfg.PanePath(2), cfg.PanePath(5))
	}
}

func TestLoadFrom_ParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	os.WriteFile(path, []byte(`{"watch": {"pollInterval": "soon"}}`), 0o644)

	m := NewManager()
	if err := m.LoadFrom(path); err != nil {
		t.Fatalf("parse errors should not fail Load: %v", err)
	}
	if m.ParseError() == nil {
		t.Fatal("expected a parse error")
	}
	if m.Get().Watch.PollInterval.D() != 50*time.Millisecond {
		t.Error("defaults should be used after a parse error")
	}
}

func TestLoadFrom_Normalize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	os.WriteFile(path, []byte(`{"watch": {"pollInterval": "0s"}, "panes": {"count": 0}, "journal": {"size": -1}}`), 0o644)

	m := NewManager()
	if err := m.LoadFrom(path); err != nil {
		t.Fatal(err)
	}
	cfg := m.Get()
	if cfg.Watch.PollInterval.D() != 50*time.Millisecond || cfg.Panes.Count != 2 || cfg.Journal.Size != 256 {
		t.Errorf("invalid values not replaced: %+v", cfg)
	}
}

func TestSetSort(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	m := NewManager()
	if err := m.LoadFrom(path); err != nil {
		t.Fatal(err)
	}

	if err := m.SetSort("modified", false); err != nil {
		t.Fatal(err)
	}

	reloaded := NewManager()
	if err := reloaded.LoadFrom(path); err != nil {
		t.Fatal(err)
	}
	cfg := reloaded.Get()
	if cfg.FileList.DefaultSort != "modified" || cfg.FileList.SortAscending {
		t.Errorf("sort not saved: %+v", cfg.FileList)
	}
}

func TestGet_ReturnsCopy(t *testing.T) {
	m := NewManager()
	cfg := m.Get()
	cfg.Panes.Paths[0] = "/mutated"
	if m.Get().Panes.Paths[0] == "/mutated" {
		t.Error("Get should not share the paths slice")
	}
}

func TestGenerateConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	backup, err := GenerateConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if backup != "" {
		t.Errorf("no backup expected for a fresh config, got %q", backup)
	}

	os.WriteFile(path, []byte(`{"journal": {"size": 7}}`), 0o644)
	backup, err = GenerateConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(backup)
	if err != nil || !strings.Contains(string(data), `"size": 7`) {
		t.Errorf("backup missing old content: %q, %v", data, err)
	}

	var cfg Config
	data, _ = os.ReadFile(path)
	if err := json.Unmarshal(data, &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Journal.Size != 256 {
		t.Errorf("fresh config should hold defaults, size = %d", cfg.Journal.Size)
	}
}
