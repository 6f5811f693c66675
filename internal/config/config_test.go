package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default("/tmp/tasks.db")

	if cfg.Database.Path != "/tmp/tasks.db" {
		t.Fatalf("database path = %q", cfg.Database.Path)
	}
	if cfg.Backend.Host != "127.0.0.1" || cfg.Backend.Port != 3000 {
		t.Fatalf("backend defaults = %s:%d", cfg.Backend.Host, cfg.Backend.Port)
	}
	if cfg.Backend.MaxPortAttempts != 10 {
		t.Fatalf("max port attempts = %d", cfg.Backend.MaxPortAttempts)
	}
	if cfg.Genius.TimeoutSeconds != 10 {
		t.Fatalf("genius timeout = %d", cfg.Genius.TimeoutSeconds)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	defaults := Default("/tmp/tasks.db")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"), defaults)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != defaults {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[backend]
host = "0.0.0.0"
port = 4100

[genius]
api_key = "secret"
organization_id = "org-7"

[keys]
toggle_fold = "ctrl+f"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path, Default("/tmp/tasks.db"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend.Host != "0.0.0.0" || cfg.Backend.Port != 4100 {
		t.Fatalf("backend = %s:%d", cfg.Backend.Host, cfg.Backend.Port)
	}
	if cfg.Backend.MaxPortAttempts != 10 {
		t.Fatalf("unset field should keep default, got %d", cfg.Backend.MaxPortAttempts)
	}
	if cfg.Genius.APIKey != "secret" || cfg.Genius.OrganizationID != "org-7" {
		t.Fatalf("genius = %+v", cfg.Genius)
	}
	if cfg.Keys.ToggleFold != "ctrl+f" {
		t.Fatalf("toggle fold key = %q", cfg.Keys.ToggleFold)
	}
	if cfg.Database.Path != "/tmp/tasks.db" {
		t.Fatalf("database path = %q", cfg.Database.Path)
	}
}

func TestLoadRejectsInvalidPort(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[backend]
port = -1
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(path, Default("/tmp/tasks.db")); err == nil {
		t.Fatal("expected validation error for negative port")
	}
}

func TestLoadRejectsInvalidLogLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[logging]
level = "verbose"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(path, Default("/tmp/tasks.db")); err == nil {
		t.Fatal("expected validation error for unknown log level")
	}
}

func TestEnsureConfigDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "config.toml")

	if err := EnsureConfigDir(path); err != nil {
		t.Fatalf("EnsureConfigDir: %v", err)
	}
	info, err := os.Stat(filepath.Dir(path))
	if err != nil {
		t.Fatalf("stat config dir: %v", err)
	}
	if !info.IsDir() {
		t.Fatal("config dir is not a directory")
	}
}
