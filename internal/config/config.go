package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

type Config struct {
	Database DatabaseConfig `toml:"database"`
	Logging  LoggingConfig  `toml:"logging"`
	Backend  BackendConfig  `toml:"backend"`
	Genius   GeniusConfig   `toml:"genius"`
	Keys     KeyConfig      `toml:"keys"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type LoggingConfig struct {
	Level string `toml:"level"` // debug | info | warn | error
	Path  string `toml:"path"`
}

// BackendConfig configures the knowledge-graph server the PKM plugins push to.
type BackendConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	MaxPortAttempts int    `toml:"max_port_attempts"`
}

// GeniusConfig configures the feed API. Empty credentials select mock mode.
type GeniusConfig struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	OrganizationID string `toml:"organization_id"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type KeyConfig struct {
	ToggleFold  string `toml:"toggle_fold"`
	CollapseAll string `toml:"collapse_all"`
	ShowFeed    string `toml:"show_feed"`
	YankTask    string `toml:"yank_task"`
	Help        string `toml:"help"`
}

func Default(dbPath string) Config {
	return Config{
		Database: DatabaseConfig{
			Path: dbPath,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Backend: BackendConfig{
			Host:            "127.0.0.1",
			Port:            3000,
			MaxPortAttempts: 10,
		},
		Genius: GeniusConfig{
			BaseURL:        "https://api.genius.example.com",
			TimeoutSeconds: 10,
		},
		Keys: KeyConfig{
			ToggleFold:  "ctrl+t",
			CollapseAll: "ctrl+e",
			ShowFeed:    "ctrl+g",
			YankTask:    "ctrl+y",
			Help:        "f1",
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("database path is required")
	}

	switch strings.TrimSpace(strings.ToLower(c.Logging.Level)) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}

	if strings.TrimSpace(c.Backend.Host) == "" {
		return errors.New("backend.host is required")
	}
	if c.Backend.Port <= 0 || c.Backend.Port > 65535 {
		return fmt.Errorf("invalid backend.port: %d", c.Backend.Port)
	}
	if c.Backend.MaxPortAttempts <= 0 {
		return errors.New("backend.max_port_attempts must be >= 1")
	}

	if strings.TrimSpace(c.Genius.BaseURL) == "" {
		return errors.New("genius.base_url is required")
	}
	if c.Genius.TimeoutSeconds <= 0 {
		return errors.New("genius.timeout_seconds must be >= 1")
	}

	return nil
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
