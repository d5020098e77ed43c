package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/me/kernsim/pkg/model"
)

// ServerConfig holds configuration for the kernsim server.
type ServerConfig struct {
	Addr       string           `yaml:"addr"`       // Listen address (default ":8080")
	LogLevel   string           `yaml:"log_level"`  // Log level: trace, debug, info, warn, error
	LogFormat  string           `yaml:"log_format"` // Log format: text, json
	DBPath     string           `yaml:"db_path"`    // SQLite run journal (default ~/.kernsim/kernsim.db, ":memory:" for testing)
	Discipline model.Discipline `yaml:"discipline"` // Discipline for sessions created without one

	// SessionIdleTTL expires live sessions with no events for this long. Zero disables expiry.
	SessionIdleTTL time.Duration `yaml:"session_idle_ttl"`
}

// DefaultServerConfig returns sensible defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:       ":8080",
		LogLevel:   "info",
		LogFormat:  "text",
		Discipline: model.DisciplineFCFS,

		SessionIdleTTL: 30 * time.Minute,
	}
}

// Load reads a YAML config file and overlays it onto the defaults.
// An empty path returns the defaults unchanged.
func Load(path string) (ServerConfig, error) {
	cfg := DefaultServerConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate normalizes the discipline name and rejects unknown values.
func (c *ServerConfig) Validate() error {
	d, err := model.ParseDiscipline(string(c.Discipline))
	if err != nil {
		return err
	}
	c.Discipline = d
	if c.SessionIdleTTL < 0 {
		return fmt.Errorf("session_idle_ttl must not be negative, got %s", c.SessionIdleTTL)
	}
	return nil
}
