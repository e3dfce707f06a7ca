package weft

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the dev-server configuration, loaded from YAML.
type Config struct {
	// Addr is the listen address, host:port.
	Addr string `yaml:"addr" validate:"required,hostname_port"`
	// Template is the path of the template file to serve.
	Template string `yaml:"template" validate:"required"`
	// Minify strips insignificant whitespace from the template before
	// compiling.
	Minify bool `yaml:"minify"`
	// Data is the initial binding scope for the served template.
	Data map[string]interface{} `yaml:"data"`
	// Sessions configures the session store.
	Sessions SessionConfig `yaml:"sessions"`
}

// SessionConfig selects and tunes the session store backend.
type SessionConfig struct {
	Backend string `yaml:"backend" validate:"oneof=memory sqlite"`
	Path    string `yaml:"path"`
	// TTL is a duration string ("30m", "24h"); empty selects the
	// store default.
	TTL time.Duration `yaml:"-"`

	RawTTL string `yaml:"ttl"`
}

// DefaultConfig returns the configuration used when a field is left
// unset.
func DefaultConfig() Config {
	return Config{
		Addr: "localhost:8080",
		Sessions: SessionConfig{
			Backend: "memory",
		},
	}
}

// LoadConfig reads, defaults and validates a YAML config file.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Sessions.Backend == "" {
		cfg.Sessions.Backend = "memory"
	}
	if cfg.Sessions.Backend == "sqlite" && cfg.Sessions.Path == "" {
		cfg.Sessions.Path = "weft-sessions.db"
	}
	if cfg.Sessions.RawTTL != "" {
		ttl, err := time.ParseDuration(cfg.Sessions.RawTTL)
		if err != nil {
			return cfg, fmt.Errorf("invalid config: session ttl: %w", err)
		}
		cfg.Sessions.TTL = ttl
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
