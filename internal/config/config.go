// Package config loads app config from env and an optional .env file using
// Viper.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// APIBaseURL is the origin of the mittracking remote service.
	APIBaseURL string `mapstructure:"API_BASE_URL"`
	// SessionFile is the path of the persistent session store.
	SessionFile string `mapstructure:"SESSION_FILE"`
	// HTTPTimeout is the per-request timeout (e.g. "10s").
	HTTPTimeout string `mapstructure:"HTTP_TIMEOUT"`
	// DocumentsPageLimit bounds the document-collection fetch.
	DocumentsPageLimit int `mapstructure:"DOCUMENTS_PAGE_LIMIT"`
}

// Load reads .env (if present), then builds and validates Config from the
// environment. Missing .env is ignored; env vars override .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("API_BASE_URL", "http://localhost:8000")
	v.SetDefault("SESSION_FILE", defaultSessionFile())
	v.SetDefault("HTTP_TIMEOUT", "10s")
	v.SetDefault("DOCUMENTS_PAGE_LIMIT", 1000)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.APIBaseURL == "" {
		return nil, errors.New("config: API_BASE_URL must be set")
	}
	if cfg.DocumentsPageLimit <= 0 {
		return nil, errors.New("config: DOCUMENTS_PAGE_LIMIT must be positive")
	}

	return &cfg, nil
}

// Timeout parses HTTPTimeout as a time.Duration. Returns 10s if unset or
// invalid.
func (c *Config) Timeout() time.Duration {
	d, err := time.ParseDuration(c.HTTPTimeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "mittrack-session.db"
	}
	return filepath.Join(home, ".mittrack", "session.db")
}
