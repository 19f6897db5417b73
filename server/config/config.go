// Package config loads server settings from the environment.
package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

type Config struct {
	Addr            string        `env:"QUESTLINE_ADDR" envDefault:":8080"`
	DataDir         string        `env:"QUESTLINE_DATA_DIR" envDefault:"data"`
	SnapshotBackend string        `env:"QUESTLINE_SNAPSHOT_BACKEND" envDefault:"sqlite"`
	SQLitePath      string        `env:"QUESTLINE_SQLITE_PATH"`
	CatalogDir      string        `env:"QUESTLINE_CATALOG_DIR"`
	JWTIssuer       string        `env:"QUESTLINE_JWT_ISSUER" envDefault:"Questline"`
	TokenTTL        time.Duration `env:"QUESTLINE_TOKEN_TTL" envDefault:"24h"`
}

// Load parses the environment and fills derived defaults.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	switch cfg.SnapshotBackend {
	case BackendFile, BackendSQLite:
	default:
		return Config{}, fmt.Errorf("unknown snapshot backend %q", cfg.SnapshotBackend)
	}
	if cfg.SQLitePath == "" {
		cfg.SQLitePath = filepath.Join(cfg.DataDir, "snapshots.db")
	}
	if cfg.TokenTTL <= 0 {
		return Config{}, fmt.Errorf("token ttl must be positive, got %s", cfg.TokenTTL)
	}
	return cfg, nil
}

func (c Config) AccountsDir() string  { return filepath.Join(c.DataDir, "accounts") }
func (c Config) SnapshotsDir() string { return filepath.Join(c.DataDir, "snapshots") }
