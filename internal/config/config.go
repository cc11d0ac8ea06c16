package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const envPrefix = "OPTLOG_"

// Store kinds.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreRemote = "remote"
)

type Config struct {
	Store         string        `env:"STORE" envDefault:"file"`
	DataDir       string        `env:"DATA_DIR" envDefault:"./data"`
	File          string        `env:"FILE" envDefault:"trades.json"`
	DB            string        `env:"DB" envDefault:"tradelog.db"`
	RemoteURL     string        `env:"REMOTE_URL"`
	RemoteTimeout time.Duration `env:"REMOTE_TIMEOUT" envDefault:"10s"`

	HTTPAddr string `env:"HTTP_ADDR"`

	Log Log `envPrefix:"LOG_"`

	BackupSchedule string `env:"BACKUP_SCHEDULE"` // cron spec with seconds field
	BackupDir      string `env:"BACKUP_DIR" envDefault:"./data/backups"`
	BackupKeep     int    `env:"BACKUP_KEEP" envDefault:"14"`
	JournalDir     string `env:"JOURNAL_DIR"`
}

type Log struct {
	Level       string `env:"LEVEL" envDefault:"info"`
	Encoding    string `env:"ENCODING" envDefault:"console"` // "json" or "console"
	Development bool   `env:"DEV"`
}

// FilePath is the JSON store file, relative to DataDir unless absolute.
func (c *Config) FilePath() string { return c.inDataDir(c.File) }

// DBPath is the sqlite database, relative to DataDir unless absolute.
func (c *Config) DBPath() string { return c.inDataDir(c.DB) }

func (c *Config) inDataDir(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataDir, name)
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: envPrefix}); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":" + getEnvDefault("PORT", "3000")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store {
	case StoreFile, StoreSQLite:
	case StoreRemote:
		if c.RemoteURL == "" {
			return fmt.Errorf("%sREMOTE_URL is required when %sSTORE is %q", envPrefix, envPrefix, StoreRemote)
		}
	default:
		return fmt.Errorf("%sSTORE must be 'file', 'sqlite' or 'remote', got %q", envPrefix, c.Store)
	}
	if c.Log.Encoding != "json" && c.Log.Encoding != "console" {
		return fmt.Errorf("%sLOG_ENCODING must be 'json' or 'console', got %q", envPrefix, c.Log.Encoding)
	}
	if c.RemoteTimeout <= 0 {
		return fmt.Errorf("%sREMOTE_TIMEOUT must be positive, got %s", envPrefix, c.RemoteTimeout)
	}
	return nil
}

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
