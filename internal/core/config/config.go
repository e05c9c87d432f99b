package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/aevon-lab/statengine/internal/core/timeindex"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "STATENGINE_"

// Storage backends.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config represents the top-level configuration for the stats engine.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Storage   StorageConfig   `koanf:"storage"`
	Database  DatabaseConfig  `koanf:"database"`
	TimeIndex TimeIndexConfig `koanf:"time_index"`
	Flush     FlushConfig     `koanf:"flush"`
	Series    SeriesConfig    `koanf:"series"`
}

type ServerConfig struct {
	Port          int    `koanf:"port"`
	Host          string `koanf:"host"`
	MaxBodySizeMB int    `koanf:"max_body_size_mb"`
	Mode          string `koanf:"mode"` // debug | release
}

// StorageConfig selects where entries and cached aggregates live.
type StorageConfig struct {
	DataDir      string `koanf:"data_dir"`
	EntryBackend string `koanf:"entry_backend"` // file | postgres | memory
	PageBackend  string `koanf:"page_backend"`  // file | postgres
	SyncWrites   bool   `koanf:"sync_writes"`
}

// DatabaseConfig is only read when a backend is postgres.
type DatabaseConfig struct {
	DSN          string `koanf:"dsn"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns"`
	AutoMigrate  bool   `koanf:"auto_migrate"`
}

type TimeIndexConfig struct {
	BucketSize string `koanf:"bucket_size"`
}

// FlushConfig drives the background scheduler that seals buckets.
type FlushConfig struct {
	Enabled      bool   `koanf:"enabled"`
	PollInterval string `koanf:"poll_interval"`
	WarmCache    bool   `koanf:"warm_cache"`
	WorkerCount  int    `koanf:"worker_count"`
}

type SeriesConfig struct {
	DefaultHorizon int64 `koanf:"default_horizon"`
	MaxHorizon     int64 `koanf:"max_horizon"`
	MaxRange       int64 `koanf:"max_range"`
}

// Bucket returns the parsed bucket size. Only valid after Validate.
func (c TimeIndexConfig) Bucket() time.Duration {
	d, _ := timeindex.ParseBucketSize(c.BucketSize)
	return d
}

// Interval returns the parsed poll interval. Only valid after Validate.
func (c FlushConfig) Interval() time.Duration {
	d, _ := time.ParseDuration(c.PollInterval)
	return d
}

// Uses reports whether either backend is set to backend.
func (c StorageConfig) Uses(backend string) bool {
	return c.EntryBackend == backend || c.PageBackend == backend
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d (must be 1-65535)", c.Server.Port)
	}
	if strings.TrimSpace(c.Server.Host) == "" {
		return fmt.Errorf("server.host is required")
	}
	if c.Server.MaxBodySizeMB <= 0 {
		return fmt.Errorf("server.max_body_size_mb must be > 0")
	}
	if c.Server.Mode != "debug" && c.Server.Mode != "release" {
		return fmt.Errorf("invalid server.mode %q (must be debug or release)", c.Server.Mode)
	}

	switch c.Storage.EntryBackend {
	case BackendFile, BackendPostgres, BackendMemory:
	default:
		return fmt.Errorf("unsupported storage.entry_backend %q (must be file, postgres or memory)", c.Storage.EntryBackend)
	}
	switch c.Storage.PageBackend {
	case BackendFile, BackendPostgres:
	default:
		return fmt.Errorf("unsupported storage.page_backend %q (must be file or postgres)", c.Storage.PageBackend)
	}
	if c.Storage.Uses(BackendFile) && strings.TrimSpace(c.Storage.DataDir) == "" {
		return fmt.Errorf("storage.data_dir is required for the file backend")
	}

	if c.Storage.Uses(BackendPostgres) {
		if strings.TrimSpace(c.Database.DSN) == "" {
			return fmt.Errorf("database.dsn is required for the postgres backend")
		}
		if c.Database.MaxOpenConns <= 0 {
			return fmt.Errorf("database.max_open_conns must be > 0")
		}
		if c.Database.MaxIdleConns <= 0 {
			return fmt.Errorf("database.max_idle_conns must be > 0")
		}
	}

	if _, err := timeindex.ParseBucketSize(c.TimeIndex.BucketSize); err != nil {
		return fmt.Errorf("invalid time_index.bucket_size %q: %w", c.TimeIndex.BucketSize, err)
	}

	interval, err := time.ParseDuration(c.Flush.PollInterval)
	if err != nil {
		return fmt.Errorf("invalid flush.poll_interval %q: %w", c.Flush.PollInterval, err)
	}
	if interval <= 0 {
		return fmt.Errorf("flush.poll_interval must be > 0")
	}
	if c.Flush.WorkerCount <= 0 {
		return fmt.Errorf("flush.worker_count must be > 0")
	}

	if c.Series.DefaultHorizon < 0 {
		return fmt.Errorf("series.default_horizon must be >= 0")
	}
	if c.Series.MaxHorizon < c.Series.DefaultHorizon {
		return fmt.Errorf("series.max_horizon must be >= series.default_horizon")
	}
	if c.Series.MaxRange <= 0 {
		return fmt.Errorf("series.max_range must be > 0")
	}

	return nil
}

// Load parses config from defaults, an optional YAML file and the environment, then validates it.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"server.port":             8080,
		"server.host":             "0.0.0.0",
		"server.max_body_size_mb": 1,
		"server.mode":             "release",
		"storage.data_dir":        "./data",
		"storage.entry_backend":   BackendFile,
		"storage.page_backend":    BackendFile,
		"storage.sync_writes":     false,
		"database.dsn":            "",
		"database.max_open_conns": 25,
		"database.max_idle_conns": 25,
		"database.auto_migrate":   true,
		"time_index.bucket_size":  "1m",
		"flush.enabled":           true,
		"flush.poll_interval":     "1s",
		"flush.warm_cache":        false,
		"flush.worker_count":      4,
		"series.default_horizon":  60,
		"series.max_horizon":      10080,
		"series.max_range":        10080,
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// STATENGINE_SERVER__PORT=9090 overrides server.port
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
