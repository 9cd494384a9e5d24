package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	StorageSQLite   = "sqlite"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	Environment string `toml:"-"`

	Host string `toml:"host"`
	Port int    `toml:"port"`
	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogMaxSizeMB  int    `toml:"log_max_size_mb"`
	LogMaxBackups int    `toml:"log_max_backups"`
	LogMaxAgeDays int    `toml:"log_max_age_days"`
	SentryEnabled bool   `toml:"sentry_enabled"`
	// metrics
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`
	// storage
	StorageBackend string `toml:"storage_backend"`
	SQLitePath     string `toml:"sqlite_path"`
	RedisHost      string `toml:"redis_host"`
	RedisPort      string `toml:"redis_port"`
	PostgresHost   string `toml:"postgres_host"`
	PostgresPort   string `toml:"postgres_port"`
	PostgresDBName string `toml:"postgres_db_name"`
	// catalog
	CatalogURL             string `toml:"catalog_url"`
	CatalogPath            string `toml:"catalog_path"`
	CatalogWatch           bool   `toml:"catalog_watch"`
	CatalogCacheTTLSeconds int    `toml:"catalog_cache_ttl_seconds"`
	// session timers
	RestTickMillis   int `toml:"rest_tick_millis"`
	BridgeTickMillis int `toml:"bridge_tick_millis"`
	// http
	BackupImportPerMin int      `toml:"backup_import_per_min"`
	AllowedOrigins     []string `toml:"allowed_origins"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
	case "prod", "production":
		cfg = t.Production
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}

	if cfg == nil {
		return nil, fmt.Errorf("no config section for env: %s", env)
	}
	return cfg, nil
}

// Load reads the TOML file at path and returns the config of env with
// defaults applied.
func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}

	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}

	cfg.Environment = strings.ToLower(env)
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 9000
	}
	if c.LogLevel == "" {
		c.LogLevel = "trace"
	}
	if c.PrometheusMetricsHost == "" {
		c.PrometheusMetricsHost = "localhost"
	}
	if c.PrometheusMetricsPort == "" {
		c.PrometheusMetricsPort = "2112"
	}
	if c.StorageBackend == "" {
		c.StorageBackend = StorageSQLite
	}
	if c.SQLitePath == "" {
		c.SQLitePath = "gymtracker.db"
	}
	if c.RedisHost == "" {
		c.RedisHost = "localhost"
	}
	if c.RedisPort == "" {
		c.RedisPort = "6379"
	}
	if c.PostgresPort == "" {
		c.PostgresPort = "5432"
	}
	if c.PostgresDBName == "" {
		c.PostgresDBName = "gymtracker"
	}
	if c.CatalogCacheTTLSeconds <= 0 {
		c.CatalogCacheTTLSeconds = 300
	}
	if c.RestTickMillis <= 0 {
		c.RestTickMillis = 250
	}
	if c.BridgeTickMillis <= 0 {
		c.BridgeTickMillis = 250
	}
	if c.BackupImportPerMin <= 0 {
		c.BackupImportPerMin = 5
	}
}

func (c *Config) Validate() error {
	switch c.StorageBackend {
	case StorageSQLite, StorageRedis, StoragePostgres, StorageMemory:
	default:
		return fmt.Errorf("unknown storage backend: %s", c.StorageBackend)
	}

	if c.CatalogURL == "" && c.CatalogPath == "" {
		return fmt.Errorf("one of catalog_url or catalog_path must be set")
	}
	if c.StorageBackend == StoragePostgres && c.PostgresHost == "" {
		return fmt.Errorf("postgres_host must be set for postgres storage")
	}

	return nil
}

func (c *Config) RestTick() time.Duration {
	return time.Duration(c.RestTickMillis) * time.Millisecond
}

func (c *Config) BridgeTick() time.Duration {
	return time.Duration(c.BridgeTickMillis) * time.Millisecond
}

func (c *Config) CatalogCacheTTL() time.Duration {
	return time.Duration(c.CatalogCacheTTLSeconds) * time.Second
}
