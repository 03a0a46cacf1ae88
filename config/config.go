// Package config provides configuration management for the application.
//
// Values are resolved in order: built-in defaults, an optional YAML file
// (config/config.yaml or config.yaml, with ${VAR} and ${VAR:-default} expansion),
// then environment variables (a .env file is loaded first when present).
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultBodySizeLimit is the maximum request body size (1MB).
const DefaultBodySizeLimit int64 = 1 << 20

// Storage types accepted by StorageConfig.Type.
const (
	StorageSQLite     = "sqlite"
	StoragePostgreSQL = "postgresql"
	StorageMongoDB    = "mongodb"
	StorageMemory     = "memory"
)

// configPaths lists YAML locations in lookup order.
var configPaths = []string{"config/config.yaml", "config.yaml"}

// Config holds the application configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Cache   CacheConfig   `yaml:"cache"`
	Metrics MetricsConfig `yaml:"metrics"`
	Log     LogConfig     `yaml:"log"`
	Memo    MemoConfig    `yaml:"memo"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           string `yaml:"port"`
	BodySizeLimit  int64  `yaml:"body_size_limit"`
	SwaggerEnabled bool   `yaml:"swagger_enabled"`
}

// StorageConfig selects and configures the durable record store.
type StorageConfig struct {
	// Type is one of "sqlite", "postgresql", "mongodb" or "memory"
	Type       string           `yaml:"type"`
	SQLite     SQLiteConfig     `yaml:"sqlite"`
	PostgreSQL PostgreSQLConfig `yaml:"postgresql"`
	MongoDB    MongoDBConfig    `yaml:"mongodb"`
}

// SQLiteConfig holds SQLite-specific configuration
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// PostgreSQLConfig holds PostgreSQL-specific configuration
type PostgreSQLConfig struct {
	URL      string `yaml:"url"`
	MaxConns int    `yaml:"max_conns"`
}

// MongoDBConfig holds MongoDB-specific configuration
type MongoDBConfig struct {
	URL      string `yaml:"url"`
	Database string `yaml:"database"`
}

// CacheConfig configures the optional hot record cache.
type CacheConfig struct {
	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig holds Redis connection settings. An empty URL disables the cache.
type RedisConfig struct {
	URL       string `yaml:"url"`
	KeyPrefix string `yaml:"key_prefix"`
	// TTL in seconds
	TTL int `yaml:"ttl"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	// Format is "auto", "json" or "text"
	Format string `yaml:"format"`
	Level  string `yaml:"level"`
}

// MemoConfig tunes the memoizing store.
type MemoConfig struct {
	// Coalesce shares one storage round trip between concurrent misses on the same fingerprint.
	Coalesce bool `yaml:"coalesce"`
	// OperationTimeout bounds each storage round trip, in seconds.
	OperationTimeout int `yaml:"operation_timeout"`
}

// Load reads configuration from defaults, the optional YAML file and the environment.
func Load() (*Config, error) {
	// Optional; variables already present in the environment win.
	_ = godotenv.Load()

	cfg := buildDefaultConfig()

	if err := applyYAMLFile(cfg); err != nil {
		return nil, err
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in configuration without consulting files or the environment.
func Default() *Config {
	return buildDefaultConfig()
}

func buildDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:          "8080",
			BodySizeLimit: DefaultBodySizeLimit,
		},
		Storage: StorageConfig{
			Type: StorageSQLite,
			SQLite: SQLiteConfig{
				Path: "data/sumcache.db",
			},
			PostgreSQL: PostgreSQLConfig{
				MaxConns: 10,
			},
			MongoDB: MongoDBConfig{
				Database: "sumcache",
			},
		},
		Cache: CacheConfig{
			Redis: RedisConfig{
				KeyPrefix: "sumcache:record:",
				TTL:       86400,
			},
		},
		Metrics: MetricsConfig{
			Endpoint: "/metrics",
		},
		Log: LogConfig{
			Format: "auto",
			Level:  "info",
		},
		Memo: MemoConfig{
			Coalesce:         true,
			OperationTimeout: 5,
		},
	}
}

func applyYAMLFile(cfg *Config) error {
	for _, path := range configPaths {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		if err := yaml.Unmarshal([]byte(expandString(string(data))), cfg); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return nil
	}
	return nil
}

var envPlaceholder = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*))?\}`)

// expandString replaces ${VAR} and ${VAR:-default} placeholders.
// A placeholder without a default whose variable is unset or empty is left as-is.
func expandString(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return envPlaceholder.ReplaceAllStringFunc(s, func(match string) string {
		parts := envPlaceholder.FindStringSubmatch(match)
		name, hasDefault, def := parts[1], parts[2] != "", parts[3]
		if v := os.Getenv(name); v != "" {
			return v
		}
		if hasDefault {
			return def
		}
		return match
	})
}

func applyEnvOverrides(cfg *Config) error {
	var errs []error

	setString(&cfg.Server.Port, "PORT")
	errs = append(errs, setInt64(&cfg.Server.BodySizeLimit, "BODY_SIZE_LIMIT"))
	errs = append(errs, setBool(&cfg.Server.SwaggerEnabled, "SWAGGER_ENABLED"))

	setString(&cfg.Storage.Type, "STORAGE_TYPE")
	setString(&cfg.Storage.SQLite.Path, "SQLITE_PATH")
	setString(&cfg.Storage.PostgreSQL.URL, "POSTGRES_URL")
	errs = append(errs, setInt(&cfg.Storage.PostgreSQL.MaxConns, "POSTGRES_MAX_CONNS"))
	setString(&cfg.Storage.MongoDB.URL, "MONGODB_URL")
	setString(&cfg.Storage.MongoDB.Database, "MONGODB_DATABASE")

	setString(&cfg.Cache.Redis.URL, "REDIS_URL")
	setString(&cfg.Cache.Redis.KeyPrefix, "REDIS_KEY_PREFIX")
	errs = append(errs, setInt(&cfg.Cache.Redis.TTL, "REDIS_TTL"))

	errs = append(errs, setBool(&cfg.Metrics.Enabled, "METRICS_ENABLED"))
	setString(&cfg.Metrics.Endpoint, "METRICS_ENDPOINT")

	setString(&cfg.Log.Format, "LOG_FORMAT")
	setString(&cfg.Log.Level, "LOG_LEVEL")

	errs = append(errs, setBool(&cfg.Memo.Coalesce, "MEMO_COALESCE"))
	errs = append(errs, setInt(&cfg.Memo.OperationTimeout, "MEMO_OPERATION_TIMEOUT"))

	return errors.Join(errs...)
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Storage.Type {
	case StorageSQLite, StorageMemory:
	case StoragePostgreSQL:
		if c.Storage.PostgreSQL.URL == "" {
			return fmt.Errorf("storage: POSTGRES_URL is required for storage type %q", c.Storage.Type)
		}
	case StorageMongoDB:
		if c.Storage.MongoDB.URL == "" {
			return fmt.Errorf("storage: MONGODB_URL is required for storage type %q", c.Storage.Type)
		}
	default:
		return fmt.Errorf("storage: unknown type %q (valid: sqlite, postgresql, mongodb, memory)", c.Storage.Type)
	}
	switch c.Log.Format {
	case "auto", "json", "text":
	default:
		return fmt.Errorf("log: unknown format %q (valid: auto, json, text)", c.Log.Format)
	}
	if c.Memo.OperationTimeout < 0 {
		return fmt.Errorf("memo: operation_timeout must not be negative")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = n
	return nil
}

func setInt64(dst *int64, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = b
	return nil
}
