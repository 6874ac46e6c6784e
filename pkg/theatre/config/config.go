// Package config loads server configuration and assembles a running
// theatre service from it.
package config

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// Database types
const (
	DatabaseMemory   = "memory"
	DatabasePostgres = "postgres"
	DatabaseSQLite   = "sqlite"
)

// Storage backend types
const (
	StorageMemory = "memory"
	StorageFS     = "fs"
	StorageS3     = "s3"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// defaults mirrors the env-default tags so that Load without WithEnv
// yields the same configuration as an empty environment.
func defaults() ServerConfig {
	return ServerConfig{
		Port:           "8080",
		Environment:    "development",
		LogLevel:       "info",
		SiteURL:        "http://localhost:8080",
		DatabaseType:   DatabaseMemory,
		SQLitePath:     "theatre.db",
		StorageBackend: StorageMemory,
		StorageDir:     "./data/media",
		S3: S3Config{
			Region:          "us-east-1",
			PresignDuration: 3600,
			SSEAlgorithm:    "AES256",
		},
		URLStrategy:    "content-based",
		CacheTTL:       5 * time.Minute,
		AMQPQueue:      "theatre.events",
		NonceTTL:       12 * time.Hour,
		RateLimitEvery: time.Second,
		RateLimitBurst: 10,
		EventLogging:   true,
	}
}

// ServerConfig represents server configuration for the theatre service
type ServerConfig struct {
	Port        string `yaml:"port" env:"PORT" env-default:"8080" env-description:"HTTP listen port"`
	Environment string `yaml:"environment" env:"ENVIRONMENT" env-default:"development" env-description:"development, production or testing"`
	LogLevel    string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info" env-description:"debug, info, warn or error"`
	SiteURL     string `yaml:"site_url" env:"SITE_URL" env-default:"http://localhost:8080" env-description:"Public base URL used for permalinks"`

	// Database configuration
	DatabaseType string `yaml:"database_type" env:"DATABASE_TYPE" env-default:"memory" env-description:"memory, postgres or sqlite"`
	DatabaseURL  string `yaml:"database_url" env:"DATABASE_URL" env-description:"Postgres connection string"`
	DBSchema     string `yaml:"db_schema" env:"DB_SCHEMA" env-description:"Postgres search_path"`
	SQLitePath   string `yaml:"sqlite_path" env:"SQLITE_PATH" env-default:"theatre.db" env-description:"SQLite database file"`

	// Storage configuration. StorageBackends, when set in a file, replaces
	// the single backend described by StorageBackend.
	StorageBackend   string                 `yaml:"storage_backend" env:"STORAGE_BACKEND" env-default:"memory" env-description:"memory, fs or s3"`
	StorageDir       string                 `yaml:"storage_dir" env:"STORAGE_DIR" env-default:"./data/media"`
	StorageURLPrefix string                 `yaml:"storage_url_prefix" env:"STORAGE_URL_PREFIX"`
	S3               S3Config               `yaml:"s3"`
	StorageBackends  []StorageBackendConfig `yaml:"storage_backends"`
	URLStrategy      string                 `yaml:"url_strategy" env:"URL_STRATEGY" env-default:"content-based" env-description:"content-based, cdn or storage-delegated"`
	CDNBaseURL       string                 `yaml:"cdn_base_url" env:"CDN_BASE_URL"`

	// Shared state
	RedisURL  string        `yaml:"redis_url" env:"REDIS_URL" env-description:"Enables the redis settings store and response cache"`
	CacheTTL  time.Duration `yaml:"cache_ttl" env:"CACHE_TTL" env-default:"5m"`
	AMQPURL   string        `yaml:"amqp_url" env:"AMQP_URL" env-description:"Publishes domain events to RabbitMQ"`
	AMQPQueue string        `yaml:"amqp_queue" env:"AMQP_QUEUE" env-default:"theatre.events"`

	// Security
	JWTSecret      string        `yaml:"jwt_secret" env:"JWT_SECRET" env-description:"HS256 secret for bearer tokens"`
	NonceSecret    string        `yaml:"nonce_secret" env:"NONCE_SECRET" env-description:"Defaults to JWT_SECRET"`
	NonceTTL       time.Duration `yaml:"nonce_ttl" env:"NONCE_TTL" env-default:"12h"`
	RateLimitEvery time.Duration `yaml:"rate_limit_every" env:"RATE_LIMIT_EVERY" env-default:"1s"`
	RateLimitBurst int           `yaml:"rate_limit_burst" env:"RATE_LIMIT_BURST" env-default:"10" env-description:"0 disables write rate limiting"`

	EventLogging bool `yaml:"event_logging" env:"EVENT_LOGGING" env-description:"Log domain events (default true)"`
}

// S3Config holds the S3 storage settings
type S3Config struct {
	Region          string `yaml:"region" env:"S3_REGION" env-default:"us-east-1"`
	Bucket          string `yaml:"bucket" env:"S3_BUCKET"`
	AccessKeyID     string `yaml:"access_key_id" env:"S3_ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"secret_access_key" env:"S3_SECRET_ACCESS_KEY"`
	Endpoint        string `yaml:"endpoint" env:"S3_ENDPOINT"`
	UsePathStyle    bool   `yaml:"use_path_style" env:"S3_USE_PATH_STYLE"`
	PresignDuration int    `yaml:"presign_duration" env:"S3_PRESIGN_DURATION" env-default:"3600"`
	PublicBaseURL   string `yaml:"public_base_url" env:"S3_PUBLIC_BASE_URL"`
	EnableSSE       bool   `yaml:"enable_sse" env:"S3_ENABLE_SSE"`
	SSEAlgorithm    string `yaml:"sse_algorithm" env:"S3_SSE_ALGORITHM" env-default:"AES256"`
	SSEKMSKeyID     string `yaml:"sse_kms_key_id" env:"S3_SSE_KMS_KEY_ID"`
	CreateBucket    bool   `yaml:"create_bucket" env:"S3_CREATE_BUCKET"`
}

// StorageBackendConfig represents configuration for a named storage backend
type StorageBackendConfig struct {
	Name      string   `yaml:"name"`
	Type      string   `yaml:"type"`
	BaseDir   string   `yaml:"base_dir"`
	URLPrefix string   `yaml:"url_prefix"`
	S3        S3Config `yaml:"s3"`
}

// IsProduction reports whether the server runs in production mode
func (c *ServerConfig) IsProduction() bool {
	return c.Environment == "production"
}

// Backends returns the configured storage backends. The first entry is the
// default backend for uploads.
func (c *ServerConfig) Backends() []StorageBackendConfig {
	if len(c.StorageBackends) > 0 {
		return c.StorageBackends
	}
	return []StorageBackendConfig{{
		Name:      c.StorageBackend,
		Type:      c.StorageBackend,
		BaseDir:   c.StorageDir,
		URLPrefix: c.StorageURLPrefix,
		S3:        c.S3,
	}}
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	switch c.DatabaseType {
	case DatabaseMemory:
	case DatabasePostgres:
		if c.DatabaseURL == "" {
			return errors.New("database_url is required when using postgres")
		}
	case DatabaseSQLite:
		if c.SQLitePath == "" {
			return errors.New("sqlite_path is required when using sqlite")
		}
	default:
		return fmt.Errorf("database_type must be memory, postgres or sqlite, got %q", c.DatabaseType)
	}

	var names []string
	for _, backend := range c.Backends() {
		if backend.Name == "" {
			return errors.New("storage backend name is required")
		}
		if slices.Contains(names, backend.Name) {
			return fmt.Errorf("storage backend %q configured twice", backend.Name)
		}
		names = append(names, backend.Name)

		switch backend.Type {
		case StorageMemory:
		case StorageFS:
			if backend.BaseDir == "" {
				return fmt.Errorf("storage backend %q: base_dir is required", backend.Name)
			}
		case StorageS3:
			if backend.S3.Bucket == "" {
				return fmt.Errorf("storage backend %q: bucket is required", backend.Name)
			}
		default:
			return fmt.Errorf("storage backend %q: unsupported type %q", backend.Name, backend.Type)
		}
	}

	switch c.URLStrategy {
	case "content-based", "storage-delegated":
	case "cdn":
		if c.CDNBaseURL == "" {
			return errors.New("cdn_base_url is required for the cdn url strategy")
		}
	default:
		return fmt.Errorf("unknown url strategy %q", c.URLStrategy)
	}

	if c.IsProduction() && len(c.JWTSecret) < 32 {
		return errors.New("jwt_secret of at least 32 bytes is required in production")
	}
	if c.RateLimitBurst < 0 {
		return errors.New("rate_limit_burst must not be negative")
	}
	if c.RateLimitBurst > 0 && c.RateLimitEvery <= 0 {
		return errors.New("rate_limit_every must be positive")
	}

	return nil
}
