package config

import (
	"fmt"
	"time"
)

// WithPort sets the server port
func WithPort(port string) Option {
	return func(c *ServerConfig) error {
		if port == "" {
			return fmt.Errorf("port cannot be empty")
		}
		c.Port = port
		return nil
	}
}

// WithEnvironment sets the environment (development, production, testing)
func WithEnvironment(env string) Option {
	return func(c *ServerConfig) error {
		if env == "" {
			return fmt.Errorf("environment cannot be empty")
		}
		c.Environment = env
		return nil
	}
}

// WithDatabase selects the repository. url is the Postgres connection
// string or the SQLite file path.
func WithDatabase(dbType, url string) Option {
	return func(c *ServerConfig) error {
		switch dbType {
		case DatabaseMemory:
		case DatabasePostgres:
			c.DatabaseURL = url
		case DatabaseSQLite:
			c.SQLitePath = url
		default:
			return fmt.Errorf("database type must be memory, postgres or sqlite, got: %s", dbType)
		}
		c.DatabaseType = dbType
		return nil
	}
}

// WithFilesystemStorage stores media below baseDir
func WithFilesystemStorage(baseDir, urlPrefix string) Option {
	return func(c *ServerConfig) error {
		if baseDir == "" {
			return fmt.Errorf("filesystem base directory cannot be empty")
		}
		c.StorageBackend = StorageFS
		c.StorageDir = baseDir
		c.StorageURLPrefix = urlPrefix
		return nil
	}
}

// WithS3Storage stores media in an S3 bucket
func WithS3Storage(s3 S3Config) Option {
	return func(c *ServerConfig) error {
		if s3.Bucket == "" {
			return fmt.Errorf("s3 bucket cannot be empty")
		}
		c.StorageBackend = StorageS3
		c.S3 = s3
		return nil
	}
}

// WithSecrets sets the bearer token and nonce secrets
func WithSecrets(jwtSecret, nonceSecret string) Option {
	return func(c *ServerConfig) error {
		c.JWTSecret = jwtSecret
		c.NonceSecret = nonceSecret
		return nil
	}
}

// WithRateLimit allows burst writes per caller and one more every interval.
// A burst of zero disables limiting.
func WithRateLimit(every time.Duration, burst int) Option {
	return func(c *ServerConfig) error {
		c.RateLimitEvery = every
		c.RateLimitBurst = burst
		return nil
	}
}
