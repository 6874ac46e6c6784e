package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// WithEnv applies environment variable overrides. Variables that are not
// set leave the current value in place; see Description for the full list.
func WithEnv() Option {
	return func(c *ServerConfig) error {
		if err := cleanenv.ReadEnv(c); err != nil {
			return fmt.Errorf("read environment: %w", err)
		}
		return nil
	}
}

// WithFile reads a YAML, JSON or TOML file. Environment variables still win
// over values from the file.
func WithFile(path string) Option {
	return func(c *ServerConfig) error {
		if path == "" {
			return nil
		}
		if err := cleanenv.ReadConfig(path, c); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
		return nil
	}
}

// Description lists the supported environment variables.
func Description() (string, error) {
	header := "Environment variables:"
	var cfg ServerConfig
	return cleanenv.GetDescription(&cfg, &header)
}
