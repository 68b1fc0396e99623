// Package config provides configuration management for the ledger tool.
// It loads configuration from an optional YAML file and environment
// variables (including .env files); environment values win.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults used when neither file nor environment specify a value.
const (
	DefaultDBPath        = "data/ledger.db"
	DefaultFlushInterval = 30 * time.Second
)

// Config represents the application configuration.
type Config struct {
	DBPath        string        `yaml:"db_path"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	Debug         bool          `yaml:"debug"`
}

// fileConfig mirrors Config for YAML decoding, with the interval as a
// duration string ("30s", "2m").
type fileConfig struct {
	DBPath        string `yaml:"db_path"`
	FlushInterval string `yaml:"flush_interval"`
	Debug         bool   `yaml:"debug"`
}

// Load loads configuration. It loads a .env file from the current directory
// if one exists (or the one given in envPath), then an optional YAML config
// file named by LEDGER_CONFIG_FILE, then applies environment overrides.
func Load(envPath ...string) (*Config, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		// Ignore a missing .env; it is optional.
		_ = godotenv.Load()
	}

	config := &Config{
		DBPath:        DefaultDBPath,
		FlushInterval: DefaultFlushInterval,
	}

	if path := os.Getenv("LEDGER_CONFIG_FILE"); path != "" {
		if err := config.applyFile(path); err != nil {
			return nil, err
		}
	}

	if v := os.Getenv("LEDGER_DB_PATH"); v != "" {
		config.DBPath = v
	}
	if v := os.Getenv("LEDGER_FLUSH_INTERVAL"); v != "" {
		interval, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid LEDGER_FLUSH_INTERVAL: %w", err)
		}
		config.FlushInterval = interval
	}
	if os.Getenv("DEBUG") == "true" {
		config.Debug = true
	}

	return config, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	if fc.DBPath != "" {
		c.DBPath = fc.DBPath
	}
	if fc.FlushInterval != "" {
		interval, err := time.ParseDuration(fc.FlushInterval)
		if err != nil {
			return fmt.Errorf("invalid flush_interval in config file: %w", err)
		}
		c.FlushInterval = interval
	}
	if fc.Debug {
		c.Debug = true
	}
	return nil
}

// Validate checks the configuration for obvious misconfiguration.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("db_path must not be empty")
	}
	if c.FlushInterval <= 0 {
		return fmt.Errorf("flush_interval must be positive, got %s", c.FlushInterval)
	}
	return nil
}
