// Package config loads the service configuration: defaults, then an optional
// yaml file, then environment overrides, then validation.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Events  EventsConfig  `yaml:"events"`
	Query   QueryConfig   `yaml:"query"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig holds the HTTP server settings
type ServerConfig struct {
	Addr            string `yaml:"addr"`
	ReadTimeoutSec  int    `yaml:"read_timeout_sec"`
	WriteTimeoutSec int    `yaml:"write_timeout_sec"`
	ShutdownSec     int    `yaml:"shutdown_sec"`
}

// StorageConfig selects and configures the record store backend
type StorageConfig struct {
	Backend string      `yaml:"backend"` // "memory" or "mongo"
	Mongo   MongoConfig `yaml:"mongo"`
}

// MongoConfig holds the MongoDB connection settings
type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

// EventsConfig configures the NATS event publisher
type EventsConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
}

// QueryConfig holds query compiler policy
type QueryConfig struct {
	// IgnoreUnknownFilters drops unrecognized filter fields instead of
	// rejecting the request. Table widgets send params we do not serve.
	IgnoreUnknownFilters bool `yaml:"ignore_unknown_filters"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level    string         `yaml:"level"`  // debug, info, warn, error
	Format   string         `yaml:"format"` // text, json
	Dir      string         `yaml:"dir"`    // log directory path
	File     bool           `yaml:"file"`   // also log to rotated files
	Rotation RotationConfig `yaml:"rotation"`
}

// RotationConfig holds log rotation settings
type RotationConfig struct {
	MaxSize    int  `yaml:"max_size"`    // MB
	MaxBackups int  `yaml:"max_backups"` // number of files
	MaxAge     int  `yaml:"max_age"`     // days
	Compress   bool `yaml:"compress"`    // gzip old files
}

// DefaultConfig returns the configuration defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeoutSec:  30,
			WriteTimeoutSec: 30,
			ShutdownSec:     5,
		},
		Storage: StorageConfig{
			Backend: "memory",
			Mongo: MongoConfig{
				URI:      "mongodb://localhost:27017",
				Database: "subgrid",
			},
		},
		Events: EventsConfig{
			Enabled: false,
			URL:     "nats://localhost:4222",
		},
		Query: QueryConfig{
			IgnoreUnknownFilters: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Dir:    "logs",
			Rotation: RotationConfig{
				MaxSize:    100,
				MaxBackups: 3,
				MaxAge:     28,
				Compress:   true,
			},
		},
	}
}

// Load builds the configuration: defaults, then the yaml file at path if it
// exists, then environment overrides, then validation.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SUBGRID_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("SUBGRID_STORAGE_BACKEND"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv("SUBGRID_MONGO_URI"); v != "" {
		c.Storage.Mongo.URI = v
	}
	if v := os.Getenv("SUBGRID_MONGO_DATABASE"); v != "" {
		c.Storage.Mongo.Database = v
	}
	if v := os.Getenv("SUBGRID_NATS_URL"); v != "" {
		c.Events.URL = v
		c.Events.Enabled = true
	}
	if v := os.Getenv("SUBGRID_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("SUBGRID_IGNORE_UNKNOWN_FILTERS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Query.IgnoreUnknownFilters = b
		}
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "memory":
	case "mongo":
		if c.Storage.Mongo.URI == "" {
			return fmt.Errorf("storage.mongo.uri is required for the mongo backend")
		}
		if c.Storage.Mongo.Database == "" {
			return fmt.Errorf("storage.mongo.database is required for the mongo backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q (expected memory or mongo)", c.Storage.Backend)
	}

	if c.Events.Enabled && c.Events.URL == "" {
		return fmt.Errorf("events.url is required when events are enabled")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Logging.Level)
	}
	return nil
}
