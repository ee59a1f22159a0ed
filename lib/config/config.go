// Copyright 2026 The Opine Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for the service.
//
// Configuration is loaded from a single YAML file specified by:
//   - OPINE_CONFIG environment variable, or
//   - --config flag passed to the command
//
// When neither is present, built-in defaults apply. The config file
// never carries secrets: the LLM API key and the service auth secret
// come from the environment (see [LoadSecrets]), so a config file can
// be committed without leaking credentials.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the service configuration.
type Config struct {
	// Server configures the HTTP listener.
	Server ServerConfig `yaml:"server"`

	// Logging configures the log pipeline.
	Logging LoggingConfig `yaml:"logging"`

	// Checkpoint configures conversation persistence.
	Checkpoint CheckpointConfig `yaml:"checkpoint"`

	// LLM configures the model provider.
	LLM LLMConfig `yaml:"llm"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	// Host is the listen address. Default: 0.0.0.0
	Host string `yaml:"host"`

	// Port is the listen port. Default: 8081
	Port int `yaml:"port"`
}

// LoggingConfig configures the log pipeline.
type LoggingConfig struct {
	// Level is the initial severity threshold. Default: INFO
	Level string `yaml:"level"`

	// DBPath is the SQLite log database path. Default: logs/logs.db
	DBPath string `yaml:"db_path"`

	// QueueSize is the ingestion queue capacity. Default: 1000
	QueueSize int `yaml:"queue_size"`

	// RetentionDays enables periodic deletion of log records older
	// than this many days. Zero disables retention. Default: 0
	RetentionDays int `yaml:"retention_days"`
}

// CheckpointConfig configures conversation persistence.
type CheckpointConfig struct {
	// DBPath is the SQLite checkpoint database path.
	// Default: checkpoints.db
	DBPath string `yaml:"db_path"`
}

// LLMConfig configures the model provider.
type LLMConfig struct {
	// DefaultModel is used when a request does not name a model.
	// Default: gpt-4o-mini
	DefaultModel string `yaml:"default_model"`

	// BaseURL overrides the provider API root. Empty uses the
	// provider default. Point this at any server speaking the OpenAI
	// chat completions wire format.
	BaseURL string `yaml:"base_url"`
}

// Default returns the built-in configuration. The service runs with
// these when no config file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8081,
		},
		Logging: LoggingConfig{
			Level:         "INFO",
			DBPath:        "logs/logs.db",
			QueueSize:     1000,
			RetentionDays: 0,
		},
		Checkpoint: CheckpointConfig{
			DBPath: "checkpoints.db",
		},
		LLM: LLMConfig{
			DefaultModel: "gpt-4o-mini",
		},
	}
}

// Load loads configuration from the OPINE_CONFIG environment variable.
// Fails if OPINE_CONFIG is not set; callers that accept a --config
// flag or run on defaults handle those cases themselves.
func Load() (*Config, error) {
	configPath := os.Getenv("OPINE_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("config: OPINE_CONFIG environment variable not set; " +
			"set it to the path of your config file, or use --config flag")
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path, merging the
// file's values over the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks structural validity. Domain-level checks (model
// support, log level names) happen where the values are consumed.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}
	if c.Logging.DBPath == "" {
		return fmt.Errorf("config: logging.db_path is empty")
	}
	if c.Checkpoint.DBPath == "" {
		return fmt.Errorf("config: checkpoint.db_path is empty")
	}
	if c.LLM.DefaultModel == "" {
		return fmt.Errorf("config: llm.default_model is empty")
	}
	return nil
}

// ListenAddress returns the host:port the server binds to.
func (c *Config) ListenAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Secrets holds credentials sourced from the environment.
type Secrets struct {
	// OpenAIAPIKey authenticates to the model provider. Required.
	OpenAIAPIKey string

	// AuthSecret is the bearer token clients must present. Empty
	// disables request authentication.
	AuthSecret string
}

// LoadSecrets reads credentials from the environment. The provider
// key is required: a service that cannot call any model has nothing
// to serve.
func LoadSecrets() (Secrets, error) {
	secrets := Secrets{
		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		AuthSecret:   os.Getenv("OPINE_AUTH_SECRET"),
	}
	if secrets.OpenAIAPIKey == "" {
		return Secrets{}, fmt.Errorf("config: OPENAI_API_KEY environment variable not set")
	}
	return secrets, nil
}
