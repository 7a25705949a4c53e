// Package config provides configuration loading for memorid.
//
// Configuration is loaded from an optional YAML file, overridden by
// environment variables, with hardcoded defaults filling the gaps. The
// database connection string and the OpenAI API key are validated eagerly so
// a misconfigured process refuses to start instead of failing on first use.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds the complete memorid configuration.
type Config struct {
	Server        ServerConfig        `koanf:"server"`
	Database      DatabaseConfig      `koanf:"database"`
	OpenAI        OpenAIConfig        `koanf:"openai"`
	Engine        EngineConfig        `koanf:"engine"`
	Log           LogConfig           `koanf:"log"`
	Observability ObservabilityConfig `koanf:"observability"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig holds the memory-engine database connection string.
// The string is passed through to the engine; memorid never opens it itself.
type DatabaseConfig struct {
	URL string `koanf:"url"`
}

// OpenAIConfig holds the LLM client configuration.
type OpenAIConfig struct {
	APIKey     string        `koanf:"api_key"`
	BaseURL    string        `koanf:"base_url"`
	Model      string        `koanf:"model"`
	Timeout    time.Duration `koanf:"timeout"`
	MaxRetries int           `koanf:"max_retries"`
}

// EngineConfig holds the external memory-engine configuration. The
// ingestion flags default to enabled; see LoadWithFile.
type EngineConfig struct {
	BaseURL         string        `koanf:"base_url"`
	Timeout         time.Duration `koanf:"timeout"`
	MaxRetries      int           `koanf:"max_retries"`
	ConsciousIngest bool          `koanf:"conscious_ingest"`
	AutoIngest      bool          `koanf:"auto_ingest"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// ObservabilityConfig holds metrics configuration.
type ObservabilityConfig struct {
	EnableMetrics bool   `koanf:"enable_metrics"`
	ServiceName   string `koanf:"service_name"`
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8002
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	if cfg.OpenAI.BaseURL == "" {
		cfg.OpenAI.BaseURL = "https://api.openai.com"
	}
	if cfg.OpenAI.Model == "" {
		cfg.OpenAI.Model = "gpt-4o-mini"
	}
	if cfg.OpenAI.Timeout == 0 {
		cfg.OpenAI.Timeout = 60 * time.Second
	}

	if cfg.Engine.BaseURL == "" {
		cfg.Engine.BaseURL = "http://localhost:7070"
	}
	if cfg.Engine.Timeout == 0 {
		cfg.Engine.Timeout = 30 * time.Second
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}

	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = "memorid"
	}
}

// Validate validates the configuration.
//
// The database URL and OpenAI API key are hard requirements checked at
// startup rather than on the first chat call.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}

	if c.Database.URL == "" {
		return errors.New("database url is required (set DATABASE_URL)")
	}
	if c.OpenAI.APIKey == "" {
		return errors.New("openai api key is required (set OPENAI_API_KEY)")
	}
	if c.OpenAI.Timeout <= 0 {
		return errors.New("openai timeout must be positive")
	}
	if c.OpenAI.MaxRetries < 0 {
		return fmt.Errorf("openai max_retries must be >= 0, got %d", c.OpenAI.MaxRetries)
	}

	if c.Engine.BaseURL == "" {
		return errors.New("engine base url is required")
	}
	if c.Engine.Timeout <= 0 {
		return errors.New("engine timeout must be positive")
	}
	if c.Engine.MaxRetries < 0 {
		return fmt.Errorf("engine max_retries must be >= 0, got %d", c.Engine.MaxRetries)
	}

	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log format must be 'json' or 'console', got %q", c.Log.Format)
	}

	if c.Observability.EnableMetrics && c.Observability.ServiceName == "" {
		return errors.New("service name required when metrics are enabled")
	}

	return nil
}
