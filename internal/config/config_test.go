package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// baseEnv sets the minimum environment for a valid configuration.
func baseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://user:pw@host:5432/memori")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("HOME", t.TempDir())
}

func TestLoadDefaults(t *testing.T) {
	baseEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8002, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "https://api.openai.com", cfg.OpenAI.BaseURL)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.Equal(t, 60*time.Second, cfg.OpenAI.Timeout)
	assert.Equal(t, 3, cfg.OpenAI.MaxRetries)
	assert.Equal(t, 3, cfg.Engine.MaxRetries)
	assert.True(t, cfg.Engine.ConsciousIngest)
	assert.True(t, cfg.Engine.AutoIngest)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "memorid", cfg.Observability.ServiceName)
}

func TestLoadEnvOverrides(t *testing.T) {
	baseEnv(t)
	t.Setenv("SERVER_PORT", "9100")
	t.Setenv("SERVER_SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("OPENAI_MODEL", "gpt-4o")
	t.Setenv("ENGINE_BASE_URL", "http://engine:7070")
	t.Setenv("LOG_FORMAT", "console")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.Model)
	assert.Equal(t, "http://engine:7070", cfg.Engine.BaseURL)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoadIngestFlags(t *testing.T) {
	t.Run("default to enabled", func(t *testing.T) {
		baseEnv(t)

		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.Engine.ConsciousIngest)
		assert.True(t, cfg.Engine.AutoIngest)
	})

	t.Run("explicit false disables", func(t *testing.T) {
		baseEnv(t)
		t.Setenv("ENGINE_CONSCIOUS_INGEST", "false")
		t.Setenv("ENGINE_AUTO_INGEST", "false")

		cfg, err := Load()
		require.NoError(t, err)
		assert.False(t, cfg.Engine.ConsciousIngest)
		assert.False(t, cfg.Engine.AutoIngest)
	})
}

func TestLoadRetryBudgets(t *testing.T) {
	t.Run("explicit zero is kept", func(t *testing.T) {
		baseEnv(t)
		t.Setenv("OPENAI_MAX_RETRIES", "0")
		t.Setenv("ENGINE_MAX_RETRIES", "0")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 0, cfg.OpenAI.MaxRetries)
		assert.Equal(t, 0, cfg.Engine.MaxRetries)
	})

	t.Run("override applies per client", func(t *testing.T) {
		baseEnv(t)
		t.Setenv("ENGINE_MAX_RETRIES", "5")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 5, cfg.Engine.MaxRetries)
		assert.Equal(t, 3, cfg.OpenAI.MaxRetries)
	})
}

func TestLoadCompatDatabaseEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("HOME", t.TempDir())
	t.Setenv("DATABASE_URL", "")
	t.Setenv("MEMORI_DATABASE__CONNECTION_STRING", "postgres://u:p@legacy:5432/db")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@legacy:5432/db", cfg.Database.URL)
}

func TestLoadFailsFast(t *testing.T) {
	t.Run("missing database url", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())
		t.Setenv("DATABASE_URL", "")
		t.Setenv("MEMORI_DATABASE__CONNECTION_STRING", "")
		t.Setenv("OPENAI_API_KEY", "sk-test")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database url is required")
	})

	t.Run("missing api key", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())
		t.Setenv("DATABASE_URL", "postgres://u:p@h:5432/db")
		t.Setenv("OPENAI_API_KEY", "")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "openai api key is required")
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{
			Database: DatabaseConfig{URL: "postgres://u:p@h:5432/db"},
			OpenAI:   OpenAIConfig{APIKey: "sk-test"},
		}
		applyDefaults(cfg)
		return cfg
	}

	t.Run("valid config passes", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("rejects bad port", func(t *testing.T) {
		cfg := valid()
		cfg.Server.Port = 70000
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects zero shutdown timeout", func(t *testing.T) {
		cfg := valid()
		cfg.Server.ShutdownTimeout = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects unknown log format", func(t *testing.T) {
		cfg := valid()
		cfg.Log.Format = "logfmt"
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects negative retries", func(t *testing.T) {
		cfg := valid()
		cfg.OpenAI.MaxRetries = -1
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects negative engine retries", func(t *testing.T) {
		cfg := valid()
		cfg.Engine.MaxRetries = -1
		assert.Error(t, cfg.Validate())
	})
}

func TestValidateConfigPath(t *testing.T) {
	t.Run("rejects path outside allowed dirs", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())
		err := validateConfigPath("/tmp/evil.yaml")
		assert.Error(t, err)
	})
}
