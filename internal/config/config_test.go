package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Port:               "8080",
		StorageBackend:     "sqlite",
		DBPath:             "test.db",
		LogLevel:           "info",
		JWTSecret:          "secret",
		JWTExpiry:          time.Hour,
		AMQPExchange:       "events",
		MaxMutationRetries: 3,
		AuthRateLimit:      "10-M",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		errorString string
	}{
		{
			name:   "valid sqlite config",
			mutate: func(c *Config) {},
		},
		{
			name:   "memory backend needs no path",
			mutate: func(c *Config) { c.StorageBackend = "memory"; c.DBPath = "" },
		},
		{
			name:        "non-numeric port",
			mutate:      func(c *Config) { c.Port = "abc" },
			errorString: `invalid port "abc": must be a number`,
		},
		{
			name:        "port out of range",
			mutate:      func(c *Config) { c.Port = "70000" },
			errorString: "invalid port 70000: must be between 1 and 65535",
		},
		{
			name:        "unknown backend",
			mutate:      func(c *Config) { c.StorageBackend = "postgres" },
			errorString: `invalid storage backend "postgres": must be sqlite or memory`,
		},
		{
			name:        "sqlite without path",
			mutate:      func(c *Config) { c.DBPath = "" },
			errorString: "DB_PATH is required for the sqlite backend",
		},
		{
			name:        "no retries",
			mutate:      func(c *Config) { c.MaxMutationRetries = 0 },
			errorString: "invalid MAX_MUTATION_RETRIES 0: must be at least 1",
		},
		{
			name:        "amqp without exchange",
			mutate:      func(c *Config) { c.AMQPURL = "amqp://localhost"; c.AMQPExchange = "" },
			errorString: "AMQP_EXCHANGE is required when AMQP_URL is set",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.errorString == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.errorString)
		})
	}
}

func TestLoad(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "8080", cfg.Port)
		assert.Equal(t, "sqlite", cfg.StorageBackend)
		assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
		assert.Equal(t, 3, cfg.MaxMutationRetries)
		assert.Equal(t, defaultJWTSecret, cfg.JWTSecret)
		assert.Empty(t, cfg.AMQPURL)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("PORT", "9090")
		t.Setenv("STORAGE_BACKEND", "Memory")
		t.Setenv("JWT_EXPIRY", "90m")
		t.Setenv("MAX_MUTATION_RETRIES", "5")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "9090", cfg.Port)
		assert.Equal(t, "memory", cfg.StorageBackend)
		assert.Equal(t, 90*time.Minute, cfg.JWTExpiry)
		assert.Equal(t, 5, cfg.MaxMutationRetries)
	})

	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("JWT_EXPIRY", "soon")

		_, err := Load()
		assert.ErrorContains(t, err, "invalid JWT_EXPIRY")
	})
}
