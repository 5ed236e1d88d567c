// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultJWTSecret = "dev-secret-change-in-production"

// Config holds application configuration.
type Config struct {
	Port           string
	StorageBackend string
	DBPath         string
	LogLevel       string

	JWTSecret string
	JWTExpiry time.Duration

	// AMQPURL enables event publishing when set.
	AMQPURL      string
	AMQPExchange string

	MaxMutationRetries int

	// AuthRateLimit is a ulule/limiter rate ("10-M" is ten per minute)
	// applied per client IP to the auth procedures.
	AuthRateLimit string
}

// Load reads configuration from a .env file if present, then from
// environment variables, which take precedence.
func Load() (*Config, error) {
	// Missing .env is fine
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("PORT", "8080")
	v.SetDefault("STORAGE_BACKEND", "sqlite")
	v.SetDefault("DB_PATH", "splitledger.db")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_EXPIRY", "24h")
	v.SetDefault("AMQP_URL", "")
	v.SetDefault("AMQP_EXCHANGE", "splitledger.events")
	v.SetDefault("MAX_MUTATION_RETRIES", 3)
	v.SetDefault("AUTH_RATE_LIMIT", "20-M")
	v.AutomaticEnv()

	expiry, err := time.ParseDuration(v.GetString("JWT_EXPIRY"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRY %q: %w", v.GetString("JWT_EXPIRY"), err)
	}

	cfg := &Config{
		Port:               v.GetString("PORT"),
		StorageBackend:     strings.ToLower(v.GetString("STORAGE_BACKEND")),
		DBPath:             v.GetString("DB_PATH"),
		LogLevel:           v.GetString("LOG_LEVEL"),
		JWTSecret:          v.GetString("JWT_SECRET"),
		JWTExpiry:          expiry,
		AMQPURL:            v.GetString("AMQP_URL"),
		AMQPExchange:       v.GetString("AMQP_EXCHANGE"),
		MaxMutationRetries: v.GetInt("MAX_MUTATION_RETRIES"),
		AuthRateLimit:      v.GetString("AUTH_RATE_LIMIT"),
	}

	if cfg.JWTSecret == "" {
		slog.Warn("JWT_SECRET not set, using development secret")
		cfg.JWTSecret = defaultJWTSecret
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil {
		return fmt.Errorf("invalid port %q: must be a number", c.Port)
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("invalid port %d: must be between 1 and 65535", port)
	}

	switch c.StorageBackend {
	case "sqlite":
		if c.DBPath == "" {
			return fmt.Errorf("DB_PATH is required for the sqlite backend")
		}
	case "memory":
	default:
		return fmt.Errorf("invalid storage backend %q: must be sqlite or memory", c.StorageBackend)
	}

	if c.JWTExpiry <= 0 {
		return fmt.Errorf("invalid JWT expiry %s: must be positive", c.JWTExpiry)
	}
	if c.MaxMutationRetries < 1 {
		return fmt.Errorf("invalid MAX_MUTATION_RETRIES %d: must be at least 1", c.MaxMutationRetries)
	}
	if c.AMQPURL != "" && c.AMQPExchange == "" {
		return fmt.Errorf("AMQP_EXCHANGE is required when AMQP_URL is set")
	}
	if c.AuthRateLimit == "" {
		return fmt.Errorf("AUTH_RATE_LIMIT is required")
	}
	return nil
}
