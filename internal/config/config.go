// Package config provides application configuration with multi-source
// priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.taskpilot/config.yaml or ./config.yaml)
//  3. Default values
//
// Sensitive values (the JWT secret, the database password) are never
// logged. Validation is fail-fast at load time with sentinel errors so
// callers can match with errors.Is().
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Sentinel errors for configuration validation.
var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingJWTSecret indicates the JWT signing secret is not set.
	ErrMissingJWTSecret = errors.New("missing JWT secret")

	// ErrWeakJWTSecret indicates the JWT signing secret is too short.
	ErrWeakJWTSecret = errors.New("JWT secret too short")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is invalid.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is invalid.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidPostgresSSLMode indicates the PostgreSQL SSL mode is invalid.
	ErrInvalidPostgresSSLMode = errors.New("invalid PostgreSQL SSL mode")

	// ErrInvalidHistoryLimit indicates the history window is out of range.
	ErrInvalidHistoryLimit = errors.New("invalid history limit")

	// ErrInvalidToolTimeout indicates the tool call timeout is out of range.
	ErrInvalidToolTimeout = errors.New("invalid tool timeout")
)

const (
	// MinJWTSecretLen is the minimum accepted length of the JWT signing
	// secret in bytes.
	MinJWTSecretLen = 32

	// DefaultHistoryLimit is the default number of messages loaded as
	// conversation context.
	DefaultHistoryLimit = 50

	// MaxHistoryLimit is the absolute maximum history window to prevent
	// unbounded memory use.
	MaxHistoryLimit = 1000

	// DefaultToolTimeout bounds a single tool dispatch.
	DefaultToolTimeout = 10 * time.Second
)

// Config stores application configuration.
type Config struct {
	// HTTP server
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`

	// Storage (see storage.go for DSN/URL helpers)
	PostgresHost     string `mapstructure:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password"` // SENSITIVE: never logged
	PostgresDBName   string `mapstructure:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode"`

	// Auth
	JWTSecret string        `mapstructure:"jwt_secret"` // SENSITIVE: never logged
	TokenTTL  time.Duration `mapstructure:"token_ttl"`

	// Assistant
	HistoryLimit int           `mapstructure:"history_limit"` // messages loaded as context
	ToolTimeout  time.Duration `mapstructure:"tool_timeout"`  // bound on a single tool dispatch

	// HTTP hardening
	CORSOrigins []string `mapstructure:"cors_origins"`
	TrustProxy  bool     `mapstructure:"trust_proxy"` // trust X-Real-IP/X-Forwarded-For
	RateBurst   int      `mapstructure:"rate_burst"`  // per-IP token bucket burst (0 = default)

	// Logging
	LogLevel string `mapstructure:"log_level"` // debug|info|warn|error
	LogJSON  bool   `mapstructure:"log_json"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".taskpilot")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	setDefaults(v)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is not an error: defaults apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// DATABASE_URL overrides individual postgres_* settings.
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 8080)

	// PostgreSQL defaults (matching docker-compose.yml)
	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_user", "taskpilot")
	v.SetDefault("postgres_password", "taskpilot_dev_password")
	v.SetDefault("postgres_db_name", "taskpilot")
	v.SetDefault("postgres_ssl_mode", "disable")

	v.SetDefault("token_ttl", 24*time.Hour)

	v.SetDefault("history_limit", DefaultHistoryLimit)
	v.SetDefault("tool_timeout", DefaultToolTimeout)

	v.SetDefault("cors_origins", []string{"http://localhost:5173"})
	v.SetDefault("trust_proxy", false)
	v.SetDefault("rate_burst", 0)

	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)
}

// bindEnvVariables binds environment variables explicitly.
func bindEnvVariables(v *viper.Viper) {
	// Hardcoded keys cannot fail to bind; a panic here is a bug.
	mustBind := func(key, envVar string) {
		if err := v.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("jwt_secret", "JWT_SECRET")
	mustBind("cors_origins", "TASKPILOT_CORS_ORIGINS")
	mustBind("trust_proxy", "TASKPILOT_TRUST_PROXY")
	mustBind("rate_burst", "TASKPILOT_RATE_BURST")
	mustBind("port", "PORT")
	mustBind("log_level", "TASKPILOT_LOG_LEVEL")
	mustBind("log_json", "TASKPILOT_LOG_JSON")
	// NOTE: DATABASE_URL is parsed separately in parseDatabaseURL().
}

// LogLevelSlog converts the configured log level to a slog.Level.
// Unknown values fall back to info.
func (c *Config) LogLevelSlog() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Addr returns the host:port listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
