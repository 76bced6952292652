package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds all configuration for the approved premises web application
type Config struct {
	Server   ServerConfig
	API      APIConfig
	Session  SessionConfig
	Redis    RedisConfig
	Database DatabaseConfig
	Journeys JourneysConfig
	Cleanup  CleanupConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `validate:"required"`
	Port         int           `validate:"min=1,max=65535"`
	BaseURL      string        `validate:"omitempty,url"`
	ReadTimeout  time.Duration `validate:"gt=0"`
	WriteTimeout time.Duration `validate:"gt=0"`
}

// APIConfig holds the upstream Approved Premises API configuration
type APIConfig struct {
	BaseURL   string        `validate:"required,url"`
	Timeout   time.Duration `validate:"gt=0"`
	RateLimit float64       `validate:"gte=0"`
	Burst     int           `validate:"gte=0"`
}

// SessionConfig holds session storage configuration
type SessionConfig struct {
	Store      string        `validate:"oneof=redis badger"`
	TTL        time.Duration `validate:"gt=0"`
	CookieName string        `validate:"required"`
	Secure     bool
	BadgerPath string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Address  string
	Password string
	DB       int `validate:"gte=0"`
}

// DatabaseConfig holds PostgreSQL configuration for the audit trail.
// An empty DSN disables auditing.
type DatabaseConfig struct {
	DSN           string
	MaxOpenConns  int `validate:"gte=0"`
	MaxIdleConns  int `validate:"gte=0"`
	MigrationsDir string
}

// JourneysConfig holds form journey definition configuration
type JourneysConfig struct {
	Dir   string
	Watch bool
}

// CleanupConfig holds cleanup worker configuration
type CleanupConfig struct {
	Interval       time.Duration `validate:"gt=0"`
	AuditRetention time.Duration `validate:"gt=0"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `validate:"oneof=debug info warn error"`
}

var validate = validator.New()

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnvAsInt("SERVER_PORT", 3000),
			BaseURL:      getEnv("SERVER_BASE_URL", ""),
			ReadTimeout:  getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		},
		API: APIConfig{
			BaseURL:   getEnv("API_URL", "http://localhost:9092"),
			Timeout:   getEnvAsDuration("API_TIMEOUT", 20*time.Second),
			RateLimit: getEnvAsFloat("API_RATE_LIMIT", 0),
			Burst:     getEnvAsInt("API_RATE_BURST", 10),
		},
		Session: SessionConfig{
			Store:      strings.ToLower(getEnv("SESSION_STORE", "redis")),
			TTL:        getEnvAsDuration("SESSION_TTL", 2*time.Hour),
			CookieName: getEnv("SESSION_COOKIE_NAME", "approved-premises.session"),
			Secure:     getEnvAsBool("SESSION_SECURE", false),
			BadgerPath: getEnv("SESSION_BADGER_PATH", ""),
		},
		Redis: RedisConfig{
			Address:  getEnv("REDIS_ADDRESS", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Database: DatabaseConfig{
			DSN:           getEnv("DATABASE_DSN", ""),
			MaxOpenConns:  getEnvAsInt("DATABASE_MAX_OPEN_CONNS", 10),
			MaxIdleConns:  getEnvAsInt("DATABASE_MAX_IDLE_CONNS", 2),
			MigrationsDir: getEnv("DATABASE_MIGRATIONS_DIR", ""),
		},
		Journeys: JourneysConfig{
			Dir:   getEnv("JOURNEYS_DIR", ""),
			Watch: getEnvAsBool("JOURNEYS_WATCH", false),
		},
		Cleanup: CleanupConfig{
			Interval:       getEnvAsDuration("CLEANUP_INTERVAL", time.Hour),
			AuditRetention: getEnvAsDuration("AUDIT_RETENTION", 90*24*time.Hour),
		},
		Log: LogConfig{
			Level: strings.ToLower(getEnv("LOG_LEVEL", "info")),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	if c.Session.Store == "redis" && c.Redis.Address == "" {
		return fmt.Errorf("redis address is required when the session store is redis")
	}

	if c.Journeys.Watch && c.Journeys.Dir == "" {
		return fmt.Errorf("journeys dir is required when watching for changes")
	}

	return nil
}

// Addr returns the listen address for the HTTP server
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// SlogLevel maps the configured log level onto slog
func (c LogConfig) SlogLevel() slog.Level {
	switch c.Level {
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

// Helper functions

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
