// Package config loads the service's runtime configuration from
// environment variables, with an optional local .env file for
// development (mirrors how the rest of this codebase's ancestry loads
// config: no framework, just typed getenv helpers).
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every environment-derived setting the service reads.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Transfer TransferConfig
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds the Postgres DSN components and pool bounds.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	AcquireTimeout  time.Duration
}

// DSN renders the libpq-style connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// CacheConfig holds the Redis endpoint and backoff settings.
type CacheConfig struct {
	Addr          string
	Password      string
	DialTimeout   time.Duration
	RetryBackoff  time.Duration
}

// TransferConfig holds the coordinator's own tunables (spec §6).
type TransferConfig struct {
	IdempotencyTTL     time.Duration
	LeaseTTL           time.Duration
	MaxTransferAmount  string
	DefaultCurrency    string
}

// Load reads configuration from the environment, falling back to a
// local .env file if present (ignored silently if absent — this is a
// development convenience, not a requirement).
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Env:  getEnv("SERVER_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnvAsInt("DB_PORT", 5432),
			User:           getEnv("DB_USER", "postgres"),
			Password:       getEnv("DB_PASSWORD", "postgres"),
			Name:           getEnv("DB_NAME", "transfers"),
			SSLMode:        getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:   getEnvAsInt("DB_MAX_OPEN_CONNS", 20),
			MaxIdleConns:   getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			AcquireTimeout: getEnvAsDuration("DB_ACQUIRE_TIMEOUT_MS", 5*time.Second),
		},
		Cache: CacheConfig{
			Addr:         getEnv("REDIS_ADDR", "localhost:6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DialTimeout:  getEnvAsDuration("REDIS_DIAL_TIMEOUT_MS", 2*time.Second),
			RetryBackoff: getEnvAsDuration("REDIS_RETRY_BACKOFF_MS", 100*time.Millisecond),
		},
		Transfer: TransferConfig{
			IdempotencyTTL:    getEnvAsDurationSeconds("IDEMPOTENCY_TTL_SECONDS", 86400*time.Second),
			LeaseTTL:          getEnvAsDurationSeconds("LEASE_TTL_SECONDS", 30*time.Second),
			MaxTransferAmount: getEnv("MAX_TRANSFER_AMOUNT", "1000000000"),
			DefaultCurrency:   getEnv("DEFAULT_CURRENCY", "NGN"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvAsDuration parses a millisecond integer env var into a Duration.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if ms, err := strconv.Atoi(value); err == nil {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultValue
}

// getEnvAsDurationSeconds parses a whole-seconds integer env var.
func getEnvAsDurationSeconds(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if s, err := strconv.Atoi(value); err == nil {
			return time.Duration(s) * time.Second
		}
	}
	return defaultValue
}
