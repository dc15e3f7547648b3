// config/config.go - Environment-driven configuration
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Capacity modes for the claim protocol
const (
	CapacitySoft   = "soft"
	CapacityStrict = "strict"
)

// Store drivers
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Port        string
	AppEnv      string
	CORSOrigins string

	DatabaseURL string
	StoreDriver string

	JWTSecret string
	TokenTTL  time.Duration

	CapacityMode     string
	ClaimTimeout     time.Duration
	DefaultTeamLimit int

	AdminEmail    string
	AdminPassword string

	RateLimitEnabled    bool
	RateLimitMax        int
	RateLimitWindow     time.Duration
	AuthRateLimitMax    int
	AuthRateLimitWindow time.Duration
	TeamCacheTTL        time.Duration
}

// Load reads the configuration from the environment. Call godotenv.Load first
// if a .env file should be honoured.
func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "3000"),
		AppEnv:      getEnv("APP_ENV", "development"),
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:5173"),

		DatabaseURL: databaseURL(),
		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", DriverPostgres)),

		JWTSecret: os.Getenv("JWT_SECRET"),
		TokenTTL:  getEnvDuration("TOKEN_TTL", 24*time.Hour),

		CapacityMode:     strings.ToLower(getEnv("CLAIM_CAPACITY_MODE", CapacitySoft)),
		ClaimTimeout:     getEnvDuration("CLAIM_TIMEOUT", 5*time.Second),
		DefaultTeamLimit: getEnvInt("DEFAULT_TEAM_LIMIT", 3),

		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),

		RateLimitEnabled:    getEnvBool("RATE_LIMIT_ENABLED", true),
		RateLimitMax:        getEnvInt("RATE_LIMIT_MAX_REQUESTS", 300),
		RateLimitWindow:     getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		AuthRateLimitMax:    getEnvInt("AUTH_RATE_LIMIT_MAX", 10),
		AuthRateLimitWindow: getEnvDuration("AUTH_RATE_LIMIT_WINDOW", 5*time.Minute),
		TeamCacheTTL:        getEnvDuration("TEAM_CACHE_TTL", 30*time.Second),
	}
}

// Validate checks the settings the server cannot run without.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set (generate one with: openssl rand -base64 64)")
	}
	if len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 characters long")
	}
	switch c.CapacityMode {
	case CapacitySoft, CapacityStrict:
	default:
		return fmt.Errorf("unknown CLAIM_CAPACITY_MODE %q (want %q or %q)", c.CapacityMode, CapacitySoft, CapacityStrict)
	}
	switch c.StoreDriver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.DefaultTeamLimit < 1 {
		return errors.New("DEFAULT_TEAM_LIMIT must be a positive integer")
	}
	if c.ClaimTimeout <= 0 {
		return errors.New("CLAIM_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// StrictCapacity reports whether claims use the store's atomic count-and-insert.
func (c *Config) StrictCapacity() bool {
	return c.CapacityMode == CapacityStrict
}

func databaseURL() string {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}
	// Fallback to individual parameters
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_PORT", "5432"),
		getEnv("DB_USER", "postgres"),
		getEnv("DB_PASSWORD", ""),
		getEnv("DB_NAME", "hackportal"),
		getEnv("DB_SSLMODE", "disable"),
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	val := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch val {
	case "":
		return def
	case "false", "0", "no":
		return false
	default:
		return true
	}
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return def
}
