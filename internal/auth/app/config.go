package app

import (
	"os"
	"strconv"
	"time"

	"github.com/renderauth/renderauth/pkg/jwtx"
)

type Config struct {
	SigningKey string        // Required: HS256 signing key, at least 32 bytes
	Issuer     string        // Issuer claim for tokens (default: renderauth)
	Audience   string        // Audience claim for tokens (default: the issuer)
	AccessTTL  time.Duration // Access token lifetime (default: 1h)
	RefreshTTL time.Duration // Refresh token lifetime (default: 7d)

	DatabaseFile string // Path to SQLite database file (default: ./auth.db)
	RedisAddr    string // Optional: redis address for the durable tier
	RedisPrefix  string // Key prefix for the redis tier (default: ra)

	CookieSecure bool // Mark token/session cookies Secure (default: true outside dev)

	SeedEmail    string // Optional: create this user at startup if the store is empty
	SeedPassword string

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	cfg := Config{
		SigningKey:           os.Getenv("AUTH_SIGNING_KEY"),
		Issuer:               getEnvOrDefault("AUTH_ISSUER", "renderauth"),
		Audience:             os.Getenv("AUTH_AUDIENCE"),
		AccessTTL:            getEnvDurationOrDefault("AUTH_ACCESS_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTTL:           getEnvDurationOrDefault("AUTH_REFRESH_TTL", jwtx.DefaultRefreshTokenTTL),
		DatabaseFile:         getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),
		RedisAddr:            os.Getenv("AUTH_REDIS_ADDR"),
		RedisPrefix:          getEnvOrDefault("AUTH_REDIS_PREFIX", "ra"),
		SeedEmail:            os.Getenv("AUTH_SEED_EMAIL"),
		SeedPassword:         os.Getenv("AUTH_SEED_PASSWORD"),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	if cfg.Audience == "" {
		cfg.Audience = cfg.Issuer
	}

	// Cookies stay Secure unless we're clearly on a dev box over plain HTTP.
	cfg.CookieSecure = cfg.Env != "dev"
	if v := os.Getenv("AUTH_COOKIE_SECURE"); v != "" {
		if secure, err := strconv.ParseBool(v); err == nil {
			cfg.CookieSecure = secure
		}
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Duration syntax first ("1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are read as minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
