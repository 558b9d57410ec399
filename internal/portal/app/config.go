package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	IdPIssuer    string // Required in prod: expected issuer claim on bearer tokens
	IdPJWKSURL   string // JWKS endpoint of the IdP (RS256 verification)
	IdPAudience  string // Optional: expected audience claim
	DevSecret    string // Optional: HS256 shared secret for local development
	DatabaseFile string // Optional: path to SQLite database file (default: ./portal.db)

	// UndoAdjustsAggregate makes approved undos decrement the meeting's
	// checked-in counter. Off by default: the counter historically only
	// ever goes up during the meeting.
	UndoAdjustsAggregate bool

	JWKSRefreshInterval time.Duration // JWKS re-fetch cadence (default: 15m)
	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	cfg := Config{
		IdPIssuer:            os.Getenv("PORTAL_IDP_ISSUER"),
		IdPJWKSURL:           os.Getenv("PORTAL_IDP_JWKS_URL"),
		IdPAudience:          os.Getenv("PORTAL_IDP_AUDIENCE"),
		DevSecret:            os.Getenv("PORTAL_DEV_SECRET"),
		DatabaseFile:         getEnvOrDefault("PORTAL_DATABASE_FILE", "portal.db"),
		UndoAdjustsAggregate: getEnvBoolOrDefault("PORTAL_UNDO_ADJUSTS_AGGREGATE", false),
		JWKSRefreshInterval:  getEnvDurationOrDefault("PORTAL_JWKS_REFRESH_INTERVAL", 15*time.Minute),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
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

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if boolValue, err := strconv.ParseBool(value); err == nil {
		return boolValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
