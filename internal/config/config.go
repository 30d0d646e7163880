// Package config loads tripchat settings from the environment.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration values.
type Config struct {
	// Backend
	APIURL        string
	APIToken      string
	UserID        *int64
	ClientTimeout time.Duration
	StreamTimeout time.Duration

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from environment variables. Malformed values fall
// back to their defaults.
func Load() Config {
	return Config{
		APIURL:        getEnv("TRIPCHAT_API_URL", "http://localhost:8000"),
		APIToken:      getEnv("TRIPCHAT_API_TOKEN", ""),
		UserID:        parseUserID(getEnv("TRIPCHAT_USER_ID", "")),
		ClientTimeout: getDuration("TRIPCHAT_CLIENT_TIMEOUT", 30*time.Second),
		StreamTimeout: getDuration("TRIPCHAT_STREAM_TIMEOUT", 5*time.Minute),

		LogFile:  getEnv("TRIPCHAT_LOG_FILE", "/tmp/tripchat.log"),
		LogLevel: parseLogLevel(getEnv("TRIPCHAT_LOG_LEVEL", "INFO")),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

// parseUserID returns nil for an empty, zero or non-numeric id.
func parseUserID(s string) *int64 {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return nil
	}
	return &id
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
