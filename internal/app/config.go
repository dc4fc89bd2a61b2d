package app

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

type Config struct {
	APIBaseURL          string        // Backend API root (default: http://localhost:8000/api)
	TokenStore          string        // Token store driver (sqlite, memory) (default: sqlite)
	StateFile           string        // Path to the SQLite state file (default: ./dimbox.db)
	ListenHost          string        // Interface the views are served on (default: 127.0.0.1)
	Port                int           // HTTP server port (default: 5173)
	HTTPTimeout         time.Duration // Timeout of each backend request (default: 10s)
	APIRateLimit        float64       // Outbound requests per second, 0 disables (default: 0)
	APIRateBurst        int           // Outbound burst (default: 5)
	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	return Config{
		APIBaseURL:          getEnvOrDefault("API_BASE_URL", "http://localhost:8000/api"),
		TokenStore:          strings.ToLower(getEnvOrDefault("TOKEN_STORE", StoreSQLite)),
		StateFile:           getEnvOrDefault("STATE_FILE", "dimbox.db"),
		ListenHost:          getEnvOrDefault("LISTEN_HOST", "127.0.0.1"),
		Port:                getEnvIntOrDefault("PORT", 5173),
		HTTPTimeout:         getEnvDurationOrDefault("HTTP_TIMEOUT", 10*time.Second),
		APIRateLimit:        getEnvFloatOrDefault("API_RATE_LIMIT", 0),
		APIRateBurst:        getEnvIntOrDefault("API_RATE_BURST", 5),
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var problems []string

	if u, err := url.Parse(c.APIBaseURL); err != nil {
		problems = append(problems, fmt.Sprintf("invalid API_BASE_URL %q: %v", c.APIBaseURL, err))
	} else if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		problems = append(problems, fmt.Sprintf("invalid API_BASE_URL %q: must be an absolute http(s) URL", c.APIBaseURL))
	}

	switch c.TokenStore {
	case StoreSQLite:
		if c.StateFile == "" {
			problems = append(problems, "STATE_FILE cannot be empty when TOKEN_STORE is sqlite")
		} else if dir := filepath.Dir(c.StateFile); dir != "." && dir != "" {
			if _, err := os.Stat(dir); err != nil {
				problems = append(problems, fmt.Sprintf("STATE_FILE directory %q: %v", dir, err))
			}
		}
	case StoreMemory:
	default:
		problems = append(problems, fmt.Sprintf("invalid TOKEN_STORE %q: must be %s or %s", c.TokenStore, StoreSQLite, StoreMemory))
	}

	if c.Port < 1 || c.Port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid PORT %d: must be between 1 and 65535", c.Port))
	}
	if c.HTTPTimeout <= 0 {
		problems = append(problems, "HTTP_TIMEOUT must be positive")
	}
	if c.APIRateLimit < 0 {
		problems = append(problems, "API_RATE_LIMIT cannot be negative")
	}
	if c.APIRateLimit > 0 && c.APIRateBurst < 1 {
		problems = append(problems, "API_RATE_BURST must be at least 1 when API_RATE_LIMIT is set")
	}

	if len(problems) > 0 {
		return errors.New("configuration validation failed:\n  - " + strings.Join(problems, "\n  - "))
	}
	return nil
}

// Addr is the listen address of the views.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.ListenHost, c.Port)
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

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "10s", "1m")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are seconds
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
