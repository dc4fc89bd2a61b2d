package app

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{
		"API_BASE_URL", "TOKEN_STORE", "STATE_FILE", "LISTEN_HOST", "PORT", "HTTP_TIMEOUT",
		"API_RATE_LIMIT", "API_RATE_BURST", "ENV", "LOG_LEVEL", "LOG_FORMAT", "SHUTDOWN_GRACE_PERIOD",
	} {
		t.Setenv(key, "")
	}

	cfg := LoadConfig()
	require.Equal(t, "http://localhost:8000/api", cfg.APIBaseURL)
	require.Equal(t, StoreSQLite, cfg.TokenStore)
	require.Equal(t, "dimbox.db", cfg.StateFile)
	require.Equal(t, "127.0.0.1:5173", cfg.Addr())
	require.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	require.Zero(t, cfg.APIRateLimit)
	require.Equal(t, 5, cfg.APIRateBurst)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://finance.example.com/api/")
	t.Setenv("TOKEN_STORE", "MEMORY")
	t.Setenv("PORT", "9000")
	t.Setenv("HTTP_TIMEOUT", "30")
	t.Setenv("API_RATE_LIMIT", "2.5")
	t.Setenv("SHUTDOWN_GRACE_PERIOD", "1m")
	t.Setenv("LISTEN_HOST", "0.0.0.0")

	cfg := LoadConfig()
	require.Equal(t, StoreMemory, cfg.TokenStore)
	require.Equal(t, "0.0.0.0:9000", cfg.Addr())
	require.Equal(t, 30*time.Second, cfg.HTTPTimeout, "bare integers are seconds")
	require.Equal(t, 2.5, cfg.APIRateLimit)
	require.Equal(t, time.Minute, cfg.ShutdownGracePeriod)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigIgnoresGarbage(t *testing.T) {
	t.Setenv("PORT", "eighty")
	t.Setenv("HTTP_TIMEOUT", "soon")
	t.Setenv("API_RATE_LIMIT", "fast")

	cfg := LoadConfig()
	require.Equal(t, 5173, cfg.Port)
	require.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	require.Zero(t, cfg.APIRateLimit)
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	t.Parallel()

	cfg := Config{
		APIBaseURL:   "localhost:8000",
		TokenStore:   "redis",
		Port:         70000,
		HTTPTimeout:  0,
		APIRateLimit: 1,
		APIRateBurst: 0,
	}
	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"API_BASE_URL", "TOKEN_STORE", "PORT", "HTTP_TIMEOUT", "API_RATE_BURST"} {
		require.Contains(t, err.Error(), want)
	}
}

func TestValidateStateFileDirectory(t *testing.T) {
	t.Parallel()

	cfg := Config{
		APIBaseURL:  "http://localhost:8000/api",
		TokenStore:  StoreSQLite,
		StateFile:   filepath.Join(t.TempDir(), "missing", "dimbox.db"),
		Port:        5173,
		HTTPTimeout: time.Second,
	}
	require.ErrorContains(t, cfg.Validate(), "STATE_FILE directory")

	cfg.StateFile = ""
	require.ErrorContains(t, cfg.Validate(), "STATE_FILE cannot be empty")
}
