// Package config loads client configuration from environment variables.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config is the runtime configuration for the Talent Verify client.
type Config struct {
	// APIBaseURL is the backend root, including the /api prefix.
	APIBaseURL string

	// HTTPTimeout bounds every request, refresh exchanges included.
	HTTPTimeout time.Duration

	// TokenFile is where the file-backed token store persists the pair.
	TokenFile string

	// RedisAddr, when set, switches the token store to Redis so replicas
	// sharing a service identity also share refreshed tokens.
	RedisAddr string

	// RedisPrefix namespaces the token keys in Redis.
	RedisPrefix string

	// RefreshBuffer is how far ahead of expiry the proactive refresh
	// timer fires.
	RefreshBuffer time.Duration

	LogLevel string
}

// Load reads configuration from the environment with defaults.
func Load() Config {
	return Config{
		APIBaseURL:    getenv("TALENTVERIFY_API_URL", "http://localhost:8000/api"),
		HTTPTimeout:   getenvDuration("TALENTVERIFY_HTTP_TIMEOUT", 30*time.Second),
		TokenFile:     getenv("TALENTVERIFY_TOKEN_FILE", defaultTokenFile()),
		RedisAddr:     getenv("TALENTVERIFY_REDIS_ADDR", ""),
		RedisPrefix:   getenv("TALENTVERIFY_REDIS_PREFIX", "talentverify"),
		RefreshBuffer: getenvDuration("TALENTVERIFY_REFRESH_BUFFER", 5*time.Minute),
		LogLevel:      getenv("TALENTVERIFY_LOG_LEVEL", "error"),
	}
}

// StubConfig is the runtime configuration for the local stub backend.
type StubConfig struct {
	Addr       string
	Secret     string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	LogLevel   string
}

// LoadStub reads stub backend configuration from the environment.
func LoadStub() StubConfig {
	return StubConfig{
		Addr:       getenv("TALENTVERIFY_STUB_ADDR", ":8000"),
		Secret:     getenv("TALENTVERIFY_STUB_SECRET", "stub-secret"),
		Issuer:     getenv("TALENTVERIFY_STUB_ISSUER", "talentverify-stub"),
		AccessTTL:  getenvDuration("TALENTVERIFY_STUB_ACCESS_TTL", 30*time.Minute),
		RefreshTTL: getenvDuration("TALENTVERIFY_STUB_REFRESH_TTL", 7*24*time.Hour),
		LogLevel:   getenv("TALENTVERIFY_LOG_LEVEL", "info"),
	}
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".talentverify/tokens.json"
	}
	return filepath.Join(home, ".talentverify", "tokens.json")
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	if val := os.Getenv(key + "_SECONDS"); val != "" {
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}
