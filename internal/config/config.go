// Package config loads configuration for the content server and for the
// browser test harness. Server settings come from CLI flags and environment
// variables; harness settings come from E2E_* environment variables only.
package config

import (
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kuitang/content-e2e/internal/ratelimit"
)

const (
	// DefaultAdminID is the bootstrap administrator account.
	DefaultAdminID = "admin"

	// MaxBrowserWaitTimeout bounds every visibility wait in the browser suite.
	MaxBrowserWaitTimeout = 5 * time.Second
)

// Config holds the content server configuration.
type Config struct {
	// Server settings
	ListenAddr string
	BaseURL    string
	LogLevel   string

	// Database
	DatabasePath string // file path, or ":memory:" in test mode
	DatabaseKey  string // 64 hex characters, SQLCipher raw key

	// Accounts and sessions
	AdminPassword   string
	SessionDuration time.Duration

	// Rate limiting for the REST surface
	RateLimitConfig ratelimit.Config

	// TestMode uses an in-memory database and a generated key (--test).
	TestMode bool
}

// ValidationError represents a configuration validation error with multiple issues.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("configuration validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// ParseFlags registers and parses --test and --addr.
func ParseFlags() (testMode bool, addr string) {
	flag.BoolVar(&testMode, "test", false, "Use an in-memory database with a throwaway key")
	flag.StringVar(&addr, "addr", "", "Listen address (default :8080, overrides LISTEN_ADDR env var)")
	flag.Parse()
	return testMode, addr
}

// LoadConfig loads configuration from environment variables and CLI flag values.
func LoadConfig(testMode bool, addr string) (*Config, error) {
	cfg := &Config{TestMode: testMode}

	cfg.ListenAddr = getEnvOrDefault("LISTEN_ADDR", ":8080")
	if addr != "" {
		cfg.ListenAddr = addr
	}
	cfg.BaseURL = getEnvOrDefault("BASE_URL", "")
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost" + cfg.ListenAddr
	}
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")

	cfg.DatabasePath = getEnvOrDefault("DATABASE_PATH", "./data/content.db")
	cfg.DatabaseKey = getEnvOrDefault("DATABASE_KEY", "")
	if testMode {
		cfg.DatabasePath = ":memory:"
		if cfg.DatabaseKey == "" {
			cfg.DatabaseKey = strings.Repeat("0", 64)
		}
	}

	cfg.AdminPassword = getEnvOrDefault("ADMIN_PASSWORD", "")
	if testMode && cfg.AdminPassword == "" {
		cfg.AdminPassword = DefaultAdminID
	}
	cfg.SessionDuration = parseDurationOrDefault("SESSION_DURATION", 24*time.Hour)

	cfg.RateLimitConfig = ratelimit.Config{
		RPS:             parseFloat64OrDefault("RATE_LIMIT_RPS", ratelimit.DefaultConfig.RPS),
		Burst:           parseIntOrDefault("RATE_LIMIT_BURST", ratelimit.DefaultConfig.Burst),
		CleanupInterval: parseDurationOrDefault("RATE_LIMIT_CLEANUP_INTERVAL", time.Hour),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that all required configuration is present and valid.
func (c *Config) Validate() error {
	var errs []string

	if c.DatabasePath == "" {
		errs = append(errs, "DATABASE_PATH is required")
	}
	if c.DatabaseKey == "" {
		errs = append(errs, "DATABASE_KEY is required (generate with: openssl rand -hex 32)")
	} else if len(c.DatabaseKey) != 64 {
		errs = append(errs, "DATABASE_KEY must be 64 hex characters (32 bytes)")
	} else if _, err := hex.DecodeString(c.DatabaseKey); err != nil {
		errs = append(errs, "DATABASE_KEY must be hex encoded")
	}

	if c.AdminPassword == "" {
		errs = append(errs, "ADMIN_PASSWORD is required (or use --test)")
	}
	if c.SessionDuration <= 0 {
		errs = append(errs, "SESSION_DURATION must be positive")
	}

	if c.RateLimitConfig.RPS <= 0 {
		errs = append(errs, "RATE_LIMIT_RPS must be positive")
	}
	if c.RateLimitConfig.Burst <= 0 {
		errs = append(errs, "RATE_LIMIT_BURST must be positive")
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// RequireSecureCookies returns false for localhost development URLs.
func (c *Config) RequireSecureCookies() bool {
	return !strings.HasPrefix(c.BaseURL, "http://localhost") &&
		!strings.HasPrefix(c.BaseURL, "http://127.0.0.1")
}

// PrintStartupSummary prints a human-readable summary of the configuration to stderr.
func (c *Config) PrintStartupSummary() {
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "content server starting...")
	if c.TestMode {
		fmt.Fprintln(os.Stderr, "  Store:   in-memory (--test)")
	} else {
		fmt.Fprintf(os.Stderr, "  Store:   %s (SQLCipher)\n", c.DatabasePath)
	}
	fmt.Fprintf(os.Stderr, "  Limits:  %.0f rps, burst %d\n", c.RateLimitConfig.RPS, c.RateLimitConfig.Burst)
	fmt.Fprintf(os.Stderr, "  Listen:  %s\n", c.ListenAddr)
	fmt.Fprintf(os.Stderr, "  Base:    %s\n", c.BaseURL)
	fmt.Fprintln(os.Stderr, "")
}

// MustLoadConfig loads configuration and panics if validation fails.
func MustLoadConfig(testMode bool, addr string) *Config {
	cfg, err := LoadConfig(testMode, addr)
	if err != nil {
		var validationErr *ValidationError
		if errors.As(err, &validationErr) {
			panic(fmt.Sprintf("Configuration validation failed:\n  - %s", strings.Join(validationErr.Errors, "\n  - ")))
		}
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}
	return cfg
}

// Helper functions for parsing environment variables

func getEnvOrDefault(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

func parseIntOrDefault(key string, defaultValue int) int {
	value := getEnvOrDefault(key, "")
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseFloat64OrDefault(key string, defaultValue float64) float64 {
	value := getEnvOrDefault(key, "")
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := getEnvOrDefault(key, "")
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	value := getEnvOrDefault(key, "")
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
