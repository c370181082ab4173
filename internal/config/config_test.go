package config

import (
	"strings"
	"testing"
	"time"

	"github.com/kuitang/content-e2e/internal/ratelimit"
	"pgregory.net/rapid"
)

func validTestConfig() Config {
	return Config{
		ListenAddr:      ":8080",
		BaseURL:         "http://localhost:8080",
		DatabasePath:    ":memory:",
		DatabaseKey:     strings.Repeat("a", 64),
		AdminPassword:   "admin",
		SessionDuration: time.Hour,
		RateLimitConfig: ratelimit.Config{
			RPS:             10,
			Burst:           20,
			CleanupInterval: time.Hour,
		},
	}
}

func TestValidate_MinimalConfigPasses(t *testing.T) {
	t.Parallel()
	cfg := validTestConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got error: %v", err)
	}
}

func TestValidate_CollectsAllIssues(t *testing.T) {
	t.Parallel()
	cfg := validTestConfig()
	cfg.DatabaseKey = ""
	cfg.AdminPassword = ""
	cfg.RateLimitConfig.RPS = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	for _, expected := range []string{"DATABASE_KEY", "ADMIN_PASSWORD", "RATE_LIMIT_RPS"} {
		if !strings.Contains(msg, expected) {
			t.Fatalf("expected validation error to mention %q, got: %v", expected, err)
		}
	}
}

func testValidate_RejectsInvalidKeyLengths(t *rapid.T) {
	cfg := validTestConfig()
	n := rapid.IntRange(1, 128).Filter(func(n int) bool { return n != 64 }).Draw(t, "key_len")
	cfg.DatabaseKey = strings.Repeat("a", n)

	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation error for %d-char key", n)
	}
	if !strings.Contains(err.Error(), "DATABASE_KEY") {
		t.Fatalf("expected key-length error, got: %v", err)
	}
}

func TestValidate_RejectsInvalidKeyLengths(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testValidate_RejectsInvalidKeyLengths)
}

func TestValidate_RejectsNonHexKey(t *testing.T) {
	t.Parallel()
	cfg := validTestConfig()
	cfg.DatabaseKey = strings.Repeat("z", 64)
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "hex") {
		t.Fatalf("expected hex error, got %v", err)
	}
}

func TestLoadConfig_TestModeDefaults(t *testing.T) {
	t.Setenv("DATABASE_KEY", "")
	t.Setenv("ADMIN_PASSWORD", "")
	t.Setenv("LISTEN_ADDR", "")

	cfg, err := LoadConfig(true, ":9999")
	if err != nil {
		t.Fatalf("LoadConfig(test) failed: %v", err)
	}
	if cfg.DatabasePath != ":memory:" {
		t.Fatalf("DatabasePath = %q, want :memory:", cfg.DatabasePath)
	}
	if cfg.ListenAddr != ":9999" || cfg.BaseURL != "http://localhost:9999" {
		t.Fatalf("addr override not applied: %q %q", cfg.ListenAddr, cfg.BaseURL)
	}
	if cfg.AdminPassword != DefaultAdminID {
		t.Fatalf("AdminPassword = %q", cfg.AdminPassword)
	}
	if cfg.RequireSecureCookies() {
		t.Fatal("localhost must not require secure cookies")
	}
}

func TestLoadConfig_ProductionRequiresSecrets(t *testing.T) {
	t.Setenv("DATABASE_KEY", "")
	t.Setenv("ADMIN_PASSWORD", "")

	if _, err := LoadConfig(false, ""); err == nil {
		t.Fatal("expected error without DATABASE_KEY and ADMIN_PASSWORD")
	}
}

func TestHelperParsers_DefaultOnBadInput(t *testing.T) {
	t.Setenv("CFG_TEST_INT", "not-an-int")
	t.Setenv("CFG_TEST_FLOAT", "not-a-float")
	t.Setenv("CFG_TEST_DUR", "not-a-duration")
	t.Setenv("CFG_TEST_BOOL", "maybe")
	if got := parseIntOrDefault("CFG_TEST_INT", 7); got != 7 {
		t.Fatalf("parseIntOrDefault fallback mismatch: got=%d want=7", got)
	}
	if got := parseFloat64OrDefault("CFG_TEST_FLOAT", 3.5); got != 3.5 {
		t.Fatalf("parseFloat64OrDefault fallback mismatch: got=%v want=3.5", got)
	}
	if got := parseDurationOrDefault("CFG_TEST_DUR", 2*time.Minute); got != 2*time.Minute {
		t.Fatalf("parseDurationOrDefault fallback mismatch: got=%v want=%v", got, 2*time.Minute)
	}
	if got := parseBoolOrDefault("CFG_TEST_BOOL", true); !got {
		t.Fatal("parseBoolOrDefault fallback mismatch")
	}
}

func TestGetEnvOrDefault_TrimsWhitespace(t *testing.T) {
	t.Setenv("CFG_TEST_STR", "   value   ")
	if got := getEnvOrDefault("CFG_TEST_STR", "fallback"); got != "value" {
		t.Fatalf("getEnvOrDefault trim mismatch: got=%q want=%q", got, "value")
	}
}

func TestLoadHarness_ClampsWaitTimeout(t *testing.T) {
	t.Setenv("E2E_BASE_URL", "http://127.0.0.1:8080/")
	t.Setenv("E2E_BROWSER_WAIT_TIMEOUT", "30s")
	t.Setenv("E2E_HEADLESS", "false")

	h := LoadHarness()
	if h.BrowserWaitTimeout != MaxBrowserWaitTimeout {
		t.Fatalf("BrowserWaitTimeout = %v, want %v", h.BrowserWaitTimeout, MaxBrowserWaitTimeout)
	}
	if h.BaseURL != "http://127.0.0.1:8080" || !h.External() {
		t.Fatalf("BaseURL = %q", h.BaseURL)
	}
	if h.Headless {
		t.Fatal("Headless should be false")
	}
	if h.AdminID != DefaultAdminID {
		t.Fatalf("AdminID = %q", h.AdminID)
	}
}
