package config

import (
	"strings"
	"time"
)

// Harness holds browser-suite settings.
type Harness struct {
	// BaseURL of an already running content server. Empty starts one in-process.
	BaseURL string

	AdminID       string
	AdminPassword string

	// BrowserWaitTimeout bounds visibility waits; clamped to MaxBrowserWaitTimeout.
	BrowserWaitTimeout time.Duration
	Headless           bool
}

// External reports whether the suite targets a server it did not start.
func (h Harness) External() bool {
	return h.BaseURL != ""
}

// LoadHarness reads E2E_* environment variables.
func LoadHarness() Harness {
	h := Harness{
		BaseURL:            strings.TrimRight(getEnvOrDefault("E2E_BASE_URL", ""), "/"),
		AdminID:            getEnvOrDefault("E2E_ADMIN_USER", DefaultAdminID),
		AdminPassword:      getEnvOrDefault("E2E_ADMIN_PASSWORD", DefaultAdminID),
		BrowserWaitTimeout: parseDurationOrDefault("E2E_BROWSER_WAIT_TIMEOUT", MaxBrowserWaitTimeout),
		Headless:           parseBoolOrDefault("E2E_HEADLESS", true),
	}
	if h.BrowserWaitTimeout <= 0 || h.BrowserWaitTimeout > MaxBrowserWaitTimeout {
		h.BrowserWaitTimeout = MaxBrowserWaitTimeout
	}
	return h
}
