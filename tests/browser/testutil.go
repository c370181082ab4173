// Package browser provides shared test utilities for Playwright browser tests.
// All browser test packages use Env via SetupEnv(t).
package browser

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/kuitang/content-e2e/internal/auth"
	"github.com/kuitang/content-e2e/internal/config"
	"github.com/kuitang/content-e2e/internal/db"
	"github.com/kuitang/content-e2e/internal/ratelimit"
	"github.com/kuitang/content-e2e/internal/repoclient"
	"github.com/kuitang/content-e2e/internal/server"
	"github.com/kuitang/content-e2e/internal/testdb"
)

const (
	// Always use this timeout constant for browser tests.
	// Never introduce a larger timeout value anywhere in tests/browser.
	browserMaxTimeoutMS = 5000

	// Exported alias for subpackages under tests/browser.
	BrowserMaxTimeoutMS = browserMaxTimeoutMS
)

var envMu sync.Mutex
var sharedEnv *Env

// Env is the shared environment for all browser tests: a content server
// (started in-process unless E2E_BASE_URL points at one) and one Chromium.
type Env struct {
	BaseURL string
	Harness config.Harness

	// App and DB are nil when the suite targets an external server.
	App *server.App
	DB  *db.DB

	server *httptest.Server

	pw        *playwright.Playwright
	browser   playwright.Browser
	browserMu sync.Mutex
}

// SetupEnv returns the shared environment, creating it on first use.
func SetupEnv(t *testing.T) *Env {
	t.Helper()

	envMu.Lock()
	defer envMu.Unlock()

	if sharedEnv != nil {
		return sharedEnv
	}
	env, err := newEnv(config.LoadHarness())
	if err != nil {
		t.Fatalf("Failed to start browser test environment: %v", err)
	}
	sharedEnv = env
	return sharedEnv
}

func newEnv(h config.Harness) (*Env, error) {
	env := &Env{Harness: h, BaseURL: h.BaseURL}
	if h.External() {
		return env, nil
	}

	d, err := db.Open(db.MemoryPath, testdb.Key)
	if err != nil {
		return nil, err
	}
	app, err := server.New(context.Background(), server.Options{
		DB:              d,
		Hasher:          auth.FakeInsecureHasher{},
		AdminID:         h.AdminID,
		AdminPassword:   h.AdminPassword,
		SessionDuration: time.Hour,
		RateLimit: ratelimit.Config{
			RPS:             1000,
			Burst:           1000,
			CleanupInterval: time.Minute,
		},
	})
	if err != nil {
		_ = d.Close()
		return nil, err
	}
	env.App = app
	env.DB = d
	env.server = httptest.NewServer(app.Handler)
	env.BaseURL = env.server.URL
	return env, nil
}

// CleanupEnv tears down the shared environment. Call it from TestMain.
func CleanupEnv() {
	envMu.Lock()
	defer envMu.Unlock()

	if sharedEnv == nil {
		return
	}
	if sharedEnv.browser != nil {
		_ = sharedEnv.browser.Close()
	}
	if sharedEnv.pw != nil {
		_ = sharedEnv.pw.Stop()
	}
	if sharedEnv.server != nil {
		sharedEnv.server.Close()
	}
	if sharedEnv.App != nil {
		sharedEnv.App.Close()
	}
	if sharedEnv.DB != nil {
		_ = sharedEnv.DB.Close()
	}
	sharedEnv = nil
}

// AdminClient returns a REST client authenticated as the administrator.
func (env *Env) AdminClient() *repoclient.Client {
	return repoclient.New(env.BaseURL, env.Harness.AdminID, env.Harness.AdminPassword)
}

// Client returns a REST client authenticated as username. An empty password
// means the password equals the username.
func (env *Env) Client(username, password string) *repoclient.Client {
	if password == "" {
		password = username
	}
	return repoclient.New(env.BaseURL, username, password)
}

// =============================================================================
// Browser lifecycle helpers
// =============================================================================

// InitBrowser initializes Playwright and launches Chromium. Skips the test if not available.
func (env *Env) InitBrowser(t *testing.T) {
	t.Helper()

	env.browserMu.Lock()
	defer env.browserMu.Unlock()

	if env.browser != nil {
		return
	}

	pw, err := playwright.Run()
	if err != nil {
		t.Skip("Playwright not available:", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(env.Harness.Headless),
	})
	if err != nil {
		_ = pw.Stop()
		t.Skip("Could not launch browser:", err)
	}
	env.pw = pw
	env.browser = browser
}

// NewPage creates a page in a fresh browser context, so cookies never leak
// between tests. The context is closed when t finishes.
func (env *Env) NewPage(t *testing.T) playwright.Page {
	t.Helper()

	ctx, err := env.browser.NewContext(playwright.BrowserNewContextOptions{
		BaseURL: playwright.String(env.BaseURL),
	})
	if err != nil {
		t.Fatalf("could not create browser context: %v", err)
	}
	t.Cleanup(func() { _ = ctx.Close() })

	timeout := float64(env.Harness.BrowserWaitTimeout.Milliseconds())
	if timeout <= 0 || timeout > browserMaxTimeoutMS {
		timeout = browserMaxTimeoutMS
	}
	ctx.SetDefaultTimeout(timeout)
	ctx.SetDefaultNavigationTimeout(timeout)

	page, err := ctx.NewPage()
	if err != nil {
		t.Fatalf("could not create page: %v", err)
	}
	return page
}
