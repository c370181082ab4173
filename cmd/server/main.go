// Command server runs the content application: an encrypted SQLite
// repository of people, sites and folders behind a REST API and a web UI.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kuitang/content-e2e/internal/auth"
	"github.com/kuitang/content-e2e/internal/config"
	"github.com/kuitang/content-e2e/internal/db"
	"github.com/kuitang/content-e2e/internal/obs"
	"github.com/kuitang/content-e2e/internal/repo"
	"github.com/kuitang/content-e2e/internal/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	obs.Init()
	testMode, addr := config.ParseFlags()
	cfg := config.MustLoadConfig(testMode, addr)
	obs.SetLevel(obs.ParseLevel(cfg.LogLevel))
	cfg.PrintStartupSummary()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		obs.Pkg("main").Error("server_failed", "error", err)
		os.Exit(1)
	}
}

// run serves until ctx is cancelled, then drains in-flight requests.
func run(ctx context.Context, cfg *config.Config) error {
	logger := obs.Pkg("main")

	database, err := db.Open(cfg.DatabasePath, cfg.DatabaseKey)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	app, err := server.New(ctx, server.Options{
		DB:              database,
		Hasher:          hasherFor(cfg),
		AdminID:         config.DefaultAdminID,
		AdminPassword:   cfg.AdminPassword,
		SessionDuration: cfg.SessionDuration,
		SecureCookies:   cfg.RequireSecureCookies(),
		RateLimit:       cfg.RateLimitConfig,
	})
	if err != nil {
		return err
	}
	defer app.Close()
	app.StartSessionCleanup(server.SessionCleanupInterval)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           app.Handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server_listening", "addr", cfg.ListenAddr, "base_url", cfg.BaseURL, "test_mode", cfg.TestMode)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("server_shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// hasherFor keeps --test startup and logins fast; real deployments use argon2id.
func hasherFor(cfg *config.Config) repo.PasswordHasher {
	if cfg.TestMode {
		return auth.FakeInsecureHasher{}
	}
	return auth.Argon2Hasher{}
}
