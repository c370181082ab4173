// Package server assembles the content application: repository, sessions,
// REST API, web UI and the middleware chain around them.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/kuitang/content-e2e/internal/api"
	"github.com/kuitang/content-e2e/internal/auth"
	"github.com/kuitang/content-e2e/internal/db"
	"github.com/kuitang/content-e2e/internal/obs"
	"github.com/kuitang/content-e2e/internal/ratelimit"
	"github.com/kuitang/content-e2e/internal/repo"
	"github.com/kuitang/content-e2e/internal/web"
)

// SessionCleanupInterval is how often expired sessions are purged.
const SessionCleanupInterval = 15 * time.Minute

// Options configures New.
type Options struct {
	DB     *db.DB
	Hasher repo.PasswordHasher

	AdminID       string
	AdminPassword string

	SessionDuration time.Duration
	SecureCookies   bool
	RateLimit       ratelimit.Config
}

// App is a wired content application.
type App struct {
	Handler     http.Handler
	Repo        *repo.Repository
	Sessions    *auth.SessionService
	RateLimiter *ratelimit.RateLimiter

	stop chan struct{}
}

// New bootstraps the administrator account and builds the HTTP handler.
func New(ctx context.Context, opts Options) (*App, error) {
	r := repo.New(opts.DB, opts.Hasher)
	if err := r.EnsureAdmin(ctx, opts.AdminID, opts.AdminPassword); err != nil {
		return nil, fmt.Errorf("bootstrap admin: %w", err)
	}

	renderer, err := web.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("create renderer: %w", err)
	}

	sessions := auth.NewSessionService(opts.DB, opts.SessionDuration, opts.SecureCookies)
	authMiddleware := auth.NewMiddleware(sessions, func(ctx context.Context, id, password string) (string, error) {
		p, err := r.Authenticate(ctx, id, password)
		if err != nil {
			return "", err
		}
		return p.ID, nil
	})
	rateLimiter := ratelimit.NewRateLimiter(opts.RateLimit)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		if err := opts.DB.Ping(req.Context()); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	web.NewWebHandler(renderer, r, sessions).RegisterRoutes(mux, authMiddleware)

	// REST API: Basic auth first, so the limiter keys on the person.
	apiMux := http.NewServeMux()
	api.NewHandler(r).RegisterRoutes(apiMux)
	rateLimitMW := ratelimit.RateLimitMiddleware(rateLimiter, auth.PersonIDFromRequest)
	mux.Handle(api.BasePath+"/", authMiddleware.RequireBasic(rateLimitMW(apiMux)))

	handler := obs.RequestContextMiddleware(obs.AccessLogMiddleware("http", mux))

	return &App{
		Handler:     handler,
		Repo:        r,
		Sessions:    sessions,
		RateLimiter: rateLimiter,
		stop:        make(chan struct{}),
	}, nil
}

// StartSessionCleanup purges expired sessions every interval until Close.
func (a *App) StartSessionCleanup(interval time.Duration) {
	logger := obs.Pkg("server")
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-a.stop:
				return
			case <-ticker.C:
				if err := a.Sessions.Cleanup(context.Background()); err != nil {
					logger.Warn("session_cleanup_failed", "error", err)
				}
			}
		}
	}()
}

// Close stops background work. The database is owned by the caller.
func (a *App) Close() {
	select {
	case <-a.stop:
	default:
		close(a.stop)
	}
	a.RateLimiter.Stop()
}
