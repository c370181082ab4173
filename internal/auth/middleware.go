package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/kuitang/content-e2e/internal/errs"
	"github.com/kuitang/content-e2e/internal/obs"
)

type contextKey string

const personIDKey contextKey = "personID"

// LoginPath is where RequireSession sends browsers without a session.
const LoginPath = "/login"

// AuthenticateFunc verifies HTTP Basic credentials and returns the person id.
type AuthenticateFunc func(ctx context.Context, id, password string) (string, error)

// Middleware provides authentication middleware for HTTP handlers.
type Middleware struct {
	sessions     *SessionService
	authenticate AuthenticateFunc
}

// NewMiddleware creates a new auth middleware.
func NewMiddleware(sessions *SessionService, authenticate AuthenticateFunc) *Middleware {
	return &Middleware{sessions: sessions, authenticate: authenticate}
}

// RequireSession requires a valid session cookie. Browsers without one are
// redirected to the login page; JSON callers get 401.
func (m *Middleware) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		personID, err := m.sessionPerson(r)
		if err != nil {
			if r.Method == http.MethodGet {
				http.Redirect(w, r, LoginPath+"?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusSeeOther)
				return
			}
			writeUnauthenticated(w, "Session expired or missing")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPersonID(r.Context(), personID)))
	})
}

// OptionalSession adds the session person to the context when present.
func (m *Middleware) OptionalSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if personID, err := m.sessionPerson(r); err == nil {
			r = r.WithContext(WithPersonID(r.Context(), personID))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireBasic requires HTTP Basic credentials, as the public REST API does.
func (m *Middleware) RequireBasic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, password, ok := r.BasicAuth()
		if !ok {
			w.Header().Set("WWW-Authenticate", `Basic realm="content"`)
			writeUnauthenticated(w, "Authentication required")
			return
		}
		personID, err := m.authenticate(r.Context(), id, password)
		if err != nil {
			obs.From(r.Context()).Info("basic_auth_failed", "person_id", id, "error", err)
			w.Header().Set("WWW-Authenticate", `Basic realm="content"`)
			writeUnauthenticated(w, "Authentication failed")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPersonID(r.Context(), personID)))
	})
}

func (m *Middleware) sessionPerson(r *http.Request) (string, error) {
	sessionID, err := GetFromRequest(r)
	if err != nil {
		return "", err
	}
	return m.sessions.Validate(r.Context(), sessionID)
}

// WithPersonID stores the authenticated person in ctx, for handlers and logs.
func WithPersonID(ctx context.Context, personID string) context.Context {
	ctx = context.WithValue(ctx, personIDKey, personID)
	return obs.WithPersonID(ctx, personID)
}

// PersonID returns the authenticated person, or "" when there is none.
func PersonID(ctx context.Context) string {
	personID, _ := ctx.Value(personIDKey).(string)
	return personID
}

// PersonIDFromRequest adapts PersonID for the rate limiter.
func PersonIDFromRequest(r *http.Request) string {
	return PersonID(r.Context())
}

func writeUnauthenticated(w http.ResponseWriter, summary string) {
	status := errs.HTTPStatus(errs.Unauthenticated)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"statusCode": status, "briefSummary": summary},
	})
}
