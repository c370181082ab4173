package ratelimit

import (
	"net/http"
	"strconv"
)

// DefaultRetryAfterSeconds is the Retry-After value sent with a 429.
const DefaultRetryAfterSeconds = 1

// RateLimitMiddleware enforces per-person limits. Requests for which
// getPersonID returns "" pass through; the auth middleware rejects them.
//
// A rejected request gets 429 Too Many Requests with Retry-After and
// X-RateLimit-Remaining: 0.
func RateLimitMiddleware(limiter *RateLimiter, getPersonID func(r *http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			personID := getPersonID(r)
			if personID == "" {
				next.ServeHTTP(w, r)
				return
			}

			bucket := limiter.GetLimiter(personID)
			if !bucket.Allow() {
				w.Header().Set("Retry-After", strconv.Itoa(DefaultRetryAfterSeconds))
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error":{"statusCode":429,"briefSummary":"Too Many Requests"}}`))
				return
			}

			remaining := int(bucket.Tokens())
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

			next.ServeHTTP(w, r)
		})
	}
}
