package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"kidsvideohub/internal/logging"
	"kidsvideohub/internal/metrics"
	"kidsvideohub/internal/security"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const IdentityContextKey ContextKey = "identity"

// AccountUpserter records the caller's account on first sight
type AccountUpserter interface {
	Upsert(ctx context.Context, id, email string) error
}

// Middleware holds dependencies for middleware functions
type Middleware struct {
	verifier *security.TokenVerifier
	accounts AccountUpserter
	limiter  *security.RateLimiter
}

// NewMiddleware creates a new middleware instance. limiter may be nil.
func NewMiddleware(verifier *security.TokenVerifier, accounts AccountUpserter, limiter *security.RateLimiter) *Middleware {
	return &Middleware{
		verifier: verifier,
		accounts: accounts,
		limiter:  limiter,
	}
}

// RequireAuth is middleware that requires a valid bearer token
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := security.BearerToken(r)
		if err != nil {
			respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
			return
		}

		identity, err := m.verifier.Verify(token)
		if err != nil {
			logging.Logger.Debug().Err(err).Str("path", r.URL.Path).Msg("Rejected bearer token")
			respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
			return
		}

		if m.accounts != nil {
			if err := m.accounts.Upsert(r.Context(), identity.AccountID, identity.Email); err != nil {
				respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to record account", err)
				return
			}
		}

		ctx := context.WithValue(r.Context(), IdentityContextKey, identity)
		next(w, r.WithContext(ctx))
	}
}

// RateLimit applies the per-client limiter to the kid-facing routes
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	if m.limiter == nil {
		return next
	}
	return m.limiter.Middleware(next).ServeHTTP
}

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Logging middleware logs HTTP requests and records their duration
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		metrics.RequestsInFlight.Inc()
		defer metrics.RequestsInFlight.Dec()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		metrics.RequestDuration.WithLabelValues(route, strconv.Itoa(rec.status)).Observe(duration.Seconds())

		evt := logging.Logger.Info()
		if rec.status >= 500 {
			evt = logging.Logger.Error()
		} else if rec.status >= 400 {
			evt = logging.Logger.Warn()
		}
		evt.
			Str("method", r.Method).
			Str("route", route).
			Int("status", rec.status).
			Dur("duration_ms", duration).
			Msg("request")
	})
}

// GetIdentityFromContext retrieves the caller from the request context
func GetIdentityFromContext(ctx context.Context) (security.Identity, bool) {
	identity, ok := ctx.Value(IdentityContextKey).(security.Identity)
	return identity, ok
}

// requireOwner returns the authenticated caller's account id, writing a 401
// when the request did not pass through RequireAuth
func requireOwner(w http.ResponseWriter, r *http.Request) (string, bool) {
	identity, ok := GetIdentityFromContext(r.Context())
	if !ok || identity.AccountID == "" {
		respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return "", false
	}
	return identity.AccountID, true
}
