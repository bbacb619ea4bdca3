package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ecosopis/storefront/internal/auth"
	"github.com/go-chi/chi/v5/middleware"
)

// Authenticator resolves a session token to a caller. A nil caller with a
// nil error means the token is unknown.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Caller, error)
}

// SessionMiddleware attaches the caller behind the session cookie, if any.
// Requests without a valid session continue anonymously and are rejected
// later by the handlers that need a caller.
func SessionMiddleware(authn Authenticator, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			caller, err := authn.Authenticate(r.Context(), cookie.Value)
			if err != nil {
				slog.WarnContext(r.Context(), "session lookup failed", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if caller != nil {
				r = r.WithContext(auth.WithCaller(r.Context(), caller))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func BodyLimitMiddleware(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil && limit > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogger writes one structured line per request.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			logger.InfoContext(r.Context(), "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start))
		})
	}
}

func callerFromRequest(r *http.Request) *auth.Caller {
	return auth.CallerFromContext(r.Context())
}
