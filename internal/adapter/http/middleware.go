package adapthttp

import (
	"context"
	"errors"
	"net/http"

	"sessiondemo/internal/app"
	"sessiondemo/internal/domain"
)

type contextKey string

const sessionContextKey contextKey = "session"

// authGate resolves the caller's session before any handler runs, redirects
// unauthenticated callers away from protected routes and authenticated ones
// away from public-only routes, and exposes the session (or nil) to the
// handler via context.
func (s *Server) authGate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var session *domain.Session

		if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
			resolved, err := s.authSvc.ValidateSession(r.Context(), cookie.Value)
			switch {
			case err == nil:
				session = resolved
			case errors.Is(err, app.ErrSessionNotFound):
				// Stale cookie; the request proceeds unauthenticated.
			default:
				s.serverError(w, r, err)
				return
			}
		}

		if isProtected(r) && session == nil {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		if isPublicOnly(r) && session != nil {
			http.Redirect(w, r, "/home", http.StatusFound)
			return
		}

		ctx := context.WithValue(r.Context(), sessionContextKey, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// isProtected reports whether the route requires a live session.
func isProtected(r *http.Request) bool {
	return r.URL.Path == "/home"
}

// isPublicOnly reports whether the route is reserved for unauthenticated
// callers. Only the rendered forms redirect; their POST counterparts pass
// through.
func isPublicOnly(r *http.Request) bool {
	if r.Method != http.MethodGet {
		return false
	}
	switch r.URL.Path {
	case "/", "/login", "/register":
		return true
	}
	return false
}

// sessionFromContext returns the session resolved by the auth gate, or nil.
func sessionFromContext(ctx context.Context) *domain.Session {
	s, _ := ctx.Value(sessionContextKey).(*domain.Session)
	return s
}
