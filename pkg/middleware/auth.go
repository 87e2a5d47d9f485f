// Package middleware provides the HTTP middleware chain: authentication,
// tenant signal normalization, rate limiting.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/sitehaven/sitehaven/pkg/auth"
	"github.com/sitehaven/sitehaven/pkg/contextkeys"
	"github.com/sitehaven/sitehaven/pkg/httputil"
)

// SessionValidator resolves a bearer token to an authenticated user
type SessionValidator interface {
	Validate(ctx context.Context, token string) (*auth.User, *auth.Session, error)
}

// AuthMiddleware provides authentication middleware
type AuthMiddleware struct {
	sessions SessionValidator
	optional bool // if true, requests without auth pass through anonymously
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(sessions SessionValidator, optional bool) *AuthMiddleware {
	return &AuthMiddleware{
		sessions: sessions,
		optional: optional,
	}
}

// Handler wraps an HTTP handler with authentication
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			if m.optional {
				next.ServeHTTP(w, r)
				return
			}
			httputil.WriteUnauthenticated(w)
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			httputil.WriteUnauthenticated(w)
			return
		}

		user, session, err := m.sessions.Validate(r.Context(), parts[1])
		if err != nil {
			httputil.WriteUnauthenticated(w)
			return
		}

		authCtx := &auth.AuthContext{User: user, Session: session}
		next.ServeHTTP(w, r.WithContext(contextkeys.WithAuth(r.Context(), authCtx)))
	})
}

// GetAuthContext extracts the auth context from a request. Returns nil for
// anonymous requests.
func GetAuthContext(r *http.Request) *auth.AuthContext {
	value := r.Context().Value(contextkeys.AuthKey)
	if value == nil {
		return nil
	}
	authCtx, ok := value.(*auth.AuthContext)
	if !ok {
		return nil
	}
	return authCtx
}

// CallerFrom returns the authenticated user for a request, or nil
func CallerFrom(r *http.Request) *auth.User {
	authCtx := GetAuthContext(r)
	if authCtx == nil {
		return nil
	}
	return authCtx.User
}

// RequireSuperAdmin rejects requests from anyone without the global
// privilege flag.
func RequireSuperAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller := CallerFrom(r)
		if caller == nil {
			httputil.WriteUnauthenticated(w)
			return
		}
		if !caller.IsSuperAdmin {
			httputil.WriteDenied(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}
