// Package contextkeys provides centralized context key definitions
//
// IMPORTANT: All context keys used across the application must be defined here.
// This prevents typos, documents dependencies, and makes key usage discoverable.
package contextkeys

import "context"

// Key is the type for context keys to prevent collisions
type Key string

const (
	// AuthKey contains *auth.AuthContext
	// Set by: middleware.AuthMiddleware (pkg/middleware/auth.go)
	// Required by: all protected API endpoints
	AuthKey Key = "auth_context"

	// ViewingTenantKey contains the viewing-tenant override value (string).
	// Set by: middleware.ViewingTenant after cookie/header normalization
	// Consulted only for super-admin callers; ignored for everyone else.
	ViewingTenantKey Key = "viewing_tenant"

	// SiteTenantKey contains the tenant ID resolved from the request's
	// originating site (subdomain or x-tenant-id header). Distinct from
	// the viewing-tenant override.
	SiteTenantKey Key = "site_tenant"

	// RequestIDKey contains request ID string (UUID)
	// Set by: HTTP middleware
	// Used by: logger, audit trail
	RequestIDKey Key = "request_id"

	// LoggerKey contains *observability.Logger
	// Set by: observability middleware
	LoggerKey Key = "logger"
)

// WithAuth returns a context carrying the given auth context value.
func WithAuth(ctx context.Context, authCtx interface{}) context.Context {
	return context.WithValue(ctx, AuthKey, authCtx)
}

// WithViewingTenant returns a context carrying the viewing-tenant override.
func WithViewingTenant(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, ViewingTenantKey, tenantID)
}

// ViewingTenant extracts the viewing-tenant override from the context.
// Returns "" when no override is present.
func ViewingTenant(ctx context.Context) string {
	if v, ok := ctx.Value(ViewingTenantKey).(string); ok {
		return v
	}
	return ""
}

// WithSiteTenant returns a context carrying the site-tenant ID.
func WithSiteTenant(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, SiteTenantKey, tenantID)
}

// SiteTenant extracts the site-tenant ID from the context.
func SiteTenant(ctx context.Context) string {
	if v, ok := ctx.Value(SiteTenantKey).(string); ok {
		return v
	}
	return ""
}
