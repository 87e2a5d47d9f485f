package middleware

import (
	"net/http"

	"github.com/sitehaven/sitehaven/pkg/contextkeys"
	"github.com/sitehaven/sitehaven/pkg/tenantctx"
)

// ViewingTenant normalizes the viewing-tenant override into its header and
// the request context. The cookie is the persisted channel; forwarding it
// into the header keeps a single extraction point for the resolver.
//
// Whether the override is honored is decided later, per operation, by the
// access package: it has no effect for non-privileged callers.
func ViewingTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(tenantctx.ViewingTenantHeader) == "" {
			if cookie, err := r.Cookie(tenantctx.ViewingTenantCookie); err == nil && cookie.Value != "" {
				r.Header.Set(tenantctx.ViewingTenantHeader, cookie.Value)
			}
		}

		if override := tenantctx.ResolveViewingTenant(r); override != "" {
			r = r.WithContext(contextkeys.WithViewingTenant(r.Context(), override))
		}
		next.ServeHTTP(w, r)
	})
}

// SiteTenant resolves the originating site's tenant domain (explicit
// header or host subdomain) and stamps it into the header and context for
// downstream site-identity lookups. Distinct from the viewing-tenant
// override; both may be present on one request.
func SiteTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if domain := tenantctx.ResolveSiteTenant(r); domain != "" {
			r.Header.Set(tenantctx.SiteTenantHeader, domain)
			r = r.WithContext(contextkeys.WithSiteTenant(r.Context(), domain))
		}
		next.ServeHTTP(w, r)
	})
}
