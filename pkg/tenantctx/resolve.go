// Package tenantctx extracts tenant signals from inbound requests.
//
// Two independent signals exist and may be present simultaneously:
//
//   - the viewing-tenant override (x-viewing-tenant), a super-admin's
//     temporary narrowing of scope, normalized from a cookie by middleware;
//   - the site tenant (x-tenant-id or the host subdomain), identifying which
//     tenant's site a request originates from.
//
// Extraction is pure: no lookups, no validation. Whether an identifier
// resolves to a real tenant is the storage layer's concern.
package tenantctx

import (
	"net/http"
	"regexp"
	"strings"
)

const (
	// ViewingTenantHeader carries the super-admin override signal.
	ViewingTenantHeader = "X-Viewing-Tenant"

	// ViewingTenantCookie is the server-readable cookie the override
	// channel persists; middleware forwards it into ViewingTenantHeader.
	ViewingTenantCookie = "viewing-tenant"

	// SiteTenantHeader carries the originating site's tenant domain for
	// API clients that bypass subdomain routing.
	SiteTenantHeader = "X-Tenant-ID"
)

var ipv4Pattern = regexp.MustCompile(`^\d+\.\d+\.\d+\.\d+$`)

// ResolveViewingTenant extracts the viewing-tenant override from the
// request. Returns "" when no override is present. The value is returned
// verbatim; callers must treat an unresolvable tenant as matching nothing.
func ResolveViewingTenant(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(ViewingTenantHeader))
}

// ResolveSiteTenant extracts the originating site's tenant domain, checking
// the explicit header first and falling back to the host subdomain.
func ResolveSiteTenant(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get(SiteTenantHeader)); v != "" {
		return v
	}
	return ExtractTenantFromHost(r.Host)
}

// ExtractTenantFromHost parses the tenant subdomain out of a host value.
//
//	tenant1.app.com  -> "tenant1"
//	localhost:3000   -> ""
//	10.0.0.1         -> ""
func ExtractTenantFromHost(host string) string {
	hostname := host
	if idx := strings.IndexByte(hostname, ':'); idx >= 0 {
		hostname = hostname[:idx]
	}

	if hostname == "" || hostname == "localhost" || ipv4Pattern.MatchString(hostname) {
		return ""
	}

	parts := strings.Split(hostname, ".")
	if len(parts) < 2 {
		return ""
	}
	return parts[0]
}
