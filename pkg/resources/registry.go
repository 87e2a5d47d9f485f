// Package resources manages tenant-scoped content records and the
// per-collection policies that gate access to them.
package resources

import (
	"time"

	"github.com/sitehaven/sitehaven/pkg/access"
	"github.com/sitehaven/sitehaven/pkg/auth"
)

// Record is a tenant-scoped content record. Every record belongs to
// exactly one tenant; the tenant reference is immutable for non-privileged
// callers.
type Record struct {
	ID         string                 `json:"id"`
	Collection string                 `json:"collection"`
	TenantID   string                 `json:"tenant_id"`
	Name       string                 `json:"name,omitempty"`
	Data       map[string]interface{} `json:"data,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
	UpdatedAt  time.Time              `json:"updated_at"`
}

// Collection describes one content collection and its access policy
type Collection struct {
	Slug   string
	Policy access.CollectionPolicy

	// Singleton collections allow at most one record per tenant.
	Singleton bool

	// DerivedName, when set, computes the record name from the owning
	// tenant's display name after tenant assignment.
	DerivedName func(tenantName string) string
}

// Registry maps collection slugs to their definitions
type Registry map[string]Collection

// Get looks up a collection by slug
func (r Registry) Get(slug string) (Collection, bool) {
	col, ok := r[slug]
	return col, ok
}

// DefaultRegistry returns the content collections and their policies.
//
//   - pages, homepage, navigation, footer, site_settings, theme_settings:
//     admin-managed writes; all but pages are one-per-tenant singletons
//     whose deletion is reserved to global-privileged callers.
//   - blog: editors may also create and update; deletion stays admin-only.
//   - media: publicly readable, writes tenant-scoped.
func DefaultRegistry() Registry {
	return Registry{
		"pages": {
			Slug:   "pages",
			Policy: access.AdminManaged(),
		},
		"blog": {
			Slug: "blog",
			Policy: access.CollectionPolicy{
				Read:   access.Read,
				Create: access.RoleGatedCreate(auth.RoleAdmin, auth.RoleEditor),
				Update: access.RoleGated(auth.RoleAdmin, auth.RoleEditor),
				Delete: access.AdminOnly,
			},
		},
		"media": {
			Slug:   "media",
			Policy: access.PublicReadTenantWrite(),
		},
		"homepage": {
			Slug:      "homepage",
			Singleton: true,
			Policy: access.CollectionPolicy{
				Read:   access.Read,
				Create: access.RoleGatedCreate(auth.RoleAdmin),
				Update: access.AdminOnly,
				Delete: access.SuperAdminOnly,
			},
		},
		"navigation": {
			Slug:      "navigation",
			Singleton: true,
			Policy: access.CollectionPolicy{
				Read:   access.Read,
				Create: access.RoleGatedCreate(auth.RoleAdmin),
				Update: access.AdminOnly,
				Delete: access.SuperAdminOnly,
			},
			DerivedName: func(tenantName string) string {
				return "Navigation - " + tenantName
			},
		},
		"footer": {
			Slug:      "footer",
			Singleton: true,
			Policy: access.CollectionPolicy{
				Read:   access.Read,
				Create: access.RoleGatedCreate(auth.RoleAdmin),
				Update: access.AdminOnly,
				Delete: access.SuperAdminOnly,
			},
		},
		"site_settings": {
			Slug:      "site_settings",
			Singleton: true,
			Policy: access.CollectionPolicy{
				Read:   access.Read,
				Create: access.RoleGatedCreate(auth.RoleAdmin),
				Update: access.AdminOnly,
				Delete: access.SuperAdminOnly,
			},
		},
		"theme_settings": {
			Slug:      "theme_settings",
			Singleton: true,
			Policy: access.CollectionPolicy{
				Read:   access.Read,
				Create: access.RoleGatedCreate(auth.RoleAdmin),
				Update: access.AdminOnly,
				Delete: access.SuperAdminOnly,
			},
		},
	}
}
