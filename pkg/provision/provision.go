// Package provision creates fully-initialized tenants: the tenant
// record, its default singleton content, and an initial admin user.
package provision

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sitehaven/sitehaven/pkg/access"
	"github.com/sitehaven/sitehaven/pkg/auth"
	"github.com/sitehaven/sitehaven/pkg/resources"
	"github.com/sitehaven/sitehaven/pkg/tenants"
)

// Singleton collections seeded for every new tenant.
var defaultCollections = []string{"theme_settings", "site_settings", "homepage", "navigation"}

// Request describes a tenant to provision
type Request struct {
	TenantName    string `json:"tenant_name"`
	Domain        string `json:"domain"`
	Theme         string `json:"theme,omitempty"`
	AdminEmail    string `json:"admin_email"`
	AdminPassword string `json:"admin_password"`
	AdminFullName string `json:"admin_full_name,omitempty"`
}

// Result reports what provisioning created
type Result struct {
	Tenant      *tenants.Tenant     `json:"tenant"`
	AdminUser   *auth.User          `json:"admin_user"`
	SeededSlugs []string            `json:"seeded_collections"`
	Records     []*resources.Record `json:"-"`
}

// Provisioner creates tenants with their default content and admin user
type Provisioner struct {
	tenants  tenants.Service
	store    resources.Store
	users    auth.UserStore
	registry resources.Registry
}

// NewProvisioner creates a new provisioner
func NewProvisioner(tenantService tenants.Service, store resources.Store, users auth.UserStore, registry resources.Registry) *Provisioner {
	return &Provisioner{
		tenants:  tenantService,
		store:    store,
		users:    users,
		registry: registry,
	}
}

// Validate checks a provisioning request before any writes happen
func (r *Request) Validate() error {
	if strings.TrimSpace(r.TenantName) == "" {
		return fmt.Errorf("tenant name is required")
	}
	if err := tenants.ValidateDomain(r.Domain); err != nil {
		return err
	}
	if !strings.Contains(r.AdminEmail, "@") {
		return fmt.Errorf("valid admin email is required")
	}
	if len(r.AdminPassword) < 8 {
		return fmt.Errorf("admin password must be at least 8 characters")
	}
	return nil
}

// Provision creates the tenant, seeds its singleton collections, and
// creates the initial admin user. The tenant create runs first so a
// duplicate domain fails before any dependent writes.
func (p *Provisioner) Provision(ctx context.Context, req *Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	theme := req.Theme
	if theme == "" {
		theme = "default"
	}

	tenant := &tenants.Tenant{
		ID:     uuid.NewString(),
		Name:   req.TenantName,
		Domain: req.Domain,
		Status: tenants.TenantStatusActive,
		Settings: tenants.TenantSettings{
			Theme: theme,
		},
		Metadata: tenants.ContactMetadata{
			ContactEmail: req.AdminEmail,
			ContactName:  req.AdminFullName,
		},
	}
	if err := p.tenants.CreateTenant(ctx, tenant); err != nil {
		if errors.Is(err, tenants.ErrDomainTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create tenant: %w", err)
	}

	result := &Result{Tenant: tenant}
	for _, slug := range defaultCollections {
		record, err := p.seedSingleton(ctx, slug, tenant)
		if err != nil {
			return nil, fmt.Errorf("failed to seed %s: %w", slug, err)
		}
		result.SeededSlugs = append(result.SeededSlugs, slug)
		result.Records = append(result.Records, record)
	}

	admin, err := p.createAdmin(ctx, req, tenant.ID)
	if err != nil {
		return nil, err
	}
	result.AdminUser = admin

	return result, nil
}

func (p *Provisioner) seedSingleton(ctx context.Context, slug string, tenant *tenants.Tenant) (*resources.Record, error) {
	col, ok := p.registry.Get(slug)
	if !ok {
		return nil, fmt.Errorf("unknown collection %q", slug)
	}

	record := &resources.Record{
		ID:         uuid.NewString(),
		Collection: slug,
		TenantID:   tenant.ID,
		Data:       defaultData(slug, tenant),
	}
	if col.DerivedName != nil {
		record.Name = col.DerivedName(tenant.Name)
	}

	if err := p.store.Create(ctx, record); err != nil {
		// Re-provisioning an existing tenant leaves seeded singletons
		// in place.
		if access.IsDuplicateSingleton(err) {
			return record, nil
		}
		return nil, err
	}
	return record, nil
}

func defaultData(slug string, tenant *tenants.Tenant) map[string]interface{} {
	switch slug {
	case "theme_settings":
		return map[string]interface{}{
			"theme": tenant.Settings.Theme,
		}
	case "site_settings":
		return map[string]interface{}{
			"site_title": tenant.Name,
		}
	case "homepage":
		return map[string]interface{}{
			"title":  "Welcome to " + tenant.Name,
			"layout": []interface{}{},
		}
	case "navigation":
		return map[string]interface{}{
			"items": []interface{}{},
		}
	default:
		return map[string]interface{}{}
	}
}

func (p *Provisioner) createAdmin(ctx context.Context, req *Request, tenantID string) (*auth.User, error) {
	passwordHash, err := auth.HashPassword(req.AdminPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to hash admin password: %w", err)
	}

	now := time.Now().UTC()
	user := &auth.User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(req.AdminEmail)),
		FullName:     req.AdminFullName,
		TenantID:     &tenantID,
		Role:         auth.RoleAdmin,
		IsActive:     true,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := p.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create admin user: %w", err)
	}
	return user, nil
}
