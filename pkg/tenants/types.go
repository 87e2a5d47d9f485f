package tenants

import (
	"context"
	"time"
)

// TenantStatus represents tenant lifecycle status
type TenantStatus string

const (
	TenantStatusActive    TenantStatus = "active"
	TenantStatusInactive  TenantStatus = "inactive"
	TenantStatusSuspended TenantStatus = "suspended"
)

// Tenant is the isolation boundary and top-level resource owner
type Tenant struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Domain    string          `json:"domain"` // subdomain, e.g. "tenant1" for tenant1.app.com
	Status    TenantStatus    `json:"status"`
	Settings  TenantSettings  `json:"settings,omitempty"`
	Metadata  ContactMetadata `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// TenantSettings holds per-tenant configuration
type TenantSettings struct {
	Theme        string `json:"theme,omitempty"`
	MaxUsers     int    `json:"max_users,omitempty"`
	MaxStorageMB int    `json:"max_storage_mb,omitempty"`
}

// ContactMetadata holds tenant contact details
type ContactMetadata struct {
	ContactEmail string `json:"contact_email,omitempty"`
	ContactName  string `json:"contact_name,omitempty"`
	Address      string `json:"address,omitempty"`
}

// CreateTenantRequest is the payload for tenant creation
type CreateTenantRequest struct {
	Name     string          `json:"name"`
	Domain   string          `json:"domain"`
	Status   TenantStatus    `json:"status,omitempty"`
	Settings TenantSettings  `json:"settings,omitempty"`
	Metadata ContactMetadata `json:"metadata,omitempty"`
}

// UpdateTenantRequest is the payload for tenant updates
type UpdateTenantRequest struct {
	Name     *string          `json:"name,omitempty"`
	Domain   *string          `json:"domain,omitempty"`
	Status   *TenantStatus    `json:"status,omitempty"`
	Settings *TenantSettings  `json:"settings,omitempty"`
	Metadata *ContactMetadata `json:"metadata,omitempty"`
}

// Service manages tenant records
type Service interface {
	CreateTenant(ctx context.Context, tenant *Tenant) error
	GetTenant(ctx context.Context, id string) (*Tenant, error)
	GetTenantByDomain(ctx context.Context, domain string) (*Tenant, error)
	ListTenants(ctx context.Context) ([]*Tenant, error)
	UpdateTenant(ctx context.Context, tenant *Tenant) error
	DeleteTenant(ctx context.Context, id string) error
}
