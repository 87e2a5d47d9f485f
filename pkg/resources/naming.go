package resources

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/sitehaven/sitehaven/pkg/tenants"
)

const defaultNameCacheSize = 256

// NameResolver derives record names from tenant display names, caching
// lookups since derived naming runs on every singleton create.
type NameResolver struct {
	tenants tenants.Service
	cache   *lru.Cache[string, string]
}

// NewNameResolver creates a resolver over the given tenant service
func NewNameResolver(service tenants.Service) (*NameResolver, error) {
	cache, err := lru.New[string, string](defaultNameCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create name cache: %w", err)
	}
	return &NameResolver{tenants: service, cache: cache}, nil
}

// TenantName returns the display name for a tenant ID
func (r *NameResolver) TenantName(ctx context.Context, tenantID string) (string, error) {
	if name, ok := r.cache.Get(tenantID); ok {
		return name, nil
	}
	tenant, err := r.tenants.GetTenant(ctx, tenantID)
	if err != nil {
		return "", err
	}
	r.cache.Add(tenantID, tenant.Name)
	return tenant.Name, nil
}

// Invalidate drops a cached tenant name after a rename
func (r *NameResolver) Invalidate(tenantID string) {
	r.cache.Remove(tenantID)
}

// ApplyDerivedName fills in the record name for collections that derive it
// from the owning tenant. Runs after tenant assignment; a record without a
// resolvable tenant is left untouched for validation to reject.
func (r *NameResolver) ApplyDerivedName(ctx context.Context, col Collection, record *Record) error {
	if col.DerivedName == nil || record.TenantID == "" {
		return nil
	}
	name, err := r.TenantName(ctx, record.TenantID)
	if err != nil {
		return fmt.Errorf("failed to resolve tenant name: %w", err)
	}
	record.Name = col.DerivedName(name)
	return nil
}
