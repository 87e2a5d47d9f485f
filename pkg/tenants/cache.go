package tenants

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// DefaultCacheTTL bounds how stale a cached by-domain lookup can be.
const DefaultCacheTTL = 5 * time.Minute

// RedisCache provides a Redis-backed read-through cache over a Service.
// Every site-scoped request resolves its tenant by subdomain, so the
// by-domain lookup is the hot path worth caching.
type RedisCache struct {
	service Service
	redis   *redis.Client
	ttl     time.Duration
}

// NewRedisCache creates a cache layer over the given service.
func NewRedisCache(service Service, client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisCache{
		service: service,
		redis:   client,
		ttl:     ttl,
	}
}

func domainKey(domain string) string {
	return "tenant:domain:" + domain
}

// GetTenantByDomain checks the cache before falling through to the service
func (c *RedisCache) GetTenantByDomain(ctx context.Context, domain string) (*Tenant, error) {
	if data, err := c.redis.Get(ctx, domainKey(domain)).Bytes(); err == nil {
		tenant := &Tenant{}
		if err := json.Unmarshal(data, tenant); err == nil {
			return tenant, nil
		}
		// Corrupt entry; drop it and fall through.
		c.redis.Del(ctx, domainKey(domain))
	}

	tenant, err := c.service.GetTenantByDomain(ctx, domain)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(tenant); err == nil {
		c.redis.Set(ctx, domainKey(domain), data, c.ttl)
	}
	return tenant, nil
}

// CreateTenant passes through; nothing to invalidate for a new domain
func (c *RedisCache) CreateTenant(ctx context.Context, tenant *Tenant) error {
	return c.service.CreateTenant(ctx, tenant)
}

// GetTenant passes through to the service
func (c *RedisCache) GetTenant(ctx context.Context, id string) (*Tenant, error) {
	return c.service.GetTenant(ctx, id)
}

// ListTenants passes through to the service
func (c *RedisCache) ListTenants(ctx context.Context) ([]*Tenant, error) {
	return c.service.ListTenants(ctx)
}

// UpdateTenant updates and invalidates the cached entry for both the old
// and new domain values.
func (c *RedisCache) UpdateTenant(ctx context.Context, tenant *Tenant) error {
	previous, err := c.service.GetTenant(ctx, tenant.ID)
	if err != nil {
		return err
	}
	if err := c.service.UpdateTenant(ctx, tenant); err != nil {
		return err
	}
	c.redis.Del(ctx, domainKey(previous.Domain), domainKey(tenant.Domain))
	return nil
}

// DeleteTenant deletes and invalidates the cached entry
func (c *RedisCache) DeleteTenant(ctx context.Context, id string) error {
	previous, err := c.service.GetTenant(ctx, id)
	if err != nil {
		return err
	}
	if err := c.service.DeleteTenant(ctx, id); err != nil {
		return err
	}
	c.redis.Del(ctx, domainKey(previous.Domain))
	return nil
}

// Ping verifies the Redis connection
func (c *RedisCache) Ping(ctx context.Context) error {
	if err := c.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to reach redis: %w", err)
	}
	return nil
}
