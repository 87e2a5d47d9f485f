package tenants

import (
	"context"
	"database/sql"
	"fmt"
)

// Migration represents a database migration
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// GetMigrations returns the tenancy schema migrations. The partial unique
// index on resources is the authoritative guard for one-per-tenant
// collections; the application-level pre-check only provides a friendly
// error before the constraint fires.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create tenants table",
			SQL: `
				CREATE TABLE IF NOT EXISTS tenants (
					id UUID PRIMARY KEY,
					name VARCHAR(255) NOT NULL UNIQUE,
					domain VARCHAR(255) NOT NULL UNIQUE,
					status VARCHAR(20) NOT NULL DEFAULT 'active',
					settings JSONB NOT NULL DEFAULT '{}',
					metadata JSONB NOT NULL DEFAULT '{}',
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW()
				);

				CREATE INDEX IF NOT EXISTS idx_tenants_domain ON tenants(domain);
				CREATE INDEX IF NOT EXISTS idx_tenants_status ON tenants(status);
			`,
		},
		{
			Version:     2,
			Description: "Create users table",
			SQL: `
				CREATE TABLE IF NOT EXISTS users (
					id UUID PRIMARY KEY,
					email VARCHAR(255) NOT NULL UNIQUE,
					full_name VARCHAR(255) NOT NULL DEFAULT '',
					tenant_id UUID REFERENCES tenants(id) ON DELETE CASCADE,
					role VARCHAR(20) NOT NULL DEFAULT 'user',
					is_super_admin BOOLEAN NOT NULL DEFAULT FALSE,
					is_active BOOLEAN NOT NULL DEFAULT TRUE,
					password_hash VARCHAR(255) NOT NULL,
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
					last_login_at TIMESTAMP
				);

				CREATE INDEX IF NOT EXISTS idx_users_tenant_id ON users(tenant_id);
				CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
			`,
		},
		{
			Version:     3,
			Description: "Create sessions table",
			SQL: `
				CREATE TABLE IF NOT EXISTS sessions (
					id UUID PRIMARY KEY,
					user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					token_hash VARCHAR(64) NOT NULL UNIQUE,
					token_prefix VARCHAR(20) NOT NULL,
					expires_at TIMESTAMP NOT NULL,
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					last_seen_at TIMESTAMP,
					revoked_at TIMESTAMP
				);

				CREATE INDEX IF NOT EXISTS idx_sessions_token_hash ON sessions(token_hash);
				CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);
			`,
		},
		{
			Version:     4,
			Description: "Create resources table with singleton guard",
			SQL: `
				CREATE TABLE IF NOT EXISTS resources (
					id UUID PRIMARY KEY,
					collection VARCHAR(64) NOT NULL,
					tenant_id UUID NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
					name VARCHAR(255) NOT NULL DEFAULT '',
					data JSONB NOT NULL DEFAULT '{}',
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW()
				);

				CREATE INDEX IF NOT EXISTS idx_resources_collection ON resources(collection);
				CREATE INDEX IF NOT EXISTS idx_resources_tenant_id ON resources(tenant_id);

				CREATE UNIQUE INDEX IF NOT EXISTS idx_resources_singleton
					ON resources(collection, tenant_id)
					WHERE collection IN ('homepage', 'navigation', 'footer', 'site_settings', 'theme_settings');
			`,
		},
		{
			Version:     5,
			Description: "Create audit events table",
			SQL: `
				CREATE TABLE IF NOT EXISTS audit_events (
					id VARCHAR(36) PRIMARY KEY,
					event_type VARCHAR(64) NOT NULL,
					status VARCHAR(20) NOT NULL,
					user_id VARCHAR(64),
					email VARCHAR(255),
					tenant_id VARCHAR(64),
					viewing_tenant VARCHAR(64),
					collection VARCHAR(64),
					resource_id VARCHAR(64),
					ip_address VARCHAR(45),
					request_id VARCHAR(100),
					message TEXT,
					error_message TEXT,
					metadata TEXT,
					created_at TIMESTAMP NOT NULL
				);

				CREATE INDEX IF NOT EXISTS idx_audit_events_type ON audit_events(event_type);
				CREATE INDEX IF NOT EXISTS idx_audit_events_user ON audit_events(user_id);
				CREATE INDEX IF NOT EXISTS idx_audit_events_tenant ON audit_events(tenant_id);
				CREATE INDEX IF NOT EXISTS idx_audit_events_created_at ON audit_events(created_at);
			`,
		},
	}
}

// RunMigrations applies all migrations in order
func RunMigrations(ctx context.Context, db *sql.DB) error {
	for _, m := range GetMigrations() {
		if _, err := db.ExecContext(ctx, m.SQL); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Description, err)
		}
	}
	return nil
}
