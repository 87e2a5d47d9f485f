package tenants

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ErrTenantNotFound is returned when the target tenant does not exist.
var ErrTenantNotFound = errors.New("tenants: tenant not found")

// ErrDomainTaken is returned when a tenant with the same domain or name
// already exists.
var ErrDomainTaken = errors.New("tenants: domain or name already in use")

var domainPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

// ValidateDomain checks that a tenant domain is a valid subdomain label
func ValidateDomain(domain string) error {
	if !domainPattern.MatchString(domain) {
		return fmt.Errorf("domain must be lowercase alphanumeric with hyphens only")
	}
	return nil
}

// PostgresService implements the Service interface using PostgreSQL
type PostgresService struct {
	db *sql.DB
}

// NewPostgresService creates a new PostgresService
func NewPostgresService(db *sql.DB) *PostgresService {
	return &PostgresService{db: db}
}

// CreateTenant creates a new tenant record. Authorization (super-admin
// only) is enforced by the caller before reaching the store.
func (s *PostgresService) CreateTenant(ctx context.Context, tenant *Tenant) error {
	if tenant.Name == "" {
		return fmt.Errorf("tenant name is required")
	}
	if err := ValidateDomain(tenant.Domain); err != nil {
		return err
	}
	if tenant.ID == "" {
		tenant.ID = uuid.NewString()
	}
	if tenant.Status == "" {
		tenant.Status = TenantStatusActive
	}

	settingsJSON, err := json.Marshal(tenant.Settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	metadataJSON, err := json.Marshal(tenant.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := `
		INSERT INTO tenants (id, name, domain, status, settings, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	err = s.db.QueryRowContext(ctx, query, tenant.ID, tenant.Name, tenant.Domain,
		tenant.Status, settingsJSON, metadataJSON).
		Scan(&tenant.CreatedAt, &tenant.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDomainTaken
	}
	if err != nil {
		return fmt.Errorf("failed to create tenant: %w", err)
	}
	return nil
}

const tenantColumns = `id, name, domain, status, settings, metadata, created_at, updated_at`

func scanTenant(row interface{ Scan(...interface{}) error }) (*Tenant, error) {
	tenant := &Tenant{}
	var settingsJSON, metadataJSON []byte
	err := row.Scan(&tenant.ID, &tenant.Name, &tenant.Domain, &tenant.Status,
		&settingsJSON, &metadataJSON, &tenant.CreatedAt, &tenant.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(settingsJSON) > 0 {
		if err := json.Unmarshal(settingsJSON, &tenant.Settings); err != nil {
			return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
		}
	}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &tenant.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}
	return tenant, nil
}

// GetTenant retrieves a tenant by ID
func (s *PostgresService) GetTenant(ctx context.Context, id string) (*Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE id = $1`
	tenant, err := scanTenant(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrTenantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	return tenant, nil
}

// GetTenantByDomain retrieves a tenant by its subdomain
func (s *PostgresService) GetTenantByDomain(ctx context.Context, domain string) (*Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE domain = $1`
	tenant, err := scanTenant(s.db.QueryRowContext(ctx, query, domain))
	if err == sql.ErrNoRows {
		return nil, ErrTenantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant by domain: %w", err)
	}
	return tenant, nil
}

// ListTenants lists all tenants
func (s *PostgresService) ListTenants(ctx context.Context) ([]*Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants ORDER BY name`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	defer rows.Close()

	var result []*Tenant
	for rows.Next() {
		tenant, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tenant: %w", err)
		}
		result = append(result, tenant)
	}
	return result, rows.Err()
}

// UpdateTenant updates a tenant record
func (s *PostgresService) UpdateTenant(ctx context.Context, tenant *Tenant) error {
	if err := ValidateDomain(tenant.Domain); err != nil {
		return err
	}

	settingsJSON, err := json.Marshal(tenant.Settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	metadataJSON, err := json.Marshal(tenant.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := `
		UPDATE tenants
		SET name = $2, domain = $3, status = $4, settings = $5, metadata = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err = s.db.QueryRowContext(ctx, query, tenant.ID, tenant.Name, tenant.Domain,
		tenant.Status, settingsJSON, metadataJSON).Scan(&tenant.UpdatedAt)
	if err == sql.ErrNoRows {
		return ErrTenantNotFound
	}
	if isUniqueViolation(err) {
		return ErrDomainTaken
	}
	if err != nil {
		return fmt.Errorf("failed to update tenant: %w", err)
	}
	return nil
}

// DeleteTenant deletes a tenant and cascades to its scoped resources
func (s *PostgresService) DeleteTenant(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM tenants WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete tenant: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return ErrTenantNotFound
	}
	return nil
}

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
