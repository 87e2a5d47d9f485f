package resources

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/sitehaven/sitehaven/pkg/access"
)

// ErrRecordNotFound is returned when no record matches within the verdict's
// scope. Records outside the caller's scope are indistinguishable from
// records that do not exist.
var ErrRecordNotFound = errors.New("resources: record not found")

// Store persists tenant-scoped records and applies access verdicts as
// query filters.
type Store interface {
	List(ctx context.Context, collection string, verdict access.Verdict) ([]*Record, error)
	Get(ctx context.Context, collection, id string, verdict access.Verdict) (*Record, error)
	Create(ctx context.Context, record *Record) error
	Update(ctx context.Context, record *Record, verdict access.Verdict) error
	Delete(ctx context.Context, collection, id string, verdict access.Verdict) error
	SingletonExists(ctx context.Context, collection, tenantID string) (string, bool, error)
}

// PostgresStore implements Store using PostgreSQL
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgresStore
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const recordColumns = `id, collection, tenant_id, name, data, created_at, updated_at`

func scanRecord(row interface{ Scan(...interface{}) error }) (*Record, error) {
	record := &Record{}
	var dataJSON []byte
	err := row.Scan(&record.ID, &record.Collection, &record.TenantID,
		&record.Name, &dataJSON, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(dataJSON) > 0 {
		if err := json.Unmarshal(dataJSON, &record.Data); err != nil {
			return nil, fmt.Errorf("failed to unmarshal record data: %w", err)
		}
	}
	return record, nil
}

// List returns the records in a collection visible under the verdict.
// A deny verdict yields an empty result, a scoped verdict ANDs the tenant
// filter into the query.
func (s *PostgresStore) List(ctx context.Context, collection string, verdict access.Verdict) ([]*Record, error) {
	if !verdict.Permits() {
		return nil, nil
	}

	query := `SELECT ` + recordColumns + ` FROM resources WHERE collection = $1`
	args := []interface{}{collection}
	if filter := verdict.Filter(); filter != nil {
		query += ` AND tenant_id = $2`
		args = append(args, filter.Equals)
	}
	query += ` ORDER BY created_at`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s records: %w", collection, err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Get returns one record if it falls within the verdict's scope
func (s *PostgresStore) Get(ctx context.Context, collection, id string, verdict access.Verdict) (*Record, error) {
	if !verdict.Permits() {
		return nil, ErrRecordNotFound
	}

	query := `SELECT ` + recordColumns + ` FROM resources WHERE collection = $1 AND id = $2`
	args := []interface{}{collection, id}
	if filter := verdict.Filter(); filter != nil {
		query += ` AND tenant_id = $3`
		args = append(args, filter.Equals)
	}

	record, err := scanRecord(s.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	return record, nil
}

// Create inserts a record. The tenant must already be stamped; an unset
// tenant is a data-integrity error rejected before persistence. The
// singleton unique index is the final arbiter for one-per-tenant
// collections and maps to a DuplicateSingletonError here.
func (s *PostgresStore) Create(ctx context.Context, record *Record) error {
	if record.TenantID == "" {
		return fmt.Errorf("tenant is required for %s records", record.Collection)
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}

	dataJSON, err := json.Marshal(record.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal record data: %w", err)
	}

	query := `
		INSERT INTO resources (id, collection, tenant_id, name, data)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`
	err = s.db.QueryRowContext(ctx, query, record.ID, record.Collection,
		record.TenantID, record.Name, dataJSON).
		Scan(&record.CreatedAt, &record.UpdatedAt)
	if isSingletonViolation(err) {
		return &access.DuplicateSingletonError{
			Collection: record.Collection,
			TenantID:   record.TenantID,
		}
	}
	if err != nil {
		return fmt.Errorf("failed to create record: %w", err)
	}
	return nil
}

// Update modifies a record's name and data within the verdict's scope. The
// tenant reference itself is never updated here; it is immutable once set.
func (s *PostgresStore) Update(ctx context.Context, record *Record, verdict access.Verdict) error {
	if !verdict.Permits() {
		return ErrRecordNotFound
	}

	dataJSON, err := json.Marshal(record.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal record data: %w", err)
	}

	query := `
		UPDATE resources SET name = $3, data = $4, updated_at = NOW()
		WHERE collection = $1 AND id = $2
	`
	args := []interface{}{record.Collection, record.ID, record.Name, dataJSON}
	if filter := verdict.Filter(); filter != nil {
		query += ` AND tenant_id = $5`
		args = append(args, filter.Equals)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// Delete removes a record within the verdict's scope
func (s *PostgresStore) Delete(ctx context.Context, collection, id string, verdict access.Verdict) error {
	if !verdict.Permits() {
		return ErrRecordNotFound
	}

	query := `DELETE FROM resources WHERE collection = $1 AND id = $2`
	args := []interface{}{collection, id}
	if filter := verdict.Filter(); filter != nil {
		query += ` AND tenant_id = $3`
		args = append(args, filter.Equals)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// SingletonExists checks whether a one-per-tenant record already exists.
// This is the advisory pre-check; the unique index catches the race when
// two creates pass it concurrently.
func (s *PostgresStore) SingletonExists(ctx context.Context, collection, tenantID string) (string, bool, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM resources WHERE collection = $1 AND tenant_id = $2 LIMIT 1`,
		collection, tenantID).Scan(&id)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to check singleton: %w", err)
	}
	return id, true, nil
}

// singletonIndexName is the partial unique index from the migrations that
// enforces one record per (collection, tenant) for singleton collections.
const singletonIndexName = "idx_resources_singleton"

func isSingletonViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// Other 23505s on this insert (an id collision, say) are not
		// singleton conflicts.
		return pqErr.Code == "23505" && pqErr.Constraint == singletonIndexName
	}
	return false
}
