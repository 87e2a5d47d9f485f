package resources

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitehaven/sitehaven/pkg/access"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock
}

func recordRows(t time.Time, records ...[3]string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "collection", "tenant_id", "name", "data", "created_at", "updated_at"})
	for _, r := range records {
		rows.AddRow(r[0], r[1], r[2], "", []byte(`{}`), t, t)
	}
	return rows
}

func TestListDenyVerdictReturnsNothing(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	store := NewPostgresStore(db)

	// No query must reach the database for a denied caller
	records, err := store.List(context.Background(), "pages", access.Deny())
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListScopedVerdictFiltersByTenant(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	store := NewPostgresStore(db)
	now := time.Now()

	mock.ExpectQuery(`SELECT (.+) FROM resources WHERE collection = \$1 AND tenant_id = \$2`).
		WithArgs("pages", "t1").
		WillReturnRows(recordRows(now, [3]string{"r1", "pages", "t1"}))

	records, err := store.List(context.Background(), "pages", access.ScopeToTenant("t1"))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "t1", records[0].TenantID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListAllowVerdictUnfiltered(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	store := NewPostgresStore(db)
	now := time.Now()

	mock.ExpectQuery(`SELECT (.+) FROM resources WHERE collection = \$1 ORDER BY created_at`).
		WithArgs("pages").
		WillReturnRows(recordRows(now, [3]string{"r1", "pages", "t1"}, [3]string{"r2", "pages", "t2"}))

	records, err := store.List(context.Background(), "pages", access.Allow())
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOutsideScopeIsNotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	store := NewPostgresStore(db)

	// The record exists under tenant t2 but the scope is t1, so the
	// filtered query matches nothing.
	mock.ExpectQuery(`SELECT (.+) FROM resources WHERE collection = \$1 AND id = \$2 AND tenant_id = \$3`).
		WithArgs("pages", "r1", "t1").
		WillReturnError(sql.ErrNoRows)

	_, err := store.Get(context.Background(), "pages", "r1", access.ScopeToTenant("t1"))
	assert.ErrorIs(t, err, ErrRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRequiresTenant(t *testing.T) {
	db, _ := setupMockDB(t)
	defer db.Close()

	store := NewPostgresStore(db)
	err := store.Create(context.Background(), &Record{Collection: "pages"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "tenant is required")
}

func TestCreateRecord(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	store := NewPostgresStore(db)
	now := time.Now()

	mock.ExpectQuery("INSERT INTO resources").
		WithArgs(sqlmock.AnyArg(), "pages", "t1", "About", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	record := &Record{Collection: "pages", TenantID: "t1", Name: "About"}
	require.NoError(t, store.Create(context.Background(), record))
	assert.NotEmpty(t, record.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSingletonConflictFromConstraint(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	store := NewPostgresStore(db)

	// Two concurrent creates can both pass the pre-check; the unique
	// index is the final arbiter and must surface as a singleton
	// conflict, not a generic failure.
	mock.ExpectQuery("INSERT INTO resources").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "idx_resources_singleton"})

	err := store.Create(context.Background(), &Record{Collection: "homepage", TenantID: "t1"})
	require.Error(t, err)
	assert.True(t, access.IsDuplicateSingleton(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOtherUniqueViolationIsNotSingletonConflict(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	store := NewPostgresStore(db)

	// A duplicate primary key is a different 23505 and must not be
	// reported as an existing singleton.
	mock.ExpectQuery("INSERT INTO resources").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "resources_pkey"})

	err := store.Create(context.Background(), &Record{Collection: "homepage", TenantID: "t1"})
	require.Error(t, err)
	assert.False(t, access.IsDuplicateSingleton(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateScopedToTenant(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	store := NewPostgresStore(db)

	mock.ExpectExec(`UPDATE resources SET name = \$3, data = \$4, updated_at = NOW\(\)`).
		WithArgs("pages", "r1", "Renamed", sqlmock.AnyArg(), "t1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	record := &Record{ID: "r1", Collection: "pages", Name: "Renamed"}
	require.NoError(t, store.Update(context.Background(), record, access.ScopeToTenant("t1")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateOutsideScopeIsNotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	store := NewPostgresStore(db)

	mock.ExpectExec("UPDATE resources").
		WillReturnResult(sqlmock.NewResult(0, 0))

	record := &Record{ID: "r1", Collection: "pages"}
	err := store.Update(context.Background(), record, access.ScopeToTenant("t1"))
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestDeleteDenyVerdict(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	store := NewPostgresStore(db)

	err := store.Delete(context.Background(), "pages", "r1", access.Deny())
	assert.ErrorIs(t, err, ErrRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteScopedToTenant(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	store := NewPostgresStore(db)

	mock.ExpectExec(`DELETE FROM resources WHERE collection = \$1 AND id = \$2 AND tenant_id = \$3`).
		WithArgs("pages", "r1", "t3").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Delete(context.Background(), "pages", "r1", access.ScopeToTenant("t3")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSingletonExists(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	store := NewPostgresStore(db)

	mock.ExpectQuery(`SELECT id FROM resources WHERE collection = \$1 AND tenant_id = \$2`).
		WithArgs("homepage", "t1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("r42"))

	id, exists, err := store.SingletonExists(context.Background(), "homepage", "t1")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, "r42", id)

	mock.ExpectQuery(`SELECT id FROM resources WHERE collection = \$1 AND tenant_id = \$2`).
		WithArgs("homepage", "t2").
		WillReturnError(sql.ErrNoRows)

	_, exists, err = store.SingletonExists(context.Background(), "homepage", "t2")
	require.NoError(t, err)
	assert.False(t, exists)
}
