package auth

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// UserStore manages user records
type UserStore interface {
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	ListUsersByTenant(ctx context.Context, tenantID string) ([]*User, error)
	UpdateUser(ctx context.Context, user *User) error
	PromoteSuperAdmin(ctx context.Context, email string) error
	DeleteUser(ctx context.Context, id string) error
}

// SessionStore manages session records
type SessionStore interface {
	CreateSession(ctx context.Context, session *Session) error
	GetSessionByHash(ctx context.Context, tokenHash string) (*Session, error)
	TouchSession(ctx context.Context, id string) error
	RevokeSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}

// PostgresUserStore implements UserStore using PostgreSQL
type PostgresUserStore struct {
	db *sql.DB
}

// NewPostgresUserStore creates a new PostgresUserStore
func NewPostgresUserStore(db *sql.DB) *PostgresUserStore {
	return &PostgresUserStore{db: db}
}

// CreateUser creates a new user
func (s *PostgresUserStore) CreateUser(ctx context.Context, user *User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Role == "" {
		user.Role = RoleUser
	}
	if !ValidRole(user.Role) {
		return fmt.Errorf("invalid role %q", user.Role)
	}
	user.IsActive = true

	query := `
		INSERT INTO users (id, email, full_name, tenant_id, role, is_super_admin, is_active, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`
	err := s.db.QueryRowContext(ctx, query, user.ID, user.Email, user.FullName,
		user.TenantID, user.Role, user.IsSuperAdmin, user.IsActive, user.PasswordHash).
		Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

const userColumns = `id, email, full_name, tenant_id, role, is_super_admin, is_active, password_hash, created_at, updated_at, last_login_at`

func scanUser(row interface{ Scan(...interface{}) error }) (*User, error) {
	user := &User{}
	err := row.Scan(&user.ID, &user.Email, &user.FullName, &user.TenantID,
		&user.Role, &user.IsSuperAdmin, &user.IsActive, &user.PasswordHash,
		&user.CreatedAt, &user.UpdatedAt, &user.LastLoginAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetUser retrieves a user by ID
func (s *PostgresUserStore) GetUser(ctx context.Context, id string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetUserByEmail retrieves a user by email
func (s *PostgresUserStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	user, err := scanUser(s.db.QueryRowContext(ctx, query, email))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// ListUsersByTenant lists users belonging to a tenant
func (s *PostgresUserStore) ListUsersByTenant(ctx context.Context, tenantID string) ([]*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE tenant_id = $1 ORDER BY email`
	rows, err := s.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// UpdateUser updates a user's mutable fields
func (s *PostgresUserStore) UpdateUser(ctx context.Context, user *User) error {
	query := `
		UPDATE users
		SET email = $2, full_name = $3, role = $4, is_active = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := s.db.QueryRowContext(ctx, query, user.ID, user.Email, user.FullName,
		user.Role, user.IsActive).Scan(&user.UpdatedAt)
	if err == sql.ErrNoRows {
		return fmt.Errorf("user not found")
	}
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// PromoteSuperAdmin grants the global-privilege flag to a user by email
func (s *PostgresUserStore) PromoteSuperAdmin(ctx context.Context, email string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET is_super_admin = TRUE, updated_at = NOW() WHERE email = $1`, email)
	if err != nil {
		return fmt.Errorf("failed to promote user: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("user not found")
	}
	return nil
}

// DeleteUser deletes a user
func (s *PostgresUserStore) DeleteUser(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("user not found")
	}
	return nil
}

// RecordLogin stamps the user's last login time
func (s *PostgresUserStore) RecordLogin(ctx context.Context, id string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET last_login_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("failed to record login: %w", err)
	}
	return nil
}

// PostgresSessionStore implements SessionStore using PostgreSQL
type PostgresSessionStore struct {
	db *sql.DB
}

// NewPostgresSessionStore creates a new PostgresSessionStore
func NewPostgresSessionStore(db *sql.DB) *PostgresSessionStore {
	return &PostgresSessionStore{db: db}
}

// CreateSession creates a new session record
func (s *PostgresSessionStore) CreateSession(ctx context.Context, session *Session) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	query := `
		INSERT INTO sessions (id, user_id, token_hash, token_prefix, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	err := s.db.QueryRowContext(ctx, query, session.ID, session.UserID,
		session.TokenHash, session.TokenPrefix, session.ExpiresAt).
		Scan(&session.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// GetSessionByHash retrieves a session by token hash
func (s *PostgresSessionStore) GetSessionByHash(ctx context.Context, tokenHash string) (*Session, error) {
	query := `
		SELECT id, user_id, token_hash, token_prefix, expires_at, created_at, last_seen_at, revoked_at
		FROM sessions
		WHERE token_hash = $1
	`
	session := &Session{}
	err := s.db.QueryRowContext(ctx, query, tokenHash).Scan(
		&session.ID, &session.UserID, &session.TokenHash, &session.TokenPrefix,
		&session.ExpiresAt, &session.CreatedAt, &session.LastSeenAt, &session.RevokedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// TouchSession updates the session's last-seen timestamp
func (s *PostgresSessionStore) TouchSession(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET last_seen_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	return nil
}

// RevokeSession marks a session as revoked
func (s *PostgresSessionStore) RevokeSession(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET revoked_at = NOW() WHERE id = $1 AND revoked_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes sessions past their expiry
func (s *PostgresSessionStore) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < NOW()`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted sessions: %w", err)
	}
	return deleted, nil
}
