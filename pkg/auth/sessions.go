package auth

import (
	"context"
	"fmt"
	"time"
)

// DefaultSessionTTL bounds how long a login session lives without renewal.
const DefaultSessionTTL = 7 * 24 * time.Hour

// SessionManager handles session token lifecycle
type SessionManager struct {
	users     UserStore
	sessions  SessionStore
	generator *TokenGenerator
	ttl       time.Duration
}

// NewSessionManager creates a new session manager
func NewSessionManager(users UserStore, sessions SessionStore, ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionManager{
		users:     users,
		sessions:  sessions,
		generator: NewTokenGenerator(),
		ttl:       ttl,
	}
}

// Login authenticates a user by email and password and issues a session
// token. The raw token is returned exactly once and never stored.
func (m *SessionManager) Login(ctx context.Context, email, password string) (*Session, string, error) {
	user, err := m.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("invalid credentials")
	}
	if !user.IsActive {
		return nil, "", fmt.Errorf("invalid credentials")
	}
	if !VerifyPassword(user.PasswordHash, password) {
		return nil, "", fmt.Errorf("invalid credentials")
	}

	token, tokenHash, tokenPrefix, err := m.generator.GenerateToken()
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate session token: %w", err)
	}

	session := &Session{
		UserID:      user.ID,
		TokenHash:   tokenHash,
		TokenPrefix: tokenPrefix,
		ExpiresAt:   time.Now().Add(m.ttl),
	}
	if err := m.sessions.CreateSession(ctx, session); err != nil {
		return nil, "", fmt.Errorf("failed to create session: %w", err)
	}

	if recorder, ok := m.users.(interface {
		RecordLogin(context.Context, string, time.Time) error
	}); ok {
		// Best effort; a failed stamp must not fail the login.
		_ = recorder.RecordLogin(ctx, user.ID, time.Now())
	}

	return session, token, nil
}

// Validate resolves a bearer token to its user. Returns an error for
// malformed, unknown, expired, or revoked tokens.
func (m *SessionManager) Validate(ctx context.Context, token string) (*User, *Session, error) {
	if err := m.generator.ValidateTokenFormat(token); err != nil {
		return nil, nil, fmt.Errorf("invalid token: %w", err)
	}

	session, err := m.sessions.GetSessionByHash(ctx, m.generator.HashToken(token))
	if err != nil {
		return nil, nil, fmt.Errorf("invalid token")
	}
	if !session.IsValid() {
		return nil, nil, fmt.Errorf("session expired or revoked")
	}

	user, err := m.users.GetUser(ctx, session.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid token")
	}
	if !user.IsActive {
		return nil, nil, fmt.Errorf("account disabled")
	}

	// Best effort activity stamp
	_ = m.sessions.TouchSession(ctx, session.ID)

	return user, session, nil
}

// Logout revokes the session behind the given token
func (m *SessionManager) Logout(ctx context.Context, token string) error {
	session, err := m.sessions.GetSessionByHash(ctx, m.generator.HashToken(token))
	if err != nil {
		return fmt.Errorf("invalid token")
	}
	return m.sessions.RevokeSession(ctx, session.ID)
}
