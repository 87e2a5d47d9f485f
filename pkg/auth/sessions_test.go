package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUserStore struct {
	byID    map[string]*User
	byEmail map[string]*User
}

func newStubUserStore(users ...*User) *stubUserStore {
	s := &stubUserStore{byID: make(map[string]*User), byEmail: make(map[string]*User)}
	for _, u := range users {
		s.byID[u.ID] = u
		s.byEmail[u.Email] = u
	}
	return s
}

func (s *stubUserStore) CreateUser(_ context.Context, user *User) error {
	s.byID[user.ID] = user
	s.byEmail[user.Email] = user
	return nil
}

func (s *stubUserStore) GetUser(_ context.Context, id string) (*User, error) {
	if u, ok := s.byID[id]; ok {
		return u, nil
	}
	return nil, errors.New("user not found")
}

func (s *stubUserStore) GetUserByEmail(_ context.Context, email string) (*User, error) {
	if u, ok := s.byEmail[email]; ok {
		return u, nil
	}
	return nil, errors.New("user not found")
}

func (s *stubUserStore) ListUsersByTenant(context.Context, string) ([]*User, error) {
	return nil, nil
}
func (s *stubUserStore) UpdateUser(context.Context, *User) error         { return nil }
func (s *stubUserStore) PromoteSuperAdmin(context.Context, string) error { return nil }
func (s *stubUserStore) DeleteUser(context.Context, string) error        { return nil }

type stubSessionStore struct {
	byHash  map[string]*Session
	touched []string
	revoked []string
}

func newStubSessionStore() *stubSessionStore {
	return &stubSessionStore{byHash: make(map[string]*Session)}
}

func (s *stubSessionStore) CreateSession(_ context.Context, session *Session) error {
	if session.ID == "" {
		session.ID = "session-" + session.TokenPrefix
	}
	s.byHash[session.TokenHash] = session
	return nil
}

func (s *stubSessionStore) GetSessionByHash(_ context.Context, tokenHash string) (*Session, error) {
	if session, ok := s.byHash[tokenHash]; ok {
		return session, nil
	}
	return nil, errors.New("session not found")
}

func (s *stubSessionStore) TouchSession(_ context.Context, id string) error {
	s.touched = append(s.touched, id)
	return nil
}

func (s *stubSessionStore) RevokeSession(_ context.Context, id string) error {
	s.revoked = append(s.revoked, id)
	for _, session := range s.byHash {
		if session.ID == id {
			now := time.Now()
			session.RevokedAt = &now
		}
	}
	return nil
}

func (s *stubSessionStore) DeleteExpiredSessions(context.Context) (int64, error) {
	return 0, nil
}

func activeUser(t *testing.T) *User {
	t.Helper()
	hash, err := HashPassword("correct-password")
	require.NoError(t, err)
	return &User{
		ID:           "user-1",
		Email:        "member@example.com",
		Role:         RoleEditor,
		IsActive:     true,
		PasswordHash: hash,
	}
}

func TestGenerateTokenShape(t *testing.T) {
	gen := NewTokenGenerator()

	token, hash, prefix, err := gen.GenerateToken()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(token, TokenPrefix))
	assert.NoError(t, gen.ValidateTokenFormat(token))
	assert.Equal(t, gen.HashToken(token), hash)
	assert.Equal(t, token[:len(TokenPrefix)+8], prefix)
	assert.NotContains(t, hash, token)
}

func TestGenerateTokenUnique(t *testing.T) {
	gen := NewTokenGenerator()

	first, _, _, err := gen.GenerateToken()
	require.NoError(t, err)
	second, _, _, err := gen.GenerateToken()
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestValidateTokenFormat(t *testing.T) {
	gen := NewTokenGenerator()

	cases := []struct {
		name  string
		token string
	}{
		{"no prefix", "abcdef123456"},
		{"prefix only", "svh_"},
		{"bad encoding", "svh_not!valid!base64url!"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, gen.ValidateTokenFormat(tc.token))
		})
	}
}

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword("hunter22-but-longer")
	require.NoError(t, err)

	assert.True(t, VerifyPassword(hash, "hunter22-but-longer"))
	assert.False(t, VerifyPassword(hash, "hunter22-but-wrong"))
	assert.False(t, VerifyPassword("", "hunter22-but-longer"))
}

func TestHashPasswordIsSalted(t *testing.T) {
	first, err := HashPassword("same-password-twice")
	require.NoError(t, err)
	second, err := HashPassword("same-password-twice")
	require.NoError(t, err)

	// Equal passwords must not yield equal stored hashes.
	assert.NotEqual(t, first, second)
	assert.True(t, VerifyPassword(first, "same-password-twice"))
	assert.True(t, VerifyPassword(second, "same-password-twice"))
}

func TestLoginIssuesValidatableToken(t *testing.T) {
	users := newStubUserStore(activeUser(t))
	sessions := newStubSessionStore()
	manager := NewSessionManager(users, sessions, time.Hour)

	session, token, err := manager.Login(context.Background(), "member@example.com", "correct-password")
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, "user-1", session.UserID)
	assert.True(t, session.ExpiresAt.After(time.Now()))

	user, validated, err := manager.Validate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)
	assert.Equal(t, session.ID, validated.ID)
	assert.Contains(t, sessions.touched, session.ID)
}

func TestLoginFailuresAreUniform(t *testing.T) {
	disabled := activeUser(t)
	disabled.ID = "user-2"
	disabled.Email = "disabled@example.com"
	disabled.IsActive = false

	users := newStubUserStore(activeUser(t), disabled)
	manager := NewSessionManager(users, newStubSessionStore(), time.Hour)

	cases := []struct {
		name     string
		email    string
		password string
	}{
		{"unknown email", "nobody@example.com", "correct-password"},
		{"wrong password", "member@example.com", "wrong-password"},
		{"disabled account", "disabled@example.com", "correct-password"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := manager.Login(context.Background(), tc.email, tc.password)
			require.Error(t, err)
			// A probing caller cannot tell the cases apart.
			assert.EqualError(t, err, "invalid credentials")
		})
	}
}

func TestValidateRejectsExpiredSession(t *testing.T) {
	users := newStubUserStore(activeUser(t))
	sessions := newStubSessionStore()
	manager := NewSessionManager(users, sessions, time.Hour)

	_, token, err := manager.Login(context.Background(), "member@example.com", "correct-password")
	require.NoError(t, err)

	session := sessions.byHash[manager.generator.HashToken(token)]
	session.ExpiresAt = time.Now().Add(-time.Minute)

	_, _, err = manager.Validate(context.Background(), token)
	assert.Error(t, err)
}

func TestLogoutRevokesSession(t *testing.T) {
	users := newStubUserStore(activeUser(t))
	sessions := newStubSessionStore()
	manager := NewSessionManager(users, sessions, time.Hour)

	session, token, err := manager.Login(context.Background(), "member@example.com", "correct-password")
	require.NoError(t, err)

	require.NoError(t, manager.Logout(context.Background(), token))
	assert.Contains(t, sessions.revoked, session.ID)

	_, _, err = manager.Validate(context.Background(), token)
	assert.Error(t, err)
}

func TestValidateRejectsDeactivatedUser(t *testing.T) {
	user := activeUser(t)
	users := newStubUserStore(user)
	sessions := newStubSessionStore()
	manager := NewSessionManager(users, sessions, time.Hour)

	_, token, err := manager.Login(context.Background(), "member@example.com", "correct-password")
	require.NoError(t, err)

	user.IsActive = false
	_, _, err = manager.Validate(context.Background(), token)
	assert.Error(t, err)
}
