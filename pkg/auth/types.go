package auth

import "time"

// Role represents a user's role within their home tenant.
// Roles carry no meaning outside the user's own tenant.
type Role string

const (
	RoleAdmin  Role = "admin"  // Full access within the tenant
	RoleEditor Role = "editor" // Can create and edit content
	RoleUser   Role = "user"   // Read-only access
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleUser:
		return true
	}
	return false
}

// User represents an authenticated principal
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	FullName     string     `json:"full_name,omitempty"`
	TenantID     *string    `json:"tenant_id,omitempty"` // home tenant; nil for super-admins without one
	Role         Role       `json:"role"`
	IsSuperAdmin bool       `json:"is_super_admin"` // cross-tenant capability, independent of Role
	IsActive     bool       `json:"is_active"`
	PasswordHash string     `json:"-"` // never expose
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// HomeTenant returns the user's home tenant ID, or "" when none is set.
func (u *User) HomeTenant() string {
	if u == nil || u.TenantID == nil {
		return ""
	}
	return *u.TenantID
}

// Session represents a server-issued login session backed by an opaque
// bearer token. Only the token's hash is stored.
type Session struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	TokenHash   string     `json:"-"` // never expose hash
	TokenPrefix string     `json:"token_prefix"`
	ExpiresAt   time.Time  `json:"expires_at"`
	CreatedAt   time.Time  `json:"created_at"`
	LastSeenAt  *time.Time `json:"last_seen_at,omitempty"`
	RevokedAt   *time.Time `json:"revoked_at,omitempty"`
}

// IsExpired checks if the session has expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// IsRevoked checks if the session has been revoked
func (s *Session) IsRevoked() bool {
	return s.RevokedAt != nil
}

// IsValid checks if the session is usable
func (s *Session) IsValid() bool {
	return !s.IsExpired() && !s.IsRevoked()
}

// AuthContext holds the authentication context for a request
type AuthContext struct {
	User    *User    `json:"user,omitempty"`
	Session *Session `json:"session,omitempty"`
}

// HasRole checks if the authenticated user has the given role.
// Super-admins implicitly satisfy every role check.
func (ac *AuthContext) HasRole(role Role) bool {
	if ac == nil || ac.User == nil {
		return false
	}
	if ac.User.IsSuperAdmin {
		return true
	}
	return ac.User.Role == role
}
