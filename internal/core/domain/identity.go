package domain

import (
	"strings"
	"time"
)

// Role is the authorization role carried in a token's payload.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// ParseRole normalises a role claim. Unknown values are returned as-is in
// upper case so callers can still display them.
func ParseRole(s string) Role {
	return Role(strings.ToUpper(strings.TrimSpace(s)))
}

// Valid reports whether r is one of the roles the backend issues.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Identity is the logged-in user as derived from the bearer token.
//
// It is never persisted on its own. An Identity is only meaningful while the
// token it was derived from is still the one held by the session; use
// Session.Holds to check.
type Identity struct {
	Subject   string    `json:"subject"`
	Role      Role      `json:"role"`
	ExpiresAt time.Time `json:"expiresAt,omitzero"`
	UserID    int64     `json:"userId,omitempty"`
	Name      string    `json:"name,omitempty"`

	token string
}

// NewIdentity binds an identity to the token it was decoded from.
func NewIdentity(token, subject string, role Role, expiresAt time.Time) *Identity {
	return &Identity{
		Subject:   subject,
		Role:      role,
		ExpiresAt: expiresAt,
		token:     token,
	}
}

// Token returns the bearer token this identity was derived from.
func (i *Identity) Token() string {
	if i == nil {
		return ""
	}
	return i.token
}

func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

// IsUser reports whether the identity may use member features. Admins are
// members too.
func (i *Identity) IsUser() bool {
	return i != nil && (i.Role == RoleUser || i.Role == RoleAdmin)
}

// Expired is informational only: the backend decides whether a token is
// still accepted.
func (i *Identity) Expired(now time.Time) bool {
	if i == nil || i.ExpiresAt.IsZero() {
		return false
	}
	return now.After(i.ExpiresAt)
}
