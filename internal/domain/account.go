package domain

import (
	"strings"
	"time"
)

// Account is a registered user that can link a channel address.
type Account struct {
	Identity     string     `json:"identity"`
	PasswordHash string     `json:"-"`
	DisplayName  string     `json:"display_name"`
	Active       bool       `json:"active"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// Name returns the display name, falling back to the identity.
func (a *Account) Name() string {
	if a.DisplayName != "" {
		return a.DisplayName
	}
	return a.Identity
}

// NormalizeIdentity trims and lower-cases an identity so that login,
// registry and dispatch all agree on the same key.
func NormalizeIdentity(identity string) string {
	return strings.ToLower(strings.TrimSpace(identity))
}
