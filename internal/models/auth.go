package models

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Role names issued by the platform backend.
const (
	RoleUser = "USER"
	RoleHost = "HOST"
)

// Claims is the access-token payload issued by the platform backend.
type Claims struct {
	Email string   `json:"email"`
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// UserID returns the token subject.
func (c *Claims) UserID() string {
	if c == nil {
		return ""
	}
	return c.Subject
}

// HasRole reports whether the token grants role (case-insensitive).
func (c *Claims) HasRole(role string) bool {
	if c == nil {
		return false
	}
	for _, r := range c.Roles {
		if strings.EqualFold(strings.TrimPrefix(r, "ROLE_"), role) {
			return true
		}
	}
	return false
}
