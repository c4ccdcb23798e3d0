package models

import "github.com/golang-jwt/jwt/v5"

// UserRole represents the roles carried in access tokens.
type UserRole string

const (
	RoleAdmin UserRole = "ADMIN"
	RoleOwner UserRole = "OWNER"
)

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID        string   `json:"user_id"`
	Role          UserRole `json:"role"`
	UserAccountID string   `json:"user_account_id"`
	jwt.RegisteredClaims
}

// CanAccess reports whether the caller may read or act on the given owner scope.
func (c *JWTClaims) CanAccess(userAccountID string) bool {
	if c == nil {
		return false
	}
	if c.Role == RoleAdmin {
		return true
	}
	return c.UserAccountID != "" && c.UserAccountID == userAccountID
}
