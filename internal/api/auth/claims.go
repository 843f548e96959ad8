// Package auth provides JWT authentication for the Bistro ops API.
package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/bistrokit/bistro/pkg/models"
)

// TokenType indicates whether a token is an access token or refresh token.
type TokenType string

const (
	// TokenTypeAccess is a short-lived token used for API authorization.
	TokenTypeAccess TokenType = "access"
	// TokenTypeRefresh is a long-lived token used to obtain new access tokens.
	TokenTypeRefresh TokenType = "refresh"
)

// Claims represents JWT claims for Bistro ops API authentication.
// Only staff accounts (WORKER, MANAGER) hold tokens; members and guests use
// the wire protocol.
type Claims struct {
	jwt.RegisteredClaims

	// UserID is the numeric user id.
	UserID uint `json:"uid"`

	// Username is the human-readable username.
	Username string `json:"username"`

	// Role is the user's role ("WORKER" or "MANAGER").
	Role string `json:"role"`

	// TokenType indicates whether this is an access or refresh token.
	TokenType TokenType `json:"token_type"`
}

// IsAccessToken returns true if this is an access token.
func (c *Claims) IsAccessToken() bool {
	return c.TokenType == TokenTypeAccess
}

// IsRefreshToken returns true if this is a refresh token.
func (c *Claims) IsRefreshToken() bool {
	return c.TokenType == TokenTypeRefresh
}

// IsManager returns true if the user has the manager role.
func (c *Claims) IsManager() bool {
	return c.Role == string(models.RoleManager)
}
