package apiclient

import (
	"time"

	"github.com/bistrokit/bistro/pkg/models"
)

// LoginRequest carries staff credentials.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse is the token pair returned by login and refresh.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"` // seconds
}

// ExpiresInDuration returns ExpiresIn as a time.Duration.
func (t *TokenResponse) ExpiresInDuration() time.Duration {
	return time.Duration(t.ExpiresIn) * time.Second
}

// Login authenticates a staff account and returns a token pair.
func (c *Client) Login(username, password string) (*TokenResponse, error) {
	req := LoginRequest{Username: username, Password: password}

	var resp TokenResponse
	if err := c.post("/api/v1/auth/login", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Refresh trades a refresh token for a fresh token pair.
func (c *Client) Refresh(refreshToken string) (*TokenResponse, error) {
	req := struct {
		RefreshToken string `json:"refresh_token"`
	}{RefreshToken: refreshToken}

	var resp TokenResponse
	if err := c.post("/api/v1/auth/refresh", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Me returns the account behind the current token.
func (c *Client) Me() (*models.User, error) {
	return getResource[models.User](c, "/api/v1/auth/me")
}
