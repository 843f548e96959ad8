// Package credentials persists bistroctl's server URL and tokens between
// invocations.
package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	configDirName  = "bistroctl"
	configFileName = "credentials.json"

	filePermissions = 0600
	dirPermissions  = 0700
)

// ErrNotLoggedIn indicates no saved credentials exist.
var ErrNotLoggedIn = errors.New("not logged in - run 'bistroctl login' first")

// Credentials is the saved session for one server.
type Credentials struct {
	ServerURL    string    `json:"server_url"`
	Username     string    `json:"username,omitempty"`
	AccessToken  string    `json:"access_token,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
}

// IsExpired reports whether the access token has expired or is about to.
// A 60 second margin avoids sending a token that dies in flight.
func (c *Credentials) IsExpired() bool {
	if c.ExpiresAt.IsZero() {
		return true
	}
	return time.Now().Add(60 * time.Second).After(c.ExpiresAt)
}

// HasRefreshToken reports whether a refresh token is available.
func (c *Credentials) HasRefreshToken() bool {
	return c.RefreshToken != ""
}

// Store reads and writes the credentials file.
type Store struct {
	path  string
	creds *Credentials
}

// NewStore opens the credentials file under $XDG_CONFIG_HOME/bistroctl,
// creating an empty store when none exists.
func NewStore() (*Store, error) {
	path, err := credentialsPath()
	if err != nil {
		return nil, err
	}

	s := &Store{path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			s.creds = &Credentials{}
			return s, nil
		}
		return nil, err
	}

	s.creds = &Credentials{}
	if err := json.Unmarshal(data, s.creds); err != nil {
		return nil, fmt.Errorf("corrupt credentials file %s: %w", path, err)
	}
	return s, nil
}

func credentialsPath() (string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, configDirName, configFileName), nil
}

// Get returns the saved credentials, or ErrNotLoggedIn when no token exists.
func (s *Store) Get() (*Credentials, error) {
	if s.creds.AccessToken == "" && s.creds.RefreshToken == "" {
		return nil, ErrNotLoggedIn
	}
	return s.creds, nil
}

// ServerURL returns the saved server URL, which may exist without a login.
func (s *Store) ServerURL() string {
	return s.creds.ServerURL
}

// Save replaces the stored credentials.
func (s *Store) Save(creds *Credentials) error {
	s.creds = creds
	return s.write()
}

// UpdateTokens stores a fresh token pair after a refresh.
func (s *Store) UpdateTokens(accessToken, refreshToken string, expiresAt time.Time) error {
	s.creds.AccessToken = accessToken
	s.creds.RefreshToken = refreshToken
	s.creds.ExpiresAt = expiresAt
	return s.write()
}

// Clear drops the tokens but keeps the server URL for the next login.
func (s *Store) Clear() error {
	s.creds.Username = ""
	s.creds.AccessToken = ""
	s.creds.RefreshToken = ""
	s.creds.ExpiresAt = time.Time{}
	return s.write()
}

// Path returns the location of the credentials file.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) write() error {
	if err := os.MkdirAll(filepath.Dir(s.path), dirPermissions); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}
	data, err := json.MarshalIndent(s.creds, "", "  ")
	if err != nil {
		return err
	}
	// Tokens grant staff access; keep the file owner-only.
	return os.WriteFile(s.path, data, filePermissions)
}
