package credentials

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// newTestStore points XDG_CONFIG_HOME at a temp dir so tests never touch the
// real credentials file.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	s, err := NewStore()
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func TestStore_EmptyIsNotLoggedIn(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Get(); !errors.Is(err, ErrNotLoggedIn) {
		t.Errorf("Get() error = %v, want ErrNotLoggedIn", err)
	}
	if s.ServerURL() != "" {
		t.Errorf("ServerURL() = %q, want empty", s.ServerURL())
	}
}

func TestStore_SaveAndReload(t *testing.T) {
	s := newTestStore(t)

	expires := time.Now().Add(15 * time.Minute).Truncate(time.Second)
	err := s.Save(&Credentials{
		ServerURL:    "http://localhost:8080",
		Username:     "boss",
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresAt:    expires,
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	info, err := os.Stat(s.Path())
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}

	// A fresh store reads the same file back.
	reloaded, err := NewStore()
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	creds, err := reloaded.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if creds.Username != "boss" || creds.AccessToken != "access" {
		t.Errorf("creds = %+v", creds)
	}
	if !creds.ExpiresAt.Equal(expires) {
		t.Errorf("ExpiresAt = %v, want %v", creds.ExpiresAt, expires)
	}
}

func TestStore_ClearKeepsServerURL(t *testing.T) {
	s := newTestStore(t)

	if err := s.Save(&Credentials{
		ServerURL:   "http://localhost:8080",
		Username:    "boss",
		AccessToken: "access",
	}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	if _, err := s.Get(); !errors.Is(err, ErrNotLoggedIn) {
		t.Errorf("Get() after Clear = %v, want ErrNotLoggedIn", err)
	}
	if s.ServerURL() != "http://localhost:8080" {
		t.Errorf("ServerURL() = %q, want kept", s.ServerURL())
	}
}

func TestStore_UpdateTokens(t *testing.T) {
	s := newTestStore(t)

	if err := s.Save(&Credentials{ServerURL: "http://localhost:8080", AccessToken: "old"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	expires := time.Now().Add(15 * time.Minute)
	if err := s.UpdateTokens("new-access", "new-refresh", expires); err != nil {
		t.Fatalf("UpdateTokens: %v", err)
	}

	creds, err := s.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if creds.AccessToken != "new-access" || creds.RefreshToken != "new-refresh" {
		t.Errorf("tokens = %s/%s", creds.AccessToken, creds.RefreshToken)
	}
}

func TestStore_CorruptFile(t *testing.T) {
	s := newTestStore(t)
	if err := os.MkdirAll(filepath.Dir(s.Path()), 0700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(s.Path(), []byte("{not json"), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := NewStore(); err == nil {
		t.Fatal("expected error for corrupt credentials file")
	}
}

func TestCredentials_IsExpired(t *testing.T) {
	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{"zero time", time.Time{}, true},
		{"already expired", time.Now().Add(-time.Minute), true},
		{"inside safety margin", time.Now().Add(30 * time.Second), true},
		{"plenty of time", time.Now().Add(10 * time.Minute), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := &Credentials{ExpiresAt: tc.expiresAt}
			if got := c.IsExpired(); got != tc.want {
				t.Errorf("IsExpired() = %v, want %v", got, tc.want)
			}
		})
	}
}
