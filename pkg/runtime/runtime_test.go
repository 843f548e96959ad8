package runtime

import (
	"path/filepath"
	"testing"

	"github.com/bistrokit/bistro/pkg/config"
	"github.com/bistrokit/bistro/pkg/journal"
	"github.com/bistrokit/bistro/pkg/store"
)

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.GetDefaultConfig()
	cfg.Database.SQLite.Path = filepath.Join(t.TempDir(), "bistro.db")
	cfg.Journal.InMemory = true
	return cfg
}

func newTestStore(t *testing.T, cfg *config.Config) *store.Store {
	t.Helper()
	st, err := store.New(&cfg.Database, nil)
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestNew_WiresComponents(t *testing.T) {
	cfg := newTestConfig(t)
	st := newTestStore(t, cfg)

	jrnl, err := journal.Open(journal.Config{InMemory: true})
	if err != nil {
		t.Fatalf("journal.Open: %v", err)
	}
	t.Cleanup(jrnl.Close)

	rt, err := New(cfg, st, jrnl)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if rt.Store() != st {
		t.Error("Store() does not return the injected store")
	}
	if rt.Journal() != jrnl {
		t.Error("Journal() does not return the injected journal")
	}
	if rt.Gateway() == nil {
		t.Error("Gateway() is nil")
	}
	if rt.Seating() == nil {
		t.Error("Seating() is nil")
	}
	if rt.Scheduler() == nil {
		t.Error("Scheduler() is nil")
	}
	if rt.apiServer != nil {
		t.Error("ops API server built although disabled")
	}
	if rt.metricsServer != nil {
		t.Error("metrics server built although disabled")
	}
	if rt.shutdownTimeout == 0 {
		t.Error("shutdown timeout not set")
	}
}

func TestNew_WithOpsAPI(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.API.Enabled = true
	cfg.API.JWT.Secret = "test-secret-key-for-testing-only-32chars"
	st := newTestStore(t, cfg)

	rt, err := New(cfg, st, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if rt.apiServer == nil {
		t.Error("ops API server was not built")
	}
	if rt.Journal() != nil {
		t.Error("Journal() should be nil when disabled")
	}
}

func TestNew_OpsAPIMissingSecret(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.API.Enabled = true
	st := newTestStore(t, cfg)

	if _, err := New(cfg, st, nil); err == nil {
		t.Fatal("expected error for missing JWT secret")
	}
}
