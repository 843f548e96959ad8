//go:build e2e

// Package helpers wires a full in-process Bistro stack onto a loopback port
// and gives the scenario tests a thin wire-protocol client.
package helpers

import (
	"context"
	"fmt"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bistrokit/bistro/pkg/adapter/gateway"
	"github.com/bistrokit/bistro/pkg/models"
	"github.com/bistrokit/bistro/pkg/registry"
	"github.com/bistrokit/bistro/pkg/reservation"
	"github.com/bistrokit/bistro/pkg/scheduler"
	"github.com/bistrokit/bistro/pkg/seating"
	"github.com/bistrokit/bistro/pkg/session"
	"github.com/bistrokit/bistro/pkg/store"
)

// Env is one complete in-process stack: sqlite store, domain services and a
// gateway accepting real TCP connections. The scheduler is constructed but
// not started; scenarios drive sweeps explicitly with RunOnce.
type Env struct {
	Store     *store.Store
	Gateway   *gateway.Gateway
	Seating   *seating.Controller
	Scheduler *scheduler.Scheduler
	Port      int
}

// StartEnv boots a stack on a free loopback port and registers cleanup on t.
func StartEnv(t *testing.T) *Env {
	t.Helper()

	st, err := store.New(&store.Config{
		Type:   store.DatabaseTypeSQLite,
		SQLite: store.SQLiteConfig{Path: filepath.Join(t.TempDir(), "bistro.db")},
	}, nil)
	require.NoError(t, err, "open store")
	t.Cleanup(st.Close)

	engine := reservation.NewEngine(st)
	seat := seating.NewController(st, nil, nil)
	sessions := session.NewManager(st)
	clients := registry.New()

	port := FindFreePort(t)
	gw := gateway.New(gateway.Config{
		BindAddress:     "127.0.0.1",
		Port:            port,
		ShutdownTimeout: time.Second,
	}, st, engine, seat, sessions, clients, nil, nil, nil)
	seat.SetNotifier(gw)
	sched := scheduler.New(st, seat, gw, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- gw.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Log("gateway did not stop within 5s")
		}
	})

	waitForPort(t, port)
	return &Env{Store: st, Gateway: gw, Seating: seat, Scheduler: sched, Port: port}
}

// FindFreePort asks the kernel for an unused loopback port.
func FindFreePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err, "find free port")
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}

func waitForPort(t *testing.T, port int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 200*time.Millisecond)
		if err == nil {
			require.NoError(t, conn.Close())
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("gateway on %s never came up", addr)
}

// AddTable seeds one table directly through the store.
func (e *Env) AddTable(t *testing.T, id, capacity int) {
	t.Helper()
	err := e.Store.AddTable(context.Background(), &models.Table{ID: id, Capacity: capacity})
	require.NoError(t, err, "seed table %d", id)
}

// OpenDaily seeds a weekly opening-hours rule for every day of the week.
func (e *Env) OpenDaily(t *testing.T, open, close string) {
	t.Helper()
	for day := 1; day <= 7; day++ {
		err := e.Store.UpsertOpeningHours(context.Background(), &models.OpeningHours{
			DayOfWeek: day,
			OpenTime:  open,
			CloseTime: close,
		})
		require.NoError(t, err, "seed hours for day %d", day)
	}
}

// SeedStaff creates a worker account for staff-gated scenarios.
func (e *Env) SeedStaff(t *testing.T, username, password string) {
	t.Helper()
	err := e.Store.CreateStaff(context.Background(), &models.User{
		Username:  username,
		FirstName: "Test",
		LastName:  "Worker",
		Role:      models.RoleWorker,
	}, password)
	require.NoError(t, err, "seed staff %s", username)
}

// SeedOrder inserts a reservation row directly, bypassing the wire protocol.
func (e *Env) SeedOrder(t *testing.T, status models.OrderStatus, at time.Time, guests int, phone string) *models.Order {
	t.Helper()
	order := &models.Order{
		ScheduledAt: at,
		Guests:      guests,
		Status:      status,
		Phone:       phone,
	}
	require.NoError(t, e.Store.CreateOrder(context.Background(), order), "seed order")
	return order
}

// Order reloads an order row by id.
func (e *Env) Order(t *testing.T, id uint) *models.Order {
	t.Helper()
	order, err := e.Store.GetOrderByID(context.Background(), id)
	require.NoError(t, err, "reload order %d", id)
	return order
}

// Table reloads a table row by id.
func (e *Env) Table(t *testing.T, id int) *models.Table {
	t.Helper()
	table, err := e.Store.GetTable(context.Background(), id)
	require.NoError(t, err, "reload table %d", id)
	return table
}

// Tomorrow returns tomorrow at the given wall-clock time, local zone,
// second and sub-second parts zeroed so overlap-window boundary comparisons
// in sqlite are exact.
func Tomorrow(hour, minute int) time.Time {
	d := time.Now().AddDate(0, 0, 1)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, time.Local)
}
