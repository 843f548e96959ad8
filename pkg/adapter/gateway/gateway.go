// Package gateway is the customer/terminal-facing TCP adapter: it frames and
// decodes wire envelopes, dispatches them to the domain services, and pushes
// server notifications back over connected clients.
package gateway

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"time"

	"github.com/bistrokit/bistro/internal/logger"
	"github.com/bistrokit/bistro/internal/protocol/wire"
	"github.com/bistrokit/bistro/pkg/adapter"
	"github.com/bistrokit/bistro/pkg/journal"
	"github.com/bistrokit/bistro/pkg/models"
	"github.com/bistrokit/bistro/pkg/registry"
	"github.com/bistrokit/bistro/pkg/reservation"
	"github.com/bistrokit/bistro/pkg/seating"
	"github.com/bistrokit/bistro/pkg/session"
	"github.com/bistrokit/bistro/pkg/store"
)

// DefaultPort is the gateway's default listen port.
const DefaultPort = 5555

// Metrics observes request dispatch and broadcast fan-out. May be nil.
type Metrics interface {
	RecordRequest(tag string, ok bool, duration time.Duration)
	RecordBroadcast(tag string)
}

// Config holds the gateway's listener settings.
type Config struct {
	// BindAddress is the listen address. Empty means all interfaces.
	BindAddress string `mapstructure:"bind_address" yaml:"bind_address,omitempty"`

	// Port is the wire protocol TCP port.
	// Default: 5555
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`

	// MaxConnections bounds concurrent client connections. Zero means unlimited.
	MaxConnections int `mapstructure:"max_connections" yaml:"max_connections"`

	// ShutdownTimeout is how long graceful shutdown waits for in-flight
	// requests before force-closing connections.
	// Default: 30s
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// Gateway ties the TCP adapter to the domain services. It implements
// adapter.ConnectionFactory for the accept loop, seating.Notifier for
// table-ready pushes and scheduler.Notifier for reminder/invoice pushes.
type Gateway struct {
	*adapter.BaseAdapter

	store    *store.Store
	engine   *reservation.Engine
	seating  *seating.Controller
	sessions *session.Manager
	clients  *registry.Registry
	journal  *journal.Journal
	metrics  Metrics

	dispatch map[string]handlerEntry
}

// New creates a gateway. journal, metrics and connMetrics may be nil.
func New(
	cfg Config,
	st *store.Store,
	engine *reservation.Engine,
	seat *seating.Controller,
	sessions *session.Manager,
	clients *registry.Registry,
	jrnl *journal.Journal,
	metrics Metrics,
	connMetrics adapter.MetricsRecorder,
) *Gateway {
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}

	base := adapter.NewBaseAdapter(adapter.BaseConfig{
		BindAddress:     cfg.BindAddress,
		Port:            cfg.Port,
		MaxConnections:  cfg.MaxConnections,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, "gateway")
	base.Metrics = connMetrics

	g := &Gateway{
		BaseAdapter: base,
		store:       st,
		engine:      engine,
		seating:     seat,
		sessions:    sessions,
		clients:     clients,
		journal:     jrnl,
		metrics:     metrics,
	}
	g.dispatch = g.buildDispatch()
	return g
}

// Serve runs the accept loop until ctx is cancelled.
func (g *Gateway) Serve(ctx context.Context) error {
	return g.BaseAdapter.Serve(ctx, g, nil)
}

// NewConnection implements adapter.ConnectionFactory.
func (g *Gateway) NewConnection(conn net.Conn) adapter.ConnectionHandler {
	return newConnection(conn, g)
}

// TableReady implements seating.Notifier: broadcast that a waitlisted
// party's table is free.
func (g *Gateway) TableReady(order *models.Order) {
	text := fmt.Sprintf("Your table is ready. Please arrive within %d minutes. Confirmation code %04d.",
		int(seating.ArrivalWindow.Minutes()), order.Code)
	g.broadcastNotification(text)
}

// Reminder implements scheduler.Notifier for upcoming reservations.
func (g *Gateway) Reminder(order *models.Order) {
	text := fmt.Sprintf("Reminder: your reservation (code %04d) is at %s.",
		order.Code, order.ScheduledAt.Format("15:04"))
	g.broadcastNotification(text)
}

// Invoiced implements scheduler.Notifier for automatic invoices.
func (g *Gateway) Invoiced(order *models.Order) {
	total := order.BasePrice()
	text := fmt.Sprintf("An invoice of %.2f has been issued for confirmation code %04d.", total, order.Code)
	g.broadcastNotification(text)
}

// broadcastNotification pushes a SERVER_NOTIFICATION to every client.
func (g *Gateway) broadcastNotification(text string) {
	payload, err := wire.EncodePush(wire.TagServerNotification, func(buf *bytes.Buffer) error {
		return wire.WriteString(buf, text)
	})
	if err != nil {
		logger.Error("failed to encode notification", logger.Err(err))
		return
	}
	if g.metrics != nil {
		g.metrics.RecordBroadcast(wire.TagServerNotification)
	}
	g.clients.Broadcast(wire.TagServerNotification, payload)
}

// audit appends an entry to the journal when one is configured.
func (g *Gateway) audit(actor, action string, orderID uint, tableID int, detail string) {
	if g.journal == nil {
		return
	}
	err := g.journal.Record(journal.Entry{
		Actor:   actor,
		Action:  action,
		OrderID: orderID,
		TableID: tableID,
		Detail:  detail,
	})
	if err != nil {
		logger.Warn("audit record failed", logger.Action(action), logger.Err(err))
	}
}

func actorName(user *models.User) string {
	if user == nil {
		return "anonymous"
	}
	return user.Username
}
