// Package runtime assembles the bistro server from its components and owns
// the serve/shutdown lifecycle. The cmd layer loads configuration, opens the
// store and the journal, then hands them here; everything downstream of the
// store (reservation engine, seating, sessions, gateway, scheduler, ops API,
// metrics) is wired by New and driven by Serve.
package runtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bistrokit/bistro/internal/logger"
	"github.com/bistrokit/bistro/pkg/adapter/gateway"
	"github.com/bistrokit/bistro/pkg/api"
	"github.com/bistrokit/bistro/pkg/config"
	"github.com/bistrokit/bistro/pkg/journal"
	"github.com/bistrokit/bistro/pkg/metrics"
	prommetrics "github.com/bistrokit/bistro/pkg/metrics/prometheus"
	"github.com/bistrokit/bistro/pkg/registry"
	"github.com/bistrokit/bistro/pkg/reservation"
	"github.com/bistrokit/bistro/pkg/scheduler"
	"github.com/bistrokit/bistro/pkg/seating"
	"github.com/bistrokit/bistro/pkg/session"
	"github.com/bistrokit/bistro/pkg/store"
)

// DefaultShutdownTimeout bounds graceful shutdown when the config does not
// set one.
const DefaultShutdownTimeout = 30 * time.Second

// Runtime holds every long-lived server component. Construct it with New,
// then call Serve exactly once.
type Runtime struct {
	cfg     *config.Config
	store   *store.Store
	journal *journal.Journal

	engine   *reservation.Engine
	sessions *session.Manager
	clients  *registry.Registry
	seating  *seating.Controller
	gateway  *gateway.Gateway
	sched    *scheduler.Scheduler

	apiServer     *api.Server
	metricsServer *metrics.Server

	shutdownTimeout time.Duration

	serveOnce sync.Once
}

// New wires the domain services and servers together. st must be open and
// migrated; jrnl may be nil when the journal is disabled.
//
// The gateway implements seating.Notifier and scheduler.Notifier, so it is
// created after the seating controller and attached afterwards.
func New(cfg *config.Config, st *store.Store, jrnl *journal.Journal) (*Runtime, error) {
	engine := reservation.NewEngine(st)
	sessions := session.NewManager(st)
	clients := registry.New()
	seat := seating.NewController(st, nil, prommetrics.NewSeatingMetrics())

	gw := gateway.New(
		cfg.Gateway,
		st,
		engine,
		seat,
		sessions,
		clients,
		jrnl,
		prommetrics.NewGatewayMetrics(),
		prommetrics.NewConnectionMetrics(),
	)
	seat.SetNotifier(gw)

	sched := scheduler.New(st, seat, gw, prommetrics.NewSchedulerMetrics())

	r := &Runtime{
		cfg:             cfg,
		store:           st,
		journal:         jrnl,
		engine:          engine,
		sessions:        sessions,
		clients:         clients,
		seating:         seat,
		gateway:         gw,
		sched:           sched,
		shutdownTimeout: cfg.Gateway.ShutdownTimeout,
	}
	if r.shutdownTimeout == 0 {
		r.shutdownTimeout = DefaultShutdownTimeout
	}

	if cfg.API.Enabled {
		apiServer, err := api.NewServer(cfg.API, st, seat, gw, jrnl)
		if err != nil {
			return nil, fmt.Errorf("failed to create ops API server: %w", err)
		}
		r.apiServer = apiServer
		logger.Info("ops API server configured", "port", apiServer.Port())
	}

	if cfg.Metrics.Enabled {
		r.metricsServer = metrics.NewServer("", cfg.Metrics.Port)
	}

	return r, nil
}

// Store returns the persistent store.
func (r *Runtime) Store() *store.Store {
	return r.store
}

// Journal returns the audit journal, or nil when disabled.
func (r *Runtime) Journal() *journal.Journal {
	return r.journal
}

// Gateway returns the wire protocol gateway.
func (r *Runtime) Gateway() *gateway.Gateway {
	return r.gateway
}

// Seating returns the seating controller.
func (r *Runtime) Seating() *seating.Controller {
	return r.seating
}

// Scheduler returns the sweep scheduler.
func (r *Runtime) Scheduler() *scheduler.Scheduler {
	return r.sched
}

// Serve starts every component and blocks until ctx is cancelled or a
// server fails. Calling it a second time returns nil immediately.
func (r *Runtime) Serve(ctx context.Context) error {
	var err error
	r.serveOnce.Do(func() {
		err = r.serve(ctx)
	})
	return err
}

func (r *Runtime) serve(ctx context.Context) error {
	logger.Info("starting bistro runtime")

	// Components shut down through this context, including when an
	// auxiliary server fails rather than the caller cancelling.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if r.metricsServer != nil {
		r.metricsServer.Start()
	}

	r.sched.Start(ctx)

	apiErr := make(chan error, 1)
	if r.apiServer != nil {
		go func() {
			if err := r.apiServer.Start(ctx); err != nil {
				apiErr <- err
			}
		}()
	}

	gatewayDone := make(chan error, 1)
	go func() {
		gatewayDone <- r.gateway.Serve(ctx)
	}()

	var shutdownErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received", "reason", ctx.Err())
		shutdownErr = ctx.Err()

	case err := <-apiErr:
		logger.Error("ops API server failed, initiating shutdown", logger.Err(err))
		shutdownErr = fmt.Errorf("ops API server error: %w", err)

	case err := <-gatewayDone:
		if err != nil {
			logger.Error("gateway failed, initiating shutdown", logger.Err(err))
			shutdownErr = fmt.Errorf("gateway error: %w", err)
		}
		gatewayDone = nil
	}

	cancel()
	r.shutdown(gatewayDone)

	logger.Info("bistro runtime stopped")
	return shutdownErr
}

// shutdown stops components in reverse start order: the listener stops
// accepting and drains in-flight requests first, then the scheduler finishes
// any mid-tick work, then the auxiliary servers and the store close.
func (r *Runtime) shutdown(gatewayDone <-chan error) {
	if gatewayDone != nil {
		select {
		case err := <-gatewayDone:
			if err != nil && err != context.Canceled {
				logger.Warn("gateway shutdown error", logger.Err(err))
			}
		case <-time.After(r.shutdownTimeout):
			logger.Warn("gateway drain timed out", "timeout", r.shutdownTimeout.String())
		}
	}

	logger.Debug("stopping scheduler")
	r.sched.Stop()

	if r.apiServer != nil {
		logger.Debug("stopping ops API server")
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := r.apiServer.Stop(stopCtx); err != nil {
			logger.Warn("ops API server shutdown error", logger.Err(err))
		}
		cancel()
	}

	if r.metricsServer != nil {
		logger.Debug("stopping metrics server")
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		r.metricsServer.Stop(stopCtx)
		cancel()
	}

	if r.journal != nil {
		logger.Debug("closing journal")
		r.journal.Close()
	}

	logger.Debug("closing store")
	r.store.Close()
}
