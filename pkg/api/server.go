// Package api exposes the ops REST API: staff authentication plus
// operational views and mutations over the floor (tables, waitlist, diners,
// orders, opening hours, reports). Customers never touch this surface; they
// use the wire protocol.
package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/bistrokit/bistro/internal/api/auth"
	"github.com/bistrokit/bistro/internal/logger"
	"github.com/bistrokit/bistro/pkg/journal"
	"github.com/bistrokit/bistro/pkg/models"
	"github.com/bistrokit/bistro/pkg/seating"
	"github.com/bistrokit/bistro/pkg/store"
)

// Sweeper re-checks future reservations after an administrative change to
// tables or opening hours. The gateway implements it; cancellations are
// pushed to connected wire clients.
type Sweeper interface {
	SweepHoursChange(ctx context.Context) ([]*models.Order, error)
	SweepFeasibility(ctx context.Context) ([]*models.Order, error)
}

// Server provides the ops REST API HTTP server.
//
// The server supports graceful shutdown with configurable timeout.
type Server struct {
	server       *http.Server
	config       Config
	store        *store.Store
	seating      *seating.Controller
	sweeper      Sweeper
	journal      *journal.Journal
	jwt          *auth.JWTService
	validate     *validator.Validate
	shutdownOnce sync.Once
}

// NewServer creates a new ops API server.
//
// The server is created in a stopped state. Call Start() to begin serving.
// The JWT secret must be configured via config.JWT.Secret or the
// BISTRO_API_SECRET environment variable. jrnl may be nil.
func NewServer(
	cfg Config,
	st *store.Store,
	seat *seating.Controller,
	sweeper Sweeper,
	jrnl *journal.Journal,
) (*Server, error) {
	cfg.ApplyDefaults()

	secret := cfg.GetJWTSecret()
	if len(secret) < auth.MinSecretLength {
		return nil, fmt.Errorf("JWT secret must be at least %d characters; set via %s env var or config",
			auth.MinSecretLength, EnvAPISecret)
	}

	jwtService, err := auth.NewJWTService(auth.JWTConfig{
		Secret:               secret,
		Issuer:               "bistro",
		AccessTokenDuration:  cfg.JWT.AccessTokenDuration,
		RefreshTokenDuration: cfg.JWT.RefreshTokenDuration,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}

	s := &Server{
		config:   cfg,
		store:    st,
		seating:  seat,
		sweeper:  sweeper,
		journal:  jrnl,
		jwt:      jwtService,
		validate: validator.New(),
	}

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.newRouter(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s, nil
}

// Start starts the API HTTP server and blocks until the context is cancelled
// or an error occurs. Cancellation triggers graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		logger.Info("ops API listening", "port", s.config.Port)

		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			select {
			case errChan <- err:
			default:
				// Context was cancelled, error is not needed
			}
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("ops API shutdown signal received")
		// Fresh context: the cancelled one would abort shutdown immediately.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("ops API server failed: %w", err)
	}
}

// Stop initiates graceful shutdown of the API server.
// Safe to call multiple times and concurrently with Start().
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		logger.Debug("ops API shutdown initiated")

		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("ops API shutdown error: %w", err)
			logger.Error("ops API shutdown error", logger.Err(err))
		} else {
			logger.Info("ops API stopped gracefully")
		}
	})
	return shutdownErr
}

// Port returns the TCP port the server is listening on.
func (s *Server) Port() int {
	return s.config.Port
}
