package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// newRouter configures the chi router with all middleware and routes.
//
// Middleware stack (order matters): request id, real ip, request logging,
// panic recovery, request timeout.
//
// Routes:
//   - GET  /health                        - Liveness probe
//   - GET  /health/ready                  - Readiness probe (database ping)
//   - POST /api/v1/auth/login             - Staff authentication
//   - POST /api/v1/auth/refresh           - Token refresh
//   - GET  /api/v1/auth/me                - Current user info
//   - /api/v1/tables                      - Table management (staff)
//   - /api/v1/orders                      - Order views and transitions (staff)
//   - GET  /api/v1/waitlist               - Current waitlist (staff)
//   - GET  /api/v1/diners                 - Seated and billed parties (staff)
//   - /api/v1/hours                       - Opening hours (staff read, staff write)
//   - GET  /api/v1/reports/performance    - Revenue per day (manager)
//   - GET  /api/v1/reports/subscriptions  - Member revenue share (manager)
//   - GET  /api/v1/members                - Member directory (manager)
//   - GET  /api/v1/audit                  - Audit journal tail (manager)
func (s *Server) newRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Route("/health", func(r chi.Router) {
		r.Get("/", s.handleLiveness)
		r.Get("/ready", s.handleReadiness)
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", s.handleLogin)
			r.Post("/refresh", s.handleRefresh)

			r.Group(func(r chi.Router) {
				r.Use(JWTAuth(s.jwt))
				r.Get("/me", s.handleMe)
			})
		})

		// Staff routes
		r.Group(func(r chi.Router) {
			r.Use(JWTAuth(s.jwt))

			r.Route("/tables", func(r chi.Router) {
				r.Get("/", s.handleListTables)
				r.Post("/", s.handleAddTable)
				r.Put("/{id}", s.handleUpdateTable)
				r.Delete("/{id}", s.handleRemoveTable)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", s.handleActiveOrders)
				r.Get("/{id}", s.handleGetOrder)
				r.Put("/{id}/status", s.handleUpdateOrderStatus)
				r.Delete("/{id}", s.handleCancelOrder)
			})

			r.Get("/waitlist", s.handleWaitlist)
			r.Get("/diners", s.handleActiveDiners)

			r.Route("/hours", func(r chi.Router) {
				r.Get("/", s.handleGetHours)
				r.Put("/", s.handleUpdateHours)
			})

			// Manager-only routes
			r.Group(func(r chi.Router) {
				r.Use(RequireManager())

				r.Get("/reports/performance", s.handlePerformanceReport)
				r.Get("/reports/subscriptions", s.handleSubscriptionReport)
				r.Get("/members", s.handleListMembers)
				r.Get("/audit", s.handleAuditLog)
			})
		})
	})

	return r
}

// handleLiveness reports that the process is up.
func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	WriteJSONOK(w, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	})
}

// handleReadiness reports whether the database answers.
func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	if err := s.store.TestOpen(); err != nil {
		WriteJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":    "unhealthy",
			"timestamp": time.Now().UTC(),
			"error":     err.Error(),
		})
		return
	}
	WriteJSONOK(w, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	})
}
