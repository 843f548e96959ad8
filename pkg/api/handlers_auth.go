package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bistrokit/bistro/internal/logger"
	"github.com/bistrokit/bistro/pkg/models"
)

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// handleLogin authenticates a staff account and issues a token pair.
//
// The ops API is staff-only; members authenticate over the wire protocol.
// API tokens are independent of the wire protocol's single-session flag, so
// staff can hold a console session and a kiosk session at the same time.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid JSON body")
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		BadRequest(w, "username and password are required")
		return
	}

	user, err := s.store.ValidateCredentials(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, models.ErrInvalidCredentials) {
			Unauthorized(w, "invalid username or password")
			return
		}
		logger.Error("API login failed", logger.Username(req.Username), logger.Err(err))
		InternalServerError(w, "authentication failed")
		return
	}

	if !user.Role.IsStaff() {
		Forbidden(w, "the ops API is restricted to staff accounts")
		return
	}

	pair, err := s.jwt.GenerateTokenPair(user)
	if err != nil {
		logger.Error("token generation failed", logger.UserID(user.ID), logger.Err(err))
		InternalServerError(w, "failed to generate tokens")
		return
	}

	logger.Info("staff authenticated on ops API",
		logger.UserID(user.ID), logger.Username(user.Username), logger.Role(string(user.Role)))
	WriteJSONOK(w, pair)
}

// handleRefresh exchanges a refresh token for a new token pair.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid JSON body")
		return
	}
	if req.RefreshToken == "" {
		BadRequest(w, "refresh_token is required")
		return
	}

	claims, err := s.jwt.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		Unauthorized(w, "invalid or expired refresh token")
		return
	}

	// Re-load the user so revoked or demoted accounts stop refreshing.
	user, err := s.store.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		Unauthorized(w, "account no longer exists")
		return
	}
	if !user.Role.IsStaff() {
		Forbidden(w, "the ops API is restricted to staff accounts")
		return
	}

	pair, err := s.jwt.GenerateTokenPair(user)
	if err != nil {
		InternalServerError(w, "failed to generate tokens")
		return
	}
	WriteJSONOK(w, pair)
}

// handleMe returns the authenticated user's profile.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())
	user, err := s.store.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		NotFoundProblem(w, "account no longer exists")
		return
	}
	WriteJSONOK(w, user)
}
