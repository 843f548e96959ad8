// Package session tracks authenticated connections. Each connection may
// carry at most one logged-in user and each user may be logged in from at
// most one connection; the store's is_logged_in flag backs the latter so the
// guarantee holds across process restarts.
package session

import (
	"context"
	"strings"
	"sync"

	"github.com/bistrokit/bistro/internal/logger"
	"github.com/bistrokit/bistro/pkg/models"
)

// Store is the persistence subset the session manager needs.
type Store interface {
	ValidateCredentials(ctx context.Context, username, password string) (*models.User, error)
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	GetUserByMemberCode(ctx context.Context, code int) (*models.User, error)
	MarkLoggedIn(ctx context.Context, userID uint) error
	MarkLoggedOut(ctx context.Context, userID uint) error
}

// Manager maps connection identifiers to authenticated users. The map is
// injective: a user id appears under at most one connection.
type Manager struct {
	store Store

	mu      sync.Mutex
	byConn  map[string]uint
	byUser  map[uint]string
	profile map[uint]*models.User
}

// NewManager creates a session manager backed by the given store.
func NewManager(store Store) *Manager {
	return &Manager{
		store:   store,
		byConn:  make(map[string]uint),
		byUser:  make(map[uint]string),
		profile: make(map[uint]*models.User),
	}
}

// Login authenticates the credentials and binds the user to the connection.
// A connection that is already authenticated, or a user already online
// elsewhere, gets ErrAlreadyOnline.
func (m *Manager) Login(ctx context.Context, connID, username, password string) (*models.User, error) {
	m.mu.Lock()
	if _, ok := m.byConn[connID]; ok {
		m.mu.Unlock()
		return nil, models.ErrAlreadyOnline
	}
	m.mu.Unlock()

	user, err := m.store.ValidateCredentials(ctx, username, password)
	if err != nil {
		return nil, err
	}

	// The conditional flag update is the authority on "already online".
	if err := m.store.MarkLoggedIn(ctx, user.ID); err != nil {
		return nil, err
	}

	m.mu.Lock()
	// Bind under lock; a racing login on the same connection loses and has
	// to release the flag it claimed.
	if _, ok := m.byConn[connID]; ok {
		m.mu.Unlock()
		if rerr := m.store.MarkLoggedOut(ctx, user.ID); rerr != nil {
			logger.Warn("failed to release login flag after bind race",
				logger.UserID(user.ID), logger.Err(rerr))
		}
		return nil, models.ErrAlreadyOnline
	}
	user.IsLoggedIn = true
	m.byConn[connID] = user.ID
	m.byUser[user.ID] = connID
	m.profile[user.ID] = user
	m.mu.Unlock()

	logger.Info("user logged in",
		logger.UserID(user.ID), logger.Username(user.Username), logger.Role(string(user.Role)))
	return user, nil
}

// Logout releases the connection's authenticated user. A connection with no
// session gets ErrUnauthorized.
func (m *Manager) Logout(ctx context.Context, connID string) error {
	m.mu.Lock()
	userID, ok := m.byConn[connID]
	if !ok {
		m.mu.Unlock()
		return models.ErrUnauthorized
	}
	delete(m.byConn, connID)
	delete(m.byUser, userID)
	delete(m.profile, userID)
	m.mu.Unlock()

	if err := m.store.MarkLoggedOut(ctx, userID); err != nil {
		return err
	}
	logger.Info("user logged out", logger.UserID(userID))
	return nil
}

// Disconnect cleans up after a dropped connection. Unlike Logout it is a
// no-op for unauthenticated connections, and flag release failures are
// logged rather than returned since the caller cannot retry.
func (m *Manager) Disconnect(ctx context.Context, connID string) {
	m.mu.Lock()
	userID, ok := m.byConn[connID]
	if ok {
		delete(m.byConn, connID)
		delete(m.byUser, userID)
		delete(m.profile, userID)
	}
	m.mu.Unlock()
	if !ok {
		return
	}
	if err := m.store.MarkLoggedOut(ctx, userID); err != nil {
		logger.Warn("failed to release login flag on disconnect",
			logger.UserID(userID), logger.Err(err))
	}
}

// Current returns the user bound to the connection, or nil when the
// connection is unauthenticated.
func (m *Manager) Current(connID string) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	userID, ok := m.byConn[connID]
	if !ok {
		return nil
	}
	return m.profile[userID]
}

// IdentifyByCode resolves a member code to its user. Used when a staff
// terminal identifies a walk-in member without a full login.
func (m *Manager) IdentifyByCode(ctx context.Context, code int) (*models.User, error) {
	return m.store.GetUserByMemberCode(ctx, code)
}

// OnlineCount reports how many users are currently bound to a connection.
func (m *Manager) OnlineCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byUser)
}

// RequireStaff returns the connection's user when it is a worker or manager.
func (m *Manager) RequireStaff(connID string) (*models.User, error) {
	user := m.Current(connID)
	if user == nil || !user.Role.IsStaff() {
		return nil, models.ErrUnauthorized
	}
	return user, nil
}

// RequireManager returns the connection's user when it is a manager.
func (m *Manager) RequireManager(connID string) (*models.User, error) {
	user := m.Current(connID)
	if user == nil || user.Role != models.RoleManager {
		return nil, models.ErrUnauthorized
	}
	return user, nil
}

// CanAccessOrder reports whether a user may act on an order: staff always,
// the owning member, or a guest proving knowledge of the exact contact the
// order was placed with. Member-owned orders never match by contact; only
// the owning member or staff may act on them.
func CanAccessOrder(user *models.User, order *models.Order, phone, email string) bool {
	if user != nil && user.Role.IsStaff() {
		return true
	}
	if order.MemberID != 0 {
		return user != nil && order.MemberID == user.ID
	}
	phone = strings.TrimSpace(phone)
	email = strings.TrimSpace(email)
	if phone == "" && email == "" {
		return false
	}
	return order.ContactMatches(phone, email)
}
