// Package registry tracks connected gateway clients for server-initiated
// push. The dispatcher and scheduler broadcast through it without knowing
// anything about the wire format.
package registry

import (
	"sync"

	"github.com/bistrokit/bistro/internal/logger"
)

// Client is a connected peer capable of receiving pushed notifications.
// Push must be safe for concurrent use; the gateway serializes writes on a
// per-connection mutex.
type Client interface {
	ID() string
	Push(event string, payload []byte) error
}

// Registry is a mutex-guarded set of connected clients keyed by connection
// id. Broadcast iterates over a snapshot so a slow or failing Push never
// holds the lock.
type Registry struct {
	mu      sync.Mutex
	clients map[string]Client
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{clients: make(map[string]Client)}
}

// Add registers a client, replacing any previous entry under the same id.
func (r *Registry) Add(c Client) {
	r.mu.Lock()
	r.clients[c.ID()] = c
	r.mu.Unlock()
}

// Remove drops a client. Removing an unknown id is a no-op.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.clients, id)
	r.mu.Unlock()
}

// Len reports the number of registered clients.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// Broadcast pushes an event to every registered client. Push failures are
// logged and skipped; the connection's own read loop notices the broken
// socket and unregisters it.
func (r *Registry) Broadcast(event string, payload []byte) {
	r.mu.Lock()
	snapshot := make([]Client, 0, len(r.clients))
	for _, c := range r.clients {
		snapshot = append(snapshot, c)
	}
	r.mu.Unlock()

	for _, c := range snapshot {
		if err := c.Push(event, payload); err != nil {
			logger.Debug("push failed, client likely gone",
				logger.ConnectionID(c.ID()), logger.Err(err))
		}
	}
}
