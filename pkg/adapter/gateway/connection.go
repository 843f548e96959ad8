package gateway

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"

	"github.com/google/uuid"

	"github.com/bistrokit/bistro/internal/logger"
	"github.com/bistrokit/bistro/internal/protocol/wire"
)

// Connection serves one client. Requests on a connection are processed
// synchronously, so replies go out in request order; pushes interleave via
// the same write mutex.
type Connection struct {
	id      string
	conn    net.Conn
	gateway *Gateway

	// writeMu serializes reply and push writes on the socket.
	writeMu sync.Mutex
}

func newConnection(conn net.Conn, g *Gateway) *Connection {
	return &Connection{
		id:      uuid.NewString(),
		conn:    conn,
		gateway: g,
	}
}

// ID implements registry.Client.
func (c *Connection) ID() string {
	return c.id
}

// Push implements registry.Client: write an already-encoded envelope.
func (c *Connection) Push(event string, payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return wire.WriteFrame(c.conn, payload)
}

// Serve reads and dispatches requests until the peer disconnects, a
// protocol error occurs, or the context is cancelled. The exit path always
// releases the session and broadcast registration.
func (c *Connection) Serve(ctx context.Context) {
	addr := c.conn.RemoteAddr().String()

	c.gateway.clients.Add(c)
	defer func() {
		c.gateway.clients.Remove(c.id)
		// Disconnect cleanup must run even when shutdown cancelled ctx.
		c.gateway.sessions.Disconnect(context.Background(), c.id)
		if err := c.conn.Close(); err != nil {
			logger.Debug("Error closing connection", logger.ClientAddr(addr), logger.Err(err))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		frame, err := wire.ReadFrame(c.conn)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				logger.Debug("Read failed", logger.ClientAddr(addr), logger.Err(err))
			}
			return
		}

		env, err := wire.DecodeEnvelope(frame)
		if err != nil {
			// A peer that cannot frame an envelope cannot recover.
			logger.Warn("Malformed envelope, dropping connection",
				logger.ClientAddr(addr), logger.Err(err))
			return
		}

		reply, quit := c.gateway.dispatchRequest(ctx, c, env)
		if reply != nil {
			if err := c.write(reply); err != nil {
				logger.Debug("Write failed", logger.ClientAddr(addr), logger.Err(err))
				return
			}
		}
		if quit {
			return
		}
	}
}

func (c *Connection) write(payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return wire.WriteFrame(c.conn, payload)
}
