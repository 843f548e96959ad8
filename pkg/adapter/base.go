// Package adapter provides shared TCP lifecycle management: listener setup,
// connection tracking, limits, and graceful shutdown. The gateway builds on
// it; the adapter itself knows nothing about the wire format.
package adapter

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bistrokit/bistro/internal/logger"
)

// ConnectionHandler serves one accepted connection. Serve blocks until the
// connection closes or the context is cancelled.
type ConnectionHandler interface {
	Serve(ctx context.Context)
}

// ConnectionFactory creates handlers for accepted TCP connections.
type ConnectionFactory interface {
	NewConnection(conn net.Conn) ConnectionHandler
}

// BaseConfig holds listener configuration.
type BaseConfig struct {
	// BindAddress is the IP to bind; empty or "0.0.0.0" binds everywhere.
	BindAddress string

	// Port is the TCP port to listen on.
	Port int

	// MaxConnections limits concurrent clients. 0 means unlimited.
	MaxConnections int

	// ShutdownTimeout bounds the wait for active connections on shutdown.
	ShutdownTimeout time.Duration
}

// MetricsRecorder observes connection lifecycle events. May be nil.
type MetricsRecorder interface {
	RecordConnectionAccepted()
	RecordConnectionClosed()
	RecordConnectionForceClosed()
	SetActiveConnections(count int32)
}

// OnConnectionClose runs when a connection's serve goroutine exits, before
// the WaitGroup and semaphore release. Used for session cleanup.
type OnConnectionClose func(addr string)

// BaseAdapter owns the accept loop and shutdown sequencing. All exported
// methods are safe for concurrent use; Stop is idempotent via sync.Once.
type BaseAdapter struct {
	Config BaseConfig

	// Metrics is optional; nil collects nothing.
	Metrics MetricsRecorder

	name string

	listener   net.Listener
	listenerMu sync.RWMutex

	activeConns  sync.WaitGroup
	shutdownOnce sync.Once

	// Shutdown is closed when shutdown begins; the accept loop watches it.
	Shutdown chan struct{}

	ConnCount atomic.Int32

	// connSemaphore caps concurrency when MaxConnections > 0, else nil.
	connSemaphore chan struct{}

	// ShutdownCtx is cancelled during shutdown so in-flight requests abort.
	ShutdownCtx    context.Context
	CancelRequests context.CancelFunc

	// ActiveConnections maps remote address to net.Conn for forced closure.
	ActiveConnections sync.Map

	// ListenerReady is closed once the listener accepts. Tests block on it.
	ListenerReady chan struct{}
}

// NewBaseAdapter creates an adapter in a stopped state; Serve starts it.
func NewBaseAdapter(config BaseConfig, name string) *BaseAdapter {
	var connSemaphore chan struct{}
	if config.MaxConnections > 0 {
		connSemaphore = make(chan struct{}, config.MaxConnections)
	}

	shutdownCtx, cancelRequests := context.WithCancel(context.Background())

	return &BaseAdapter{
		Config:         config,
		name:           name,
		Shutdown:       make(chan struct{}),
		connSemaphore:  connSemaphore,
		ShutdownCtx:    shutdownCtx,
		CancelRequests: cancelRequests,
		ListenerReady:  make(chan struct{}),
	}
}

// Serve runs the accept loop until ctx is cancelled or Stop is called.
// Each accepted connection gets its own goroutine running the factory's
// handler; onClose (optional) runs as the goroutine exits.
func (b *BaseAdapter) Serve(ctx context.Context, factory ConnectionFactory, onClose OnConnectionClose) error {
	listenAddr := fmt.Sprintf("%s:%d", b.Config.BindAddress, b.Config.Port)
	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return fmt.Errorf("failed to create %s listener on port %d: %w", b.name, b.Config.Port, err)
	}

	b.listenerMu.Lock()
	b.listener = listener
	b.listenerMu.Unlock()
	close(b.ListenerReady)

	logger.Info(b.name+" server listening", "port", b.Config.Port)

	go func() {
		<-ctx.Done()
		b.initiateShutdown()
	}()

	for {
		if b.connSemaphore != nil {
			select {
			case b.connSemaphore <- struct{}{}:
			case <-b.Shutdown:
				return b.gracefulShutdown()
			}
		}

		tcpConn, err := listener.Accept()
		if err != nil {
			if b.connSemaphore != nil {
				<-b.connSemaphore
			}
			select {
			case <-b.Shutdown:
				// Listener closed by shutdown.
				return b.gracefulShutdown()
			default:
				logger.Debug("Error accepting "+b.name+" connection", logger.Err(err))
				continue
			}
		}

		if tcp, ok := tcpConn.(*net.TCPConn); ok {
			if err := tcp.SetNoDelay(true); err != nil {
				logger.Debug("Failed to set TCP_NODELAY", logger.Err(err))
			}
		}

		b.activeConns.Add(1)
		b.ConnCount.Add(1)

		connAddr := tcpConn.RemoteAddr().String()
		b.ActiveConnections.Store(connAddr, tcpConn)

		currentConns := b.ConnCount.Load()
		if b.Metrics != nil {
			b.Metrics.RecordConnectionAccepted()
			b.Metrics.SetActiveConnections(currentConns)
		}
		logger.Debug(b.name+" connection accepted",
			logger.ClientAddr(connAddr), "active", currentConns)

		conn := factory.NewConnection(tcpConn)

		go func(addr string) {
			defer func() {
				if onClose != nil {
					onClose(addr)
				}
				b.ActiveConnections.Delete(addr)
				b.activeConns.Done()
				b.ConnCount.Add(-1)
				if b.connSemaphore != nil {
					<-b.connSemaphore
				}
				if b.Metrics != nil {
					b.Metrics.RecordConnectionClosed()
					b.Metrics.SetActiveConnections(b.ConnCount.Load())
				}
				logger.Debug(b.name+" connection closed",
					logger.ClientAddr(addr), "active", b.ConnCount.Load())
			}()

			conn.Serve(b.ShutdownCtx)
		}(connAddr)
	}
}

// initiateShutdown closes the shutdown channel, the listener, unblocks
// pending reads, and cancels in-flight request contexts, exactly once.
func (b *BaseAdapter) initiateShutdown() {
	b.shutdownOnce.Do(func() {
		close(b.Shutdown)

		b.listenerMu.Lock()
		if b.listener != nil {
			if err := b.listener.Close(); err != nil {
				logger.Debug("Error closing "+b.name+" listener", logger.Err(err))
			}
		}
		b.listenerMu.Unlock()

		b.interruptBlockingReads()
		b.CancelRequests()
	})
}

// interruptBlockingReads sets a near-immediate deadline on every active
// connection so blocked reads return during shutdown.
func (b *BaseAdapter) interruptBlockingReads() {
	deadline := time.Now().Add(100 * time.Millisecond)
	b.ActiveConnections.Range(func(key, value any) bool {
		if conn, ok := value.(net.Conn); ok {
			if err := conn.SetReadDeadline(deadline); err != nil {
				logger.Debug("Error setting shutdown deadline",
					"address", key, logger.Err(err))
			}
		}
		return true
	})
}

// gracefulShutdown waits for connections to drain, force-closing leftovers
// after the configured timeout.
func (b *BaseAdapter) gracefulShutdown() error {
	logger.Info(b.name+" graceful shutdown: waiting for active connections",
		"active", b.ConnCount.Load(), "timeout", b.Config.ShutdownTimeout)

	done := make(chan struct{})
	go func() {
		b.activeConns.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info(b.name + " graceful shutdown complete")
		return nil
	case <-time.After(b.Config.ShutdownTimeout):
		remaining := b.ConnCount.Load()
		logger.Warn(b.name+" shutdown timeout exceeded, forcing closure",
			"active", remaining)
		b.forceCloseConnections()
		return fmt.Errorf("%s shutdown timeout: %d connections force-closed", b.name, remaining)
	}
}

func (b *BaseAdapter) forceCloseConnections() {
	b.ActiveConnections.Range(func(key, value any) bool {
		conn := value.(net.Conn)
		if err := conn.Close(); err != nil {
			logger.Debug("Error force-closing connection", "address", key, logger.Err(err))
		} else if b.Metrics != nil {
			b.Metrics.RecordConnectionForceClosed()
		}
		return true
	})
}

// Stop initiates graceful shutdown and waits for connections to drain. With
// a nil context the configured timeout applies; otherwise the context bounds
// the wait. Safe to call multiple times and concurrently with Serve.
func (b *BaseAdapter) Stop(ctx context.Context) error {
	b.initiateShutdown()

	if ctx == nil {
		return b.gracefulShutdown()
	}

	done := make(chan struct{})
	go func() {
		b.activeConns.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info(b.name + " graceful shutdown complete")
		return nil
	case <-ctx.Done():
		logger.Warn(b.name+" shutdown context cancelled",
			"active", b.ConnCount.Load(), logger.Err(ctx.Err()))
		return ctx.Err()
	}
}

// GetActiveConnections returns the current number of active connections.
func (b *BaseAdapter) GetActiveConnections() int32 {
	return b.ConnCount.Load()
}

// GetListenerAddr blocks until the listener is ready and returns its
// address. Tests use it to learn the OS-assigned port.
func (b *BaseAdapter) GetListenerAddr() string {
	<-b.ListenerReady

	b.listenerMu.RLock()
	defer b.listenerMu.RUnlock()
	if b.listener == nil {
		return ""
	}
	return b.listener.Addr().String()
}
