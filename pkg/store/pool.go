package store

import (
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/bistrokit/bistro/internal/logger"
)

// PoolMetrics allows the pool to record handle lifecycle metrics.
// A nil recorder disables collection with zero overhead.
type PoolMetrics interface {
	RecordAcquire(reused bool)
	RecordRelease(overflow bool)
	RecordEvictions(count int)
	SetIdleHandles(count int)
}

// Pool default tuning. Handles idle longer than idleTimeout are closed by a
// background evictor that runs every evictInterval.
const (
	DefaultPoolSize = 10
	evictInterval   = 2 * time.Second
	idleTimeout     = 5 * time.Second
)

// OpenFunc opens one physical database handle.
type OpenFunc func() (*gorm.DB, error)

// Handle is one reusable database session. Handles are not safe for
// concurrent use; a caller owns a handle between Acquire and Release.
type Handle struct {
	db       *gorm.DB
	lastUsed time.Time
}

// DB returns the underlying GORM session.
func (h *Handle) DB() *gorm.DB {
	return h.db
}

func (h *Handle) touch() {
	h.lastUsed = time.Now()
}

func (h *Handle) close() {
	sqlDB, err := h.db.DB()
	if err != nil {
		logger.Warn("failed to unwrap database handle for close", "error", err)
		return
	}
	if err := sqlDB.Close(); err != nil {
		logger.Warn("failed to close database handle", "error", err)
	}
}

// Pool is a bounded FIFO queue of reusable database handles.
//
// Acquire pops the oldest idle handle, or opens a new physical handle when
// the queue is empty. The pool may therefore temporarily hand out more than
// its capacity; such overflow handles are physically closed on release
// instead of being queued. A background evictor closes handles that have
// been idle longer than idleTimeout, preserving FIFO order of the rest.
type Pool struct {
	mu       sync.Mutex
	idle     []*Handle // FIFO: head at index 0
	capacity int
	open     OpenFunc
	metrics  PoolMetrics

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewPool creates a pool with the given capacity and starts its evictor.
// A capacity of 0 uses DefaultPoolSize. The metrics recorder may be nil.
func NewPool(capacity int, open OpenFunc, metrics PoolMetrics) *Pool {
	if capacity <= 0 {
		capacity = DefaultPoolSize
	}
	p := &Pool{
		idle:     make([]*Handle, 0, capacity),
		capacity: capacity,
		open:     open,
		metrics:  metrics,
		stop:     make(chan struct{}),
	}

	p.wg.Add(1)
	go p.evictLoop()

	return p
}

// Acquire returns an idle handle, or opens a new physical handle when none
// is queued. The caller must return the handle via Release.
func (p *Pool) Acquire() (*Handle, error) {
	p.mu.Lock()
	if len(p.idle) > 0 {
		h := p.idle[0]
		p.idle = p.idle[1:]
		h.touch()
		idle := len(p.idle)
		p.mu.Unlock()

		if p.metrics != nil {
			p.metrics.RecordAcquire(true)
			p.metrics.SetIdleHandles(idle)
		}
		return h, nil
	}
	p.mu.Unlock()

	// Open outside the lock so a slow connect does not block the pool.
	db, err := p.open()
	if err != nil {
		if p.metrics != nil {
			p.metrics.RecordAcquire(false)
		}
		return nil, fmt.Errorf("open database handle: %w", err)
	}

	if p.metrics != nil {
		p.metrics.RecordAcquire(false)
	}
	return &Handle{db: db, lastUsed: time.Now()}, nil
}

// Release returns a handle to the queue. Handles beyond the pool capacity
// (overflow from a burst of concurrent acquires) are physically closed.
func (p *Pool) Release(h *Handle) {
	if h == nil {
		return
	}
	h.touch()

	p.mu.Lock()
	if len(p.idle) < p.capacity {
		p.idle = append(p.idle, h)
		idle := len(p.idle)
		p.mu.Unlock()

		if p.metrics != nil {
			p.metrics.RecordRelease(false)
			p.metrics.SetIdleHandles(idle)
		}
		return
	}
	p.mu.Unlock()

	h.close()
	if p.metrics != nil {
		p.metrics.RecordRelease(true)
	}
}

// TestOpen opens and immediately closes one physical handle. Called at
// startup to fail fast on bad credentials before accepting clients.
func (p *Pool) TestOpen() error {
	db, err := p.open()
	if err != nil {
		return fmt.Errorf("database connection test: %w", err)
	}
	(&Handle{db: db}).close()
	return nil
}

// Close stops the evictor and closes all idle handles. Handles currently
// held by callers are closed when released (the queue refuses new entries
// only through capacity, so Close should run after all callers finish).
func (p *Pool) Close() {
	p.stopOnce.Do(func() {
		close(p.stop)
	})
	p.wg.Wait()

	p.mu.Lock()
	idle := p.idle
	p.idle = nil
	p.capacity = 0
	p.mu.Unlock()

	for _, h := range idle {
		h.close()
	}
}

// evictLoop periodically drains the queue, closes handles idle longer than
// idleTimeout, and re-enqueues the rest in their original order.
func (p *Pool) evictLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(evictInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			p.evictIdle(time.Now())
		}
	}
}

func (p *Pool) evictIdle(now time.Time) {
	p.mu.Lock()
	kept := p.idle[:0]
	var expired []*Handle
	for _, h := range p.idle {
		if now.Sub(h.lastUsed) > idleTimeout {
			expired = append(expired, h)
		} else {
			kept = append(kept, h)
		}
	}
	p.idle = kept
	idle := len(p.idle)
	p.mu.Unlock()

	for _, h := range expired {
		h.close()
	}

	if len(expired) > 0 {
		logger.Debug("evicted idle database handles", "count", len(expired), "idle", idle)
		if p.metrics != nil {
			p.metrics.RecordEvictions(len(expired))
			p.metrics.SetIdleHandles(idle)
		}
	}
}

// IdleCount returns the current number of queued handles.
func (p *Pool) IdleCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.idle)
}
