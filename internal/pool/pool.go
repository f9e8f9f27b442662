// Package pool bounds and reuses backend connections. Connections are
// dialed lazily up to a fixed size, handed out exclusively, and healed
// by discarding any lease marked broken.
package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/coffersTech/logbridge/internal/hbase"
)

var (
	// ErrClosed is returned by Get after Close.
	ErrClosed = errors.New("connection pool is closed")
	// ErrAcquireTimeout is returned when no connection frees up within
	// the pool's acquire timeout. It is a server-side condition, not a
	// client-input one.
	ErrAcquireTimeout = errors.New("timed out waiting for a backend connection")
)

// Factory dials one new backend connection.
type Factory func(ctx context.Context) (hbase.Conn, error)

type Pool struct {
	factory Factory
	timeout time.Duration
	slots   *semaphore.Weighted

	mu     sync.Mutex
	idle   []hbase.Conn
	closed bool
}

// New builds a pool of at most size connections. No connection is
// dialed until a Get needs one.
func New(factory Factory, size int, acquireTimeout time.Duration) *Pool {
	return &Pool{
		factory: factory,
		timeout: acquireTimeout,
		slots:   semaphore.NewWeighted(int64(size)),
		idle:    make([]hbase.Conn, 0, size),
	}
}

// Get blocks until a connection slot is free or the acquire timeout
// elapses, then returns an exclusive lease on an idle or freshly dialed
// connection. Cancelling ctx aborts the wait early.
func (p *Pool) Get(ctx context.Context) (*Lease, error) {
	actx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.slots.Acquire(actx, 1); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("acquire backend connection: %w", ctx.Err())
		}
		return nil, ErrAcquireTimeout
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.slots.Release(1)
		return nil, ErrClosed
	}
	var conn hbase.Conn
	if n := len(p.idle); n > 0 {
		conn = p.idle[n-1]
		p.idle = p.idle[:n-1]
	}
	p.mu.Unlock()

	if conn == nil {
		c, err := p.factory(actx)
		if err != nil {
			p.slots.Release(1)
			return nil, fmt.Errorf("connect to backend: %w", err)
		}
		conn = c
	}
	return &Lease{pool: p, conn: conn}, nil
}

// Close discards the idle connections. Leases still out are closed on
// release.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	idle := p.idle
	p.idle = nil
	p.mu.Unlock()

	for _, c := range idle {
		_ = c.Close()
	}
}

// Lease is exclusive ownership of one connection for the duration of
// one request. Release must be called on every path; it is safe to call
// more than once.
type Lease struct {
	pool    *Pool
	conn    hbase.Conn
	release sync.Once

	mu     sync.Mutex
	broken bool
}

// Conn returns the leased connection.
func (l *Lease) Conn() hbase.Conn {
	return l.conn
}

// MarkBroken flags the connection so Release discards it instead of
// returning it to the idle set. Call it after any I/O error on the
// connection.
func (l *Lease) MarkBroken() {
	l.mu.Lock()
	l.broken = true
	l.mu.Unlock()
}

// Release returns the connection to the pool, or closes it if it was
// marked broken or the pool has shut down. The capacity slot is freed
// exactly once regardless of how often Release is called.
func (l *Lease) Release() {
	l.release.Do(func() {
		l.mu.Lock()
		broken := l.broken
		l.mu.Unlock()

		p := l.pool
		p.mu.Lock()
		discard := broken || p.closed
		if !discard {
			p.idle = append(p.idle, l.conn)
		}
		p.mu.Unlock()

		if discard {
			_ = l.conn.Close()
		}
		p.slots.Release(1)
	})
}
