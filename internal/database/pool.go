package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/scorekeeper/internal/metrics"
)

const (
	DefaultMaxConns       = 4
	DefaultAcquireTimeout = 5 * time.Second
)

// Options configures a Pool.
type Options struct {
	URL            string
	AuthToken      string
	MaxConns       int
	AcquireTimeout time.Duration
	Metrics        metrics.Metrics
}

// Pool owns a bounded set of database connections. Every storage operation
// leases one connection with Acquire and hands it back with Release.
type Pool struct {
	db             *sql.DB
	dialect        Dialect
	maxConns       int
	acquireTimeout time.Duration
	metrics        metrics.Metrics

	mu     sync.RWMutex
	closed bool
}

// Open connects to the configured database and verifies it is reachable.
func Open(ctx context.Context, opts Options) (*Pool, error) {
	if opts.URL == "" {
		return nil, &InitialisationError{Reason: "missing database URL"}
	}
	if opts.MaxConns <= 0 {
		opts.MaxConns = DefaultMaxConns
	}
	if opts.AcquireTimeout <= 0 {
		opts.AcquireTimeout = DefaultAcquireTimeout
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Noop{}
	}

	dialect := DialectFor(opts.URL)
	log.Info("Opening database pool", "dialect", dialect.Name(), "max_conns", opts.MaxConns, "acquire_timeout", opts.AcquireTimeout)

	db, err := sql.Open(dialect.DriverName(), dialect.DSN(opts.URL, opts.AuthToken))
	if err != nil {
		return nil, &InitialisationError{Reason: "open " + dialect.Name(), Err: err}
	}
	db.SetMaxOpenConns(opts.MaxConns)
	db.SetMaxIdleConns(opts.MaxConns)

	if err := db.PingContext(ctx); err != nil {
		db.Close() // Close on error
		return nil, &InitialisationError{Reason: "ping " + dialect.Name(), Err: err}
	}

	return &Pool{
		db:             db,
		dialect:        dialect,
		maxConns:       opts.MaxConns,
		acquireTimeout: opts.AcquireTimeout,
		metrics:        opts.Metrics,
	}, nil
}

// Acquire leases a connection, waiting at most the configured acquire timeout.
// The caller owns the connection exclusively until Release.
func (p *Pool) Acquire(ctx context.Context) (*sql.Conn, error) {
	if p.Closed() {
		return nil, ErrPoolClosed
	}

	start := time.Now()
	acquireCtx, cancel := context.WithTimeout(ctx, p.acquireTimeout)
	defer cancel()

	conn, err := p.db.Conn(acquireCtx)
	p.metrics.ObserveAcquireWait(time.Since(start).Seconds())
	if err == nil {
		return conn, nil
	}
	if ctx.Err() != nil {
		return nil, fmt.Errorf("acquire connection: %w", ctx.Err())
	}
	if p.Closed() {
		return nil, ErrPoolClosed
	}
	if errors.Is(err, context.DeadlineExceeded) {
		p.metrics.IncPoolExhausted()
		stats := p.db.Stats()
		log.Warn("Connection pool exhausted", "in_use", stats.InUse, "max_open", stats.MaxOpenConnections, "timeout", p.acquireTimeout)
		return nil, fmt.Errorf("%w: no connection free within %s", ErrPoolExhausted, p.acquireTimeout)
	}
	return nil, fmt.Errorf("acquire connection: %w", err)
}

// Release returns a leased connection to the pool. It is safe to call with nil.
func (p *Pool) Release(conn *sql.Conn) {
	if conn == nil {
		return
	}
	if err := conn.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
		log.Error("Failed to release connection", "error", err)
	}
}

// Dialect returns the SQL dialect of the pooled engine.
func (p *Pool) Dialect() Dialect {
	return p.dialect
}

// Metrics returns the sink the pool and its tables report to.
func (p *Pool) Metrics() metrics.Metrics {
	return p.metrics
}

// Stats exposes the underlying connection statistics.
func (p *Pool) Stats() sql.DBStats {
	return p.db.Stats()
}

// Closed reports whether Disconnect or Shutdown has run.
func (p *Pool) Closed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed
}

// Disconnect closes the pool. Calling it on a closed pool is a no-op.
func (p *Pool) Disconnect() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.disconnectLocked()
}

func (p *Pool) disconnectLocked() error {
	if p.closed {
		return nil
	}
	p.closed = true
	if err := p.db.Close(); err != nil {
		return &ShutdownError{Err: err}
	}
	log.Info("Database pool disconnected", "dialect", p.dialect.Name())
	return nil
}

// Shutdown halts the embedded engine, if any, and then disconnects.
// Calling it more than once is safe.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}

	var haltErr error
	if stmt := p.dialect.HaltSQL(); stmt != "" {
		if _, err := p.db.ExecContext(ctx, stmt); err != nil {
			haltErr = &ShutdownError{Err: fmt.Errorf("halt %s: %w", p.dialect.Name(), err)}
			log.Error("Failed to halt embedded engine", "error", err)
		} else {
			log.Info("Embedded engine halted", "dialect", p.dialect.Name())
		}
	}

	if err := p.disconnectLocked(); err != nil {
		return err
	}
	return haltErr
}
