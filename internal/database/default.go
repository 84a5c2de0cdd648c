package database

import (
	"context"
	"sync"
)

var (
	defaultMu   sync.Mutex
	defaultPool *Pool
)

// Default returns the process-wide pool, constructing it from load on first use.
// Concurrent callers block until construction finishes and all receive the same
// instance. A failed construction is not cached, and a pool that has been shut
// down is replaced on the next call.
func Default(ctx context.Context, load func() (Options, error)) (*Pool, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultPool != nil && !defaultPool.Closed() {
		return defaultPool, nil
	}

	opts, err := load()
	if err != nil {
		return nil, &InitialisationError{Reason: "load configuration", Err: err}
	}
	pool, err := Open(ctx, opts)
	if err != nil {
		return nil, err
	}
	defaultPool = pool
	return defaultPool, nil
}
