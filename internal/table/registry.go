package table

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/scorekeeper/internal/database"
)

// Registry tracks live tables in registration order, which callers use as
// dependency order: referenced tables first.
type Registry struct {
	mu     sync.Mutex
	order  []string
	tables map[string]Managed
}

func NewRegistry() *Registry {
	return &Registry{tables: make(map[string]Managed)}
}

// Register adds m. Re-registering a name replaces the entry but keeps its position.
func (r *Registry) Register(m Managed) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tables[m.Name()]; !ok {
		r.order = append(r.order, m.Name())
	}
	r.tables[m.Name()] = m
}

func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tables[name]; !ok {
		return
	}
	delete(r.tables, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

func (r *Registry) Lookup(name string) (Managed, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.tables[name]
	return m, ok
}

// Names returns the registered table names in registration order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) snapshot() []Managed {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Managed, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tables[name])
	}
	return out
}

// EnsureAll creates every missing table, referenced tables first.
func (r *Registry) EnsureAll(ctx context.Context) error {
	for _, m := range r.snapshot() {
		if err := m.EnsureExists(ctx); err != nil {
			return fmt.Errorf("ensure %s: %w", m.Name(), err)
		}
	}
	return nil
}

// BackupAll writes one snapshot per registered table into dir.
func (r *Registry) BackupAll(ctx context.Context, dir string) error {
	for _, m := range r.snapshot() {
		if err := m.Backup(ctx, dir); err != nil {
			return fmt.Errorf("backup %s: %w", m.Name(), err)
		}
	}
	return nil
}

// RestoreAll restores every registered table from dir as one unit. Every
// snapshot is decoded before the database is touched, and all tables are
// replaced in a single transaction on one leased connection, so a failure
// leaves every table as it was. All tables must share one pool.
func (r *Registry) RestoreAll(ctx context.Context, dir string) (err error) {
	tables := r.snapshot()
	if len(tables) == 0 {
		return nil
	}

	pool := tables[0].Pool()
	for _, m := range tables[1:] {
		if m.Pool() != pool {
			return fmt.Errorf("restore %s: table is not on the same pool as %s", m.Name(), tables[0].Name())
		}
	}

	staged := make([]Staged, 0, len(tables))
	for _, m := range tables {
		s, err := m.Stage(dir)
		if err != nil {
			return fmt.Errorf("restore %s: %w", m.Name(), err)
		}
		staged = append(staged, s)
	}

	start := time.Now()
	defer func() {
		for _, m := range tables {
			pool.Metrics().ObserveStorageOp(m.Name(), "restore", time.Since(start).Seconds(), err != nil)
		}
	}()

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer pool.Release(conn)

	wrap := func(err error) error {
		return database.NewAccessError(pool.Dialect(), tables[0].Name(), "restore", err)
	}
	if err := applyStaged(ctx, conn, staged, wrap); err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	for _, s := range staged {
		log.Info("Restored table", "table", s.Table(), "rows", s.Rows(), "dir", dir)
	}
	return nil
}

// DestroyAll drops every registered table, dependents first.
func (r *Registry) DestroyAll(ctx context.Context) error {
	tables := r.snapshot()
	for i := len(tables) - 1; i >= 0; i-- {
		if err := tables[i].Destroy(ctx); err != nil {
			return fmt.Errorf("destroy %s: %w", tables[i].Name(), err)
		}
	}
	return nil
}
