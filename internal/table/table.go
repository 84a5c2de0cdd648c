package table

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/scorekeeper/internal/database"
)

// ErrUnsupported is returned for an operation the table definition does not provide.
var ErrUnsupported = errors.New("operation not supported by table")

type statements struct {
	create     string
	insert     string
	update     string
	selectOne  string
	selectMany string
	selectAll  string
	deleteOne  string
	deleteAll  string
	drop       string
}

// Table executes a Definition's templates against pooled connections. Every
// operation leases exactly one connection and returns it on every exit path.
type Table[T any] struct {
	pool     *database.Pool
	def      Definition[T]
	stmts    statements
	registry *Registry
}

var _ Managed = (*Table[struct{}])(nil)

// New builds a table over pool and registers it with registry, which may be nil.
func New[T any](pool *database.Pool, def Definition[T], registry *Registry) *Table[T] {
	d := pool.Dialect()
	rebind := func(q string) string {
		if q == "" {
			return ""
		}
		return d.Rebind(q)
	}

	t := &Table[T]{
		pool: pool,
		def:  def,
		stmts: statements{
			create:     def.CreateSQL(),
			insert:     rebind(def.InsertSQL()),
			update:     rebind(def.UpdateSQL()),
			selectOne:  rebind(def.SelectOneSQL()),
			selectMany: rebind(def.SelectManySQL()),
			selectAll:  rebind(def.SelectAllSQL()),
			deleteOne:  rebind(def.DeleteSQL()),
			deleteAll:  "DELETE FROM " + def.Name(),
			drop:       d.DropTableSQL(def.Name()),
		},
		registry: registry,
	}
	if registry != nil {
		registry.Register(t)
	}
	return t
}

// Name returns the table name.
func (t *Table[T]) Name() string {
	return t.def.Name()
}

// Pool returns the pool the table runs on.
func (t *Table[T]) Pool() *database.Pool {
	return t.pool
}

// withConn leases a connection for the duration of fn and records the operation.
func (t *Table[T]) withConn(ctx context.Context, op string, fn func(conn *sql.Conn) error) (err error) {
	start := time.Now()
	defer func() {
		t.pool.Metrics().ObserveStorageOp(t.Name(), op, time.Since(start).Seconds(), err != nil)
	}()

	conn, err := t.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer t.pool.Release(conn)

	log.Debug("Executing table operation", "table", t.Name(), "op", op)
	return fn(conn)
}

func (t *Table[T]) accessErr(op string, err error) error {
	return database.NewAccessError(t.pool.Dialect(), t.Name(), op, err)
}

// EnsureExists creates the table if the catalog does not list it. A concurrent
// creator winning the race is not an error.
func (t *Table[T]) EnsureExists(ctx context.Context) error {
	const op = "ensure_exists"
	return t.withConn(ctx, op, func(conn *sql.Conn) error {
		var count int
		if err := conn.QueryRowContext(ctx, t.pool.Dialect().TableExistsQuery(), t.Name()).Scan(&count); err != nil {
			return t.accessErr(op, err)
		}
		if count > 0 {
			return nil
		}

		if _, err := conn.ExecContext(ctx, t.stmts.create); err != nil {
			if t.pool.Dialect().IsDuplicateObject(err) {
				log.Debug("Table created concurrently", "table", t.Name())
				return nil
			}
			return t.accessErr(op, err)
		}
		log.Info("Created table", "table", t.Name())
		return nil
	})
}

// Create inserts rec. Constraint violations surface as *database.AccessError.
func (t *Table[T]) Create(ctx context.Context, rec T) error {
	const op = "create"
	return t.withConn(ctx, op, func(conn *sql.Conn) error {
		if _, err := conn.ExecContext(ctx, t.stmts.insert, t.def.InsertArgs(rec)...); err != nil {
			return t.accessErr(op, err)
		}
		return nil
	})
}

// Update rewrites the mutable fields of the row keyed by rec.
func (t *Table[T]) Update(ctx context.Context, rec T) error {
	const op = "update"
	return t.withConn(ctx, op, func(conn *sql.Conn) error {
		if _, err := conn.ExecContext(ctx, t.stmts.update, t.def.UpdateArgs(rec)...); err != nil {
			return t.accessErr(op, err)
		}
		return nil
	})
}

// RetrieveOne returns the row with rec's key, or nil when there is none.
func (t *Table[T]) RetrieveOne(ctx context.Context, key T) (*T, error) {
	const op = "retrieve_one"
	var found *T
	err := t.withConn(ctx, op, func(conn *sql.Conn) error {
		rec, err := t.def.Scan(conn.QueryRowContext(ctx, t.stmts.selectOne, t.def.KeyArgs(key)...))
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return t.accessErr(op, err)
		}
		found = &rec
		return nil
	})
	return found, err
}

// RetrieveMany runs the definition's filtered select with criteria as its arguments.
func (t *Table[T]) RetrieveMany(ctx context.Context, criteria ...any) ([]T, error) {
	if t.stmts.selectMany == "" {
		return nil, fmt.Errorf("retrieve many from %s: %w", t.Name(), ErrUnsupported)
	}
	return t.query(ctx, "retrieve_many", t.stmts.selectMany, criteria...)
}

// RetrieveAll returns every row, in the order of the definition's select.
func (t *Table[T]) RetrieveAll(ctx context.Context) ([]T, error) {
	return t.query(ctx, "retrieve_all", t.stmts.selectAll)
}

func (t *Table[T]) query(ctx context.Context, op, query string, args ...any) ([]T, error) {
	var out []T
	err := t.withConn(ctx, op, func(conn *sql.Conn) error {
		var err error
		out, err = t.scanAll(ctx, conn, op, query, args...)
		return err
	})
	return out, err
}

func (t *Table[T]) scanAll(ctx context.Context, conn *sql.Conn, op, query string, args ...any) ([]T, error) {
	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, t.accessErr(op, err)
	}
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		rec, err := t.def.Scan(rows)
		if err != nil {
			return nil, t.accessErr(op, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, t.accessErr(op, err)
	}
	return out, nil
}

// Delete removes the row keyed by rec.
func (t *Table[T]) Delete(ctx context.Context, rec T) error {
	const op = "delete"
	return t.withConn(ctx, op, func(conn *sql.Conn) error {
		if _, err := conn.ExecContext(ctx, t.stmts.deleteOne, t.def.KeyArgs(rec)...); err != nil {
			return t.accessErr(op, err)
		}
		return nil
	})
}

// Exec runs a table-specific statement and reports the number of affected rows.
func (t *Table[T]) Exec(ctx context.Context, op, query string, args ...any) (int64, error) {
	query = t.pool.Dialect().Rebind(query)
	var affected int64
	err := t.withConn(ctx, op, func(conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx, query, args...)
		if err != nil {
			return t.accessErr(op, err)
		}
		affected, err = res.RowsAffected()
		if err != nil {
			return t.accessErr(op, err)
		}
		return nil
	})
	return affected, err
}

// Destroy drops the table and removes it from its registry.
func (t *Table[T]) Destroy(ctx context.Context) error {
	const op = "destroy"
	err := t.withConn(ctx, op, func(conn *sql.Conn) error {
		if _, err := conn.ExecContext(ctx, t.stmts.drop); err != nil {
			return t.accessErr(op, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if t.registry != nil {
		t.registry.Unregister(t.Name())
	}
	log.Info("Destroyed table", "table", t.Name())
	return nil
}
