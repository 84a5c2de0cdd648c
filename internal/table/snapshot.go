package table

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

// Snapshot is the on-disk form of a table backup.
type Snapshot[T any] struct {
	ID      string    `msgpack:"id"`
	Table   string    `msgpack:"table"`
	TakenAt time.Time `msgpack:"taken_at"`
	Rows    []T       `msgpack:"rows"`
}

// SnapshotPath is where the snapshot of table lives inside dir.
func SnapshotPath(dir, table string) string {
	return filepath.Join(dir, table+".msgpack")
}

// Backup writes the full contents of the table to dir, replacing any earlier
// snapshot of the same table.
func (t *Table[T]) Backup(ctx context.Context, dir string) error {
	const op = "backup"
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create backup dir %s: %w", dir, err)
	}

	var rows []T
	err := t.withConn(ctx, op, func(conn *sql.Conn) error {
		var err error
		rows, err = t.scanAll(ctx, conn, op, t.stmts.selectAll)
		return err
	})
	if err != nil {
		return err
	}

	snap := Snapshot[T]{
		ID:      uuid.NewString(),
		Table:   t.Name(),
		TakenAt: time.Now().UTC(),
		Rows:    rows,
	}
	path := SnapshotPath(dir, t.Name())
	if err := writeSnapshot(path, snap); err != nil {
		return err
	}
	log.Info("Backed up table", "table", t.Name(), "rows", len(rows), "snapshot", snap.ID, "path", path)
	return nil
}

func writeSnapshot[T any](path string, snap Snapshot[T]) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create snapshot file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if err := msgpack.NewEncoder(tmp).Encode(&snap); err != nil {
		tmp.Close()
		return fmt.Errorf("encode snapshot of %s: %w", snap.Table, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write snapshot of %s: %w", snap.Table, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("publish snapshot of %s: %w", snap.Table, err)
	}
	return nil
}

// ReadSnapshot decodes the snapshot of table stored in dir.
func ReadSnapshot[T any](dir, table string) (*Snapshot[T], error) {
	f, err := os.Open(SnapshotPath(dir, table))
	if err != nil {
		return nil, fmt.Errorf("open snapshot of %s: %w", table, err)
	}
	defer f.Close()

	var snap Snapshot[T]
	if err := msgpack.NewDecoder(f).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode snapshot of %s: %w", table, err)
	}
	if snap.Table != table {
		return nil, fmt.Errorf("snapshot in %s belongs to table %q, not %q", dir, snap.Table, table)
	}
	return &snap, nil
}

// Staged is a decoded snapshot waiting to be applied inside a transaction.
type Staged interface {
	Table() string
	Rows() int
	// Clear deletes every current row.
	Clear(ctx context.Context, tx *sql.Tx) error
	// Load inserts the snapshot rows.
	Load(ctx context.Context, tx *sql.Tx) error
}

type stagedSnapshot[T any] struct {
	t    *Table[T]
	snap *Snapshot[T]
}

func (s *stagedSnapshot[T]) Table() string { return s.t.Name() }
func (s *stagedSnapshot[T]) Rows() int     { return len(s.snap.Rows) }

func (s *stagedSnapshot[T]) Clear(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, s.t.stmts.deleteAll); err != nil {
		return s.t.accessErr("restore", err)
	}
	return nil
}

func (s *stagedSnapshot[T]) Load(ctx context.Context, tx *sql.Tx) error {
	for _, rec := range s.snap.Rows {
		if _, err := tx.ExecContext(ctx, s.t.stmts.insert, s.t.def.InsertArgs(rec)...); err != nil {
			return s.t.accessErr("restore", err)
		}
	}
	return nil
}

// Stage decodes and validates the snapshot of the table in dir without
// touching the database.
func (t *Table[T]) Stage(dir string) (Staged, error) {
	snap, err := ReadSnapshot[T](dir, t.Name())
	if err != nil {
		return nil, err
	}
	return &stagedSnapshot[T]{t: t, snap: snap}, nil
}

// Restore replaces the table's contents with the snapshot in dir inside one
// transaction. Rows not in the snapshot are gone afterwards.
func (t *Table[T]) Restore(ctx context.Context, dir string) error {
	const op = "restore"
	staged, err := t.Stage(dir)
	if err != nil {
		return err
	}

	err = t.withConn(ctx, op, func(conn *sql.Conn) error {
		return applyStaged(ctx, conn, []Staged{staged}, func(err error) error { return t.accessErr(op, err) })
	})
	if err != nil {
		return err
	}
	log.Info("Restored table", "table", t.Name(), "rows", staged.Rows())
	return nil
}

// applyStaged clears dependents before the tables they reference, then loads
// referenced tables first, all in one transaction on conn. staged must be in
// dependency order.
func applyStaged(ctx context.Context, conn *sql.Conn, staged []Staged, wrap func(error) error) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return wrap(err)
	}
	defer tx.Rollback() // no-op after commit

	for i := len(staged) - 1; i >= 0; i-- {
		if err := staged[i].Clear(ctx, tx); err != nil {
			return fmt.Errorf("clear %s: %w", staged[i].Table(), err)
		}
	}
	for _, s := range staged {
		if err := s.Load(ctx, tx); err != nil {
			return fmt.Errorf("load %s: %w", s.Table(), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return wrap(err)
	}
	return nil
}
