package table

import (
	"context"

	"github.com/mauv0809/scorekeeper/internal/database"
)

// Scanner is satisfied by *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// Definition supplies the fixed SQL templates and row mapping for one entity type.
// Templates use '?' placeholders; they are rebound for the pool's dialect once,
// when the table is constructed.
type Definition[T any] interface {
	Name() string
	CreateSQL() string
	InsertSQL() string
	// UpdateSQL binds UpdateArgs: the mutable fields first, then the key fields.
	UpdateSQL() string
	SelectOneSQL() string
	// SelectManySQL may be empty when filtered retrieval is not offered.
	SelectManySQL() string
	SelectAllSQL() string
	DeleteSQL() string

	InsertArgs(rec T) []any
	UpdateArgs(rec T) []any
	KeyArgs(rec T) []any
	Scan(row Scanner) (T, error)
}

// Managed is the lifecycle surface the Registry drives.
type Managed interface {
	Name() string
	EnsureExists(ctx context.Context) error
	Destroy(ctx context.Context) error
	Backup(ctx context.Context, dir string) error
	Restore(ctx context.Context, dir string) error
	// Stage decodes the table's snapshot in dir without touching the database.
	Stage(dir string) (Staged, error)
	Pool() *database.Pool
}
