package table_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mauv0809/scorekeeper/internal/database"
	"github.com/mauv0809/scorekeeper/internal/metrics"
	"github.com/mauv0809/scorekeeper/internal/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct {
	Name  string `msgpack:"name"`
	Kind  string `msgpack:"kind"`
	Value int    `msgpack:"value"`
}

type counterDefinition struct {
	withoutMany bool
}

func (counterDefinition) Name() string { return "counters" }

func (counterDefinition) CreateSQL() string {
	return `CREATE TABLE counters (name TEXT PRIMARY KEY, kind TEXT NOT NULL, value INTEGER NOT NULL)`
}

func (counterDefinition) InsertSQL() string {
	return `INSERT INTO counters (name, kind, value) VALUES (?, ?, ?)`
}

func (counterDefinition) UpdateSQL() string {
	return `UPDATE counters SET kind = ?, value = ? WHERE name = ?`
}

func (counterDefinition) SelectOneSQL() string {
	return `SELECT name, kind, value FROM counters WHERE name = ?`
}

func (d counterDefinition) SelectManySQL() string {
	if d.withoutMany {
		return ""
	}
	return `SELECT name, kind, value FROM counters WHERE kind = ? ORDER BY name`
}

func (counterDefinition) SelectAllSQL() string {
	return `SELECT name, kind, value FROM counters ORDER BY name`
}

func (counterDefinition) DeleteSQL() string {
	return `DELETE FROM counters WHERE name = ?`
}

func (counterDefinition) InsertArgs(c counter) []any { return []any{c.Name, c.Kind, c.Value} }
func (counterDefinition) UpdateArgs(c counter) []any { return []any{c.Kind, c.Value, c.Name} }
func (counterDefinition) KeyArgs(c counter) []any    { return []any{c.Name} }

func (counterDefinition) Scan(row table.Scanner) (counter, error) {
	var c counter
	err := row.Scan(&c.Name, &c.Kind, &c.Value)
	return c, err
}

// setupTestTable opens a file-backed SQLite pool and creates the counters table.
func setupTestTable(t *testing.T, maxConns int) (*table.Table[counter], *table.Registry, *database.Pool, *metrics.Mock) {
	t.Helper()

	m := metrics.NewMock()
	pool, err := database.Open(context.Background(), database.Options{
		URL:            filepath.Join(t.TempDir(), "table.db"),
		MaxConns:       maxConns,
		AcquireTimeout: 2 * time.Second,
		Metrics:        m,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Shutdown(context.Background()) })

	registry := table.NewRegistry()
	tbl := table.New[counter](pool, counterDefinition{}, registry)
	require.NoError(t, tbl.EnsureExists(context.Background()))
	return tbl, registry, pool, m
}

func TestEnsureExists_Idempotent(t *testing.T) {
	ctx := context.Background()
	tbl, _, _, _ := setupTestTable(t, 2)

	require.NoError(t, tbl.EnsureExists(ctx))
	require.NoError(t, tbl.EnsureExists(ctx))
}

func TestEnsureExists_ConcurrentCreators(t *testing.T) {
	ctx := context.Background()
	m := metrics.NewMock()
	pool, err := database.Open(ctx, database.Options{
		URL:            filepath.Join(t.TempDir(), "race.db"),
		MaxConns:       8,
		AcquireTimeout: 5 * time.Second,
		Metrics:        m,
	})
	require.NoError(t, err)
	defer pool.Disconnect()

	tbl := table.New[counter](pool, counterDefinition{}, nil)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = tbl.EnsureExists(ctx)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	require.NoError(t, tbl.Create(ctx, counter{Name: "a", Kind: "k", Value: 1}))
}

func TestCreateAndRetrieve(t *testing.T) {
	ctx := context.Background()
	tbl, _, _, _ := setupTestTable(t, 2)

	require.NoError(t, tbl.Create(ctx, counter{Name: "b", Kind: "odd", Value: 3}))
	require.NoError(t, tbl.Create(ctx, counter{Name: "a", Kind: "even", Value: 2}))
	require.NoError(t, tbl.Create(ctx, counter{Name: "c", Kind: "odd", Value: 5}))

	t.Run("retrieve one", func(t *testing.T) {
		got, err := tbl.RetrieveOne(ctx, counter{Name: "b"})
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, counter{Name: "b", Kind: "odd", Value: 3}, *got)
	})

	t.Run("retrieve one not found is nil without error", func(t *testing.T) {
		got, err := tbl.RetrieveOne(ctx, counter{Name: "zzz"})
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("retrieve many filters by criteria", func(t *testing.T) {
		got, err := tbl.RetrieveMany(ctx, "odd")
		require.NoError(t, err)
		assert.Equal(t, []counter{{"b", "odd", 3}, {"c", "odd", 5}}, got)
	})

	t.Run("retrieve many with no match is empty", func(t *testing.T) {
		got, err := tbl.RetrieveMany(ctx, "prime")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("retrieve all", func(t *testing.T) {
		got, err := tbl.RetrieveAll(ctx)
		require.NoError(t, err)
		assert.Len(t, got, 3)
		assert.Equal(t, "a", got[0].Name)
	})
}

func TestCreate_DuplicateKeyIsAccessError(t *testing.T) {
	ctx := context.Background()
	tbl, _, pool, _ := setupTestTable(t, 2)

	require.NoError(t, tbl.Create(ctx, counter{Name: "a", Kind: "k", Value: 1}))
	err := tbl.Create(ctx, counter{Name: "a", Kind: "k", Value: 2})
	require.Error(t, err)

	var accessErr *database.AccessError
	require.ErrorAs(t, err, &accessErr)
	assert.Equal(t, database.KindDuplicateKey, accessErr.Kind)
	assert.Equal(t, "create", accessErr.Op)
	assert.Equal(t, "counters", accessErr.Table)
	assert.NotEmpty(t, accessErr.Code)
	assert.Equal(t, 0, pool.Stats().InUse, "connection must be released on the error path")
}

func TestUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	tbl, _, _, _ := setupTestTable(t, 2)

	require.NoError(t, tbl.Create(ctx, counter{Name: "a", Kind: "k", Value: 1}))
	require.NoError(t, tbl.Update(ctx, counter{Name: "a", Kind: "j", Value: 9}))

	got, err := tbl.RetrieveOne(ctx, counter{Name: "a"})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, counter{Name: "a", Kind: "j", Value: 9}, *got)

	require.NoError(t, tbl.Delete(ctx, counter{Name: "a"}))
	got, err = tbl.RetrieveOne(ctx, counter{Name: "a"})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestExec_ReportsAffectedRows(t *testing.T) {
	ctx := context.Background()
	tbl, _, _, _ := setupTestTable(t, 2)

	require.NoError(t, tbl.Create(ctx, counter{Name: "a", Kind: "k", Value: 1}))
	require.NoError(t, tbl.Create(ctx, counter{Name: "b", Kind: "k", Value: 2}))

	n, err := tbl.Exec(ctx, "bump", `UPDATE counters SET value = value + 1 WHERE kind = ?`, "k")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestRetrieveMany_Unsupported(t *testing.T) {
	ctx := context.Background()
	_, _, pool, _ := setupTestTable(t, 2)

	tbl := table.New[counter](pool, counterDefinition{withoutMany: true}, nil)
	_, err := tbl.RetrieveMany(ctx, "odd")
	assert.ErrorIs(t, err, table.ErrUnsupported)
}

func TestConcurrentCreate_ExactlyOneWins(t *testing.T) {
	ctx := context.Background()
	tbl, _, pool, _ := setupTestTable(t, 8)

	const n = 12
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = tbl.Create(ctx, counter{Name: "same", Kind: "k", Value: i})
		}(i)
	}
	wg.Wait()

	successes, duplicates := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case database.IsDuplicateKey(err):
			duplicates++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, n-1, duplicates)
	assert.Equal(t, 0, pool.Stats().InUse)
}

func TestOperations_PoolExhausted(t *testing.T) {
	ctx := context.Background()
	m := metrics.NewMock()
	pool, err := database.Open(ctx, database.Options{
		URL:            filepath.Join(t.TempDir(), "exhausted.db"),
		MaxConns:       1,
		AcquireTimeout: 30 * time.Millisecond,
		Metrics:        m,
	})
	require.NoError(t, err)
	defer pool.Disconnect()

	tbl := table.New[counter](pool, counterDefinition{}, nil)
	require.NoError(t, tbl.EnsureExists(ctx))

	held, err := pool.Acquire(ctx)
	require.NoError(t, err)

	_, err = tbl.RetrieveAll(ctx)
	assert.ErrorIs(t, err, database.ErrPoolExhausted)
	var accessErr *database.AccessError
	assert.False(t, errors.As(err, &accessErr), "exhaustion is not a storage access failure")

	pool.Release(held)
	_, err = tbl.RetrieveAll(ctx)
	assert.NoError(t, err)
}

func TestMetricsRecordEveryOperation(t *testing.T) {
	ctx := context.Background()
	tbl, _, _, m := setupTestTable(t, 2)

	require.NoError(t, tbl.Create(ctx, counter{Name: "a", Kind: "k", Value: 1}))
	_ = tbl.Create(ctx, counter{Name: "a", Kind: "k", Value: 1})

	ops := m.StorageOps()
	require.GreaterOrEqual(t, len(ops), 3)
	last := ops[len(ops)-1]
	assert.Equal(t, metrics.StorageOpCall{Table: "counters", Op: "create", Failed: true}, last)
	assert.Equal(t, metrics.StorageOpCall{Table: "counters", Op: "create", Failed: false}, ops[len(ops)-2])
}

func TestDestroy_DropsAndUnregisters(t *testing.T) {
	ctx := context.Background()
	tbl, registry, _, _ := setupTestTable(t, 2)

	assert.Equal(t, []string{"counters"}, registry.Names())
	require.NoError(t, tbl.Destroy(ctx))
	assert.Empty(t, registry.Names())
	_, ok := registry.Lookup("counters")
	assert.False(t, ok)

	_, err := tbl.RetrieveAll(ctx)
	require.Error(t, err, "the table should be gone")

	require.NoError(t, tbl.EnsureExists(ctx), "the table can be recreated")
	got, err := tbl.RetrieveAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestBackupRestore_RollsBack(t *testing.T) {
	ctx := context.Background()
	tbl, _, _, _ := setupTestTable(t, 2)
	dir := t.TempDir()

	require.NoError(t, tbl.Create(ctx, counter{Name: "playerA", Kind: "score", Value: 10}))
	require.NoError(t, tbl.Create(ctx, counter{Name: "playerB", Kind: "score", Value: 20}))
	require.NoError(t, tbl.Backup(ctx, dir))

	_, err := os.Stat(table.SnapshotPath(dir, "counters"))
	require.NoError(t, err)

	require.NoError(t, tbl.Delete(ctx, counter{Name: "playerA"}))
	require.NoError(t, tbl.Update(ctx, counter{Name: "playerB", Kind: "score", Value: 88}))
	require.NoError(t, tbl.Create(ctx, counter{Name: "playerC", Kind: "score", Value: 1}))

	require.NoError(t, tbl.Restore(ctx, dir))

	got, err := tbl.RetrieveAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []counter{
		{Name: "playerA", Kind: "score", Value: 10},
		{Name: "playerB", Kind: "score", Value: 20},
	}, got)
}

func TestBackup_SnapshotContents(t *testing.T) {
	ctx := context.Background()
	tbl, _, _, _ := setupTestTable(t, 2)
	dir := filepath.Join(t.TempDir(), "nested", "backups")

	require.NoError(t, tbl.Create(ctx, counter{Name: "a", Kind: "k", Value: 1}))
	require.NoError(t, tbl.Backup(ctx, dir))

	snap, err := table.ReadSnapshot[counter](dir, "counters")
	require.NoError(t, err)
	assert.Equal(t, "counters", snap.Table)
	assert.NotEmpty(t, snap.ID)
	assert.WithinDuration(t, time.Now(), snap.TakenAt, time.Minute)
	assert.Equal(t, []counter{{Name: "a", Kind: "k", Value: 1}}, snap.Rows)
}

func TestRestore_Errors(t *testing.T) {
	ctx := context.Background()
	tbl, _, _, _ := setupTestTable(t, 2)

	t.Run("missing snapshot", func(t *testing.T) {
		err := tbl.Restore(ctx, t.TempDir())
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("snapshot of another table", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, tbl.Backup(ctx, dir))
		require.NoError(t, os.Rename(table.SnapshotPath(dir, "counters"), table.SnapshotPath(dir, "other")))

		_, err := table.ReadSnapshot[counter](dir, "other")
		assert.ErrorContains(t, err, `belongs to table "counters"`)
	})

	t.Run("failed restore keeps current rows", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, tbl.Create(ctx, counter{Name: "keep", Kind: "k", Value: 1}))
		require.NoError(t, os.WriteFile(table.SnapshotPath(dir, "counters"), []byte("not msgpack"), 0o644))

		require.Error(t, tbl.Restore(ctx, dir))
		got, err := tbl.RetrieveOne(ctx, counter{Name: "keep"})
		require.NoError(t, err)
		assert.NotNil(t, got)
	})
}
