package txn

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/fekuna/omnipos-workshop-service/pkg/database"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) *sqlx.DB {
	t.Helper()
	ctx := context.Background()
	db, err := database.NewSQLite(ctx, filepath.Join(t.TempDir(), "txn.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.ExecContext(ctx, `CREATE TABLE counters (name TEXT PRIMARY KEY, n INTEGER NOT NULL)`)
	require.NoError(t, err)
	return db
}

func count(t *testing.T, db *sqlx.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.Get(&n, `SELECT count(*) FROM counters`))
	return n
}

func insert(ctx context.Context, db *sqlx.DB, name string) error {
	ex := Executor(ctx, db)
	_, err := ex.ExecContext(ctx, ex.Rebind(`INSERT INTO counters (name, n) VALUES (?, 1)`), name)
	return err
}

func TestWithinTxCommits(t *testing.T) {
	db := newDB(t)
	m := NewManager(db)

	err := m.WithinTx(context.Background(), func(ctx context.Context) error {
		assert.True(t, InTx(ctx))
		return insert(ctx, db, "a")
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count(t, db))
}

func TestWithinTxRollsBackEverything(t *testing.T) {
	db := newDB(t)
	m := NewManager(db)
	boom := errors.New("boom")

	err := m.WithinTx(context.Background(), func(ctx context.Context) error {
		require.NoError(t, insert(ctx, db, "a"))
		return m.WithinTx(ctx, func(ctx context.Context) error {
			require.NoError(t, insert(ctx, db, "b"))
			return boom
		})
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, count(t, db))
}

func TestWithinTxRollsBackOnPanic(t *testing.T) {
	db := newDB(t)
	m := NewManager(db)

	assert.Panics(t, func() {
		_ = m.WithinTx(context.Background(), func(ctx context.Context) error {
			_ = insert(ctx, db, "a")
			panic("unexpected")
		})
	})
	assert.Equal(t, 0, count(t, db))
}

func TestExecutorOutsideTx(t *testing.T) {
	db := newDB(t)
	assert.False(t, InTx(context.Background()))
	assert.Same(t, db, Executor(context.Background(), db))
	assert.Equal(t, "", ForUpdate(db))
	assert.Equal(t, "", ForUpdateSkipLocked(db))
}
