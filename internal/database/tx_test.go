package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T, name string) *DB {
	t.Helper()
	pool, err := sql.Open("sqlite", "file:"+name+"?mode=memory&cache=shared")
	require.NoError(t, err)
	pool.SetMaxOpenConns(4)
	pool.SetMaxIdleConns(4)
	t.Cleanup(func() { _ = pool.Close() })
	_, err = pool.Exec(`CREATE TABLE IF NOT EXISTS stories (id INTEGER PRIMARY KEY AUTOINCREMENT, title TEXT);`)
	require.NoError(t, err)
	_, err = pool.Exec(`DELETE FROM stories;`)
	require.NoError(t, err)
	return New(pool)
}

func countStories(t *testing.T, d *DB) int {
	t.Helper()
	var n int
	err := d.Pool().QueryRow(`SELECT COUNT(*) FROM stories`).Scan(&n)
	require.NoError(t, err)
	return n
}

func insertStory(ctx context.Context, d *DB, title string) error {
	_, err := d.Q(ctx).ExecContext(ctx, `INSERT INTO stories (title) VALUES (?)`, title)
	return err
}

func TestWithTx_CommitOnSuccess(t *testing.T) {
	d := setupDB(t, "tx_commit")
	ctx := context.Background()

	err := d.WithTx(ctx, func(ctx context.Context) error {
		return insertStory(ctx, d, "the dragon")
	})
	require.NoError(t, err)
	require.Equal(t, 1, countStories(t, d))
}

func TestWithTx_RollbackOnError(t *testing.T) {
	d := setupDB(t, "tx_rollback")
	ctx := context.Background()
	boom := errors.New("boom")

	err := d.WithTx(ctx, func(ctx context.Context) error {
		if err := insertStory(ctx, d, "half written"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 0, countStories(t, d))
}

func TestWithTx_RollbackOnPanic(t *testing.T) {
	d := setupDB(t, "tx_panic")
	ctx := context.Background()

	require.Panics(t, func() {
		_ = d.WithTx(ctx, func(ctx context.Context) error {
			if err := insertStory(ctx, d, "half written"); err != nil {
				return err
			}
			panic("boom")
		})
	})
	require.Equal(t, 0, countStories(t, d))
}

func TestWithTx_NestedJoinsOuterTx(t *testing.T) {
	d := setupDB(t, "tx_nested")
	ctx := context.Background()

	err := d.WithTx(ctx, func(ctx context.Context) error {
		if err := insertStory(ctx, d, "outer"); err != nil {
			return err
		}
		return d.WithTx(ctx, func(ctx context.Context) error {
			return insertStory(ctx, d, "inner")
		})
	})
	require.NoError(t, err)
	require.Equal(t, 2, countStories(t, d))
}

func TestWithTx_NestedDoesNotCommitEarly(t *testing.T) {
	d := setupDB(t, "tx_nested_abort")
	ctx := context.Background()
	boom := errors.New("boom")

	// The inner unit of work succeeds, but the outer one fails afterwards.
	// If the inner call had committed, the first insert would survive.
	err := d.WithTx(ctx, func(ctx context.Context) error {
		if err := d.WithTx(ctx, func(ctx context.Context) error {
			return insertStory(ctx, d, "inner")
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 0, countStories(t, d))
}

func TestWithTx_InnerErrorAbortsOuter(t *testing.T) {
	d := setupDB(t, "tx_inner_error")
	ctx := context.Background()
	boom := errors.New("boom")

	err := d.WithTx(ctx, func(ctx context.Context) error {
		if err := insertStory(ctx, d, "outer"); err != nil {
			return err
		}
		return d.WithTx(ctx, func(ctx context.Context) error {
			return boom
		})
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 0, countStories(t, d))
}

func TestQ_ExecutorSelection(t *testing.T) {
	d := setupDB(t, "tx_executor")
	ctx := context.Background()

	_, isPool := d.Q(ctx).(*sql.DB)
	require.True(t, isPool, "outside a transaction Q must return the pool")

	err := d.WithTx(ctx, func(ctx context.Context) error {
		_, isTx := d.Q(ctx).(*sql.Tx)
		require.True(t, isTx, "inside a transaction Q must return the tx")
		return nil
	})
	require.NoError(t, err)
}
