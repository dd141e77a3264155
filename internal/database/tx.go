package database

import (
	"context"
	"database/sql"
	"fmt"
)

// DBTX is the subset of database/sql methods shared by *sql.DB and *sql.Tx.
// Repositories run their queries against it so the same code works inside
// and outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxRunner is the narrow interface services depend on for unit-of-work
// boundaries. Satisfied by *DB; tests substitute a pass-through stub.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// txKey carries the active transaction through the context.
type txKey struct{}

// DB wraps the connection pool with transaction propagation. Services open
// a unit of work with WithTx; repositories fetch the executor for the
// current context with Q and never manage transactions themselves.
type DB struct {
	pool *sql.DB
}

// New wraps an open connection pool.
func New(pool *sql.DB) *DB {
	return &DB{pool: pool}
}

// Pool exposes the underlying pool for health checks and shutdown.
func (d *DB) Pool() *sql.DB {
	return d.pool
}

// Q returns the executor bound to ctx: the transaction started by an
// enclosing WithTx call if there is one, the plain pool otherwise.
func (d *DB) Q(ctx context.Context) DBTX {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return d.pool
}

// WithTx runs fn inside a database transaction. When ctx already carries a
// transaction, fn joins it and only the outermost caller commits or rolls
// back, so nested units of work never commit halfway. On error or panic
// everything fn wrote is rolled back; the panic is re-raised after rollback.
func (d *DB) WithTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	tx, err := d.pool.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if cerr := tx.Commit(); cerr != nil {
			err = fmt.Errorf("committing transaction: %w", cerr)
		}
	}()

	err = fn(context.WithValue(ctx, txKey{}, tx))
	return err
}
