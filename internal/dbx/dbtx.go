// Package dbx holds the small database plumbing shared by repositories:
// the DBTX query interface and a transactional run helper.
package dbx

import (
	"context"
	"database/sql"
)

// DBTX is the query surface repositories are written against. *sql.DB and
// *sql.Tx both satisfy it, so the caller decides the transactional scope.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx runs fn inside a transaction: commit when fn returns nil, roll
// back when it returns an error or panics. A panic is rolled back and then
// rethrown so it still reaches the caller.
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
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
		err = tx.Commit()
	}()

	return fn(ctx, tx)
}
