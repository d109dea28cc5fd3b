// Package repository holds the generic query helpers used by the
// PostgreSQL-backed domain packages.
package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// Querier is satisfied by *sql.DB, *sql.Tx and *sql.Conn.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Executor is satisfied by *sql.DB, *sql.Tx and *sql.Conn.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Scanner is the common surface of *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// ScanFunc reads one row into a T.
type ScanFunc[T any] func(Scanner) (T, error)

// WithTx runs fn in a transaction, committing when fn succeeds and rolling
// back otherwise.
func WithTx[T any](ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) (T, error)) (result T, err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if result, err = fn(tx); err != nil {
		return result, err
	}
	if err = tx.Commit(); err != nil {
		return result, fmt.Errorf("commit: %w", err)
	}
	return result, nil
}

// QueryOne scans the single row returned by query. A missing row is
// sql.ErrNoRows.
func QueryOne[T any](ctx context.Context, q Querier, query string, args []any, scan ScanFunc[T]) (T, error) {
	return scan(q.QueryRowContext(ctx, query, args...))
}

// QueryScalar scans a single-column, single-row result such as COUNT(*).
func QueryScalar[T any](ctx context.Context, q Querier, query string, args []any) (T, error) {
	var v T
	err := q.QueryRowContext(ctx, query, args...).Scan(&v)
	return v, err
}

// QueryMany scans every row returned by query. No rows yields an empty,
// non-nil slice.
func QueryMany[T any](ctx context.Context, q Querier, query string, args []any, scan ScanFunc[T]) ([]T, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// ExecExpectOne runs a statement that must affect exactly one row and
// returns sql.ErrNoRows when it affected none.
func ExecExpectOne(ctx context.Context, e Executor, query string, args ...any) error {
	res, err := e.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	switch {
	case err != nil:
		return err
	case n == 0:
		return sql.ErrNoRows
	}
	return nil
}
