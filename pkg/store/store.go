// Package store provides the relational backing store for the sync
// engine: a pgx connection pool plus a transaction-scope helper.
// Everything above this package — the repository layer — speaks only
// through the Querier interface, so a repository call works unchanged
// whether it runs against the pool directly or inside a transaction.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the capability repositories depend on: execute a
// parameterised statement, or run a query and get rows/a row back.
// *pgxpool.Pool and pgx.Tx both satisfy it, so repository functions
// accept a Querier and don't care whether they're inside a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store wraps a pgx connection pool. It is the only process-wide
// mutable reference the repository layer holds (spec §5: process-wide
// state is limited to the scheduler's token table and the repositories'
// immutable reference to the connection pool).
type Store struct {
	Pool *pgxpool.Pool
}

// Open connects to Postgres and verifies connectivity with a ping.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping store: %w", err)
	}
	return &Store{Pool: pool}, nil
}

// Close releases the pool's connections.
func (s *Store) Close() {
	s.Pool.Close()
}

// Exec implements Querier by delegating to the pool.
func (s *Store) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return s.Pool.Exec(ctx, sql, args...)
}

// Query implements Querier by delegating to the pool.
func (s *Store) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return s.Pool.Query(ctx, sql, args...)
}

// QueryRow implements Querier by delegating to the pool.
func (s *Store) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return s.Pool.QueryRow(ctx, sql, args...)
}

// WithTx runs fn inside a transaction, committing on nil error and
// rolling back otherwise. Used for the multi-statement operations that
// must be atomic: cascade-delete of an order, and any caller that needs
// more than one statement to observe a consistent view.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op once committed

	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
