// Package writer provides the shape shared by every domain writer:
// begin transaction, mutate, insert exactly one outbox row, commit.
package writer

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/productcatalog/platform/pkg/outbox"
)

// MutateFunc performs the entity mutation against tx and returns the
// outbox record describing it. Returning an error aborts the transaction
// and no outbox row is written.
type MutateFunc func(ctx context.Context, tx pgx.Tx) (outbox.Record, error)

// Transact runs fn inside a single transaction and inserts its returned
// outbox record in that same transaction before committing. No writer may
// mutate without going through this path, and exactly one outbox row is
// written per call.
func Transact(ctx context.Context, pool *pgxpool.Pool, fn MutateFunc) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("writer: failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	record, err := fn(ctx, tx)
	if err != nil {
		return err
	}

	if err := outbox.InsertTx(ctx, tx, record); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("writer: failed to commit transaction: %w", err)
	}

	return nil
}

// Runner binds Transact to a pool so use cases depend on a small
// interface (Runner) rather than *pgxpool.Pool directly, keeping them
// testable with a fake.
type Runner struct {
	Pool *pgxpool.Pool
}

// Transact implements the Runner interface use cases depend on.
func (r *Runner) Transact(ctx context.Context, fn MutateFunc) error {
	return Transact(ctx, r.Pool, fn)
}
