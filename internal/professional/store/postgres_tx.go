package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	dErrors "rolodex/pkg/domain-errors"
	txcontext "rolodex/pkg/platform/tx"
)

// defaultBatchTxTimeout bounds a whole bulk-upsert transaction.
const defaultBatchTxTimeout = 30 * time.Second

// PostgresTx opens one transaction per batch and exposes it to the store
// through the context. Individual statements inside the batch run under
// savepoints (see Postgres.Upsert), so per-row failures roll back only the
// row while the surviving writes commit together.
type PostgresTx struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresTx(pool *pgxpool.Pool) *PostgresTx {
	return &PostgresTx{pool: pool}
}

func (t *PostgresTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultBatchTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin batch transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit batch transaction: %w", err)
	}
	return nil
}
