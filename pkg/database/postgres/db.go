package pg

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/code-payments/nft-staking/pkg/retry"
	"github.com/code-payments/nft-staking/pkg/retry/backoff"
)

const (
	txMaxAttempts  = 5
	txBaseBackoff  = 5 * time.Millisecond
	txMaxBackoff   = 250 * time.Millisecond
	txBackoffJitter = 0.25
)

// ExecuteInTx executes fn within the scope of a new DB transaction, committing
// when fn returns nil and rolling back otherwise. Serialization failures at
// stricter isolation levels roll back and rerun fn from scratch, so fn must
// not have side effects outside of tx.
func ExecuteInTx(ctx context.Context, db *sqlx.DB, isolation sql.IsolationLevel, fn func(tx *sqlx.Tx) error) error {
	if isolation == sql.LevelDefault {
		isolation = sql.LevelReadCommitted // Postgres default
	}

	_, err := retry.Retry(
		ctx,
		func() error {
			return executeInTx(ctx, db, isolation, fn)
		},
		retry.If(IsSerializationFailure),
		retry.Limit(txMaxAttempts),
		retry.BackoffWithJitter(backoff.BinaryExponential(txBaseBackoff), txMaxBackoff, txBackoffJitter),
	)
	return err
}

func executeInTx(ctx context.Context, db *sqlx.DB, isolation sql.IsolationLevel, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, &sql.TxOptions{
		Isolation: isolation,
	})
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		// We always need to execute a Rollback() so sql.DB releases the connection.
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return fmt.Errorf("failed to rollback transaction: %w", rollbackErr)
		}
		return err
	}
	return tx.Commit()
}
