package pg

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cenkalti/backoff/v4"
	"github.com/jmoiron/sqlx"
)

const maxSerializationRetries = 5

// ExecuteRetryable retries fn while it fails with a serialization failure,
// up to a fixed number of attempts.
func ExecuteRetryable(fn func() error) error {
	return backoff.Retry(
		func() error {
			err := fn()
			if err != nil && !IsSerializationFailure(err) {
				return backoff.Permanent(err)
			}
			return err
		},
		backoff.WithMaxRetries(&backoff.ZeroBackOff{}, maxSerializationRetries-1),
	)
}

// ExecuteInTx executes fn within the scope of a new DB transaction. Once fn is
// complete, commit or rollback is called based on whether an error is
// returned.
func ExecuteInTx(ctx context.Context, db *sqlx.DB, isolation sql.IsolationLevel, fn func(tx *sqlx.Tx) error) error {
	if isolation == sql.LevelDefault {
		isolation = sql.LevelReadCommitted // Postgres default
	}

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
