package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"
)

// ReadWrite is the access mode of transactions that may change ledger records
var ReadWrite = pgx.TxOptions{AccessMode: pgx.ReadWrite}

// ReadOnly is the access mode of transactions that only look at ledger records
var ReadOnly = pgx.TxOptions{AccessMode: pgx.ReadOnly}

// WithTransaction runs fn inside a transaction started with opts.
// The transaction commits only when fn returns nil. An error from fn is returned
// unchanged so callers can match on it; a panic rolls back and is re-raised.
func (db *DB) WithTransaction(ctx context.Context, opts pgx.TxOptions, fn func(tx pgx.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		rbErr := tx.Rollback(context.WithoutCancel(ctx))
		if rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			log.WithError(rbErr).Warn("Failed to roll back transaction")
			if err != nil {
				err = fmt.Errorf("rollback failed: %v, original error: %w", rbErr, err)
			}
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true
	return nil
}
