package service

import (
	"context"

	"wagerbank/models"
)

// WithLedger runs fn inside a transaction on the community's ledger and returns fn's value.
// The ledger is committed only when fn returns a nil error.
func WithLedger[T any](ctx context.Context, store LedgerStore, communityID string, fn func(ledger *models.Ledger) (T, error)) (T, error) {
	var result T
	err := store.Transact(ctx, communityID, func(ledger *models.Ledger) error {
		value, err := fn(ledger)
		if err != nil {
			return err
		}
		result = value
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
