package repository

import (
	"context"
	"errors"

	"wagerbank/database"
	"wagerbank/models"

	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"
)

// PostgresLedgerStore keeps one row per community in ledger_records.
// The row lock taken by SELECT ... FOR UPDATE is the per-community mutex.
type PostgresLedgerStore struct {
	db *database.DB
}

// NewPostgresLedgerStore creates a store on an already migrated database
func NewPostgresLedgerStore(db *database.DB) *PostgresLedgerStore {
	return &PostgresLedgerStore{db: db}
}

// Transact runs fn on the community's ledger inside a database transaction holding the row lock
func (s *PostgresLedgerStore) Transact(ctx context.Context, communityID string, fn func(ledger *models.Ledger) error) error {
	if err := ValidateCommunityID(communityID); err != nil {
		return err
	}

	var workErr error
	err := s.db.WithTransaction(ctx, database.ReadWrite, func(tx pgx.Tx) error {
		stored, err := lockRecord(ctx, tx, communityID)
		if err != nil {
			return err
		}

		ledger, _, err := decodeRecord(communityID, stored)
		if err != nil {
			return err
		}

		if workErr = fn(ledger); workErr != nil {
			return workErr
		}

		content, err := encodeRecord(ledger, stored)
		if err != nil {
			return err
		}
		if content == nil {
			log.WithField("community", communityID).Debug("Ledger unchanged, skipping write")
			return nil
		}

		query := `
			UPDATE ledger_records
			SET content = $2, updated_at = NOW()
			WHERE community_id = $1
		`
		if _, err := tx.Exec(ctx, query, communityID, content); err != nil {
			return storageError("update record for community "+communityID, err)
		}
		return nil
	})

	if workErr != nil {
		log.WithFields(log.Fields{
			"community": communityID,
			"error":     workErr,
		}).Debug("Unit of work failed, transaction rolled back")
		return workErr
	}
	if err != nil && !errors.Is(err, ErrStorage) {
		return storageError("commit ledger for community "+communityID, err)
	}
	return err
}

// View runs fn on a committed snapshot of the community's ledger in a read-only transaction
func (s *PostgresLedgerStore) View(ctx context.Context, communityID string, fn func(ledger *models.Ledger) error) error {
	if err := ValidateCommunityID(communityID); err != nil {
		return err
	}

	var workErr error
	err := s.db.WithTransaction(ctx, database.ReadOnly, func(tx pgx.Tx) error {
		var stored []byte
		query := `SELECT content FROM ledger_records WHERE community_id = $1`
		err := tx.QueryRow(ctx, query, communityID).Scan(&stored)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return storageError("read record for community "+communityID, err)
		}

		ledger, _, err := decodeRecord(communityID, stored)
		if err != nil {
			return err
		}
		workErr = fn(ledger)
		return workErr
	})

	if workErr != nil {
		return workErr
	}
	if err != nil && !errors.Is(err, ErrStorage) {
		return storageError("read ledger for community "+communityID, err)
	}
	return err
}

// lockRecord makes sure the community's row exists, then locks it for the rest of the transaction
func lockRecord(ctx context.Context, tx pgx.Tx, communityID string) ([]byte, error) {
	insert := `
		INSERT INTO ledger_records (community_id, content)
		VALUES ($1, $2)
		ON CONFLICT (community_id) DO NOTHING
	`
	if _, err := tx.Exec(ctx, insert, communityID, []byte{}); err != nil {
		return nil, storageError("create record for community "+communityID, err)
	}

	var content []byte
	query := `SELECT content FROM ledger_records WHERE community_id = $1 FOR UPDATE`
	if err := tx.QueryRow(ctx, query, communityID).Scan(&content); err != nil {
		return nil, storageError("lock record for community "+communityID, err)
	}
	return content, nil
}
