package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"wagerbank/models"

	log "github.com/sirupsen/logrus"
)

const recordExtension = ".ledger"

// FileLedgerStore keeps one record file per community in a directory
type FileLedgerStore struct {
	dir    string
	locker Locker
}

// NewFileLedgerStore creates the data directory if needed. A nil locker means flock with no timeout.
func NewFileLedgerStore(dir string, locker Locker) (*FileLedgerStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, storageError("create data directory "+dir, err)
	}
	if locker == nil {
		locker = NewFileLocker(dir, 0)
	}
	return &FileLedgerStore{dir: dir, locker: locker}, nil
}

// RecordPath returns where a community's record lives
func (s *FileLedgerStore) RecordPath(communityID string) string {
	return filepath.Join(s.dir, communityID+recordExtension)
}

// Transact runs fn on the community's ledger under its lock and commits the result if fn succeeds
func (s *FileLedgerStore) Transact(ctx context.Context, communityID string, fn func(ledger *models.Ledger) error) error {
	return s.run(ctx, communityID, fn, true)
}

// View runs fn on the community's ledger under its lock and discards any changes
func (s *FileLedgerStore) View(ctx context.Context, communityID string, fn func(ledger *models.Ledger) error) error {
	return s.run(ctx, communityID, fn, false)
}

func (s *FileLedgerStore) run(ctx context.Context, communityID string, fn func(ledger *models.Ledger) error, commit bool) error {
	if err := ValidateCommunityID(communityID); err != nil {
		return err
	}

	unlock, err := s.locker.Lock(ctx, communityID)
	if err != nil {
		return storageError("lock community "+communityID, err)
	}
	defer func() {
		if err := unlock(); err != nil {
			log.WithError(err).WithField("community", communityID).Warn("Failed to release ledger lock")
		}
	}()

	path := s.RecordPath(communityID)
	stored, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return storageError("read record "+path, err)
	}

	ledger, _, err := decodeRecord(communityID, stored)
	if err != nil {
		return err
	}

	if err := fn(ledger); err != nil {
		log.WithFields(log.Fields{
			"community": communityID,
			"error":     err,
		}).Debug("Unit of work failed, record left untouched")
		return err
	}
	if !commit {
		return nil
	}

	content, err := encodeRecord(ledger, stored)
	if err != nil {
		return err
	}
	if content == nil {
		log.WithField("community", communityID).Debug("Ledger unchanged, skipping write")
		return nil
	}

	if err := writeFileAtomic(path, content); err != nil {
		return storageError("write record "+path, err)
	}
	log.WithFields(log.Fields{
		"community": communityID,
		"bytes":     len(content),
	}).Debug("Committed ledger record")
	return nil
}

// writeFileAtomic replaces path with content so readers see either the old or the new record
func writeFileAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			tmpFile.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(content); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Chmod(0o644); err != nil {
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}
	success = true

	// Persist the rename itself
	dirFile, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("failed to open directory for sync: %w", err)
	}
	defer dirFile.Close()
	if err := dirFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync directory: %w", err)
	}
	return nil
}
