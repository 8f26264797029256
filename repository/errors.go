package repository

import (
	"errors"
	"fmt"
	"regexp"
)

var (
	// ErrStorage marks every failure of the storage layer itself, as opposed to
	// errors returned by a unit of work
	ErrStorage = errors.New("ledger storage failure")
	// ErrLockUnavailable means exclusive access to a record could not be obtained in time
	ErrLockUnavailable = errors.New("ledger lock unavailable")
	// ErrInvalidCommunityID means the id cannot name a record
	ErrInvalidCommunityID = errors.New("invalid community id")
)

var communityIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidateCommunityID checks that a community id is safe to use as a record key and file name
func ValidateCommunityID(communityID string) error {
	if !communityIDPattern.MatchString(communityID) {
		return fmt.Errorf("%w: %w: %q", ErrStorage, ErrInvalidCommunityID, communityID)
	}
	return nil
}

func storageError(action string, err error) error {
	return fmt.Errorf("%w: failed to %s: %w", ErrStorage, action, err)
}
