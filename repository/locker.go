package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// Locker provides mutual exclusion per key across processes
type Locker interface {
	// Lock blocks until the key is held or ctx expires. The returned function releases it.
	Lock(ctx context.Context, key string) (unlock func() error, err error)
}

var errLockHeld = errors.New("lock held by another owner")

// newLockBackoff polls quickly at first and never gives up on its own; ctx bounds the wait
func newLockBackoff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 5 * time.Millisecond
	b.MaxInterval = 250 * time.Millisecond
	b.MaxElapsedTime = 0
	return backoff.WithContext(b, ctx)
}

// withLockTimeout bounds ctx by timeout when timeout is positive
func withLockTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// FileLocker holds an flock on <dir>/<key>.lock.
// The lock lives on its own file because records are replaced by rename.
type FileLocker struct {
	dir     string
	timeout time.Duration
}

// NewFileLocker creates a locker keeping its lock files in dir
func NewFileLocker(dir string, timeout time.Duration) *FileLocker {
	return &FileLocker{dir: dir, timeout: timeout}
}

func (l *FileLocker) Lock(ctx context.Context, key string) (func() error, error) {
	path := filepath.Join(l.dir, key+".lock")
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file %s: %w", path, err)
	}

	ctx, cancel := withLockTimeout(ctx, l.timeout)
	defer cancel()

	attempts := 0
	err = backoff.Retry(func() error {
		attempts++
		err := unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			return nil
		}
		if errors.Is(err, unix.EWOULDBLOCK) || errors.Is(err, unix.EINTR) {
			return errLockHeld
		}
		return backoff.Permanent(err)
	}, newLockBackoff(ctx))
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("%w: %s after %d attempts: %w", ErrLockUnavailable, key, attempts, err)
	}

	log.WithFields(log.Fields{
		"key":      key,
		"attempts": attempts,
	}).Debug("Acquired file lock")

	return func() error {
		// Closing the descriptor drops the flock even if the explicit unlock fails
		unlockErr := unix.Flock(int(file.Fd()), unix.LOCK_UN)
		closeErr := file.Close()
		if unlockErr != nil {
			return fmt.Errorf("failed to unlock %s: %w", path, unlockErr)
		}
		return closeErr
	}, nil
}
