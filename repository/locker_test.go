package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"wagerbank/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLocker_ReleaseLetsNextOwnerIn(t *testing.T) {
	dir := t.TempDir()
	locker := NewFileLocker(dir, 2*time.Second)

	unlock, err := locker.Lock(context.Background(), "guild-1")
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		second, err := locker.Lock(context.Background(), "guild-1")
		if err == nil {
			close(acquired)
			second()
		}
	}()

	select {
	case <-acquired:
		t.Fatal("second owner got the lock while it was held")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, unlock())

	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatal("second owner never got the lock")
	}
}

func TestFileLocker_KeysAreIndependent(t *testing.T) {
	locker := NewFileLocker(t.TempDir(), 100*time.Millisecond)

	unlockA, err := locker.Lock(context.Background(), "guild-a")
	require.NoError(t, err)
	defer unlockA()

	unlockB, err := locker.Lock(context.Background(), "guild-b")
	require.NoError(t, err)
	assert.NoError(t, unlockB())
}

func TestFileLocker_HonoursContext(t *testing.T) {
	locker := NewFileLocker(t.TempDir(), 0)
	unlock, err := locker.Lock(context.Background(), "guild-1")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err = locker.Lock(ctx, "guild-1")
	assert.ErrorIs(t, err, ErrLockUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// fakeRedis keeps keys in memory; expiry is driven by the test
type fakeRedis struct {
	mu      sync.Mutex
	values  map[string]string
	failSet error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: make(map[string]string)}
}

func (f *fakeRedis) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSet != nil {
		return false, f.failSet
	}
	if _, exists := f.values[key]; exists {
		return false, nil
	}
	f.values[key] = value.(string)
	return true, nil
}

func (f *fakeRedis) CompareAndDelete(_ context.Context, key, value string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.values[key] != value {
		return false, nil
	}
	delete(f.values, key)
	return true, nil
}

func (f *fakeRedis) expire(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.values, key)
}

func (f *fakeRedis) steal(key, owner string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = owner
}

func TestRedisLocker_MutualExclusion(t *testing.T) {
	client := newFakeRedis()
	locker, err := NewRedisLocker(client, time.Minute, 50*time.Millisecond)
	require.NoError(t, err)

	unlock, err := locker.Lock(context.Background(), "guild-1")
	require.NoError(t, err)

	_, err = locker.Lock(context.Background(), "guild-1")
	assert.ErrorIs(t, err, ErrLockUnavailable)

	require.NoError(t, unlock())

	unlock, err = locker.Lock(context.Background(), "guild-1")
	require.NoError(t, err)
	assert.NoError(t, unlock())
}

func TestRedisLocker_ReleaseOnlyDeletesOwnToken(t *testing.T) {
	client := newFakeRedis()
	locker, err := NewRedisLocker(client, time.Minute, time.Second)
	require.NoError(t, err)

	unlock, err := locker.Lock(context.Background(), "guild-1")
	require.NoError(t, err)

	// The TTL lapsed and someone else took the lock
	client.expire(redisLockPrefix + "guild-1")
	client.steal(redisLockPrefix+"guild-1", "someone-else")

	require.NoError(t, unlock())
	assert.Equal(t, "someone-else", client.values[redisLockPrefix+"guild-1"])
}

func TestRedisLocker_ClientErrorIsNotRetried(t *testing.T) {
	client := newFakeRedis()
	client.failSet = errors.New("connection refused")
	locker, err := NewRedisLocker(client, time.Minute, 5*time.Second)
	require.NoError(t, err)

	start := time.Now()
	_, err = locker.Lock(context.Background(), "guild-1")

	assert.ErrorIs(t, err, ErrLockUnavailable)
	assert.ErrorIs(t, err, client.failSet)
	assert.Less(t, time.Since(start), time.Second)
}

func TestRedisLocker_RequiresClient(t *testing.T) {
	_, err := NewRedisLocker(nil, time.Minute, time.Second)
	assert.Error(t, err)
}

func TestFileLedgerStore_WithRedisLocker(t *testing.T) {
	dir := t.TempDir()
	locker, err := NewRedisLocker(newFakeRedis(), time.Minute, 5*time.Second)
	require.NoError(t, err)
	store, err := NewFileLedgerStore(dir, locker)
	require.NoError(t, err)

	const workers = 8
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.Transact(context.Background(), "guild-1", func(ledger *models.Ledger) error {
				ledger.GetOrCreateUser("counter").Balance++
				return nil
			}))
		}()
	}
	wg.Wait()

	require.NoError(t, store.View(context.Background(), "guild-1", func(ledger *models.Ledger) error {
		assert.Equal(t, int64(workers), ledger.Balance("counter"))
		return nil
	}))
}
