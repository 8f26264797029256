package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const (
	defaultRedisLockTTL = 30 * time.Second
	redisLockPrefix     = "wagerbank:lock:"
	releaseTimeout      = 5 * time.Second
)

// redisStore defines the operations used by RedisLocker
type redisStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	CompareAndDelete(ctx context.Context, key, value string) (bool, error)
}

// RedisLocker implements Locker with SETNX plus a TTL, for data directories where flock is unreliable
type RedisLocker struct {
	client  redisStore
	ttl     time.Duration
	timeout time.Duration
}

// NewRedisLocker constructs a Redis-backed locker. The TTL must outlast the longest transaction.
func NewRedisLocker(client redisStore, ttl, timeout time.Duration) (*RedisLocker, error) {
	if client == nil {
		return nil, errors.New("redis client required for lock")
	}
	if ttl <= 0 {
		ttl = defaultRedisLockTTL
	}
	return &RedisLocker{client: client, ttl: ttl, timeout: timeout}, nil
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func() error, error) {
	redisKey := redisLockPrefix + key
	owner := uuid.NewString()

	ctx, cancel := withLockTimeout(ctx, l.timeout)
	defer cancel()

	err := backoff.Retry(func() error {
		ok, err := l.client.SetNX(ctx, redisKey, owner, l.ttl)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("setnx: %w", err))
		}
		if !ok {
			return errLockHeld
		}
		return nil
	}, newLockBackoff(ctx))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLockUnavailable, key, err)
	}

	log.WithFields(log.Fields{
		"key":   redisKey,
		"owner": owner,
	}).Debug("Acquired redis lock")

	return func() error {
		// Release must run even when the request context is already done
		releaseCtx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()

		released, err := l.client.CompareAndDelete(releaseCtx, redisKey, owner)
		if err != nil {
			return fmt.Errorf("failed to release lock %s: %w", redisKey, err)
		}
		if !released {
			log.WithField("key", redisKey).Warn("Redis lock expired before release")
		}
		return nil
	}, nil
}

// releaseScript deletes the key only while it still holds the caller's owner token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisClient adapts a go-redis client to the operations the locker needs
type RedisClient struct {
	raw *redis.Client
}

// NewRedisClient connects to Redis and verifies connectivity
func NewRedisClient(ctx context.Context, redisURL string) (*RedisClient, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		raw.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return &RedisClient{raw: raw}, nil
}

// SetNX sets a value only if the key does not exist yet
func (c *RedisClient) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	return c.raw.SetNX(ctx, key, value, ttl).Result()
}

// CompareAndDelete deletes key if it still holds value
func (c *RedisClient) CompareAndDelete(ctx context.Context, key, value string) (bool, error) {
	deleted, err := releaseScript.Run(ctx, c.raw, []string{key}, value).Int64()
	if err != nil {
		return false, err
	}
	return deleted == 1, nil
}

// Close closes the underlying connection pool
func (c *RedisClient) Close() error {
	return c.raw.Close()
}
