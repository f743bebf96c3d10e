// internal/pkg/lock/lock.go
package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// ErrNotObtained is returned when a lock could not be acquired in time
var ErrNotObtained = errors.New("lock not obtained")

// ReleaseFunc releases a previously acquired lock
type ReleaseFunc func()

// Locker provides mutual exclusion keyed by an arbitrary scope string.
// Sequence counters and per-item batch state are serialized through it.
type Locker interface {
	Acquire(ctx context.Context, key string) (ReleaseFunc, error)
}

// NewLocker selects the locker implementation: Redis-backed when a client
// is available, in-process otherwise
func NewLocker(rdb *redis.Client, ttl time.Duration) Locker {
	if rdb != nil {
		return NewRedisLocker(rdb, ttl)
	}
	return NewKeyedMutex()
}

// RedisLocker implements Locker on top of redislock so that multiple
// application instances sharing one database contend correctly.
type RedisLocker struct {
	client *redislock.Client
	ttl    time.Duration
}

// NewRedisLocker creates a Redis-backed locker
func NewRedisLocker(rdb *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{
		client: redislock.New(rdb),
		ttl:    ttl,
	}
}

// Acquire obtains the lock for key, retrying with linear backoff until the
// context expires or the retry budget runs out
func (l *RedisLocker) Acquire(ctx context.Context, key string) (ReleaseFunc, error) {
	lock, err := l.client.Obtain(ctx, key, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 100),
	})
	if err == redislock.ErrNotObtained {
		return nil, ErrNotObtained
	}
	if err != nil {
		return nil, err
	}

	return func() {
		_ = lock.Release(context.Background())
	}, nil
}

// KeyedMutex implements Locker with in-process mutexes. It is used when no
// Redis client is configured (single-instance deployments) and in tests.
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[string]*mutexEntry
}

type mutexEntry struct {
	mu   sync.Mutex
	refs int
}

// NewKeyedMutex creates an in-process locker
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{
		entries: make(map[string]*mutexEntry),
	}
}

// Acquire blocks until the lock for key is held
func (k *KeyedMutex) Acquire(ctx context.Context, key string) (ReleaseFunc, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	k.mu.Lock()
	entry, ok := k.entries[key]
	if !ok {
		entry = &mutexEntry{}
		k.entries[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		k.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.entries, key)
		}
		k.mu.Unlock()
	}, nil
}
