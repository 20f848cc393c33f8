package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gerswin/2025v2POS-sub001/internal/redislock"
)

// Unlocker releases a held distributed lock.
type Unlocker interface {
	Release(ctx context.Context) error
}

// Locker acquires named distributed locks with bounded retries.
// Production uses the Redis-backed implementation; tests substitute an
// in-process one.
type Locker interface {
	AcquireWithRetry(ctx context.Context, key string, ttl time.Duration, maxRetries int, retryDelay time.Duration) (Unlocker, error)
}

// RedisLocker adapts redislock.Manager to the Locker interface.
type RedisLocker struct {
	manager *redislock.Manager
}

// NewRedisLocker constructs a RedisLocker.
func NewRedisLocker(manager *redislock.Manager) *RedisLocker {
	return &RedisLocker{manager: manager}
}

// AcquireWithRetry acquires a lock, retrying up to maxRetries times.
func (l *RedisLocker) AcquireWithRetry(ctx context.Context, key string, ttl time.Duration, maxRetries int, retryDelay time.Duration) (Unlocker, error) {
	lock, err := l.manager.AcquireWithRetry(ctx, key, ttl, maxRetries, retryDelay)
	if err != nil {
		return nil, err
	}
	return lock, nil
}

func stageLockKey(stageID uint64) string { return fmt.Sprintf("stage:%d", stageID) }
func zoneLockKey(zoneID uint64) string   { return fmt.Sprintf("zone:%d", zoneID) }
