// Package redislock implements short-lived distributed mutual exclusion
// on top of Redis SET NX.  Every lock value is a random owner token so a
// holder can only release or extend a lock it still owns; release and
// extend run as Lua scripts to keep the owner check atomic.
package redislock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotAcquired is returned when the lock is currently held by someone
// else.  Callers treat it as transient and retry with backoff.
var ErrNotAcquired = errors.New("lock not acquired")

// ErrNotOwned is returned when releasing or extending a lock whose TTL
// already lapsed and was re-acquired by another holder.
var ErrNotOwned = errors.New("lock not owned")

// Lock is a held distributed lock.  It auto-expires after its TTL, so a
// crashed holder can never deadlock other processes.
type Lock struct {
	client *redis.Client
	key    string
	value  string
	ttl    time.Duration
}

// Manager acquires distributed locks against a shared Redis instance.
type Manager struct {
	client *redis.Client
}

// NewManager constructs a lock manager.
func NewManager(client *redis.Client) *Manager {
	return &Manager{client: client}
}

// Acquire attempts to take the lock once.  Returns ErrNotAcquired when
// the key is already held.
func (m *Manager) Acquire(ctx context.Context, key string, ttl time.Duration) (*Lock, error) {
	lockKey := fmt.Sprintf("lock:%s", key)
	lockValue := uuid.New().String()

	ok, err := m.client.SetNX(ctx, lockKey, lockValue, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrNotAcquired
	}
	return &Lock{client: m.client, key: lockKey, value: lockValue, ttl: ttl}, nil
}

// AcquireWithRetry attempts to take the lock up to maxRetries times,
// sleeping retryDelay between attempts.  It never blocks indefinitely:
// after the attempts are exhausted the last error (normally
// ErrNotAcquired) is returned and the caller surfaces a retry-later
// result.
func (m *Manager) AcquireWithRetry(ctx context.Context, key string, ttl time.Duration, maxRetries int, retryDelay time.Duration) (*Lock, error) {
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		lock, err := m.Acquire(ctx, key, ttl)
		if err == nil {
			return lock, nil
		}
		lastErr = err
		if !errors.Is(err, ErrNotAcquired) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}
	return nil, lastErr
}

// Release frees the lock if this holder still owns it.
func (l *Lock) Release(ctx context.Context) error {
	script := `
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("DEL", KEYS[1])
		else
			return 0
		end
	`
	result, err := l.client.Eval(ctx, script, []string{l.key}, l.value).Int()
	if err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	if result == 0 {
		return ErrNotOwned
	}
	return nil
}

// Extend pushes the lock TTL forward if this holder still owns it.
func (l *Lock) Extend(ctx context.Context, ttl time.Duration) error {
	script := `
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("PEXPIRE", KEYS[1], ARGV[2])
		else
			return 0
		end
	`
	result, err := l.client.Eval(ctx, script, []string{l.key}, l.value, ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("extend lock: %w", err)
	}
	if result == 0 {
		return ErrNotOwned
	}
	l.ttl = ttl
	return nil
}
