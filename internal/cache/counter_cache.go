// Package cache implements the Redis accelerator in front of the
// durable store.  The cache is never the source of truth: every reader
// must be prepared for ErrMiss (fall through to the database and
// repopulate) and ErrUnavailable (Redis down; serve from the database
// and log a warning, never fail the request).
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned when a key is absent.
var ErrMiss = errors.New("cache miss")

// ErrUnavailable is returned when Redis cannot be reached.  Callers
// degrade to the durable path.
var ErrUnavailable = errors.New("cache unavailable")

// incrIfExistsScript increments a counter only when it already exists,
// so a cold cache can never invent a value that diverges from the
// database aggregate.  Returns -1 when the key is absent.
const incrIfExistsScript = `
	if redis.call("EXISTS", KEYS[1]) == 1 then
		return redis.call("INCRBY", KEYS[1], ARGV[1])
	else
		return -1
	end
`

// CounterCache serves the hot sold/reserved counters for quota checks.
type CounterCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCounterCache constructs a CounterCache.  ttl bounds staleness; the
// tracker reconciles sold counters on every confirmed write anyway, so
// the TTL only matters for corrections made directly in the database.
func NewCounterCache(client *redis.Client, ttl time.Duration) *CounterCache {
	return &CounterCache{client: client, ttl: ttl}
}

func soldKey(stageID uint64) string     { return fmt.Sprintf("stage:sold:%d", stageID) }
func reservedKey(stageID uint64) string { return fmt.Sprintf("stage:reserved:%d", stageID) }

// Sold returns the cached sold counter for a stage.
func (c *CounterCache) Sold(ctx context.Context, stageID uint64) (int64, error) {
	return c.get(ctx, soldKey(stageID))
}

// SetSold overwrites the cached sold counter with an authoritative value.
func (c *CounterCache) SetSold(ctx context.Context, stageID uint64, sold int64) error {
	return c.set(ctx, soldKey(stageID), sold)
}

// Reserved returns the cached reserved counter for a stage.
func (c *CounterCache) Reserved(ctx context.Context, stageID uint64) (int64, error) {
	return c.get(ctx, reservedKey(stageID))
}

// SetReserved overwrites the cached reserved counter.
func (c *CounterCache) SetReserved(ctx context.Context, stageID uint64, reserved int64) error {
	return c.set(ctx, reservedKey(stageID), reserved)
}

// AddReserved atomically adjusts the cached reserved counter.  The
// adjustment is skipped when the key is absent; the next authoritative
// read will repopulate it.
func (c *CounterCache) AddReserved(ctx context.Context, stageID uint64, delta int64) error {
	err := c.client.Eval(ctx, incrIfExistsScript, []string{reservedKey(stageID)}, delta).Err()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// InvalidateReserved drops the cached reserved counter, forcing the
// next read through to the database.
func (c *CounterCache) InvalidateReserved(ctx context.Context, stageID uint64) error {
	if err := c.client.Del(ctx, reservedKey(stageID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// InvalidateSold drops the cached sold counter.
func (c *CounterCache) InvalidateSold(ctx context.Context, stageID uint64) error {
	if err := c.client.Del(ctx, soldKey(stageID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (c *CounterCache) get(ctx context.Context, key string) (int64, error) {
	v, err := c.client.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrMiss
		}
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return v, nil
}

func (c *CounterCache) set(ctx context.Context, key string, v int64) error {
	if err := c.client.Set(ctx, key, v, c.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
