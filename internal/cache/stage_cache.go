package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gerswin/2025v2POS-sub001/internal/model"
)

// noStage is the negative-cache marker stored when resolution found no
// applicable stage.  Caching the absence matters as much as the hit:
// seat-map refreshes hammer the resolver even for events without
// configured stages.
const noStage = "none"

// StageCache caches the outcome of stage resolution per (event, zone)
// scope with a short TTL.
type StageCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStageCache constructs a StageCache.
func NewStageCache(client *redis.Client, ttl time.Duration) *StageCache {
	return &StageCache{client: client, ttl: ttl}
}

func currentKey(eventID uint64, zoneID *uint64) string {
	if zoneID != nil {
		return fmt.Sprintf("stage:current:%d:%d", eventID, *zoneID)
	}
	return fmt.Sprintf("stage:current:%d:event", eventID)
}

// GetCurrent returns the cached resolution for a scope.  The boolean
// reports whether the cache held an answer at all; a true result with a
// nil stage means "no stage applies" was cached.
func (c *StageCache) GetCurrent(ctx context.Context, eventID uint64, zoneID *uint64) (*model.PricingStage, bool, error) {
	raw, err := c.client.Get(ctx, currentKey(eventID, zoneID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if raw == noStage {
		return nil, true, nil
	}
	var st model.PricingStage
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		// Treat a corrupt entry as a miss; it will be overwritten.
		return nil, false, nil
	}
	return &st, true, nil
}

// SetCurrent caches the resolution for a scope.  Pass a nil stage to
// negative-cache "no stage applies".
func (c *StageCache) SetCurrent(ctx context.Context, eventID uint64, zoneID *uint64, st *model.PricingStage) error {
	var payload string
	if st == nil {
		payload = noStage
	} else {
		b, err := json.Marshal(st)
		if err != nil {
			return err
		}
		payload = string(b)
	}
	if err := c.client.Set(ctx, currentKey(eventID, zoneID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Invalidate drops the cached resolution for a scope.  Called whenever a
// stage of that scope is deactivated by transition processing.
func (c *StageCache) Invalidate(ctx context.Context, eventID uint64, zoneID *uint64) error {
	keys := []string{currentKey(eventID, nil)}
	if zoneID != nil {
		keys = append(keys, currentKey(eventID, zoneID))
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
