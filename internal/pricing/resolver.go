package pricing

import (
	"context"
	"log"
	"time"

	"github.com/gerswin/2025v2POS-sub001/internal/cache"
	"github.com/gerswin/2025v2POS-sub001/internal/model"
)

// StageSource lists active stages for one scope.  Implemented by
// repository.StageRepo.
type StageSource interface {
	ActiveForScope(ctx context.Context, eventID uint64, zoneID *uint64) ([]*model.PricingStage, error)
}

// SoldSource reports cumulative tickets sold under a stage.  Implemented
// by the quantity tracker, which is itself cache-first.
type SoldSource interface {
	Sold(ctx context.Context, stageID uint64) (int64, error)
}

// Resolver finds the pricing stage governing a scope at an instant.
// Zone-specific stages take precedence over event-wide stages, and a
// stage whose quota is exhausted is skipped even inside its date window,
// so resolution falls back exactly like the stage never applied.
//
// Resolution runs on every price preview, including seat-map refreshes,
// so it is cache-first; the cache may be nil, in which case every call
// goes to the database.
type Resolver struct {
	stages StageSource
	sold   SoldSource
	cache  *cache.StageCache
}

// NewResolver constructs a Resolver.  cache may be nil.
func NewResolver(stages StageSource, sold SoldSource, stageCache *cache.StageCache) *Resolver {
	return &Resolver{stages: stages, sold: sold, cache: stageCache}
}

// Resolve returns the stage applying to (event, zone) at time at, or nil
// when no stage covers the instant.  An absent stage is a valid outcome,
// not an error: callers fall back to the plain base price.
func (r *Resolver) Resolve(ctx context.Context, eventID uint64, zoneID *uint64, at time.Time) (*model.PricingStage, error) {
	if zoneID != nil {
		st, err := r.resolveScope(ctx, eventID, zoneID, at)
		if err != nil {
			return nil, err
		}
		if st != nil {
			return st, nil
		}
		// No current zone-specific stage; fall back to event-wide.
	}
	return r.resolveScope(ctx, eventID, nil, at)
}

// resolveScope resolves a single scope, cache-first.  A cached entry is
// re-validated against the clock and quota before being served, since a
// stage can end mid-TTL.
func (r *Resolver) resolveScope(ctx context.Context, eventID uint64, zoneID *uint64, at time.Time) (*model.PricingStage, error) {
	if r.cache != nil {
		st, found, err := r.cache.GetCurrent(ctx, eventID, zoneID)
		if err != nil {
			log.Printf("stage cache read degraded: %v", err)
		} else if found {
			if st == nil {
				return nil, nil
			}
			current, err := r.isCurrent(ctx, st, at)
			if err != nil {
				return nil, err
			}
			if current {
				return st, nil
			}
			// Stale entry; fall through to a fresh lookup below.
		}
	}

	stages, err := r.stages.ActiveForScope(ctx, eventID, zoneID)
	if err != nil {
		return nil, err
	}
	var resolved *model.PricingStage
	for _, st := range stages {
		current, err := r.isCurrent(ctx, st, at)
		if err != nil {
			return nil, err
		}
		if current {
			resolved = st
			break
		}
	}
	if r.cache != nil {
		if err := r.cache.SetCurrent(ctx, eventID, zoneID, resolved); err != nil {
			log.Printf("stage cache write degraded: %v", err)
		}
	}
	return resolved, nil
}

func (r *Resolver) isCurrent(ctx context.Context, st *model.PricingStage, at time.Time) (bool, error) {
	if !st.Active || !st.WindowContains(at) {
		return false, nil
	}
	if st.Quota == nil {
		return true, nil
	}
	sold, err := r.sold.Sold(ctx, st.ID)
	if err != nil {
		return false, err
	}
	return !st.QuotaReached(sold), nil
}
