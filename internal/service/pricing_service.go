package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gerswin/2025v2POS-sub001/internal/metrics"
	"github.com/gerswin/2025v2POS-sub001/internal/model"
	"github.com/gerswin/2025v2POS-sub001/internal/pricing"
)

// StageResolver finds the stage governing a scope at an instant.
// Implemented by pricing.Resolver.
type StageResolver interface {
	Resolve(ctx context.Context, eventID uint64, zoneID *uint64, at time.Time) (*model.PricingStage, error)
}

// Quote is a computed ticket price with its full layer breakdown.
type Quote struct {
	EventID   uint64            `json:"event_id"`
	ZoneID    uint64            `json:"zone_id"`
	SeatID    *uint64           `json:"seat_id,omitempty"`
	StageID   *uint64           `json:"stage_id,omitempty"`
	StageName string            `json:"stage_name,omitempty"`
	UnitPrice decimal.Decimal   `json:"unit_price"`
	Breakdown pricing.Breakdown `json:"breakdown"`
}

// PricingService computes quotes: it resolves the governing stage,
// loads the row/seat modifiers and composes the final price.  Every
// quote appends a calculation record; the audit write is part of the
// operation, not a best-effort side channel.
type PricingService struct {
	catalog   CatalogStore
	seats     SeatStore
	modifiers ModifierStore
	resolver  StageResolver
	records   RecordStore
	now       func() time.Time
}

// NewPricingService constructs a PricingService.
func NewPricingService(catalog CatalogStore, seats SeatStore, modifiers ModifierStore, resolver StageResolver, records RecordStore) *PricingService {
	return &PricingService{
		catalog:   catalog,
		seats:     seats,
		modifiers: modifiers,
		resolver:  resolver,
		records:   records,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Quote computes the current price for a zone, optionally narrowed to a
// single seat.  Without a seat only the stage layer applies, which is
// the general-admission path.
func (s *PricingService) Quote(ctx context.Context, zoneID uint64, seatID *uint64) (*Quote, error) {
	zone, err := s.catalog.ZoneByID(ctx, zoneID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	stage, err := s.resolver.Resolve(ctx, zone.EventID, &zoneID, now)
	if err != nil {
		return nil, err
	}

	var row *model.RowModifier
	var seatMod *model.SeatModifier
	if seatID != nil {
		seat, err := s.seats.GetByID(ctx, *seatID)
		if err != nil {
			return nil, err
		}
		if seat.ZoneID != zoneID {
			return nil, ErrSeatNotInZone
		}
		if row, err = s.modifiers.RowModifier(ctx, zoneID, seat.RowNumber); err != nil {
			return nil, err
		}
		if seatMod, err = s.modifiers.SeatModifier(ctx, *seatID); err != nil {
			return nil, err
		}
	}

	final, bd := pricing.Compute(zone.BasePrice, stage, row, seatMod)

	rec := &model.PriceCalculation{
		EventID:         zone.EventID,
		ZoneID:          zoneID,
		SeatID:          seatID,
		BasePrice:       bd.BasePrice,
		PriceAfterStage: bd.PriceAfterStage,
		PriceAfterRow:   bd.PriceAfterRow,
		PriceAfterSeat:  bd.PriceAfterSeat,
		FinalPrice:      final,
		Clamped:         bd.Clamped,
	}
	q := &Quote{
		EventID:   zone.EventID,
		ZoneID:    zoneID,
		SeatID:    seatID,
		UnitPrice: final,
		Breakdown: bd,
	}
	if stage != nil {
		rec.StageID = &stage.ID
		q.StageID = &stage.ID
		q.StageName = stage.Name
	}
	if err := s.records.Create(ctx, rec); err != nil {
		return nil, err
	}
	metrics.Quotes.Inc()
	return q, nil
}

// Records returns the calculation audit trail for an event, newest
// first.
func (s *PricingService) Records(ctx context.Context, eventID uint64, limit int) ([]*model.PriceCalculation, error) {
	return s.records.ListByEvent(ctx, eventID, limit)
}
