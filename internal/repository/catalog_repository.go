package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/gerswin/2025v2POS-sub001/internal/model"
)

// CatalogRepo provides read-only access to event and zone metadata.  The
// catalog subsystem owns these tables; the engine never writes to them.
type CatalogRepo struct {
	db *sql.DB
}

// NewCatalogRepo constructs a CatalogRepo bound to the provided database.
func NewCatalogRepo(db *sql.DB) *CatalogRepo { return &CatalogRepo{db: db} }

// EventByID loads a single event.  Returns ErrEventNotFound when no row
// exists.
func (r *CatalogRepo) EventByID(ctx context.Context, id uint64) (*model.Event, error) {
	const q = `SELECT id, tenant_id, name, starts_at, ends_at, active FROM events WHERE id = ?`
	var ev model.Event
	err := r.db.QueryRowContext(ctx, q, id).Scan(&ev.ID, &ev.TenantID, &ev.Name, &ev.StartsAt, &ev.EndsAt, &ev.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

// ZoneByID loads a single zone.  Returns ErrZoneNotFound when no row
// exists.
func (r *CatalogRepo) ZoneByID(ctx context.Context, id uint64) (*model.Zone, error) {
	const q = `SELECT id, event_id, name, kind, capacity, base_price FROM zones WHERE id = ?`
	var z model.Zone
	err := r.db.QueryRowContext(ctx, q, id).Scan(&z.ID, &z.EventID, &z.Name, &z.Kind, &z.Capacity, &z.BasePrice)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrZoneNotFound
	}
	if err != nil {
		return nil, err
	}
	return &z, nil
}
