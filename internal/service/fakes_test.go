package service

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gerswin/2025v2POS-sub001/internal/model"
	"github.com/gerswin/2025v2POS-sub001/internal/queue"
	"github.com/gerswin/2025v2POS-sub001/internal/redislock"
	"github.com/gerswin/2025v2POS-sub001/internal/repository"
)

// In-memory fakes shared by the service tests.  They implement the same
// guarded state changes the MySQL repositories do, including returning
// repository.ErrConflict from lost races, so the services under test see
// realistic semantics.

type fakeStages struct {
	mu     sync.Mutex
	stages map[uint64]*model.PricingStage
}

func newFakeStages(stages ...*model.PricingStage) *fakeStages {
	m := make(map[uint64]*model.PricingStage, len(stages))
	for _, st := range stages {
		m[st.ID] = st
	}
	return &fakeStages{stages: m}
}

func (f *fakeStages) GetByID(_ context.Context, id uint64) (*model.PricingStage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.stages[id]
	if !ok {
		return nil, repository.ErrStageNotFound
	}
	cp := *st
	return &cp, nil
}

func (f *fakeStages) ActiveForScope(_ context.Context, eventID uint64, zoneID *uint64) ([]*model.PricingStage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.PricingStage
	for _, st := range f.stages {
		if st.EventID != eventID || !st.Active {
			continue
		}
		if zoneID == nil && st.ZoneID != nil {
			continue
		}
		if zoneID != nil && (st.ZoneID == nil || *st.ZoneID != *zoneID) {
			continue
		}
		cp := *st
		out = append(out, &cp)
	}
	sortStagesBySequence(out)
	return out, nil
}

func (f *fakeStages) ActiveForEvent(_ context.Context, eventID uint64) ([]*model.PricingStage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.PricingStage
	for _, st := range f.stages {
		if st.EventID == eventID && st.Active {
			cp := *st
			out = append(out, &cp)
		}
	}
	sortStagesBySequence(out)
	return out, nil
}

func (f *fakeStages) NextInScope(_ context.Context, eventID uint64, zoneID *uint64, afterSequence int) (*model.PricingStage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var next *model.PricingStage
	for _, st := range f.stages {
		if st.EventID != eventID || !st.Active || st.Sequence <= afterSequence {
			continue
		}
		if zoneID == nil && st.ZoneID != nil {
			continue
		}
		if zoneID != nil && (st.ZoneID == nil || *st.ZoneID != *zoneID) {
			continue
		}
		if next == nil || st.Sequence < next.Sequence {
			next = st
		}
	}
	if next == nil {
		return nil, nil
	}
	cp := *next
	return &cp, nil
}

func (f *fakeStages) EventIDsWithActiveAutoStages(_ context.Context) ([]uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := make(map[uint64]bool)
	var ids []uint64
	for _, st := range f.stages {
		if st.Active && st.AutoTransition && !seen[st.EventID] {
			seen[st.EventID] = true
			ids = append(ids, st.EventID)
		}
	}
	return ids, nil
}

func (f *fakeStages) deactivate(id uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.stages[id]
	if !ok || !st.Active {
		return false
	}
	st.Active = false
	return true
}

func sortStagesBySequence(stages []*model.PricingStage) {
	for i := 1; i < len(stages); i++ {
		for j := i; j > 0 && stages[j].Sequence < stages[j-1].Sequence; j-- {
			stages[j], stages[j-1] = stages[j-1], stages[j]
		}
	}
}

type fakeSoldStore struct {
	mu   sync.Mutex
	sold map[uint64]int64
}

func newFakeSoldStore() *fakeSoldStore {
	return &fakeSoldStore{sold: make(map[uint64]int64)}
}

func (f *fakeSoldStore) Sold(_ context.Context, stageID uint64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sold[stageID], nil
}

func (f *fakeSoldStore) Correct(_ context.Context, stageID uint64, sold int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sold[stageID] = sold
	return nil
}

type fakeReservations struct {
	mu           sync.Mutex
	reservations map[string]*model.StageReservation
}

func newFakeReservations() *fakeReservations {
	return &fakeReservations{reservations: make(map[string]*model.StageReservation)}
}

func (f *fakeReservations) Create(_ context.Context, res *model.StageReservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *res
	f.reservations[res.ID] = &cp
	return nil
}

func (f *fakeReservations) GetByID(_ context.Context, id string) (*model.StageReservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.reservations[id]
	if !ok {
		return nil, repository.ErrReservationNotFound
	}
	cp := *res
	return &cp, nil
}

func (f *fakeReservations) PendingQuantity(_ context.Context, stageID uint64, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var qty int64
	for _, res := range f.reservations {
		if res.StageID == stageID && res.Status == model.ReservationPending && now.Before(res.ExpiresAt) {
			qty += res.Quantity
		}
	}
	return qty, nil
}

func (f *fakeReservations) MarkReleased(_ context.Context, id string, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.reservations[id]
	if !ok || res.Status != model.ReservationPending || !now.Before(res.ExpiresAt) {
		return repository.ErrConflict
	}
	res.Status = model.ReservationReleased
	return nil
}

func (f *fakeReservations) ExpirePending(_ context.Context, now time.Time) (map[uint64]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	freed := make(map[uint64]int64)
	for _, res := range f.reservations {
		if res.Status == model.ReservationPending && !now.Before(res.ExpiresAt) {
			res.Status = model.ReservationExpired
			freed[res.StageID] += res.Quantity
		}
	}
	return freed, nil
}

// fakeSaleLedger mirrors repository.SalesLedger: the reservation flip
// and the sold increment happen under one lock.
type fakeSaleLedger struct {
	mu           sync.Mutex
	reservations *fakeReservations
	sold         *fakeSoldStore
}

func (f *fakeSaleLedger) ConfirmSale(_ context.Context, reservationID string, stageID uint64, _ *uint64, qty int64, _ decimal.Decimal, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reservations.mu.Lock()
	res, ok := f.reservations.reservations[reservationID]
	if !ok || res.Status != model.ReservationPending || !now.Before(res.ExpiresAt) {
		f.reservations.mu.Unlock()
		return 0, repository.ErrConflict
	}
	res.Status = model.ReservationConfirmed
	f.reservations.mu.Unlock()

	f.sold.mu.Lock()
	f.sold.sold[stageID] += qty
	newSold := f.sold.sold[stageID]
	f.sold.mu.Unlock()
	return newSold, nil
}

// memLocker is an in-process Locker: one mutex per key, which gives the
// same serialization the Redis lock provides in production.
type memLocker struct {
	mu      sync.Mutex
	mutexes map[string]*sync.Mutex
}

func newMemLocker() *memLocker {
	return &memLocker{mutexes: make(map[string]*sync.Mutex)}
}

func (l *memLocker) AcquireWithRetry(_ context.Context, key string, _ time.Duration, _ int, _ time.Duration) (Unlocker, error) {
	l.mu.Lock()
	m, ok := l.mutexes[key]
	if !ok {
		m = &sync.Mutex{}
		l.mutexes[key] = m
	}
	l.mu.Unlock()
	m.Lock()
	return &memLock{mu: m}, nil
}

type memLock struct{ mu *sync.Mutex }

func (l *memLock) Release(context.Context) error {
	l.mu.Unlock()
	return nil
}

// failLocker always reports contention.
type failLocker struct{}

func (failLocker) AcquireWithRetry(context.Context, string, time.Duration, int, time.Duration) (Unlocker, error) {
	return nil, redislock.ErrNotAcquired
}

type fakeCatalog struct {
	events map[uint64]*model.Event
	zones  map[uint64]*model.Zone
}

func (f *fakeCatalog) EventByID(_ context.Context, id uint64) (*model.Event, error) {
	ev, ok := f.events[id]
	if !ok {
		return nil, repository.ErrEventNotFound
	}
	cp := *ev
	return &cp, nil
}

func (f *fakeCatalog) ZoneByID(_ context.Context, id uint64) (*model.Zone, error) {
	z, ok := f.zones[id]
	if !ok {
		return nil, repository.ErrZoneNotFound
	}
	cp := *z
	return &cp, nil
}

type fakeSeats struct {
	mu    sync.Mutex
	seats map[uint64]*model.Seat
}

func newFakeSeats(seats ...*model.Seat) *fakeSeats {
	m := make(map[uint64]*model.Seat, len(seats))
	for _, s := range seats {
		m[s.ID] = s
	}
	return &fakeSeats{seats: m}
}

func (f *fakeSeats) GetByID(_ context.Context, id uint64) (*model.Seat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.seats[id]
	if !ok {
		return nil, repository.ErrSeatNotFound
	}
	cp := *s
	return &cp, nil
}

// flip applies a guarded status change and reports whether it matched.
func (f *fakeSeats) flip(id uint64, from, to model.SeatStatus) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.seats[id]
	if !ok || s.Status != from {
		return false
	}
	s.Status = to
	return true
}

// fakeInventory plays both LockStore and InventoryMutator, mirroring
// repository.InventoryLedger: lock and seat move together, and guarded
// updates that match no row fail with repository.ErrConflict.
type fakeInventory struct {
	mu    sync.Mutex
	locks map[string]*model.InventoryLock
	seats *fakeSeats
}

func newFakeInventory(seats *fakeSeats) *fakeInventory {
	return &fakeInventory{locks: make(map[string]*model.InventoryLock), seats: seats}
}

func (f *fakeInventory) GetByID(_ context.Context, id string) (*model.InventoryLock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.locks[id]
	if !ok {
		return nil, repository.ErrLockNotFound
	}
	cp := *l
	return &cp, nil
}

func (f *fakeInventory) ActiveQuantityByZone(_ context.Context, zoneID uint64, now time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	qty := 0
	for _, l := range f.locks {
		if l.ZoneID == zoneID && l.Status == model.LockActive && now.Before(l.ExpiresAt) {
			qty += l.Quantity
		}
	}
	return qty, nil
}

func (f *fakeInventory) ConvertedQuantityByZone(_ context.Context, zoneID uint64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	qty := 0
	for _, l := range f.locks {
		if l.ZoneID == zoneID && l.Status == model.LockConverted {
			qty += l.Quantity
		}
	}
	return qty, nil
}

func (f *fakeInventory) Extend(_ context.Context, id string, until, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.locks[id]
	if !ok || l.Status != model.LockActive || !now.Before(l.ExpiresAt) {
		return repository.ErrConflict
	}
	l.ExpiresAt = until
	return nil
}

func (f *fakeInventory) ListExpiredActive(_ context.Context, now time.Time, limit int) ([]*model.InventoryLock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.InventoryLock
	for _, l := range f.locks {
		if l.Status == model.LockActive && !now.Before(l.ExpiresAt) {
			cp := *l
			out = append(out, &cp)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (f *fakeInventory) CreateSeatLock(_ context.Context, lock *model.InventoryLock) error {
	if !f.seats.flip(*lock.SeatID, model.SeatAvailable, model.SeatReserved) {
		return repository.ErrConflict
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *lock
	f.locks[lock.ID] = &cp
	return nil
}

func (f *fakeInventory) CreateZoneLock(_ context.Context, lock *model.InventoryLock) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *lock
	f.locks[lock.ID] = &cp
	return nil
}

func (f *fakeInventory) ReleaseLock(_ context.Context, lockID string, seatID *uint64, now time.Time) error {
	if err := f.setStatus(lockID, model.LockReleased, &now); err != nil {
		return err
	}
	if seatID != nil {
		f.seats.flip(*seatID, model.SeatReserved, model.SeatAvailable)
	}
	return nil
}

func (f *fakeInventory) ConvertLock(_ context.Context, lockID string, seatID *uint64, now time.Time) error {
	if err := f.setStatus(lockID, model.LockConverted, &now); err != nil {
		return err
	}
	if seatID != nil {
		f.seats.flip(*seatID, model.SeatReserved, model.SeatSold)
	}
	return nil
}

func (f *fakeInventory) ExpireLock(_ context.Context, lockID string, seatID *uint64) error {
	if err := f.setStatus(lockID, model.LockExpired, nil); err != nil {
		return err
	}
	if seatID != nil {
		f.seats.flip(*seatID, model.SeatReserved, model.SeatAvailable)
	}
	return nil
}

// setStatus moves a lock out of ACTIVE; a non-nil now additionally
// requires the lock to be unexpired, matching the guarded SQL updates.
func (f *fakeInventory) setStatus(lockID string, to model.LockStatus, now *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.locks[lockID]
	if !ok || l.Status != model.LockActive {
		return repository.ErrConflict
	}
	if now != nil && !now.Before(l.ExpiresAt) {
		return repository.ErrConflict
	}
	l.Status = to
	return nil
}

// fakeQuoter returns a fixed unit price.
type fakeQuoter struct{ price decimal.Decimal }

func (f fakeQuoter) Quote(_ context.Context, zoneID uint64, seatID *uint64) (*Quote, error) {
	return &Quote{ZoneID: zoneID, SeatID: seatID, UnitPrice: f.price}, nil
}

// capturePublisher records published events.
type capturePublisher struct {
	mu           sync.Mutex
	transitions  []queue.StageTransitionedEvent
	sales        []queue.SaleConfirmedEvent
	lockExpiries []queue.LockExpiredEvent
}

func (p *capturePublisher) StageTransitioned(_ context.Context, ev queue.StageTransitionedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.transitions = append(p.transitions, ev)
	return nil
}

func (p *capturePublisher) SaleConfirmed(_ context.Context, ev queue.SaleConfirmedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sales = append(p.sales, ev)
	return nil
}

func (p *capturePublisher) LockExpired(_ context.Context, ev queue.LockExpiredEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lockExpiries = append(p.lockExpiries, ev)
	return nil
}
