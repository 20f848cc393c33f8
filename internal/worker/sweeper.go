// Package worker contains the engine's background loops: the expiry
// sweeper and the stage transition monitor.  Both are plain ticker
// loops with explicit stop channels so shutdown can wait for the
// in-flight pass to finish.
package worker

import (
	"context"
	"log"
	"time"

	"github.com/gerswin/2025v2POS-sub001/internal/service"
)

// Sweeper periodically expires lapsed pending reservations and stale
// inventory locks.  Correctness never depends on it running: expired
// reservations stop counting against quotas the moment their expiry
// passes, and expired locks stop counting against capacity the same
// way.  The sweeper just makes the terminal states durable and frees
// seats back to AVAILABLE.
type Sweeper struct {
	coordinator *service.Coordinator
	inventory   *service.InventoryService
	interval    time.Duration
	batch       int
	stopCh      chan struct{}
	doneCh      chan struct{}
}

// NewSweeper constructs a Sweeper.
func NewSweeper(coordinator *service.Coordinator, inventory *service.InventoryService, interval time.Duration, batch int) *Sweeper {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if batch <= 0 {
		batch = 200
	}
	return &Sweeper{
		coordinator: coordinator,
		inventory:   inventory,
		interval:    interval,
		batch:       batch,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
}

// Start launches the sweep loop in its own goroutine.
func (s *Sweeper) Start() {
	go s.run()
}

// Stop signals the loop to exit and waits for the current pass to
// finish.
func (s *Sweeper) Stop() {
	close(s.stopCh)
	<-s.doneCh
}

func (s *Sweeper) run() {
	defer close(s.doneCh)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)
	defer cancel()

	freed, err := s.coordinator.ExpireReservations(ctx)
	if err != nil {
		log.Printf("sweeper: expire reservations: %v", err)
	} else if freed > 0 {
		log.Printf("sweeper: freed %d reserved tickets from expired reservations", freed)
	}

	expired, err := s.inventory.SweepExpired(ctx, s.batch)
	if err != nil {
		log.Printf("sweeper: expire inventory locks: %v", err)
	} else if expired > 0 {
		log.Printf("sweeper: expired %d inventory locks", expired)
	}
}
