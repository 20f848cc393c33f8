package worker

import (
	"context"
	"log"
	"time"

	"github.com/gerswin/2025v2POS-sub001/internal/service"
)

// TransitionMonitor periodically scans events with active
// auto-transition stages and runs transition processing for each.  It
// is the safety net for date-based triggers: quantity triggers fire
// synchronously after the exhausting sale, but a stage whose window
// closes during a quiet night has no request to piggyback on.
type TransitionMonitor struct {
	stages   service.StageStore
	engine   *service.TransitionEngine
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewTransitionMonitor constructs a TransitionMonitor.
func NewTransitionMonitor(stages service.StageStore, engine *service.TransitionEngine, interval time.Duration) *TransitionMonitor {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &TransitionMonitor{
		stages:   stages,
		engine:   engine,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the monitor loop in its own goroutine.
func (m *TransitionMonitor) Start() {
	go m.run()
}

// Stop signals the loop to exit and waits for the current scan to
// finish.
func (m *TransitionMonitor) Stop() {
	close(m.stopCh)
	<-m.doneCh
}

func (m *TransitionMonitor) run() {
	defer close(m.doneCh)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.scan()
		}
	}
}

func (m *TransitionMonitor) scan() {
	ctx, cancel := context.WithTimeout(context.Background(), m.interval)
	defer cancel()

	eventIDs, err := m.stages.EventIDsWithActiveAutoStages(ctx)
	if err != nil {
		log.Printf("transition monitor: list events: %v", err)
		return
	}
	for _, eventID := range eventIDs {
		n, err := m.engine.ProcessPending(ctx, eventID, nil)
		if err != nil {
			log.Printf("transition monitor: event %d: %v", eventID, err)
			continue
		}
		if n > 0 {
			log.Printf("transition monitor: event %d: %d stage(s) transitioned", eventID, n)
		}
	}
}
