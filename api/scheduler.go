/*
scheduler.go - Automated month-close scheduler

PURPOSE:
  Periodically warms the scholarship cache for the most recently closed
  month, so payroll exports read precomputed records instead of paying
  the calculation cost at request time.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Recomputes (student, previous month) through the calculator; the
    calculator itself caches closed months idempotently, so repeated
    runs converge on the same records
  - Per-student failures are logged and skipped, never abort the sweep

CONFIGURATION:
  - CheckInterval: How often to sweep (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewMonthCloseScheduler(handler)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - scholarship/calculator.go: closed-month caching rules
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/campuskit/leave-engine/academic"
)

// MonthCloseScheduler precomputes closed-month scholarship records.
type MonthCloseScheduler struct {
	Handler       *Handler
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewMonthCloseScheduler creates a new scheduler.
func NewMonthCloseScheduler(handler *Handler) *MonthCloseScheduler {
	return &MonthCloseScheduler{
		Handler:       handler,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (ms *MonthCloseScheduler) Start() {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if !ms.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}

	ms.ticker = time.NewTicker(ms.CheckInterval)
	ms.wg.Add(1)

	go ms.run()

	log.Printf("[Scheduler] Started with check interval: %v", ms.CheckInterval)
}

// Stop stops the scheduler.
func (ms *MonthCloseScheduler) Stop() {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.ticker != nil {
		ms.ticker.Stop()
		close(ms.stop)
		ms.wg.Wait()
		log.Println("[Scheduler] Stopped")
	}
}

func (ms *MonthCloseScheduler) run() {
	defer ms.wg.Done()

	// Run immediately on start
	ms.sweep()

	for {
		select {
		case <-ms.ticker.C:
			ms.sweep()
		case <-ms.stop:
			return
		}
	}
}

// sweep recomputes the previous month for every active student.
func (ms *MonthCloseScheduler) sweep() {
	ctx := context.Background()
	target := previousMonth(academic.CurrentMonth())

	students, err := ms.Handler.Leaves.Store.ListStudents(ctx)
	if err != nil {
		log.Printf("[Scheduler] Error listing students: %v", err)
		return
	}

	processed := 0
	for i := range students {
		st := &students[i]
		if !st.Active {
			continue
		}
		if _, err := ms.Handler.Scholarship.Get(ctx, st.ID, target); err != nil {
			log.Printf("[Scheduler] Error computing %s for %s: %v", target, st.ID, err)
			continue
		}
		processed++
	}

	if processed > 0 {
		log.Printf("[Scheduler] Month close %s: %d students cached", target, processed)
	}
}

// RunNow triggers an immediate sweep (for testing/admin).
func (ms *MonthCloseScheduler) RunNow() {
	ms.sweep()
}

func previousMonth(m academic.Month) academic.Month {
	if m.Month == time.January {
		return academic.Month{Year: m.Year - 1, Month: time.December}
	}
	return academic.Month{Year: m.Year, Month: m.Month - 1}
}
