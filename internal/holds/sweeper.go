// Package holds escalates expired hold verdicts. A transaction put on hold
// carries an absolute expiry; when the review window lapses without an
// admin decision the sweeper blocks it. The sweep is authoritative; UI
// countdowns only display the same deadline.
package holds

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/aegispay/aegispay/internal/appstate"
	"github.com/aegispay/aegispay/internal/metrics"
	"github.com/aegispay/aegispay/internal/realtime"
	"github.com/aegispay/aegispay/internal/risk"
)

// DefaultInterval is the sweep cadence. One second keeps the demo countdown
// and the authoritative deadline visually in step.
const DefaultInterval = time.Second

// Sweeper periodically blocks on-hold transactions whose expiry has passed.
type Sweeper struct {
	store    *appstate.Store
	hub      *realtime.Hub
	logger   *slog.Logger
	interval time.Duration
	now      func() time.Time
	stop     chan struct{}
	running  atomic.Bool
}

// NewSweeper creates a hold sweeper. The hub may be nil in tests.
func NewSweeper(store *appstate.Store, hub *realtime.Hub, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		store:    store,
		hub:      hub,
		logger:   logger,
		interval: DefaultInterval,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
}

// WithInterval overrides the sweep cadence.
func (s *Sweeper) WithInterval(d time.Duration) *Sweeper {
	s.interval = d
	return s
}

// WithClock overrides the wall clock.
func (s *Sweeper) WithClock(now func() time.Time) *Sweeper {
	s.now = now
	return s
}

// Running reports whether the sweep loop is active.
func (s *Sweeper) Running() bool {
	return s.running.Load()
}

// Start begins the sweep loop. Call in a goroutine.
func (s *Sweeper) Start(ctx context.Context) {
	s.running.Store(true)
	defer s.running.Store(false)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-ticker.C:
			s.safeSweep()
		}
	}
}

// Stop signals the sweep loop to exit.
func (s *Sweeper) Stop() {
	select {
	case s.stop <- struct{}{}:
	default:
	}
}

func (s *Sweeper) safeSweep() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic in hold sweeper", "panic", fmt.Sprint(r))
		}
	}()
	s.Sweep()
}

// Sweep escalates every expired hold exactly once: status blocked, action
// block, expiry cleared so the next sweep skips it. Returns the number of
// holds escalated. Exported so tests and handlers can force a sweep.
func (s *Sweeper) Sweep() int {
	expired := s.store.ExpiredHolds(s.now())

	blocked := risk.StatusBlocked
	block := risk.ActionBlock

	n := 0
	for _, tx := range expired {
		if !s.store.UpdateTransaction(tx.ID, appstate.TransactionUpdate{
			Status:          &blocked,
			Action:          &block,
			ClearHoldExpiry: true,
		}) {
			continue
		}
		n++
		metrics.HoldsExpiredTotal.Inc()

		s.logger.Info("hold expired, transaction blocked",
			"transactionId", tx.ID,
			"user", tx.FromUserID,
			"amount", tx.Amount,
		)

		if s.hub != nil {
			updated, _ := s.store.Transaction(tx.ID)
			s.hub.Broadcast(&realtime.Event{
				Type:      realtime.EventAlertUpdate,
				Timestamp: s.now().UTC(),
				Payload: map[string]interface{}{
					"transaction_id": updated.ID,
					"from_user_id":   updated.FromUserID,
					"status":         updated.Status,
					"action":         updated.Action,
					"reason":         "hold_expired",
				},
			})
		}
	}

	return n
}
