// Package countdown provides the one-shot hold-expiry countdown used by the
// pay flow and the hold sweeper UI: given an absolute expiry instant it
// reports whole seconds remaining and fires an expiry callback exactly once.
//
// Remaining time is recomputed from the wall clock on every tick, never by
// decrementing a counter, so the countdown cannot drift. An expiry that is
// already in the past fires on the next tick, not synchronously inside Set,
// which keeps callbacks out of the caller's stack.
package countdown

import (
	"context"
	"sync"
	"time"
)

// DefaultInterval is the tick cadence.
const DefaultInterval = time.Second

// SecondsUntil returns max(0, floor(seconds from now until expiry)). A nil
// expiry reports zero. Handlers use this to attach the remaining hold window
// to API responses without arming a ticker.
func SecondsUntil(expiry *time.Time, now time.Time) int {
	if expiry == nil {
		return 0
	}
	d := expiry.Sub(now)
	if d <= 0 {
		return 0
	}
	return int(d / time.Second)
}

// Countdown tracks a single expiry instant. It is restartable: Set replaces
// any previous target and re-arms the callback, and a replaced target never
// double-fires.
type Countdown struct {
	mu       sync.Mutex
	now      func() time.Time
	interval time.Duration
	ticks    <-chan time.Time // test seam; nil means own ticker

	onExpire func()
	expiry   time.Time
	armed    bool

	stop chan struct{}
}

// New creates a countdown that calls onExpire when the target passes.
func New(onExpire func()) *Countdown {
	return &Countdown{
		now:      time.Now,
		interval: DefaultInterval,
		onExpire: onExpire,
		stop:     make(chan struct{}),
	}
}

// WithClock overrides the wall clock.
func (c *Countdown) WithClock(now func() time.Time) *Countdown {
	c.now = now
	return c
}

// WithTicks replaces the internal ticker with an external tick source, so
// tests can advance virtual time deterministically.
func (c *Countdown) WithTicks(ticks <-chan time.Time) *Countdown {
	c.ticks = ticks
	return c
}

// Set arms the countdown for a new expiry instant, replacing any previous
// target. It never fires synchronously, even for an instant already in the
// past.
func (c *Countdown) Set(expiry time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expiry = expiry
	c.armed = true
}

// Clear disarms the countdown without firing.
func (c *Countdown) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.armed = false
}

// Remaining returns max(0, floor(seconds until expiry)). A disarmed
// countdown reports zero.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.armed {
		return 0
	}
	return c.remainingLocked()
}

func (c *Countdown) remainingLocked() int {
	d := c.expiry.Sub(c.now())
	if d <= 0 {
		return 0
	}
	return int(d / time.Second)
}

// Start runs the tick loop. Call in a goroutine; the loop exits on context
// cancellation or Stop.
func (c *Countdown) Start(ctx context.Context) {
	ticks := c.ticks
	if ticks == nil {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		ticks = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stop:
			return
		case <-ticks:
			c.Tick()
		}
	}
}

// Stop signals the tick loop to exit.
func (c *Countdown) Stop() {
	select {
	case c.stop <- struct{}{}:
	default:
	}
}

// Tick evaluates the countdown once. When the target has passed, the
// countdown disarms itself and fires the callback outside the lock; the
// disarm guarantees exactly-once firing even if ticks keep arriving.
func (c *Countdown) Tick() {
	c.mu.Lock()
	if !c.armed || c.remainingLocked() > 0 {
		c.mu.Unlock()
		return
	}
	c.armed = false
	fn := c.onExpire
	c.mu.Unlock()

	if fn != nil {
		fn()
	}
}
