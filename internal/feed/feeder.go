package feed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aegispay/aegispay/internal/appstate"
	"github.com/aegispay/aegispay/internal/metrics"
	"github.com/aegispay/aegispay/internal/realtime"
	"github.com/aegispay/aegispay/internal/risk"
)

// DefaultInterval matches the demo dashboard's stream cadence.
const DefaultInterval = 3 * time.Second

// Feeder drives the live feed: every tick it synthesizes a transaction,
// records it in the store, raises alerts for risky verdicts, refreshes the
// KPI snapshot and broadcasts everything over the hub. When a simulation is
// running it also replays the scenario script, one line per tick.
type Feeder struct {
	store    *appstate.Store
	gen      *Generator
	hub      *realtime.Hub
	logger   *slog.Logger
	interval time.Duration
	now      func() time.Time
	stop     chan struct{}
	running  atomic.Bool

	mu       sync.Mutex
	script   []SimulationLog
	scriptAt int
	scenario Scenario
}

// NewFeeder creates a feeder. The hub may be nil in tests.
func NewFeeder(store *appstate.Store, gen *Generator, hub *realtime.Hub, logger *slog.Logger) *Feeder {
	return &Feeder{
		store:    store,
		gen:      gen,
		hub:      hub,
		logger:   logger,
		interval: DefaultInterval,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
}

// WithInterval overrides the tick cadence.
func (f *Feeder) WithInterval(d time.Duration) *Feeder {
	f.interval = d
	return f
}

// WithClock overrides the wall clock.
func (f *Feeder) WithClock(now func() time.Time) *Feeder {
	f.now = now
	return f
}

// Running reports whether the feed loop is active.
func (f *Feeder) Running() bool {
	return f.running.Load()
}

// Start begins the feed loop. Call in a goroutine.
func (f *Feeder) Start(ctx context.Context) {
	f.running.Store(true)
	defer f.running.Store(false)

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	f.logger.Info("live feed started", "interval", f.interval)

	for {
		select {
		case <-ctx.Done():
			return
		case <-f.stop:
			return
		case <-ticker.C:
			f.safeTick()
		}
	}
}

// Stop signals the feed loop to exit.
func (f *Feeder) Stop() {
	select {
	case f.stop <- struct{}{}:
	default:
	}
}

func (f *Feeder) safeTick() {
	defer func() {
		if r := recover(); r != nil {
			f.logger.Error("panic in feed tick", "panic", fmt.Sprint(r))
		}
	}()
	f.Tick()
}

// Tick runs one feed beat. Exported so tests can drive the feeder without
// the ticker.
func (f *Feeder) Tick() {
	tx := f.gen.Transaction()
	f.store.AddTransaction(tx)

	metrics.TransactionsTotal.WithLabelValues(string(tx.Status)).Inc()
	metrics.RiskScore.Observe(float64(tx.RiskScore))

	f.broadcast(realtime.EventTransaction, tx)

	if alert := f.gen.AlertFor(tx); alert != nil {
		f.store.AddAlert(*alert)
		metrics.AlertsTotal.WithLabelValues(string(alert.Priority)).Inc()
		f.broadcast(realtime.EventAlertUpdate, alert)
	}

	f.store.SetKPIMetrics(ComputeKPIs(f.store, f.interval))

	f.tickSimulation()
}

// StartSimulation arms the scenario script and flags the store. Returns
// false for an unknown scenario.
func (f *Feeder) StartSimulation(s Scenario) bool {
	if !s.Valid() {
		return false
	}

	f.mu.Lock()
	f.scenario = s
	f.script = ScenarioLogs(s)
	f.scriptAt = 0
	f.mu.Unlock()

	f.store.StartSimulation(string(s))
	metrics.SimulationRunsTotal.WithLabelValues(string(s)).Inc()

	f.emitSimLog(s, SimulationLog{Type: "info", Message: "Starting " + scenarioName(s) + " simulation..."})
	f.logger.Info("simulation started", "scenario", s)
	return true
}

// StopSimulation halts a running script and emits the stop line.
func (f *Feeder) StopSimulation() {
	f.mu.Lock()
	running := f.script != nil
	scenario := f.scenario
	f.script = nil
	f.mu.Unlock()

	if !running {
		return
	}

	f.store.StopSimulation()
	f.emitSimLog(scenario, SimulationLog{Type: "warning", Message: "Simulation stopped by user."})
	f.logger.Info("simulation stopped", "scenario", scenario)
}

// tickSimulation replays the next scripted line, if a scenario is running.
// After the last line it emits the completion marker and clears the flags.
func (f *Feeder) tickSimulation() {
	f.mu.Lock()
	if f.script == nil {
		f.mu.Unlock()
		return
	}

	scenario := f.scenario
	if f.scriptAt >= len(f.script) {
		f.script = nil
		f.mu.Unlock()
		f.store.StopSimulation()
		f.emitSimLog(scenario, SimulationLog{Type: "success", Message: "Simulation complete."})
		f.logger.Info("simulation complete", "scenario", scenario)
		return
	}

	line := f.script[f.scriptAt]
	f.scriptAt++
	f.mu.Unlock()

	f.emitSimLog(scenario, line)
}

func (f *Feeder) emitSimLog(scenario Scenario, line SimulationLog) {
	line.Timestamp = f.now().UTC()
	f.broadcast(realtime.EventSimulationEvent, map[string]interface{}{
		"scenario":   string(scenario),
		"event_type": line.Type,
		"message":    line.Message,
		"risk":       line.Risk,
		"timestamp":  line.Timestamp,
	})
}

func (f *Feeder) broadcast(t realtime.EventType, payload interface{}) {
	if f.hub == nil {
		return
	}
	f.hub.Broadcast(&realtime.Event{
		Type:      t,
		Timestamp: f.now().UTC(),
		Payload:   payload,
	})
}

func scenarioName(s Scenario) string {
	for _, info := range Scenarios() {
		if info.ID == s {
			return info.Name
		}
	}
	return string(s)
}

// ComputeKPIs derives the dashboard KPI snapshot from the current store
// contents. The feed is synthetic, so "today" is simply the ring buffer.
func ComputeKPIs(store *appstate.Store, interval time.Duration) appstate.KPIMetrics {
	txs := store.Transactions()
	alerts := store.Alerts()

	k := appstate.KPIMetrics{
		TotalTransactionsToday: len(txs),
	}

	if interval > 0 {
		k.ActiveTxPerSecond = 1 / interval.Seconds()
	}

	var scoreSum int
	for _, tx := range txs {
		scoreSum += tx.RiskScore
		if tx.Status == risk.StatusBlocked {
			k.ConfirmedFraudsToday++
			k.BlockedAmount += tx.Amount
		}
	}
	if len(txs) > 0 {
		k.AvgRiskScore = float64(scoreSum) / float64(len(txs))
	}

	for _, a := range alerts {
		if a.Resolved {
			continue
		}
		switch a.Priority {
		case appstate.PriorityHigh:
			k.OpenAlertsHigh++
		case appstate.PriorityMedium:
			k.OpenAlertsMedium++
		case appstate.PriorityLow:
			k.OpenAlertsLow++
		}
	}

	return k
}
