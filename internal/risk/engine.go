package risk

import (
	"math/rand"
	"sync"
	"time"
)

// Engine maps scores onto statuses and actions. Classification itself is a
// pure threshold comparison; the engine only adds the configured hold
// duration and a clock so hold expiries can be computed in one place.
type Engine struct {
	mu           sync.RWMutex
	thresholds   Thresholds
	holdDuration time.Duration
	now          func() time.Time
	rng          *rand.Rand
}

// NewEngine creates a risk engine. The thresholds are validated up front;
// an invalid set is a configuration error, never a silent fallback.
func NewEngine(t Thresholds, holdDuration time.Duration) (*Engine, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		thresholds:   t,
		holdDuration: holdDuration,
		now:          time.Now,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// WithClock overrides the wall clock. Tests use this to pin hold expiries.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// WithRand overrides the random source used by Score, so tests can supply
// deterministic sequences.
func (e *Engine) WithRand(rng *rand.Rand) *Engine {
	e.rng = rng
	return e
}

// SetThresholds swaps the active thresholds. Invalid sets are rejected and
// the previous thresholds stay in effect.
func (e *Engine) SetThresholds(t Thresholds) error {
	if err := t.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	e.thresholds = t
	e.mu.Unlock()
	return nil
}

// SetHoldDuration updates the hold-expiry window applied to hold verdicts.
func (e *Engine) SetHoldDuration(d time.Duration) {
	e.mu.Lock()
	e.holdDuration = d
	e.mu.Unlock()
}

// Thresholds returns the thresholds currently in effect.
func (e *Engine) Thresholds() Thresholds {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.thresholds
}

// Classify maps a score onto exactly one status/action pair. Scores are
// clamped to [0, 100] first. Challenge verdicts stay pending until the OTP
// resolves; hold verdicts carry an expiry of now + hold duration.
func (e *Engine) Classify(score int) Assessment {
	e.mu.RLock()
	t := e.thresholds
	hold := e.holdDuration
	e.mu.RUnlock()

	score = Clamp(score)

	a := Assessment{
		Score:        score,
		ModelVersion: ModelVersion,
	}

	switch {
	case score < t.Allow:
		a.Status = StatusAllowed
		a.Action = ActionAllow
	case score < t.Challenge:
		a.Status = StatusPending
		a.Action = ActionChallenge
	case score < t.Hold:
		a.Status = StatusOnHold
		a.Action = ActionHold
		expiry := e.now().Add(hold)
		a.HoldExpiresAt = &expiry
	default:
		a.Status = StatusBlocked
		a.Action = ActionBlock
	}

	if score > 40 {
		a.Reasons = []string{"velocity_check", "device_new"}
	}
	a.Shap = shapFor(score)

	return a
}

// Score synthesizes a risk score from the payment amount. The brackets come
// straight from the demo UI and deliberately overlap; they are illustrative
// mock data, not a scoring function. Real detection is out of scope.
func (e *Engine) Score(amount float64) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch {
	case amount > 50000:
		return Clamp(75 + int(e.rng.Float64()*20))
	case amount > 20000:
		return Clamp(50 + int(e.rng.Float64()*30))
	case amount > 5000:
		return Clamp(25 + int(e.rng.Float64()*30))
	default:
		return Clamp(int(e.rng.Float64() * 25))
	}
}

// Assess scores an amount and classifies the result in one step.
func (e *Engine) Assess(amount float64) Assessment {
	return e.Classify(e.Score(amount))
}

// Clamp bounds a score to the closed interval [0, 100].
func Clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// shapFor fabricates per-feature impacts roughly consistent with the score,
// for the explainability panel. Positive impact pushes toward fraud.
func shapFor(score int) []FeatureImpact {
	s := float64(score) / 100
	return []FeatureImpact{
		{Feature: "amount_zscore", Value: s * 3.2, Impact: round3(s * 0.42)},
		{Feature: "device_age_days", Value: (1 - s) * 180, Impact: round3(s*0.31 - 0.05)},
		{Feature: "merchant_risk", Value: s * 0.9, Impact: round3(s * 0.18)},
	}
}

func round3(f float64) float64 {
	return float64(int(f*1000)) / 1000
}
