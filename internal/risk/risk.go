// Package risk implements transaction risk classification for AegisPay.
//
// Every payment is assigned a score in [0, 100] and mapped onto one of four
// actions through configurable, strictly increasing thresholds. The scores
// themselves are synthesized (see Engine.Score); there is no model behind
// them. The demo UI references XGBoost/LSTM/GNN layers in marketing copy
// only; the classification below is the entire "engine".
package risk

import (
	"errors"
	"fmt"
	"time"
)

// Status is the lifecycle state of a transaction.
type Status string

const (
	StatusPending Status = "pending"
	StatusOnHold  Status = "on_hold"
	StatusBlocked Status = "blocked"
	StatusAllowed Status = "allowed"
)

// Action is the risk engine's verdict on a transaction.
type Action string

const (
	ActionAllow     Action = "allow"
	ActionChallenge Action = "challenge"
	ActionHold      Action = "hold"
	ActionBlock     Action = "block"
)

// Severity orders actions from least to most restrictive. Classification is
// monotonic in the score: a higher score never yields a lower severity.
func (a Action) Severity() int {
	switch a {
	case ActionAllow:
		return 0
	case ActionChallenge:
		return 1
	case ActionHold:
		return 2
	case ActionBlock:
		return 3
	}
	return -1
}

// ModelVersion is the display-only model tag attached to every assessment.
const ModelVersion = "xgb_v2.1"

// ErrInvalidThresholds is returned when a threshold set violates the
// ordering invariant. A violating configuration is rejected outright rather
// than risking a silent misclassification.
var ErrInvalidThresholds = errors.New("risk thresholds must satisfy 0 <= allow < challenge < hold <= block <= 100")

// Thresholds are the four risk-score boundaries. Scores below Allow pass,
// scores at or above Hold are blocked, and the two bands between trigger a
// challenge (step-up OTP) or a time-boxed hold respectively.
type Thresholds struct {
	Allow     int `json:"allow"`
	Challenge int `json:"challenge"`
	Hold      int `json:"hold"`
	Block     int `json:"block"`
}

// DefaultThresholds match the demo UI defaults.
var DefaultThresholds = Thresholds{Allow: 25, Challenge: 60, Hold: 85, Block: 100}

// Validate checks the ordering invariant.
func (t Thresholds) Validate() error {
	if t.Allow < 0 || t.Block > 100 {
		return fmt.Errorf("%w: got %d/%d/%d/%d", ErrInvalidThresholds, t.Allow, t.Challenge, t.Hold, t.Block)
	}
	if t.Allow >= t.Challenge || t.Challenge >= t.Hold || t.Hold > t.Block {
		return fmt.Errorf("%w: got %d/%d/%d/%d", ErrInvalidThresholds, t.Allow, t.Challenge, t.Hold, t.Block)
	}
	return nil
}

// FeatureImpact is a SHAP-style contribution of a single feature to the
// score, surfaced in the transaction-detail explainability panel.
type FeatureImpact struct {
	Feature string  `json:"feature"`
	Value   float64 `json:"value"`
	Impact  float64 `json:"impact"`
}

// Assessment is the result of classifying a single score.
type Assessment struct {
	Score         int             `json:"risk_score"`
	Status        Status          `json:"status"`
	Action        Action          `json:"action"`
	Reasons       []string        `json:"reasons,omitempty"`
	HoldExpiresAt *time.Time      `json:"hold_expires_at,omitempty"`
	ModelVersion  string          `json:"model_version"`
	Shap          []FeatureImpact `json:"shap_values,omitempty"`
}
