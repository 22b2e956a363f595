// Package analytics serves the dashboard's chart data and model-insight
// panels. The series are fabricated demo data shaped like the real
// product's analytics API; only the KPI snapshot is derived from live
// store contents (by internal/feed).
package analytics

import (
	"math/rand"
	"time"

	"github.com/aegispay/aegispay/internal/appstate"
	"github.com/aegispay/aegispay/internal/risk"
)

// AlertsPoint is one day of the alerts-over-time area chart.
type AlertsPoint struct {
	Date   string `json:"date"`
	High   int    `json:"high"`
	Medium int    `json:"medium"`
	Low    int    `json:"low"`
}

// SeverityCount is one slice of the alerts-by-severity donut.
type SeverityCount struct {
	Severity string `json:"severity"`
	Count    int    `json:"count"`
}

// GeoCount is one row of the geo-distribution chart.
type GeoCount struct {
	Country   string  `json:"country"`
	Count     int     `json:"count"`
	FraudRate float64 `json:"fraudRate"`
}

// RiskBucket is one bar of the risk-score histogram.
type RiskBucket struct {
	Range string `json:"range"`
	Count int    `json:"count"`
}

// HourlyPoint is one hour of the daily traffic pattern.
type HourlyPoint struct {
	Hour         int `json:"hour"`
	Transactions int `json:"transactions"`
	Frauds       int `json:"frauds"`
}

// Data is the full analytics payload.
type Data struct {
	AlertsOverTime   []AlertsPoint   `json:"alertsOverTime"`
	AlertsBySeverity []SeverityCount `json:"alertsBySeverity"`
	GeoDistribution  []GeoCount      `json:"geoDistribution"`
	RiskDistribution []RiskBucket    `json:"riskDistribution"`
	HourlyPattern    []HourlyPoint   `json:"hourlyPattern"`
}

// FeatureWeight is one bar of the global feature-importance chart.
type FeatureWeight struct {
	Feature string  `json:"feature"`
	Weight  float64 `json:"weight"`
}

// ConfusionMatrix holds binary-classification counts.
type ConfusionMatrix struct {
	TruePositive  int `json:"tp"`
	FalsePositive int `json:"fp"`
	TrueNegative  int `json:"tn"`
	FalseNegative int `json:"fn"`
}

// ModelInsights is the model performance panel. All values are fixed demo
// copy for the fictitious xgb model.
type ModelInsights struct {
	ModelVersion   string          `json:"model_version"`
	RulesVersion   string          `json:"rules_version"`
	PrecisionAtK   float64         `json:"precision_at_k"`
	Recall         float64         `json:"recall"`
	PRAUC          float64         `json:"pr_auc"`
	F1Score        float64         `json:"f1_score"`
	Accuracy       float64         `json:"accuracy"`
	LastTrained    time.Time       `json:"last_trained"`
	GlobalShap     []FeatureWeight `json:"global_shap"`
	Confusion      ConfusionMatrix `json:"confusion_matrix"`
}

// Service fabricates analytics series. The random source only jitters the
// fabricated counts; it is injectable so tests can pin the output.
type Service struct {
	store *appstate.Store
	rng   *rand.Rand
	now   func() time.Time
}

// NewService creates an analytics service over the app store.
func NewService(store *appstate.Store) *Service {
	return &Service{
		store: store,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		now:   time.Now,
	}
}

// WithRand overrides the random source.
func (s *Service) WithRand(rng *rand.Rand) *Service {
	s.rng = rng
	return s
}

// WithClock overrides the wall clock.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Data assembles the analytics payload. Severity counts and the risk
// histogram come from live store contents; the time series are fabricated
// around them.
func (s *Service) Data() Data {
	return Data{
		AlertsOverTime:   s.alertsOverTime(),
		AlertsBySeverity: s.alertsBySeverity(),
		GeoDistribution:  s.geoDistribution(),
		RiskDistribution: s.riskDistribution(),
		HourlyPattern:    s.hourlyPattern(),
	}
}

func (s *Service) alertsOverTime() []AlertsPoint {
	today := s.now().UTC().Truncate(24 * time.Hour)
	out := make([]AlertsPoint, 0, 7)
	for i := 6; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		out = append(out, AlertsPoint{
			Date:   day.Format("2006-01-02"),
			High:   2 + s.rng.Intn(6),
			Medium: 5 + s.rng.Intn(10),
			Low:    8 + s.rng.Intn(12),
		})
	}
	return out
}

func (s *Service) alertsBySeverity() []SeverityCount {
	counts := map[appstate.AlertPriority]int{}
	for _, a := range s.store.Alerts() {
		if !a.Resolved {
			counts[a.Priority]++
		}
	}
	return []SeverityCount{
		{Severity: "high", Count: counts[appstate.PriorityHigh]},
		{Severity: "medium", Count: counts[appstate.PriorityMedium]},
		{Severity: "low", Count: counts[appstate.PriorityLow]},
	}
}

func (s *Service) geoDistribution() []GeoCount {
	counts := map[string]int{}
	frauds := map[string]int{}
	for _, tx := range s.store.Transactions() {
		if tx.GeoCountry == "" {
			continue
		}
		counts[tx.GeoCountry]++
		if tx.Status == risk.StatusBlocked {
			frauds[tx.GeoCountry]++
		}
	}

	out := make([]GeoCount, 0, len(counts))
	for _, country := range []string{"IN", "US", "UK"} {
		n := counts[country]
		delete(counts, country)
		g := GeoCount{Country: country, Count: n}
		if n > 0 {
			g.FraudRate = float64(frauds[country]) / float64(n)
		}
		out = append(out, g)
	}
	for country, n := range counts {
		g := GeoCount{Country: country, Count: n}
		g.FraudRate = float64(frauds[country]) / float64(n)
		out = append(out, g)
	}
	return out
}

func (s *Service) riskDistribution() []RiskBucket {
	buckets := []RiskBucket{
		{Range: "0-24"}, {Range: "25-59"}, {Range: "60-84"}, {Range: "85-100"},
	}
	for _, tx := range s.store.Transactions() {
		switch {
		case tx.RiskScore < 25:
			buckets[0].Count++
		case tx.RiskScore < 60:
			buckets[1].Count++
		case tx.RiskScore < 85:
			buckets[2].Count++
		default:
			buckets[3].Count++
		}
	}
	return buckets
}

func (s *Service) hourlyPattern() []HourlyPoint {
	out := make([]HourlyPoint, 24)
	for h := 0; h < 24; h++ {
		// Daytime-heavy curve with a small fraud tail.
		base := 20
		if h >= 9 && h <= 22 {
			base = 60
		}
		txs := base + s.rng.Intn(40)
		out[h] = HourlyPoint{
			Hour:         h,
			Transactions: txs,
			Frauds:       s.rng.Intn(1 + txs/20),
		}
	}
	return out
}

// Insights returns the fixed model performance panel.
func (s *Service) Insights() ModelInsights {
	return ModelInsights{
		ModelVersion: risk.ModelVersion,
		RulesVersion: "rules_v14",
		PrecisionAtK: 0.91,
		Recall:       0.84,
		PRAUC:        0.88,
		F1Score:      0.87,
		Accuracy:     0.9641,
		LastTrained:  time.Date(2026, 7, 12, 0, 0, 0, 0, time.UTC),
		GlobalShap: []FeatureWeight{
			{Feature: "amount_zscore", Weight: 0.42},
			{Feature: "device_age_days", Weight: 0.27},
			{Feature: "merchant_risk", Weight: 0.14},
			{Feature: "geo_mismatch", Weight: 0.10},
			{Feature: "velocity_1h", Weight: 0.07},
		},
		Confusion: ConfusionMatrix{
			TruePositive:  412,
			FalsePositive: 38,
			TrueNegative:  9120,
			FalseNegative: 74,
		},
	}
}
