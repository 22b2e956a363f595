// Package feed synthesizes the live transaction stream for the demo. The
// generator fabricates plausible payments over a small fixed universe of
// users and merchants, the scenario catalog scripts the attack simulator,
// and the Feeder pumps everything through the store and the WebSocket hub.
package feed

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/aegispay/aegispay/internal/appstate"
	"github.com/aegispay/aegispay/internal/idgen"
	"github.com/aegispay/aegispay/internal/risk"
)

// Merchant is one of the fixed demo merchants.
type Merchant struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

var (
	demoUserIDs = []string{
		"u_101", "u_102", "u_103", "u_104", "u_105",
		"u_106", "u_107", "u_108", "u_109", "u_110",
	}

	demoMerchants = []Merchant{
		{ID: "m_300", Name: "Amazon", Category: "ecommerce"},
		{ID: "m_301", Name: "Flipkart", Category: "ecommerce"},
		{ID: "m_302", Name: "Swiggy", Category: "food"},
		{ID: "m_303", Name: "Zomato", Category: "food"},
		{ID: "m_304", Name: "BookMyShow", Category: "entertainment"},
		{ID: "m_305", Name: "Uber", Category: "transport"},
	}

	demoMethods = []appstate.PaymentMethod{
		appstate.MethodCard,
		appstate.MethodUPI,
		appstate.MethodBankTransfer,
	}

	// India-heavy on purpose; the duplicates weight the draw.
	demoCountries = []string{"IN", "IN", "IN", "IN", "US", "UK"}
)

// Generator fabricates synthetic transactions. The random source is
// injectable so tests can fix the sequence; classification is delegated to
// the risk engine so generated traffic always respects the live thresholds.
type Generator struct {
	engine *risk.Engine
	rng    *rand.Rand
	now    func() time.Time
}

// NewGenerator creates a generator backed by the given risk engine.
func NewGenerator(engine *risk.Engine) *Generator {
	return &Generator{
		engine: engine,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		now:    time.Now,
	}
}

// WithRand overrides the random source.
func (g *Generator) WithRand(rng *rand.Rand) *Generator {
	g.rng = rng
	return g
}

// WithClock overrides the wall clock.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Transaction fabricates one synthetic payment. The risk score is drawn
// uniformly from [0, 100) independent of the amount, then classified by the
// engine; amount, merchant, method and geo are uniform draws over the demo
// universe.
func (g *Generator) Transaction() appstate.Transaction {
	user := demoUserIDs[g.rng.Intn(len(demoUserIDs))]
	merchant := demoMerchants[g.rng.Intn(len(demoMerchants))]
	amount := float64(g.rng.Intn(50000) + 100)

	a := g.engine.Classify(g.rng.Intn(100))

	return appstate.Transaction{
		ID:               idgen.WithPrefix("tx_"),
		Timestamp:        g.now().UTC(),
		FromUserID:       user,
		Amount:           amount,
		Currency:         "INR",
		MerchantID:       merchant.ID,
		MerchantName:     merchant.Name,
		MerchantCategory: merchant.Category,
		PaymentMethod:    demoMethods[g.rng.Intn(len(demoMethods))],
		DeviceID:         fmt.Sprintf("dev_%06x", g.rng.Intn(1<<24)),
		IP:               g.ip(),
		GeoCountry:       demoCountries[g.rng.Intn(len(demoCountries))],
		RiskScore:        a.Score,
		Status:           a.Status,
		Action:           a.Action,
		Reasons:          a.Reasons,
		HoldExpiresAt:    a.HoldExpiresAt,
		ModelVersion:     a.ModelVersion,
		Shap:             a.Shap,
	}
}

func (g *Generator) ip() string {
	return fmt.Sprintf("%d.%d.%d.%d",
		g.rng.Intn(255), g.rng.Intn(255), g.rng.Intn(255), g.rng.Intn(255))
}

// AlertFor raises a triage alert for a risky transaction, or nil when the
// verdict does not warrant one. Blocked traffic is high priority, holds are
// medium.
func (g *Generator) AlertFor(tx appstate.Transaction) *appstate.Alert {
	var priority appstate.AlertPriority
	var alertType, message string

	switch tx.Status {
	case risk.StatusBlocked:
		priority = appstate.PriorityHigh
		alertType = "velocity"
		message = fmt.Sprintf("Blocked %s payment of ₹%.0f to %s (score %d)",
			tx.PaymentMethod, tx.Amount, tx.MerchantName, tx.RiskScore)
	case risk.StatusOnHold:
		priority = appstate.PriorityMedium
		alertType = "unusual_amount"
		message = fmt.Sprintf("Payment of ₹%.0f to %s held for review (score %d)",
			tx.Amount, tx.MerchantName, tx.RiskScore)
	default:
		return nil
	}

	return &appstate.Alert{
		ID:            idgen.WithPrefix("alr_"),
		TransactionID: tx.ID,
		UserID:        tx.FromUserID,
		Priority:      priority,
		Type:          alertType,
		Message:       message,
		Timestamp:     tx.Timestamp,
	}
}
