package feed

import "time"

// Scenario identifies one scripted attack simulation.
type Scenario string

const (
	ScenarioCardTesting Scenario = "card_testing"
	ScenarioATO         Scenario = "ato"
	ScenarioMuleRing    Scenario = "mule_ring"
)

// Valid reports whether s is a known scenario.
func (s Scenario) Valid() bool {
	switch s {
	case ScenarioCardTesting, ScenarioATO, ScenarioMuleRing:
		return true
	}
	return false
}

// ScenarioInfo describes a scenario for the simulator catalog.
type ScenarioInfo struct {
	ID          Scenario `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
}

// Scenarios returns the simulator catalog.
func Scenarios() []ScenarioInfo {
	return []ScenarioInfo{
		{
			ID:          ScenarioCardTesting,
			Name:        "Card Testing Attack",
			Description: "Simulate rapid small-value transactions to test stolen card validity",
		},
		{
			ID:          ScenarioATO,
			Name:        "Account Takeover (ATO)",
			Description: "Simulate unauthorized access from new device/location with suspicious behavior",
		},
		{
			ID:          ScenarioMuleRing,
			Name:        "Mule Ring Detection",
			Description: "Simulate coordinated money movement through multiple linked accounts",
		},
	}
}

// SimulationLog is one line of simulator narration. Risk is optional; zero
// means the line carries no score.
type SimulationLog struct {
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"` // info, warning, error, success
	Message   string    `json:"message"`
	Risk      int       `json:"risk,omitempty"`
}

// ScenarioLogs returns the scripted narration for a scenario. The lines are
// fixed demo copy; the Feeder replays them one per tick.
func ScenarioLogs(s Scenario) []SimulationLog {
	switch s {
	case ScenarioCardTesting:
		return []SimulationLog{
			{Type: "info", Message: "Initiating card testing pattern...", Risk: 45},
			{Type: "warning", Message: "Transaction $1 to TestMerchant1 - velocity trigger", Risk: 65},
			{Type: "warning", Message: "Transaction $2 to TestMerchant2 - pattern detected", Risk: 78},
			{Type: "error", Message: "Transaction $1 to TestMerchant3 - BLOCKED", Risk: 92},
			{Type: "error", Message: "Account flagged for card testing attack", Risk: 95},
		}
	case ScenarioATO:
		return []SimulationLog{
			{Type: "info", Message: "Simulating login from new device...", Risk: 35},
			{Type: "warning", Message: "Login from unusual IP (185.220.x.x)", Risk: 55},
			{Type: "warning", Message: "Password change attempt detected", Risk: 72},
			{Type: "error", Message: "Bank account change attempt - HOLD", Risk: 85},
			{Type: "info", Message: "User verification prompt sent"},
		}
	case ScenarioMuleRing:
		return []SimulationLog{
			{Type: "info", Message: "Detecting fund cascade pattern...", Risk: 40},
			{Type: "warning", Message: "User A -> User B: Rs.10000 (rapid)", Risk: 62},
			{Type: "warning", Message: "User B -> User C: Rs.9500 (cascade)", Risk: 75},
			{Type: "warning", Message: "Graph cluster detected: 5 nodes", Risk: 82},
			{Type: "error", Message: "Mule ring identified - All accounts HOLD", Risk: 88},
		}
	}
	return nil
}
