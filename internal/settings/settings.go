// Package settings manages the runtime-mutable application settings: mock
// endpoints, the hold-timer duration and the four risk thresholds. Unlike
// process configuration (internal/config), settings are edited through the
// admin surface and survive a restart. Transactions and session state never
// do; mock data must not outlive the process and masquerade as records.
package settings

import (
	"context"
	"errors"

	"github.com/aegispay/aegispay/internal/risk"
)

// ErrNotFound is returned by a Store when no settings row has been saved yet.
var ErrNotFound = errors.New("settings not found")

// Settings is the persisted key/value configuration from the admin surface.
type Settings struct {
	APIBaseURL       string          `json:"apiBaseUrl"`
	WSURL            string          `json:"wsUrl"`
	MockMode         bool            `json:"mockMode"`
	HoldTimerSeconds int             `json:"holdTimerSeconds"`
	Thresholds       risk.Thresholds `json:"thresholds"`
}

// Defaults match the demo UI defaults.
func Defaults() Settings {
	return Settings{
		APIBaseURL:       "/api",
		WSURL:            "",
		MockMode:         true,
		HoldTimerSeconds: 180,
		Thresholds:       risk.DefaultThresholds,
	}
}

// Validate checks the settings invariants, currently just threshold ordering.
func (s Settings) Validate() error {
	return s.Thresholds.Validate()
}

// Patch is a partial settings update. Nil fields are left unchanged.
type Patch struct {
	APIBaseURL       *string          `json:"apiBaseUrl,omitempty"`
	WSURL            *string          `json:"wsUrl,omitempty"`
	MockMode         *bool            `json:"mockMode,omitempty"`
	HoldTimerSeconds *int             `json:"holdTimerSeconds,omitempty"`
	Thresholds       *risk.Thresholds `json:"thresholds,omitempty"`
}

// Persisted is what survives a restart: settings plus the UI theme.
type Persisted struct {
	Settings Settings `json:"settings"`
	Theme    string   `json:"theme"`
}

// Store persists settings. Implementations: MemoryStore (default) and
// PostgresStore (when DATABASE_URL is configured).
type Store interface {
	Load(ctx context.Context) (*Persisted, error)
	Save(ctx context.Context, p *Persisted) error
}
