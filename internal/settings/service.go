package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/aegispay/aegispay/internal/security"
)

// Service is the settings surface: it guards the active settings, enforces
// the threshold ordering invariant at the boundary, and writes through to
// the configured store.
type Service struct {
	mu      sync.RWMutex
	store   Store
	current Settings
	theme   string
	now     func() time.Time
}

// NewService loads persisted settings from the store, falling back to
// defaults when nothing has been saved yet.
func NewService(ctx context.Context, store Store) (*Service, error) {
	s := &Service{
		store:   store,
		current: Defaults(),
		theme:   "dark",
		now:     time.Now,
	}

	p, err := store.Load(ctx)
	switch {
	case err == nil:
		if verr := p.Settings.Validate(); verr != nil {
			// A bad persisted row is a configuration error: refuse to
			// start rather than silently classify with defaults.
			return nil, fmt.Errorf("persisted settings invalid: %w", verr)
		}
		s.current = p.Settings
		if p.Theme != "" {
			s.theme = p.Theme
		}
	case err == ErrNotFound:
		// First run: defaults.
	default:
		return nil, fmt.Errorf("load settings: %w", err)
	}

	return s, nil
}

// WithClock overrides the wall clock used in exports.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Get returns the active settings.
func (s *Service) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Theme returns the persisted UI theme.
func (s *Service) Theme() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.theme
}

// Update applies a partial update. Threshold-ordering violations are
// rejected before anything is stored and the active settings are untouched.
func (s *Service) Update(ctx context.Context, patch Patch) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current
	if patch.APIBaseURL != nil {
		if err := validateEndpoint(*patch.APIBaseURL); err != nil {
			return s.current, fmt.Errorf("apiBaseUrl: %w", err)
		}
		next.APIBaseURL = *patch.APIBaseURL
	}
	if patch.WSURL != nil {
		if err := validateEndpoint(*patch.WSURL); err != nil {
			return s.current, fmt.Errorf("wsUrl: %w", err)
		}
		next.WSURL = *patch.WSURL
	}
	if patch.MockMode != nil {
		next.MockMode = *patch.MockMode
	}
	if patch.HoldTimerSeconds != nil {
		if *patch.HoldTimerSeconds <= 0 {
			return s.current, fmt.Errorf("holdTimerSeconds must be positive, got %d", *patch.HoldTimerSeconds)
		}
		next.HoldTimerSeconds = *patch.HoldTimerSeconds
	}
	if patch.Thresholds != nil {
		next.Thresholds = *patch.Thresholds
	}

	if err := next.Validate(); err != nil {
		return s.current, err
	}

	if err := s.store.Save(ctx, &Persisted{Settings: next, Theme: s.theme}); err != nil {
		return s.current, fmt.Errorf("save settings: %w", err)
	}

	s.current = next
	return next, nil
}

// validateEndpoint vets an admin-supplied endpoint. Empty values and
// same-origin relative paths (the defaults) need no host check; absolute
// URLs must pass the SSRF screen.
func validateEndpoint(raw string) error {
	if raw == "" || strings.HasPrefix(raw, "/") {
		return nil
	}
	return security.ValidateEndpointURL(raw)
}

// SetTheme persists the UI theme alongside the settings.
func (s *Service) SetTheme(ctx context.Context, theme string) error {
	if theme != "dark" && theme != "light" {
		return fmt.Errorf("unknown theme %q", theme)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Save(ctx, &Persisted{Settings: s.current, Theme: theme}); err != nil {
		return fmt.Errorf("save theme: %w", err)
	}
	s.theme = theme
	return nil
}

// exportDoc is the download produced by the settings page. Transaction
// history is a placeholder on purpose: the ring buffer holds fabricated
// data that must not leave the process looking like financial records.
type exportDoc struct {
	ExportedAt   time.Time `json:"exportedAt"`
	Settings     Settings  `json:"settings"`
	Theme        string    `json:"theme"`
	Transactions string    `json:"transactions"`
}

// Export writes the settings export document as indented JSON.
func (s *Service) Export(w io.Writer) error {
	s.mu.RLock()
	doc := exportDoc{
		ExportedAt:   s.now().UTC(),
		Settings:     s.current,
		Theme:        s.theme,
		Transactions: "mock_export",
	}
	s.mu.RUnlock()

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
