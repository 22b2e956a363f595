package appstate

import (
	"sync"
	"time"

	"github.com/aegispay/aegispay/internal/risk"
	"github.com/aegispay/aegispay/internal/settings"
)

const (
	// DefaultMaxTransactions caps the transaction ring buffer. The oldest
	// entries are dropped once the cap is reached.
	DefaultMaxTransactions = 200

	// LockoutDuration is how long the login surface stays locked after too
	// many failed attempts.
	LockoutDuration = 5 * time.Minute
)

// Store is the single source of truth for session, transaction/alert
// collections and UI flags. Construct a fresh one per test; nothing here is
// global.
type Store struct {
	mu    sync.RWMutex
	now   func() time.Time
	maxTx int

	session      Session
	transactions []Transaction
	alerts       []Alert
	kpi          KPIMetrics
	wsConnected  bool
	settings     settings.Settings

	theme         string
	onThemeChange func(theme string)

	simulationRunning bool
	currentScenario   string
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the wall clock (lockout instants, resolution times).
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithMaxTransactions overrides the ring buffer cap.
func WithMaxTransactions(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxTx = n
		}
	}
}

// WithSettings seeds the settings snapshot held by the store.
func WithSettings(cfg settings.Settings) Option {
	return func(s *Store) { s.settings = cfg }
}

// WithTheme sets the initial theme without firing the observer.
func WithTheme(theme string) Option {
	return func(s *Store) { s.theme = theme }
}

// OnThemeChange registers the one sanctioned side effect of the store: theme
// switches notify the presentation layer (the document-class toggle in the
// original UI). The callback runs outside the store lock.
func OnThemeChange(fn func(theme string)) Option {
	return func(s *Store) { s.onThemeChange = fn }
}

// New creates an empty store with default settings and a dark theme.
func New(opts ...Option) *Store {
	s := &Store{
		now:      time.Now,
		maxTx:    DefaultMaxTransactions,
		settings: settings.Defaults(),
		theme:    "dark",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ---------------------------------------------------------------------------
// Session
// ---------------------------------------------------------------------------

// Login establishes an authenticated session and clears the attempt counter
// and any lockout. No side effects beyond state.
func (s *Store) Login(user User, token string, isAdmin bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = Session{
		Authenticated: true,
		User:          &user,
		Token:         token,
		IsAdmin:       isAdmin,
	}
}

// Logout clears the session. Persisted settings and theme are untouched.
func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	attempts := s.session.LoginAttempts
	locked := s.session.LockedUntil
	s.session = Session{LoginAttempts: attempts, LockedUntil: locked}
}

// Session returns a copy of the current session.
func (s *Store) Session() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess := s.session
	if sess.User != nil {
		u := *sess.User
		sess.User = &u
	}
	return sess
}

// IncrementLoginAttempts bumps the failed-attempt counter and returns the
// new count.
func (s *Store) IncrementLoginAttempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.LoginAttempts++
	return s.session.LoginAttempts
}

// ResetLoginAttempts clears the counter and any lockout.
func (s *Store) ResetLoginAttempts() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.LoginAttempts = 0
	s.session.LockedUntil = nil
}

// LockAccount sets the lockout instant to now + LockoutDuration and returns
// it. Callers must check Locked before allowing further attempts.
func (s *Store) LockAccount() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	until := s.now().Add(LockoutDuration)
	s.session.LockedUntil = &until
	return until
}

// Locked reports whether the login surface is currently locked out. A past
// lockout instant clears automatically.
func (s *Store) Locked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session.LockedUntil == nil {
		return false
	}
	if s.now().Before(*s.session.LockedUntil) {
		return true
	}
	s.session.LockedUntil = nil
	return false
}

// SetUser replaces the session user (bank linking mutates the profile).
// No-op when unauthenticated.
func (s *Store) SetUser(user User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.session.Authenticated {
		return
	}
	s.session.User = &user
}

// ---------------------------------------------------------------------------
// Transactions
// ---------------------------------------------------------------------------

// AddTransaction prepends a transaction and truncates the buffer to the cap.
// Ordering is most-recent-first.
func (s *Store) AddTransaction(tx Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = append([]Transaction{tx}, s.transactions...)
	if len(s.transactions) > s.maxTx {
		s.transactions = s.transactions[:s.maxTx]
	}
}

// TransactionUpdate is a partial transaction mutation. Nil fields are left
// unchanged; ClearHoldExpiry removes the expiry (release/confirm paths).
type TransactionUpdate struct {
	Status          *risk.Status
	Action          *risk.Action
	RiskScore       *int
	Reasons         []string
	HoldExpiresAt   *time.Time
	ClearHoldExpiry bool
}

// UpdateTransaction merges fields into the matching transaction. Unknown
// ids are a silent no-op (reported via the return value, never a panic).
func (s *Store) UpdateTransaction(id string, u TransactionUpdate) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.transactions {
		if s.transactions[i].ID != id {
			continue
		}
		tx := &s.transactions[i]
		if u.Status != nil {
			tx.Status = *u.Status
		}
		if u.Action != nil {
			tx.Action = *u.Action
		}
		if u.RiskScore != nil {
			tx.RiskScore = risk.Clamp(*u.RiskScore)
		}
		if u.Reasons != nil {
			tx.Reasons = append([]string(nil), u.Reasons...)
		}
		if u.HoldExpiresAt != nil {
			expiry := *u.HoldExpiresAt
			tx.HoldExpiresAt = &expiry
		}
		if u.ClearHoldExpiry {
			tx.HoldExpiresAt = nil
		}
		return true
	}
	return false
}

// SetTransactions replaces the whole list (bounded to the cap).
func (s *Store) SetTransactions(txs []Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(txs) > s.maxTx {
		txs = txs[:s.maxTx]
	}
	s.transactions = append([]Transaction(nil), txs...)
}

// Transactions returns a copy of the list, most-recent-first.
func (s *Store) Transactions() []Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Transaction(nil), s.transactions...)
}

// Transaction looks up a single transaction by id.
func (s *Store) Transaction(id string) (Transaction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.transactions {
		if s.transactions[i].ID == id {
			return s.transactions[i], true
		}
	}
	return Transaction{}, false
}

// ExpiredHolds returns transactions still on hold whose expiry has passed
// as of the given instant. The hold sweeper consumes this.
func (s *Store) ExpiredHolds(asOf time.Time) []Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Transaction
	for i := range s.transactions {
		tx := s.transactions[i]
		if tx.Status == risk.StatusOnHold && tx.HoldExpiresAt != nil && !asOf.Before(*tx.HoldExpiresAt) {
			out = append(out, tx)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Alerts
// ---------------------------------------------------------------------------

// AddAlert prepends an alert. Alerts are not ring-buffered; they are
// bounded in practice by the transaction cap that produces them.
func (s *Store) AddAlert(a Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append([]Alert{a}, s.alerts...)
}

// AlertUpdate is a partial alert mutation, used only by resolve actions.
type AlertUpdate struct {
	Resolved      *bool
	ResolvedBy    *string
	ResolvedAt    *time.Time
	FalsePositive *bool
}

// UpdateAlert merges fields into the matching alert. A resolved alert only
// accepts audit fields; its resolved flag never flips back. Unknown ids are
// a silent no-op.
func (s *Store) UpdateAlert(id string, u AlertUpdate) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.alerts {
		if s.alerts[i].ID != id {
			continue
		}
		a := &s.alerts[i]
		if u.Resolved != nil && !a.Resolved {
			a.Resolved = *u.Resolved
		}
		if u.ResolvedBy != nil {
			a.ResolvedBy = *u.ResolvedBy
		}
		if u.ResolvedAt != nil {
			at := *u.ResolvedAt
			a.ResolvedAt = &at
		}
		if u.FalsePositive != nil {
			a.FalsePositive = *u.FalsePositive
		}
		return true
	}
	return false
}

// SetAlerts replaces the whole alert list.
func (s *Store) SetAlerts(alerts []Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append([]Alert(nil), alerts...)
}

// Alerts returns a copy of the alert list, most-recent-first.
func (s *Store) Alerts() []Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Alert(nil), s.alerts...)
}

// ---------------------------------------------------------------------------
// KPIs, connectivity, settings snapshot
// ---------------------------------------------------------------------------

// SetKPIMetrics replaces the KPI snapshot.
func (s *Store) SetKPIMetrics(k KPIMetrics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kpi = k
}

// KPIMetrics returns the current KPI snapshot.
func (s *Store) KPIMetrics() KPIMetrics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.kpi
}

// SetWSConnected records the simulated live-feed connectivity flag.
func (s *Store) SetWSConnected(connected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wsConnected = connected
}

// WSConnected reports the simulated connectivity flag.
func (s *Store) WSConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.wsConnected
}

// UpdateSettings replaces the settings snapshot. Validation happens at the
// settings service boundary, not here.
func (s *Store) UpdateSettings(cfg settings.Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = cfg
}

// Settings returns the settings snapshot.
func (s *Store) Settings() settings.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// ---------------------------------------------------------------------------
// Theme and simulation flags
// ---------------------------------------------------------------------------

// SetTheme switches the theme and fires the presentation observer. The
// observer runs after the lock is released so it may call back into the
// store.
func (s *Store) SetTheme(theme string) {
	s.mu.Lock()
	changed := s.theme != theme
	s.theme = theme
	fn := s.onThemeChange
	s.mu.Unlock()

	if changed && fn != nil {
		fn(theme)
	}
}

// ToggleTheme flips between dark and light and returns the new theme.
func (s *Store) ToggleTheme() string {
	s.mu.RLock()
	next := "dark"
	if s.theme == "dark" {
		next = "light"
	}
	s.mu.RUnlock()

	s.SetTheme(next)
	return next
}

// Theme returns the current theme.
func (s *Store) Theme() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.theme
}

// StartSimulation records a running scenario.
func (s *Store) StartSimulation(scenario string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.simulationRunning = true
	s.currentScenario = scenario
}

// StopSimulation clears the scenario flags.
func (s *Store) StopSimulation() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.simulationRunning = false
	s.currentScenario = ""
}

// Simulation reports whether a scenario is running and which one.
func (s *Store) Simulation() (running bool, scenario string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.simulationRunning, s.currentScenario
}
