package auth

import (
	"crypto/subtle"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aegispay/aegispay/internal/appstate"
	"github.com/aegispay/aegispay/internal/idgen"
	"github.com/aegispay/aegispay/internal/metrics"
)

// Service runs the demo login state machines against the app store. The
// store owns attempt counters and the lockout instant; the service owns the
// PendingOTP hand-off for the public surface.
type Service struct {
	store  *appstate.Store
	users  []appstate.User
	creds  Credentials
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	pending *appstate.User // public login awaiting OTP
}

// NewService creates an auth service. Zero-value credentials fall back to
// the fixed demo admin login.
func NewService(store *appstate.Store, creds Credentials, logger *slog.Logger) *Service {
	if creds.AdminID == "" {
		creds.AdminID = DefaultAdminID
	}
	if creds.AdminPassword == "" {
		creds.AdminPassword = DefaultAdminPassword
	}
	return &Service{
		store:  store,
		users:  DemoUsers(),
		creds:  creds,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock overrides the wall clock.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// LockedUntil returns the lockout deadline, or nil when not locked.
func (s *Service) LockedUntil() *time.Time {
	if !s.store.Locked() {
		return nil
	}
	sess := s.store.Session()
	return sess.LockedUntil
}

// LoginPublic checks email/password for the public surface. Success parks
// the user in PendingOTP; the session is only established after VerifyOTP.
func (s *Service) LoginPublic(email, password string) (State, error) {
	if s.store.Locked() {
		metrics.LoginsTotal.WithLabelValues("locked").Inc()
		return StateLocked, ErrLocked
	}

	email = strings.ToLower(strings.TrimSpace(email))
	for i := range s.users {
		u := s.users[i]
		if strings.ToLower(u.Email) == email && equal(u.Password, password) {
			s.mu.Lock()
			s.pending = &u
			s.mu.Unlock()
			s.logger.Info("public login password accepted, awaiting OTP", "user", u.ID)
			return StatePendingOTP, nil
		}
	}

	return s.fail("public", email)
}

// VerifyOTP completes a pending public login. The demo accepts exactly one
// fixed code; anything else keeps the login pending for a retry.
func (s *Service) VerifyOTP(otp string) (token string, user appstate.User, err error) {
	s.mu.Lock()
	pending := s.pending
	s.mu.Unlock()

	if pending == nil {
		return "", appstate.User{}, ErrNoPendingLogin
	}
	if !equal(otp, DemoOTP) {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return "", appstate.User{}, ErrInvalidOTP
	}

	s.mu.Lock()
	s.pending = nil
	s.mu.Unlock()

	token = idgen.WithPrefix("tok_")
	now := s.now().UTC()
	pending.LastLogin = &now
	s.store.Login(*pending, token, false)
	metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.logger.Info("public login complete", "user", pending.ID)
	return token, *pending, nil
}

// LoginAdmin checks the fixed admin credentials and establishes an admin
// session directly; there is no OTP step on the admin surface.
func (s *Service) LoginAdmin(id, password string) (token string, user appstate.User, err error) {
	if s.store.Locked() {
		metrics.LoginsTotal.WithLabelValues("locked").Inc()
		return "", appstate.User{}, ErrLocked
	}

	if !equal(id, s.creds.AdminID) || !equal(password, s.creds.AdminPassword) {
		_, err := s.fail("admin", id)
		return "", appstate.User{}, err
	}

	user = AdminUser(s.creds.AdminID)
	now := s.now().UTC()
	user.LastLogin = &now
	token = idgen.WithPrefix("tok_")
	s.store.Login(user, token, true)
	metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.logger.Info("admin login complete", "user", user.ID)
	return token, user, nil
}

// Logout clears the session. Theme, settings and the lockout state survive.
func (s *Service) Logout() {
	s.mu.Lock()
	s.pending = nil
	s.mu.Unlock()
	s.store.Logout()
}

// VerifyPIN checks the platform override PIN used to lift a block verdict.
func (s *Service) VerifyPIN(pin string) error {
	if !equal(pin, PlatformPIN) {
		return ErrInvalidPIN
	}
	return nil
}

// AttemptsRemaining reports how many failures remain before lockout.
func (s *Service) AttemptsRemaining() int {
	n := MaxLoginAttempts - s.store.Session().LoginAttempts
	if n < 0 {
		return 0
	}
	return n
}

// fail records one failed attempt and locks the account when the budget is
// spent. The locking attempt itself reports ErrLocked.
func (s *Service) fail(surface, principal string) (State, error) {
	attempts := s.store.IncrementLoginAttempts()
	metrics.LoginsTotal.WithLabelValues("failure").Inc()

	if attempts >= MaxLoginAttempts {
		until := s.store.LockAccount()
		s.logger.Warn("account locked after repeated failures",
			"surface", surface,
			"principal", principal,
			"until", until,
		)
		return StateLocked, fmt.Errorf("%w until %s", ErrLocked, until.UTC().Format(time.RFC3339))
	}

	s.logger.Info("login failed",
		"surface", surface,
		"principal", principal,
		"attemptsRemaining", MaxLoginAttempts-attempts,
	)
	return StateFailed, ErrInvalidCredentials
}

// equal is a constant-time string compare. The secrets are demo constants,
// but the comparison shape should still be right.
func equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
