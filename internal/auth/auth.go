// Package auth implements the demo login flows.
//
// Authentication model:
// - Admin surface: fixed id/password, straight to authenticated
// - Public surface: email/password then a fixed-OTP step-up (PendingOTP)
// - Five failed attempts lock the account for five minutes
//
// Everything here is a demo convenience: the credentials, the OTP and the
// platform PIN are fixed constants. A real deployment replaces this package
// with an external identity provider.
package auth

import (
	"errors"
	"time"

	"github.com/aegispay/aegispay/internal/appstate"
)

// Fixed demo secrets.
const (
	DemoOTP     = "123456"
	PlatformPIN = "864291"

	DefaultAdminID       = "123"
	DefaultAdminPassword = "G!7rX9$Qw#Z8!"

	MaxLoginAttempts = 5
)

// Errors
var (
	ErrLocked             = errors.New("account temporarily locked")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidOTP         = errors.New("invalid OTP")
	ErrInvalidPIN         = errors.New("invalid platform PIN")
	ErrNoPendingLogin     = errors.New("no login awaiting OTP")
	ErrNotAuthenticated   = errors.New("not authenticated")
)

// State is a login-flow state. The flow is linear; Failed drops back to
// Idle with the attempt counter bumped.
type State string

const (
	StateIdle          State = "idle"
	StateSubmitting    State = "submitting"
	StatePendingOTP    State = "pending_otp"
	StateAuthenticated State = "authenticated"
	StateFailed        State = "failed"
	StateLocked        State = "locked"
)

// Credentials overrides the fixed demo admin credentials, for configuration.
type Credentials struct {
	AdminID       string
	AdminPassword string
}

// DemoUsers is the fixed public-login directory. Passwords are demo copy
// shown on the login screen, not secrets.
func DemoUsers() []appstate.User {
	created := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	return []appstate.User{
		{
			ID:               "u_101",
			Email:            "pro@example.com",
			Password:         "ProUser!2025",
			DisplayName:      "Priya Sharma",
			Role:             appstate.RoleUser,
			KYCLevel:         appstate.KYCVerified,
			AccountAgeDays:   540,
			Balance:          84250,
			Currency:         "INR",
			RiskScore:        12,
			TransactionCount: 312,
			CreatedAt:        created,
		},
		{
			ID:               "u_102",
			Email:            "student@example.com",
			Password:         "Stud!2025",
			DisplayName:      "Rahul Verma",
			Role:             appstate.RoleUser,
			KYCLevel:         appstate.KYCBasic,
			AccountAgeDays:   45,
			Balance:          6200,
			Currency:         "INR",
			RiskScore:        34,
			TransactionCount: 18,
			CreatedAt:        created.AddDate(1, 4, 0),
		},
	}
}

// AdminUser is the fixed admin identity established on admin login.
func AdminUser(id string) appstate.User {
	return appstate.User{
		ID:          id,
		Email:       "admin@aegispay.com",
		DisplayName: "Admin User",
		Role:        appstate.RoleAdmin,
		KYCLevel:    appstate.KYCPremium,

		AccountAgeDays: 1000,
		Currency:       "INR",
		CreatedAt:      time.Now().UTC(),
	}
}
