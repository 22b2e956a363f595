// Package appstate holds the in-memory application state: the demo session,
// the ring-buffered transaction feed, alerts, KPI snapshot and UI flags.
//
// The Store is the single mutation point for all of it. Everything here is
// ephemeral: transactions and alerts are synthesized demo data
// and must not survive the process (only settings and theme persist, via
// internal/settings). Mutators are serialized by a mutex; snapshot
// accessors return copies so callers can never alias internal slices.
package appstate

import (
	"time"

	"github.com/aegispay/aegispay/internal/risk"
)

// UserRole is the role of a demo identity.
type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleUser  UserRole = "user"
)

// KYCLevel is a user's identity-verification tier. Display-only.
type KYCLevel string

const (
	KYCBasic    KYCLevel = "basic"
	KYCVerified KYCLevel = "verified"
	KYCPremium  KYCLevel = "premium"
)

// PaymentMethod is how a transaction was funded.
type PaymentMethod string

const (
	MethodCard         PaymentMethod = "card"
	MethodUPI          PaymentMethod = "upi"
	MethodBankTransfer PaymentMethod = "bank_transfer"
)

// AlertPriority buckets alerts for the triage queue.
type AlertPriority string

const (
	PriorityHigh   AlertPriority = "high"
	PriorityMedium AlertPriority = "medium"
	PriorityLow    AlertPriority = "low"
)

// BankAccount is a linked demo bank account.
type BankAccount struct {
	BankID        string `json:"bankId"`
	BankName      string `json:"bankName"`
	AccountNumber string `json:"accountNumber"`
	IFSC          string `json:"ifsc"`
	HolderName    string `json:"holderName"`
	Verified      bool   `json:"verified"`
}

// Device is a device seen on a user's account.
type Device struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Type     string    `json:"type"`
	LastUsed time.Time `json:"lastUsed"`
	Trusted  bool      `json:"trusted"`
	IP       string    `json:"ip"`
	Country  string    `json:"country"`
}

// User is a demo identity. Password is a fixed demo credential and never
// serialized.
type User struct {
	ID               string       `json:"id"`
	Email            string       `json:"email"`
	Password         string       `json:"-"`
	DisplayName      string       `json:"displayName"`
	Role             UserRole     `json:"role"`
	KYCLevel         KYCLevel     `json:"kycLevel"`
	AccountAgeDays   int          `json:"accountAge"`
	Balance          float64      `json:"balance"`
	Currency         string       `json:"currency"`
	BankAccount      *BankAccount `json:"bankAccount,omitempty"`
	Devices          []Device     `json:"devices"`
	LastLogin        *time.Time   `json:"lastLogin,omitempty"`
	RiskScore        int          `json:"riskScore"`
	TransactionCount int          `json:"transactionCount"`
	CreatedAt        time.Time    `json:"createdAt"`
}

// Transaction is a single payment event, synthesized or user-submitted.
// Status and Action are always consistent with the thresholds in effect
// when the transaction was classified.
type Transaction struct {
	ID               string               `json:"transaction_id"`
	Timestamp        time.Time            `json:"timestamp"`
	FromUserID       string               `json:"from_user_id"`
	ToUserID         string               `json:"to_user_id,omitempty"`
	ToUPI            string               `json:"to_upi,omitempty"`
	Amount           float64              `json:"amount"`
	Currency         string               `json:"currency"`
	MerchantID       string               `json:"merchant_id,omitempty"`
	MerchantName     string               `json:"merchant_name,omitempty"`
	MerchantCategory string               `json:"merchant_category,omitempty"`
	PaymentMethod    PaymentMethod        `json:"payment_method"`
	DeviceID         string               `json:"device_id,omitempty"`
	IP               string               `json:"ip,omitempty"`
	GeoCountry       string               `json:"geo_country,omitempty"`
	RiskScore        int                  `json:"risk_score"`
	Status           risk.Status          `json:"status"`
	Action           risk.Action          `json:"action"`
	Reasons          []string             `json:"reasons,omitempty"`
	HoldExpiresAt    *time.Time           `json:"hold_expires_at,omitempty"`
	ModelVersion     string               `json:"model_version,omitempty"`
	Shap             []risk.FeatureImpact `json:"shap_values,omitempty"`
}

// Alert flags a risky transaction for triage. Resolution fields are
// write-once: a resolved alert only ever accrues audit data.
type Alert struct {
	ID            string        `json:"id"`
	TransactionID string        `json:"transaction_id"`
	UserID        string        `json:"user_id"`
	Priority      AlertPriority `json:"priority"`
	Type          string        `json:"type"`
	Message       string        `json:"message"`
	Timestamp     time.Time     `json:"timestamp"`
	Resolved      bool          `json:"resolved"`
	ResolvedBy    string        `json:"resolvedBy,omitempty"`
	ResolvedAt    *time.Time    `json:"resolvedAt,omitempty"`
	FalsePositive bool          `json:"falsePositive,omitempty"`
}

// KPIMetrics is the read-only aggregate snapshot for the dashboard cards.
type KPIMetrics struct {
	ActiveTxPerSecond      float64 `json:"activeTxPerSecond"`
	OpenAlertsHigh         int     `json:"openAlertsHigh"`
	OpenAlertsMedium       int     `json:"openAlertsMedium"`
	OpenAlertsLow          int     `json:"openAlertsLow"`
	ConfirmedFraudsToday   int     `json:"confirmedFraudsToday"`
	AvgRiskScore           float64 `json:"avgRiskScore"`
	TotalTransactionsToday int     `json:"totalTransactionsToday"`
	BlockedAmount          float64 `json:"blockedAmount"`
}

// Session is the authentication state for the current demo session.
type Session struct {
	Authenticated bool       `json:"isAuthenticated"`
	User          *User      `json:"user,omitempty"`
	Token         string     `json:"-"`
	IsAdmin       bool       `json:"isAdmin"`
	LoginAttempts int        `json:"loginAttempts"`
	LockedUntil   *time.Time `json:"lockedUntil,omitempty"`
}
