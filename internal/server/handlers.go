package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aegispay/aegispay/internal/appstate"
	"github.com/aegispay/aegispay/internal/auth"
	"github.com/aegispay/aegispay/internal/countdown"
	"github.com/aegispay/aegispay/internal/feed"
	"github.com/aegispay/aegispay/internal/idgen"
	"github.com/aegispay/aegispay/internal/logging"
	"github.com/aegispay/aegispay/internal/metrics"
	"github.com/aegispay/aegispay/internal/pagination"
	"github.com/aegispay/aegispay/internal/realtime"
	"github.com/aegispay/aegispay/internal/risk"
	"github.com/aegispay/aegispay/internal/settings"
	"github.com/aegispay/aegispay/internal/traces"
	"github.com/aegispay/aegispay/internal/validation"
)

// authError maps an auth failure to the right HTTP status: 423 while the
// account is locked, 401 for everything else.
func (s *Server) authError(c *gin.Context, err error) {
	if errors.Is(err, auth.ErrLocked) {
		h := gin.H{"error": "account_locked", "message": err.Error()}
		if until := s.authSvc.LockedUntil(); until != nil {
			h["lockedUntil"] = until.UTC().Format(time.RFC3339)
		}
		c.JSON(http.StatusLocked, h)
		return
	}
	c.JSON(http.StatusUnauthorized, gin.H{
		"error":             "invalid_credentials",
		"message":           err.Error(),
		"attemptsRemaining": s.authSvc.AttemptsRemaining(),
	})
}

// -----------------------------------------------------------------------------
// Auth
// -----------------------------------------------------------------------------

func (s *Server) publicLoginHandler(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}

	if errs := validation.Validate(
		validation.Required("email", req.Email),
		validation.ValidEmail("email", req.Email),
		validation.Required("password", req.Password),
	); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "fields": errs})
		return
	}

	state, err := s.authSvc.LoginPublic(req.Email, req.Password)
	if err != nil {
		s.authError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"state": state, "otpRequired": true})
}

func (s *Server) adminLoginHandler(c *gin.Context) {
	var req struct {
		AdminID  string `json:"adminId"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}

	token, user, err := s.authSvc.LoginAdmin(req.AdminID, req.Password)
	if err != nil {
		s.authError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": user, "state": auth.StateAuthenticated})
}

func (s *Server) otpVerifyHandler(c *gin.Context) {
	var req struct {
		OTP string `json:"otp"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}

	token, user, err := s.authSvc.VerifyOTP(req.OTP)
	if err != nil {
		if errors.Is(err, auth.ErrNoPendingLogin) {
			c.JSON(http.StatusConflict, gin.H{"error": "no_pending_login", "message": err.Error()})
			return
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_otp", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": user, "state": auth.StateAuthenticated})
}

func (s *Server) logoutHandler(c *gin.Context) {
	s.authSvc.Logout()
	c.JSON(http.StatusOK, gin.H{"status": "logged_out"})
}

// -----------------------------------------------------------------------------
// Pay flow
// -----------------------------------------------------------------------------

func (s *Server) payHandler(c *gin.Context) {
	var req struct {
		ToUPI    string  `json:"to_upi"`
		ToUserID string  `json:"to_user_id"`
		Amount   float64 `json:"amount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}

	if errs := validation.Validate(
		validation.ValidAmount("amount", req.Amount),
		validation.ValidUPI("to_upi", req.ToUPI),
	); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "fields": errs})
		return
	}
	if req.ToUPI == "" && req.ToUserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "fields": []validation.ValidationError{
			{Field: "to_upi", Message: "either to_upi or to_user_id is required"},
		}})
		return
	}

	sess := s.store.Session()
	fromID := ""
	if sess.User != nil {
		fromID = sess.User.ID
	}

	a := s.engine.Assess(req.Amount)

	ctx, span := traces.StartSpan(c.Request.Context(), "pay.assess",
		traces.UserID(fromID),
		traces.Amount(req.Amount),
		traces.RiskScore(a.Score),
	)
	defer span.End()

	tx := appstate.Transaction{
		ID:            idgen.WithPrefix("tx_"),
		Timestamp:     time.Now().UTC(),
		FromUserID:    fromID,
		ToUserID:      req.ToUserID,
		ToUPI:         req.ToUPI,
		Amount:        req.Amount,
		Currency:      "INR",
		PaymentMethod: appstate.MethodUPI,
		RiskScore:     a.Score,
		Status:        a.Status,
		Action:        a.Action,
		Reasons:       a.Reasons,
		HoldExpiresAt: a.HoldExpiresAt,
		ModelVersion:  a.ModelVersion,
		Shap:          a.Shap,
	}
	s.store.AddTransaction(tx)
	metrics.TransactionsTotal.WithLabelValues(string(tx.Status)).Inc()
	metrics.RiskScore.Observe(float64(tx.RiskScore))

	s.hub.Broadcast(&realtime.Event{
		Type:      realtime.EventTransaction,
		Timestamp: time.Now().UTC(),
		Payload:   tx,
	})

	logging.L(ctx).Info("payment assessed",
		"transactionId", tx.ID,
		"amount", tx.Amount,
		"score", tx.RiskScore,
		"action", tx.Action,
	)

	c.JSON(http.StatusOK, gin.H{
		"transaction_id":    tx.ID,
		"status":            tx.Status,
		"action":            tx.Action,
		"risk_score":        tx.RiskScore,
		"reasons":           tx.Reasons,
		"hold_expires_at":   tx.HoldExpiresAt,
		"hold_seconds_left": countdown.SecondsUntil(tx.HoldExpiresAt, time.Now().UTC()),
		"model_version":     tx.ModelVersion,
	})
}

// payVerifyHandler resolves a challenge verdict: the right OTP releases the
// pending transaction.
func (s *Server) payVerifyHandler(c *gin.Context) {
	var req struct {
		OTP string `json:"otp"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}

	id := c.Param("id")
	tx, ok := s.store.Transaction(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "unknown transaction"})
		return
	}
	if tx.Action != risk.ActionChallenge || tx.Status != risk.StatusPending {
		c.JSON(http.StatusConflict, gin.H{"error": "not_pending_challenge", "message": "transaction is not awaiting OTP"})
		return
	}

	if req.OTP != auth.DemoOTP {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_otp", "message": "invalid OTP"})
		return
	}

	allowed := risk.StatusAllowed
	allow := risk.ActionAllow
	s.store.UpdateTransaction(id, appstate.TransactionUpdate{Status: &allowed, Action: &allow})
	s.broadcastTransaction(id)

	updated, _ := s.store.Transaction(id)
	c.JSON(http.StatusOK, gin.H{"transaction_id": id, "status": updated.Status, "action": updated.Action})
}

// payOverrideHandler lifts a block verdict with the platform PIN.
func (s *Server) payOverrideHandler(c *gin.Context) {
	var req struct {
		PIN string `json:"pin"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}

	id := c.Param("id")
	tx, ok := s.store.Transaction(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "unknown transaction"})
		return
	}
	if tx.Status != risk.StatusBlocked {
		c.JSON(http.StatusConflict, gin.H{"error": "not_blocked", "message": "transaction is not blocked"})
		return
	}

	if err := s.authSvc.VerifyPIN(req.PIN); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_pin", "message": err.Error()})
		return
	}

	allowed := risk.StatusAllowed
	allow := risk.ActionAllow
	s.store.UpdateTransaction(id, appstate.TransactionUpdate{
		Status: &allowed, Action: &allow, ClearHoldExpiry: true,
	})
	s.broadcastTransaction(id)

	logging.L(c.Request.Context()).Info("block overridden via platform PIN", "transactionId", id)
	updated, _ := s.store.Transaction(id)
	c.JSON(http.StatusOK, gin.H{"transaction_id": id, "status": updated.Status, "action": updated.Action})
}

// -----------------------------------------------------------------------------
// Transactions
// -----------------------------------------------------------------------------

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

func pageLimit(c *gin.Context) int {
	limit := defaultPageSize
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return limit
}

// afterCursor drops everything up to and including the cursor position in a
// most-recent-first list. Items are matched by id; if the cursor item has
// already rotated out of the ring buffer, the timestamp is the fallback.
func afterCursor[T any](items []T, cur *pagination.Cursor, key func(T) (time.Time, string)) []T {
	if cur == nil {
		return items
	}
	for i, it := range items {
		ts, id := key(it)
		if id == cur.ID {
			return items[i+1:]
		}
		if ts.Before(cur.CreatedAt) {
			return items[i:]
		}
	}
	return nil
}

func (s *Server) listTransactionsHandler(c *gin.Context) {
	cur, err := pagination.Decode(c.Query("cursor"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_cursor", "message": err.Error()})
		return
	}
	limit := pageLimit(c)

	txKey := func(tx appstate.Transaction) (time.Time, string) { return tx.Timestamp, tx.ID }
	txs := afterCursor(s.store.Transactions(), cur, txKey)
	if len(txs) > limit+1 {
		txs = txs[:limit+1]
	}
	page, next, more := pagination.ComputePage(txs, limit, txKey)

	c.JSON(http.StatusOK, gin.H{
		"transactions": page,
		"count":        len(page),
		"next_cursor":  next,
		"has_more":     more,
	})
}

func (s *Server) getTransactionHandler(c *gin.Context) {
	tx, ok := s.store.Transaction(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "unknown transaction"})
		return
	}
	c.JSON(http.StatusOK, tx)
}

// transactionActionHandler applies an admin triage decision.
func (s *Server) transactionActionHandler(c *gin.Context) {
	var req struct {
		Action string `json:"action"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}

	id := c.Param("id")
	tx, ok := s.store.Transaction(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "unknown transaction"})
		return
	}

	switch req.Action {
	case "confirm":
		allowed := risk.StatusAllowed
		allow := risk.ActionAllow
		s.store.UpdateTransaction(id, appstate.TransactionUpdate{
			Status: &allowed, Action: &allow, ClearHoldExpiry: true,
		})

	case "hold":
		onHold := risk.StatusOnHold
		hold := risk.ActionHold
		expiry := time.Now().UTC().Add(time.Duration(s.settingsSvc.Get().HoldTimerSeconds) * time.Second)
		s.store.UpdateTransaction(id, appstate.TransactionUpdate{
			Status: &onHold, Action: &hold, HoldExpiresAt: &expiry,
		})

	case "block":
		blocked := risk.StatusBlocked
		block := risk.ActionBlock
		s.store.UpdateTransaction(id, appstate.TransactionUpdate{
			Status: &blocked, Action: &block, ClearHoldExpiry: true,
		})

	case "escalate":
		// Escalation raises a high-priority alert; the verdict stands.
		alert := appstate.Alert{
			ID:            idgen.WithPrefix("alr_"),
			TransactionID: tx.ID,
			UserID:        tx.FromUserID,
			Priority:      appstate.PriorityHigh,
			Type:          "escalation",
			Message:       "Escalated by admin for manual review",
			Timestamp:     time.Now().UTC(),
		}
		s.store.AddAlert(alert)
		metrics.AlertsTotal.WithLabelValues(string(alert.Priority)).Inc()
		s.hub.Broadcast(&realtime.Event{
			Type:      realtime.EventAlertUpdate,
			Timestamp: time.Now().UTC(),
			Payload:   alert,
		})
		c.JSON(http.StatusOK, gin.H{"transaction_id": id, "escalated": true, "alert_id": alert.ID})
		return

	case "release":
		if tx.Status != risk.StatusOnHold {
			c.JSON(http.StatusConflict, gin.H{"error": "not_on_hold", "message": "only held transactions can be released"})
			return
		}
		allowed := risk.StatusAllowed
		allow := risk.ActionAllow
		s.store.UpdateTransaction(id, appstate.TransactionUpdate{
			Status: &allowed, Action: &allow, ClearHoldExpiry: true,
		})

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_action", "message": "action must be one of confirm, hold, block, escalate, release"})
		return
	}

	s.broadcastTransaction(id)
	updated, _ := s.store.Transaction(id)
	c.JSON(http.StatusOK, gin.H{"transaction_id": id, "status": updated.Status, "action": updated.Action})
}

func (s *Server) broadcastTransaction(id string) {
	tx, ok := s.store.Transaction(id)
	if !ok {
		return
	}
	s.hub.Broadcast(&realtime.Event{
		Type:      realtime.EventTransaction,
		Timestamp: time.Now().UTC(),
		Payload:   tx,
	})
}

// -----------------------------------------------------------------------------
// Alerts
// -----------------------------------------------------------------------------

func (s *Server) listAlertsHandler(c *gin.Context) {
	cur, err := pagination.Decode(c.Query("cursor"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_cursor", "message": err.Error()})
		return
	}
	limit := pageLimit(c)

	alerts := s.store.Alerts()
	if priority := c.Query("priority"); priority != "" {
		filtered := alerts[:0]
		for _, a := range alerts {
			if string(a.Priority) == priority {
				filtered = append(filtered, a)
			}
		}
		alerts = filtered
	}

	alertKey := func(a appstate.Alert) (time.Time, string) { return a.Timestamp, a.ID }
	alerts = afterCursor(alerts, cur, alertKey)
	if len(alerts) > limit+1 {
		alerts = alerts[:limit+1]
	}
	page, next, more := pagination.ComputePage(alerts, limit, alertKey)

	c.JSON(http.StatusOK, gin.H{
		"alerts":      page,
		"count":       len(page),
		"next_cursor": next,
		"has_more":    more,
	})
}

func (s *Server) resolveAlertHandler(c *gin.Context) {
	var req struct {
		FalsePositive bool `json:"false_positive"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}

	sess := s.store.Session()
	by := "admin"
	if sess.User != nil {
		by = sess.User.ID
	}

	id := c.Param("id")
	resolved := true
	now := time.Now().UTC()
	update := appstate.AlertUpdate{
		Resolved:   &resolved,
		ResolvedBy: &by,
		ResolvedAt: &now,
	}
	if req.FalsePositive {
		update.FalsePositive = &req.FalsePositive
	}

	if !s.store.UpdateAlert(id, update) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "unknown alert"})
		return
	}

	s.hub.Broadcast(&realtime.Event{
		Type:      realtime.EventAlertUpdate,
		Timestamp: now,
		Payload:   gin.H{"alert_id": id, "resolved": true, "false_positive": req.FalsePositive},
	})

	c.JSON(http.StatusOK, gin.H{"alert_id": id, "resolved": true})
}

// -----------------------------------------------------------------------------
// Dashboards
// -----------------------------------------------------------------------------

func (s *Server) kpisHandler(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.KPIMetrics())
}

func (s *Server) analyticsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, s.analyticsSvc.Data())
}

func (s *Server) modelInsightsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, s.analyticsSvc.Insights())
}

// -----------------------------------------------------------------------------
// Settings
// -----------------------------------------------------------------------------

func (s *Server) getSettingsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"settings": s.settingsSvc.Get(),
		"theme":    s.settingsSvc.Theme(),
	})
}

func (s *Server) updateSettingsHandler(c *gin.Context) {
	var patch settings.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}

	updated, err := s.settingsSvc.Update(c.Request.Context(), patch)
	if err != nil {
		// Threshold ordering violations are a semantic error, not a syntax one.
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid_settings", "message": err.Error()})
		return
	}

	// Propagate to the live risk engine and the app state snapshot.
	if err := s.engine.SetThresholds(updated.Thresholds); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid_thresholds", "message": err.Error()})
		return
	}
	s.engine.SetHoldDuration(time.Duration(updated.HoldTimerSeconds) * time.Second)
	s.store.UpdateSettings(updated)

	logging.L(c.Request.Context()).Info("settings updated",
		"thresholds", updated.Thresholds,
		"holdTimerSeconds", updated.HoldTimerSeconds,
	)

	c.JSON(http.StatusOK, gin.H{"settings": updated})
}

func (s *Server) exportSettingsHandler(c *gin.Context) {
	c.Header("Content-Type", "application/json")
	c.Header("Content-Disposition", `attachment; filename="aegispay-settings.json"`)
	if err := s.settingsSvc.Export(c.Writer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export_failed", "message": err.Error()})
	}
}

func (s *Server) themeHandler(c *gin.Context) {
	var req struct {
		Theme string `json:"theme"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}

	if req.Theme != "dark" && req.Theme != "light" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_theme", "message": "theme must be dark or light"})
		return
	}

	// The store observer persists the change through the settings service.
	s.store.SetTheme(req.Theme)
	c.JSON(http.StatusOK, gin.H{"theme": s.store.Theme()})
}

// -----------------------------------------------------------------------------
// Simulator
// -----------------------------------------------------------------------------

func (s *Server) listScenariosHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"scenarios": feed.Scenarios()})
}

func (s *Server) startSimulationHandler(c *gin.Context) {
	var req struct {
		Scenario string `json:"scenario"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}

	if running, scenario := s.store.Simulation(); running {
		c.JSON(http.StatusConflict, gin.H{"error": "simulation_running", "scenario": scenario})
		return
	}

	if !s.feeder.StartSimulation(feed.Scenario(req.Scenario)) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_scenario", "message": "scenario must be one of card_testing, ato, mule_ring"})
		return
	}

	_, span := traces.StartSpan(c.Request.Context(), "simulation.start", traces.Scenario(req.Scenario))
	span.End()

	c.JSON(http.StatusAccepted, gin.H{"scenario": req.Scenario, "running": true})
}

func (s *Server) stopSimulationHandler(c *gin.Context) {
	s.feeder.StopSimulation()
	c.JSON(http.StatusOK, gin.H{"running": false})
}

// -----------------------------------------------------------------------------
// Users & bank linking
// -----------------------------------------------------------------------------

// supportedBanks mirrors the demo onboarding screen: only Aegis Bank links.
var supportedBanks = map[string]bool{"aegis": true}

func (s *Server) getUserHandler(c *gin.Context) {
	id := c.Param("id")

	if sess := s.store.Session(); sess.User != nil && sess.User.ID == id {
		c.JSON(http.StatusOK, sess.User)
		return
	}

	for _, u := range auth.DemoUsers() {
		if u.ID == id {
			c.JSON(http.StatusOK, u)
			return
		}
	}

	c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "unknown user"})
}

func (s *Server) linkBankHandler(c *gin.Context) {
	var req struct {
		BankID        string `json:"bankId"`
		AccountNumber string `json:"accountNumber"`
		IFSC          string `json:"ifsc"`
		HolderName    string `json:"holderName"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}

	if errs := validation.Validate(
		validation.Required("bankId", req.BankID),
		validation.Required("accountNumber", req.AccountNumber),
		validation.Required("ifsc", req.IFSC),
		validation.Required("holderName", req.HolderName),
		validation.MaxLength("holderName", req.HolderName, 100),
	); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "fields": errs})
		return
	}
	if !validation.IsValidIFSC(req.IFSC) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "fields": []validation.ValidationError{
			{Field: "ifsc", Message: "must be a valid IFSC code"},
		}})
		return
	}
	if !supportedBanks[req.BankID] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported_bank", "message": "Only Aegis Bank is supported for this demo."})
		return
	}

	id := c.Param("id")
	sess := s.store.Session()
	if sess.User == nil || sess.User.ID != id {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "no active session for this user"})
		return
	}

	user := *sess.User
	user.BankAccount = &appstate.BankAccount{
		BankID:        "AEGIS-" + req.AccountNumber,
		BankName:      "Aegis Bank",
		AccountNumber: req.AccountNumber,
		IFSC:          req.IFSC,
		HolderName:    req.HolderName,
		Verified:      true,
	}
	s.store.SetUser(user)

	c.JSON(http.StatusOK, gin.H{"user": user})
}
