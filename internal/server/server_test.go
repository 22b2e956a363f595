package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aegispay/aegispay/internal/appstate"
	"github.com/aegispay/aegispay/internal/config"
	"github.com/aegispay/aegispay/internal/risk"
	"github.com/aegispay/aegispay/internal/settings"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testConfig returns a minimal config for testing
func testConfig() *config.Config {
	return &config.Config{
		Port:          "0",
		Env:           "development",
		LogLevel:      "error",
		FeedInterval:  3 * time.Second,
		SweepInterval: time.Second,
		AdminID:       "123",
		AdminPassword: "G!7rX9$Qw#Z8!",
		RateLimitRPS:  10000,
	}
}

// newTestServer creates a server backed by in-memory settings
func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := New(testConfig(), WithSettingsStore(settings.NewMemoryStore()))
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}
	return s
}

func doJSON(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	s.router.ServeHTTP(w, req)
	return w
}

func parseJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v (%s)", err, w.Body.String())
	}
	return resp
}

// ---------------------------------------------------------------------------
// Health endpoint tests
// ---------------------------------------------------------------------------

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, "GET", "/health", "")
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}

	resp := parseJSON(t, w)
	if resp["status"] != "healthy" {
		t.Errorf("Expected status 'healthy', got %v", resp["status"])
	}
}

func TestReadinessEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, "GET", "/health/ready", "")

	// Server hasn't called Run() so ready is false
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 (not ready), got %d", w.Code)
	}
}

func TestReadinessGatedOnBackgroundLoops(t *testing.T) {
	s := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for !s.ready.Load() {
		if time.Now().After(deadline) {
			t.Fatal("server never became ready")
		}
		time.Sleep(10 * time.Millisecond)
	}

	// Ready implies the feed and sweeper loops are live, not just scheduled.
	if !s.feeder.Running() || !s.sweeper.Running() {
		t.Error("ready reported before background loops were running")
	}

	w := doJSON(t, s, "GET", "/health/ready", "")
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 once ready, got %d", w.Code)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned error on shutdown: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not shut down")
	}
}

// ---------------------------------------------------------------------------
// Route registration tests
// ---------------------------------------------------------------------------

func TestCoreRoutesRegistered(t *testing.T) {
	s := newTestServer(t)

	routes := s.router.Routes()
	expected := []string{
		"GET:/health",
		"GET:/metrics",
		"GET:/ws",
		"POST:/v1/auth/login",
		"POST:/v1/auth/admin/login",
		"POST:/v1/auth/otp/verify",
		"POST:/v1/pay",
		"POST:/v1/pay/:id/verify",
		"POST:/v1/pay/:id/override",
		"GET:/v1/transactions",
		"POST:/v1/transactions/:id/action",
		"GET:/v1/alerts",
		"POST:/v1/alerts/:id/resolve",
		"GET:/v1/kpis",
		"GET:/v1/analytics",
		"GET:/v1/model/insights",
		"GET:/v1/settings",
		"PUT:/v1/settings",
		"GET:/v1/simulate/scenarios",
		"POST:/v1/simulate",
		"DELETE:/v1/simulate",
		"POST:/v1/users/:id/bank",
	}

	routeSet := make(map[string]bool)
	for _, route := range routes {
		routeSet[route.Method+":"+route.Path] = true
	}

	for _, e := range expected {
		if !routeSet[e] {
			t.Errorf("Core route %s not registered", e)
		}
	}
}

// ---------------------------------------------------------------------------
// Auth flow tests
// ---------------------------------------------------------------------------

func TestAdminLogin(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, "POST", "/v1/auth/admin/login", `{"adminId":"123","password":"G!7rX9$Qw#Z8!"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	resp := parseJSON(t, w)
	if resp["token"] == nil || resp["token"] == "" {
		t.Error("Expected token in login response")
	}
	if !s.store.Session().IsAdmin {
		t.Error("Session should be admin after admin login")
	}
}

func TestAdminLoginWrongPassword(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, "POST", "/v1/auth/admin/login", `{"adminId":"123","password":"wrong"}`)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", w.Code)
	}

	resp := parseJSON(t, w)
	if resp["attemptsRemaining"] == nil {
		t.Error("Expected attemptsRemaining in failure response")
	}
}

func TestPublicLoginOTPFlow(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, "POST", "/v1/auth/login", `{"email":"pro@example.com","password":"ProUser!2025"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if s.store.Session().Authenticated {
		t.Error("Session must not be authenticated before OTP")
	}

	// Wrong OTP is retryable
	w = doJSON(t, s, "POST", "/v1/auth/otp/verify", `{"otp":"000000"}`)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for wrong OTP, got %d", w.Code)
	}

	w = doJSON(t, s, "POST", "/v1/auth/otp/verify", `{"otp":"123456"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !s.store.Session().Authenticated {
		t.Error("Session should be authenticated after OTP")
	}
}

func TestOTPWithoutPendingLogin(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, "POST", "/v1/auth/otp/verify", `{"otp":"123456"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409, got %d", w.Code)
	}
}

func TestLockoutReturns423(t *testing.T) {
	s := newTestServer(t)

	for i := 0; i < 5; i++ {
		doJSON(t, s, "POST", "/v1/auth/admin/login", `{"adminId":"123","password":"wrong"}`)
	}

	// Even correct credentials are rejected while locked
	w := doJSON(t, s, "POST", "/v1/auth/admin/login", `{"adminId":"123","password":"G!7rX9$Qw#Z8!"}`)
	if w.Code != http.StatusLocked {
		t.Errorf("Expected 423, got %d", w.Code)
	}

	resp := parseJSON(t, w)
	if resp["lockedUntil"] == nil {
		t.Error("Expected lockedUntil in lockout response")
	}
}

func TestLoginValidation(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, "POST", "/v1/auth/login", `{"email":"not-an-email","password":"x"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}

	resp := parseJSON(t, w)
	if resp["fields"] == nil {
		t.Error("Expected field details in validation error")
	}
}

// ---------------------------------------------------------------------------
// Pay flow tests
// ---------------------------------------------------------------------------

func TestPaySmallAmountAllowed(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, "POST", "/v1/pay", `{"to_upi":"merchant@upi","amount":500}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	resp := parseJSON(t, w)
	if resp["status"] != "allowed" {
		t.Errorf("Small amount should be allowed, got %v (score %v)", resp["status"], resp["risk_score"])
	}
	if resp["transaction_id"] == nil {
		t.Error("Expected transaction_id in pay response")
	}

	// It landed in the store
	if len(s.store.Transactions()) != 1 {
		t.Errorf("Expected 1 stored transaction, got %d", len(s.store.Transactions()))
	}
}

func TestPayValidation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"zero amount", `{"to_upi":"merchant@upi","amount":0}`},
		{"negative amount", `{"to_upi":"merchant@upi","amount":-50}`},
		{"bad upi", `{"to_upi":"not a upi handle","amount":500}`},
		{"no recipient", `{"amount":500}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, s, "POST", "/v1/pay", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}

func seedTransaction(s *Server, id string, status risk.Status, action risk.Action) {
	s.store.AddTransaction(appstate.Transaction{
		ID:         id,
		Timestamp:  time.Now().UTC(),
		FromUserID: "u_101",
		Amount:     30000,
		Currency:   "INR",
		RiskScore:  55,
		Status:     status,
		Action:     action,
	})
}

func TestPayVerifyResolvesChallenge(t *testing.T) {
	s := newTestServer(t)
	seedTransaction(s, "tx_challenge1", risk.StatusPending, risk.ActionChallenge)

	// Wrong OTP
	w := doJSON(t, s, "POST", "/v1/pay/tx_challenge1/verify", `{"otp":"000000"}`)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for wrong OTP, got %d", w.Code)
	}

	// Right OTP releases the transaction
	w = doJSON(t, s, "POST", "/v1/pay/tx_challenge1/verify", `{"otp":"123456"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	tx, _ := s.store.Transaction("tx_challenge1")
	if tx.Status != risk.StatusAllowed || tx.Action != risk.ActionAllow {
		t.Errorf("Expected allowed/allow, got %s/%s", tx.Status, tx.Action)
	}
}

func TestPayVerifyOnNonChallenge(t *testing.T) {
	s := newTestServer(t)
	seedTransaction(s, "tx_ok1", risk.StatusAllowed, risk.ActionAllow)

	w := doJSON(t, s, "POST", "/v1/pay/tx_ok1/verify", `{"otp":"123456"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409, got %d", w.Code)
	}
}

func TestPayOverrideLiftsBlock(t *testing.T) {
	s := newTestServer(t)
	seedTransaction(s, "tx_blocked1", risk.StatusBlocked, risk.ActionBlock)

	// Wrong PIN
	w := doJSON(t, s, "POST", "/v1/pay/tx_blocked1/override", `{"pin":"000000"}`)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for wrong PIN, got %d", w.Code)
	}

	// Platform PIN lifts the block
	w = doJSON(t, s, "POST", "/v1/pay/tx_blocked1/override", `{"pin":"864291"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	tx, _ := s.store.Transaction("tx_blocked1")
	if tx.Status != risk.StatusAllowed {
		t.Errorf("Expected allowed after override, got %s", tx.Status)
	}
}

func TestPayVerifyUnknownTransaction(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, "POST", "/v1/pay/tx_missing/verify", `{"otp":"123456"}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}

// ---------------------------------------------------------------------------
// Transaction triage tests
// ---------------------------------------------------------------------------

func TestTransactionActions(t *testing.T) {
	tests := []struct {
		action     string
		wantStatus risk.Status
		wantAction risk.Action
	}{
		{"confirm", risk.StatusAllowed, risk.ActionAllow},
		{"hold", risk.StatusOnHold, risk.ActionHold},
		{"block", risk.StatusBlocked, risk.ActionBlock},
	}

	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			s := newTestServer(t)
			seedTransaction(s, "tx_triage", risk.StatusPending, risk.ActionChallenge)

			w := doJSON(t, s, "POST", "/v1/transactions/tx_triage/action", `{"action":"`+tt.action+`"}`)
			if w.Code != http.StatusOK {
				t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
			}

			tx, _ := s.store.Transaction("tx_triage")
			if tx.Status != tt.wantStatus || tx.Action != tt.wantAction {
				t.Errorf("Expected %s/%s, got %s/%s", tt.wantStatus, tt.wantAction, tx.Status, tx.Action)
			}
			if tt.action == "hold" && tx.HoldExpiresAt == nil {
				t.Error("Hold action should set an expiry")
			}
			if tt.action != "hold" && tx.HoldExpiresAt != nil {
				t.Error("Non-hold actions should clear the expiry")
			}
		})
	}
}

func TestEscalateCreatesAlert(t *testing.T) {
	s := newTestServer(t)
	seedTransaction(s, "tx_esc", risk.StatusOnHold, risk.ActionHold)

	w := doJSON(t, s, "POST", "/v1/transactions/tx_esc/action", `{"action":"escalate"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	alerts := s.store.Alerts()
	if len(alerts) != 1 {
		t.Fatalf("Expected 1 alert, got %d", len(alerts))
	}
	if alerts[0].Priority != appstate.PriorityHigh {
		t.Errorf("Escalation alert should be high priority, got %s", alerts[0].Priority)
	}

	// The verdict itself is untouched
	tx, _ := s.store.Transaction("tx_esc")
	if tx.Status != risk.StatusOnHold {
		t.Errorf("Escalate should not change status, got %s", tx.Status)
	}
}

func TestReleaseRequiresHold(t *testing.T) {
	s := newTestServer(t)
	seedTransaction(s, "tx_notheld", risk.StatusAllowed, risk.ActionAllow)

	w := doJSON(t, s, "POST", "/v1/transactions/tx_notheld/action", `{"action":"release"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409, got %d", w.Code)
	}
}

func TestUnknownAction(t *testing.T) {
	s := newTestServer(t)
	seedTransaction(s, "tx_a", risk.StatusPending, risk.ActionChallenge)

	w := doJSON(t, s, "POST", "/v1/transactions/tx_a/action", `{"action":"nuke"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
}

func TestListTransactionsPagination(t *testing.T) {
	s := newTestServer(t)
	for i := 0; i < 5; i++ {
		seedTransaction(s, "tx_page"+string(rune('a'+i)), risk.StatusAllowed, risk.ActionAllow)
	}

	w := doJSON(t, s, "GET", "/v1/transactions?limit=2", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	resp := parseJSON(t, w)
	if int(resp["count"].(float64)) != 2 {
		t.Errorf("Expected page of 2, got %v", resp["count"])
	}
	if resp["has_more"] != true {
		t.Error("Expected has_more on first page")
	}

	cursor, _ := resp["next_cursor"].(string)
	if cursor == "" {
		t.Fatal("Expected a next_cursor")
	}

	// Walk the remaining pages
	seen := 2
	for resp["has_more"] == true {
		w = doJSON(t, s, "GET", "/v1/transactions?limit=2&cursor="+cursor, "")
		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", w.Code)
		}
		resp = parseJSON(t, w)
		seen += int(resp["count"].(float64))
		cursor, _ = resp["next_cursor"].(string)
	}
	if seen != 5 {
		t.Errorf("Expected to page through 5 transactions, saw %d", seen)
	}

	w = doJSON(t, s, "GET", "/v1/transactions?cursor=not-base64!", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad cursor, got %d", w.Code)
	}
}

func TestGetTransactionNotFound(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, "GET", "/v1/transactions/tx_missing", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}

// ---------------------------------------------------------------------------
// Alert tests
// ---------------------------------------------------------------------------

func TestResolveAlert(t *testing.T) {
	s := newTestServer(t)
	s.store.AddAlert(appstate.Alert{
		ID:        "alr_1",
		Priority:  appstate.PriorityHigh,
		Type:      "velocity",
		Timestamp: time.Now().UTC(),
	})

	w := doJSON(t, s, "POST", "/v1/alerts/alr_1/resolve", `{"false_positive":true}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	alerts := s.store.Alerts()
	if !alerts[0].Resolved {
		t.Error("Alert should be resolved")
	}
	if !alerts[0].FalsePositive {
		t.Error("False-positive flag should be recorded")
	}
	if alerts[0].ResolvedBy == "" || alerts[0].ResolvedAt == nil {
		t.Error("Resolution audit fields should be set")
	}
}

func TestResolveUnknownAlert(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, "POST", "/v1/alerts/alr_missing/resolve", `{}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}

// ---------------------------------------------------------------------------
// Settings tests
// ---------------------------------------------------------------------------

func TestUpdateSettingsPropagatesToEngine(t *testing.T) {
	s := newTestServer(t)

	body := `{"thresholds":{"allow":10,"challenge":40,"hold":70,"block":100},"holdTimerSeconds":60}`
	w := doJSON(t, s, "PUT", "/v1/settings", body)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	got := s.engine.Thresholds()
	if got.Allow != 10 || got.Challenge != 40 || got.Hold != 70 {
		t.Errorf("Engine thresholds not updated: %+v", got)
	}
	if s.store.Settings().HoldTimerSeconds != 60 {
		t.Errorf("Store settings not updated: %+v", s.store.Settings())
	}
}

func TestUpdateSettingsRejectsBadThresholds(t *testing.T) {
	s := newTestServer(t)

	body := `{"thresholds":{"allow":60,"challenge":25,"hold":85,"block":100}}`
	w := doJSON(t, s, "PUT", "/v1/settings", body)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422, got %d: %s", w.Code, w.Body.String())
	}

	// Previous thresholds stay in effect
	if s.engine.Thresholds() != risk.DefaultThresholds {
		t.Errorf("Engine thresholds should be unchanged, got %+v", s.engine.Thresholds())
	}
}

func TestThemeUpdate(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, "PUT", "/v1/settings/theme", `{"theme":"light"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if s.store.Theme() != "light" {
		t.Errorf("Expected theme light, got %s", s.store.Theme())
	}
	// Observer wrote it through to the settings service
	if s.settingsSvc.Theme() != "light" {
		t.Errorf("Theme should persist through settings service, got %s", s.settingsSvc.Theme())
	}

	w = doJSON(t, s, "PUT", "/v1/settings/theme", `{"theme":"neon"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown theme, got %d", w.Code)
	}
}

func TestSettingsExport(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, "GET", "/v1/settings/export", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), "attachment") {
		t.Error("Export should set attachment disposition")
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("Export is not valid JSON: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Simulator tests
// ---------------------------------------------------------------------------

func TestScenarioCatalog(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, "GET", "/v1/simulate/scenarios", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	resp := parseJSON(t, w)
	scenarios, ok := resp["scenarios"].([]interface{})
	if !ok || len(scenarios) != 3 {
		t.Errorf("Expected 3 scenarios, got %v", resp["scenarios"])
	}
}

func TestSimulationLifecycle(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, "POST", "/v1/simulate", `{"scenario":"card_testing"}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected 202, got %d: %s", w.Code, w.Body.String())
	}

	// A second start while running conflicts
	w = doJSON(t, s, "POST", "/v1/simulate", `{"scenario":"ato"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409, got %d", w.Code)
	}

	w = doJSON(t, s, "DELETE", "/v1/simulate", "")
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
	if running, _ := s.store.Simulation(); running {
		t.Error("Simulation should be stopped")
	}
}

func TestUnknownScenario(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, "POST", "/v1/simulate", `{"scenario":"ddos"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
}

// ---------------------------------------------------------------------------
// User & bank linking tests
// ---------------------------------------------------------------------------

func TestGetDemoUser(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, "GET", "/v1/users/u_101", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	resp := parseJSON(t, w)
	if resp["email"] != "pro@example.com" {
		t.Errorf("Expected pro@example.com, got %v", resp["email"])
	}

	w = doJSON(t, s, "GET", "/v1/users/u_999", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown user, got %d", w.Code)
	}
}

func TestLinkBankOnlyAegis(t *testing.T) {
	s := newTestServer(t)

	// Log in so there is a session user
	doJSON(t, s, "POST", "/v1/auth/login", `{"email":"pro@example.com","password":"ProUser!2025"}`)
	doJSON(t, s, "POST", "/v1/auth/otp/verify", `{"otp":"123456"}`)

	body := `{"bankId":"hdfc","accountNumber":"1234567890","ifsc":"HDFC0001234","holderName":"Priya Sharma"}`
	w := doJSON(t, s, "POST", "/v1/users/u_101/bank", body)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d: %s", w.Code, w.Body.String())
	}
	resp := parseJSON(t, w)
	if resp["message"] != "Only Aegis Bank is supported for this demo." {
		t.Errorf("Unexpected message: %v", resp["message"])
	}

	body = `{"bankId":"aegis","accountNumber":"1234567890","ifsc":"AEGI0001234","holderName":"Priya Sharma"}`
	w = doJSON(t, s, "POST", "/v1/users/u_101/bank", body)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	sess := s.store.Session()
	if sess.User == nil || sess.User.BankAccount == nil {
		t.Fatal("Bank account should be linked on the session user")
	}
	if !sess.User.BankAccount.Verified {
		t.Error("Linked demo account should be marked verified")
	}
}

func TestLinkBankValidation(t *testing.T) {
	s := newTestServer(t)

	body := `{"bankId":"aegis","accountNumber":"1234567890","ifsc":"bad","holderName":"Priya Sharma"}`
	w := doJSON(t, s, "POST", "/v1/users/u_101/bank", body)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad IFSC, got %d", w.Code)
	}
}

// ---------------------------------------------------------------------------
// Dashboard endpoints
// ---------------------------------------------------------------------------

func TestKPIsEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, "GET", "/v1/kpis", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	resp := parseJSON(t, w)
	if _, ok := resp["activeTxPerSecond"]; !ok {
		t.Error("Expected activeTxPerSecond in KPI response")
	}
}

func TestModelInsightsEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, "GET", "/v1/model/insights", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	resp := parseJSON(t, w)
	if resp["model_version"] != "xgb_v2.1" {
		t.Errorf("Expected model_version xgb_v2.1, got %v", resp["model_version"])
	}
}

func TestAnalyticsEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, "GET", "/v1/analytics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	resp := parseJSON(t, w)
	if resp["alertsOverTime"] == nil || resp["riskDistribution"] == nil {
		t.Error("Expected analytics series in response")
	}
}

// ---------------------------------------------------------------------------
// Misc
// ---------------------------------------------------------------------------

func TestMalformedIDRejected(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, "GET", "/v1/transactions/DROP%20TABLE", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for malformed id, got %d", w.Code)
	}
}

func TestNotFoundRoute(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, "GET", "/v1/nonexistent", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}
