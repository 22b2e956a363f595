package settings

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/aegispay/aegispay/internal/risk"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(context.Background(), NewMemoryStore())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func intp(i int) *int          { return &i }
func boolp(b bool) *bool       { return &b }
func strp(s string) *string    { return &s }

func TestDefaultsOnFirstRun(t *testing.T) {
	svc := newTestService(t)

	got := svc.Get()
	if got != Defaults() {
		t.Errorf("first-run settings = %+v, want defaults", got)
	}
	if svc.Theme() != "dark" {
		t.Errorf("first-run theme = %q, want dark", svc.Theme())
	}
}

func TestUpdatePartial(t *testing.T) {
	svc := newTestService(t)

	got, err := svc.Update(context.Background(), Patch{
		HoldTimerSeconds: intp(60),
		MockMode:         boolp(false),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.HoldTimerSeconds != 60 || got.MockMode {
		t.Errorf("update not applied: %+v", got)
	}
	// Untouched fields keep their defaults.
	if got.APIBaseURL != "/api" || got.Thresholds != risk.DefaultThresholds {
		t.Errorf("unrelated fields changed: %+v", got)
	}
}

func TestUpdateEndpointURLs(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	// Relative paths and empty values are the demo defaults and always pass.
	got, err := svc.Update(ctx, Patch{APIBaseURL: strp("/api/v2"), WSURL: strp("")})
	if err != nil {
		t.Fatalf("Update with relative endpoints: %v", err)
	}
	if got.APIBaseURL != "/api/v2" {
		t.Errorf("apiBaseUrl = %q, want /api/v2", got.APIBaseURL)
	}

	// Absolute URLs pointing at internal hosts are rejected and the active
	// settings stay untouched.
	unsafe := []Patch{
		{APIBaseURL: strp("http://localhost:8080/api")},
		{APIBaseURL: strp("http://169.254.169.254/latest")},
		{WSURL: strp("ws://127.0.0.1/ws")},
		{WSURL: strp("wss://10.0.0.5/ws")},
	}
	for _, p := range unsafe {
		if _, err := svc.Update(ctx, p); err == nil {
			t.Errorf("Update(%+v) accepted an internal endpoint", p)
		}
	}
	if svc.Get().APIBaseURL != "/api/v2" || svc.Get().WSURL != "" {
		t.Errorf("rejected update mutated settings: %+v", svc.Get())
	}
}

func TestUpdateRejectsBadThresholds(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Update(context.Background(), Patch{
		Thresholds: &risk.Thresholds{Allow: 70, Challenge: 60, Hold: 85, Block: 100},
	})
	if err == nil {
		t.Fatal("Update accepted non-increasing thresholds")
	}
	if svc.Get().Thresholds != risk.DefaultThresholds {
		t.Errorf("thresholds changed after rejected update: %+v", svc.Get().Thresholds)
	}
}

func TestUpdateRejectsNonPositiveHoldTimer(t *testing.T) {
	svc := newTestService(t)

	if _, err := svc.Update(context.Background(), Patch{HoldTimerSeconds: intp(0)}); err == nil {
		t.Fatal("Update accepted holdTimerSeconds = 0")
	}
}

func TestSettingsSurviveReload(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	svc, err := NewService(ctx, store)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	if _, err := svc.Update(ctx, Patch{WSURL: strp("wss://demo.aegispay.dev/ws")}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := svc.SetTheme(ctx, "light"); err != nil {
		t.Fatalf("SetTheme: %v", err)
	}

	// Simulate a restart against the same store.
	reloaded, err := NewService(ctx, store)
	if err != nil {
		t.Fatalf("NewService (reload): %v", err)
	}
	if reloaded.Get().WSURL != "wss://demo.aegispay.dev/ws" {
		t.Errorf("settings lost across reload: %+v", reloaded.Get())
	}
	if reloaded.Theme() != "light" {
		t.Errorf("theme lost across reload: %q", reloaded.Theme())
	}
}

func TestExportDocument(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	svc := newTestService(t).WithClock(func() time.Time { return now })

	var buf bytes.Buffer
	if err := svc.Export(&buf); err != nil {
		t.Fatalf("Export: %v", err)
	}

	var doc struct {
		ExportedAt   time.Time `json:"exportedAt"`
		Settings     Settings  `json:"settings"`
		Transactions string    `json:"transactions"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if !doc.ExportedAt.Equal(now) {
		t.Errorf("exportedAt = %v, want %v", doc.ExportedAt, now)
	}
	if doc.Transactions != "mock_export" {
		t.Errorf("transactions placeholder = %q, want mock_export", doc.Transactions)
	}
	if doc.Settings.Thresholds != risk.DefaultThresholds {
		t.Errorf("exported thresholds = %+v", doc.Settings.Thresholds)
	}
}
