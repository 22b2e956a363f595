package risk

import (
	"math/rand"
	"testing"
	"time"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultThresholds, 180*time.Second)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func TestClassifyBands(t *testing.T) {
	e := newTestEngine(t)

	cases := []struct {
		score  int
		status Status
		action Action
	}{
		{0, StatusAllowed, ActionAllow},
		{24, StatusAllowed, ActionAllow},
		{25, StatusPending, ActionChallenge},
		{59, StatusPending, ActionChallenge},
		{60, StatusOnHold, ActionHold},
		{84, StatusOnHold, ActionHold},
		{85, StatusBlocked, ActionBlock},
		{100, StatusBlocked, ActionBlock},
	}

	for _, tc := range cases {
		a := e.Classify(tc.score)
		if a.Status != tc.status || a.Action != tc.action {
			t.Errorf("Classify(%d) = %s/%s, want %s/%s", tc.score, a.Status, a.Action, tc.status, tc.action)
		}
	}
}

func TestClassifyExactlyOneBranchAndMonotonic(t *testing.T) {
	e := newTestEngine(t)

	prev := -1
	for score := 0; score <= 100; score++ {
		a := e.Classify(score)

		sev := a.Action.Severity()
		if sev < 0 {
			t.Fatalf("Classify(%d) produced unknown action %q", score, a.Action)
		}
		if sev < prev {
			t.Fatalf("severity decreased at score %d: %d -> %d", score, prev, sev)
		}
		prev = sev

		// Only hold verdicts carry an expiry.
		if (a.Action == ActionHold) != (a.HoldExpiresAt != nil) {
			t.Errorf("Classify(%d): action %s, hold_expires_at %v", score, a.Action, a.HoldExpiresAt)
		}
	}
}

func TestClassifyClampsScore(t *testing.T) {
	e := newTestEngine(t)

	low := e.Classify(-10)
	if low.Score != 0 || low.Action != e.Classify(0).Action {
		t.Errorf("Classify(-10) = %d/%s, want behavior of Classify(0)", low.Score, low.Action)
	}

	high := e.Classify(150)
	if high.Score != 100 || high.Action != e.Classify(100).Action {
		t.Errorf("Classify(150) = %d/%s, want behavior of Classify(100)", high.Score, high.Action)
	}
}

func TestClassifyHoldExpiry(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	e := newTestEngine(t).WithClock(func() time.Time { return now })

	a := e.Classify(70)
	if a.Status != StatusOnHold {
		t.Fatalf("Classify(70) status = %s, want on_hold", a.Status)
	}
	want := now.Add(180 * time.Second)
	if a.HoldExpiresAt == nil || !a.HoldExpiresAt.Equal(want) {
		t.Errorf("hold expiry = %v, want %v", a.HoldExpiresAt, want)
	}
}

func TestInvalidThresholdsRejected(t *testing.T) {
	bad := []Thresholds{
		{Allow: 60, Challenge: 25, Hold: 85, Block: 100}, // not increasing
		{Allow: 25, Challenge: 25, Hold: 85, Block: 100}, // allow == challenge
		{Allow: 25, Challenge: 60, Hold: 101, Block: 101},
		{Allow: -1, Challenge: 60, Hold: 85, Block: 100},
	}
	for _, tc := range bad {
		if _, err := NewEngine(tc, time.Minute); err == nil {
			t.Errorf("NewEngine(%+v) accepted invalid thresholds", tc)
		}
	}

	e := newTestEngine(t)
	if err := e.SetThresholds(Thresholds{Allow: 90, Challenge: 10, Hold: 95, Block: 100}); err == nil {
		t.Fatal("SetThresholds accepted invalid thresholds")
	}
	// Previous thresholds stay in effect after a rejected update.
	if e.Thresholds() != DefaultThresholds {
		t.Errorf("thresholds changed after rejected update: %+v", e.Thresholds())
	}
}

func TestScoreBrackets(t *testing.T) {
	e := newTestEngine(t).WithRand(rand.New(rand.NewSource(1)))

	for i := 0; i < 200; i++ {
		if s := e.Score(100); s < 0 || s >= 25 {
			t.Fatalf("Score(100) = %d, want [0,25)", s)
		}
		if s := e.Score(60000); s < 75 {
			t.Fatalf("Score(60000) = %d, want >= 75", s)
		}
		if s := e.Score(30000); s < 50 || s > 80 {
			t.Fatalf("Score(30000) = %d, want [50,80]", s)
		}
		if s := e.Score(10000); s < 25 || s > 55 {
			t.Fatalf("Score(10000) = %d, want [25,55]", s)
		}
	}
}

func TestAssessEndToEnd(t *testing.T) {
	e := newTestEngine(t).WithRand(rand.New(rand.NewSource(42)))

	// High amount always lands in the block band under default thresholds.
	for i := 0; i < 100; i++ {
		a := e.Assess(60000)
		if a.Action != ActionBlock || a.Status != StatusBlocked {
			t.Fatalf("Assess(60000) = %s/%s, want block/blocked", a.Action, a.Status)
		}
	}

	// Small amount always allows.
	for i := 0; i < 100; i++ {
		a := e.Assess(100)
		if a.Action != ActionAllow || a.Status != StatusAllowed {
			t.Fatalf("Assess(100) = %s/%s, want allow/allowed", a.Action, a.Status)
		}
	}
}

func TestReasonsAttachedAboveForty(t *testing.T) {
	e := newTestEngine(t)

	if a := e.Classify(41); len(a.Reasons) == 0 {
		t.Error("Classify(41) carried no reasons")
	}
	if a := e.Classify(40); len(a.Reasons) != 0 {
		t.Errorf("Classify(40) carried reasons %v", a.Reasons)
	}
}
