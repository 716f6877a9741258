package composite

import (
	"testing"
	"time"
)

func newTestBreaker(t *testing.T) (*Breaker, *time.Time) {
	t.Helper()
	b := NewBreaker(BreakerSettings{
		Window:     10,
		MinCalls:   5,
		FailurePct: 50,
		Cooldown:   10 * time.Second,
		Probes:     2,
	})
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return clock }
	return b, &clock
}

func TestBreakerStaysClosedBelowMinCalls(t *testing.T) {
	b, _ := newTestBreaker(t)

	for i := 0; i < 4; i++ {
		if !b.Allow() {
			t.Fatal("closed breaker must admit calls")
		}
		b.Record(false)
	}
	if got := b.State(); got != StateClosed {
		t.Fatalf("4 failures under MinCalls=5 should not trip, state %s", got)
	}
}

func TestBreakerTripsAtFailureThreshold(t *testing.T) {
	b, _ := newTestBreaker(t)

	// 3 successes then 2 failures: 5 calls, 40% failures, still closed.
	for i := 0; i < 3; i++ {
		b.Record(true)
	}
	b.Record(false)
	b.Record(false)
	if got := b.State(); got != StateClosed {
		t.Fatalf("40%% failure rate should not trip, state %s", got)
	}

	// One more failure: 6 calls, 3 failures, 50% reached.
	b.Record(false)
	if got := b.State(); got != StateOpen {
		t.Fatalf("50%% failure rate over MinCalls should trip, state %s", got)
	}
	if b.Allow() {
		t.Fatal("open breaker must short-circuit")
	}
}

func TestBreakerSlidingWindowEvictsOldOutcomes(t *testing.T) {
	b, _ := newTestBreaker(t)

	// Two failures spread through a full window of 10: 20%, closed.
	outcomes := []bool{false, true, false, true, true, true, true, true, true, true}
	for _, success := range outcomes {
		b.Record(success)
	}
	if got := b.State(); got != StateClosed {
		t.Fatalf("2 failures in a window of 10 should stay closed, state %s", got)
	}

	// Ten more successes push both failures out of the window; two fresh
	// failures alone are 20%, still closed.
	for i := 0; i < 10; i++ {
		b.Record(true)
	}
	b.Record(false)
	b.Record(false)
	if got := b.State(); got != StateClosed {
		t.Fatalf("evicted failures must not count, state %s", got)
	}
}

func tripBreaker(t *testing.T, b *Breaker) {
	t.Helper()
	for i := 0; i < 5; i++ {
		b.Record(false)
	}
	if got := b.State(); got != StateOpen {
		t.Fatalf("setup: breaker should be open, state %s", got)
	}
}

func TestBreakerHalfOpenAfterCooldown(t *testing.T) {
	b, clock := newTestBreaker(t)
	tripBreaker(t, b)

	*clock = clock.Add(9 * time.Second)
	if b.Allow() {
		t.Fatal("cooldown not elapsed, call must be rejected")
	}

	*clock = clock.Add(2 * time.Second)
	if !b.Allow() {
		t.Fatal("first probe after cooldown must be admitted")
	}
	if got := b.State(); got != StateHalfOpen {
		t.Fatalf("expected half-open, state %s", got)
	}
	if !b.Allow() {
		t.Fatal("second probe must be admitted (Probes=2)")
	}
	if b.Allow() {
		t.Fatal("third call must be rejected while probes are in flight")
	}
}

func TestBreakerProbeSuccessCloses(t *testing.T) {
	b, clock := newTestBreaker(t)
	tripBreaker(t, b)

	*clock = clock.Add(11 * time.Second)
	if !b.Allow() {
		t.Fatal("probe must be admitted")
	}
	b.Record(true)

	if got := b.State(); got != StateClosed {
		t.Fatalf("successful probe should close the breaker, state %s", got)
	}
	if !b.Allow() {
		t.Fatal("closed breaker must admit calls")
	}
}

func TestBreakerProbeFailureReopens(t *testing.T) {
	b, clock := newTestBreaker(t)
	tripBreaker(t, b)

	*clock = clock.Add(11 * time.Second)
	if !b.Allow() {
		t.Fatal("probe must be admitted")
	}
	b.Record(false)

	if got := b.State(); got != StateOpen {
		t.Fatalf("failed probe should reopen the breaker, state %s", got)
	}
	if b.Allow() {
		t.Fatal("reopened breaker must reject until a fresh cooldown elapses")
	}

	// The cooldown restarts from the reopen.
	*clock = clock.Add(11 * time.Second)
	if !b.Allow() {
		t.Fatal("probe after the second cooldown must be admitted")
	}
}

func TestBreakerIgnoresLateResultsWhileOpen(t *testing.T) {
	b, _ := newTestBreaker(t)
	tripBreaker(t, b)

	// Results from calls admitted before the trip land after it.
	b.Record(true)
	b.Record(false)
	if got := b.State(); got != StateOpen {
		t.Fatalf("late results must not move an open breaker, state %s", got)
	}
}
