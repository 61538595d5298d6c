package policy

import (
	"testing"
	"time"
)

// S5 from spec §8: initial=100ms, multiplier=2.0, max=30s, max_retries=3,
// jitter=0 → 100ms, 200ms, 400ms, then absent.
func TestRetry_Schedule(t *testing.T) {
	r := NewRetry(RetryConfig{
		Initial:        100 * time.Millisecond,
		Multiplier:     2.0,
		Max:            30 * time.Second,
		MaxRetries:     3,
		JitterFraction: 0,
	})

	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond}
	for i, w := range want {
		got, ok := r.NextDelay(i + 1)
		if !ok {
			t.Fatalf("attempt %d: expected a delay, got absent", i+1)
		}
		if got != w {
			t.Errorf("attempt %d: delay = %v, want %v", i+1, got, w)
		}
	}

	if _, ok := r.NextDelay(4); ok {
		t.Errorf("attempt 4: expected absent after max_retries=3")
	}
}

func TestRetry_CapsAtMax(t *testing.T) {
	r := NewRetry(RetryConfig{
		Initial:        1 * time.Second,
		Multiplier:     10.0,
		Max:            5 * time.Second,
		MaxRetries:     5,
		JitterFraction: 0,
	})
	got, ok := r.NextDelay(3)
	if !ok {
		t.Fatal("expected a delay")
	}
	if got != 5*time.Second {
		t.Errorf("delay = %v, want capped at 5s", got)
	}
}

// Universal invariant 6 from spec §8.
func TestRetry_NonDecreasingUntilCapped(t *testing.T) {
	r := NewRetry(RetryConfig{
		Initial:        50 * time.Millisecond,
		Multiplier:     1.5,
		Max:            1 * time.Second,
		MaxRetries:     10,
		JitterFraction: 0,
	})
	var prev time.Duration
	var sum time.Duration
	for attempt := 1; attempt <= r.MaxRetries(); attempt++ {
		d, ok := r.NextDelay(attempt)
		if !ok {
			t.Fatalf("attempt %d unexpectedly absent", attempt)
		}
		if d < prev {
			t.Errorf("attempt %d: delay %v decreased from %v", attempt, d, prev)
		}
		prev = d
		sum += d
	}
	if sum > time.Duration(r.MaxRetries())*1*time.Second {
		t.Errorf("sum of delays %v exceeds max_retries*max_backoff", sum)
	}
}
