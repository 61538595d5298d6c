package policy

import (
	"sync"
	"time"
)

// CircuitState is the closed tag set a CircuitBreaker inhabits.
type CircuitState int

const (
	Closed CircuitState = iota
	Open
	HalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case Open:
		return "Open"
	case HalfOpen:
		return "HalfOpen"
	default:
		return "Closed"
	}
}

// CircuitConfig parameterizes CircuitBreaker.
type CircuitConfig struct {
	FailureThreshold int
	SuccessThreshold int
	OpenDuration     time.Duration
}

// DefaultCircuitConfig trips after 5 consecutive failures, requires 2
// consecutive half-open successes to close, and waits 30s before probing.
var DefaultCircuitConfig = CircuitConfig{
	FailureThreshold: 5,
	SuccessThreshold: 2,
	OpenDuration:     30 * time.Second,
}

// CircuitBreaker guards a single transport. State is shared across all
// concurrent callers, per spec §4.7 — mutex-guarded, same short-critical-
// section shape as the teacher's EventWatcher poll state.
type CircuitBreaker struct {
	cfg  CircuitConfig
	mu   sync.Mutex
	state CircuitState

	consecutiveFailures int
	halfOpenSuccesses   int
	openSince           time.Time
	probeInFlight       bool
}

// NewCircuitBreaker builds a breaker starting Closed.
func NewCircuitBreaker(cfg CircuitConfig) *CircuitBreaker {
	return &CircuitBreaker{cfg: cfg, state: Closed}
}

// State returns the current state, transitioning Open→HalfOpen first if
// OpenDuration has elapsed.
func (b *CircuitBreaker) State() CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maybeExpireOpen()
	return b.state
}

// maybeExpireOpen must be called with mu held.
func (b *CircuitBreaker) maybeExpireOpen() {
	if b.state == Open && time.Since(b.openSince) >= b.cfg.OpenDuration {
		b.state = HalfOpen
		b.halfOpenSuccesses = 0
		b.probeInFlight = false
	}
}

// AllowRequest reports whether a call may proceed now, and whether it is
// serving as the single concurrent HalfOpen probe. Per spec §4.6 step 2,
// concurrent probes must be serialized: only one caller at a time may
// attempt a HalfOpen probe.
func (b *CircuitBreaker) AllowRequest() (allowed bool, isProbe bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maybeExpireOpen()

	switch b.state {
	case Closed:
		return true, false
	case HalfOpen:
		if b.probeInFlight {
			return false, false
		}
		b.probeInFlight = true
		return true, true
	default: // Open
		return false, false
	}
}

// RecordSuccess updates breaker state after a successful terminal outcome.
func (b *CircuitBreaker) RecordSuccess(wasProbe bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case HalfOpen:
		b.probeInFlight = false
		b.halfOpenSuccesses++
		if b.halfOpenSuccesses >= b.cfg.SuccessThreshold {
			b.state = Closed
			b.consecutiveFailures = 0
			b.halfOpenSuccesses = 0
		}
	case Closed:
		b.consecutiveFailures = 0
	}
}

// RecordFailure updates breaker state after a failed terminal outcome.
func (b *CircuitBreaker) RecordFailure(wasProbe bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case HalfOpen:
		b.probeInFlight = false
		b.trip()
	case Closed:
		b.consecutiveFailures++
		if b.consecutiveFailures >= b.cfg.FailureThreshold {
			b.trip()
		}
	}
}

// trip must be called with mu held.
func (b *CircuitBreaker) trip() {
	b.state = Open
	b.openSince = time.Now()
	b.halfOpenSuccesses = 0
}
