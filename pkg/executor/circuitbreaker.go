package executor

import (
	"sync"
	"time"
)

// BreakerState is one of the three circuit-breaker states.
type BreakerState string

const (
	Closed   BreakerState = "closed"
	Open     BreakerState = "open"
	HalfOpen BreakerState = "half_open"
)

// CircuitBreaker guards the executor client against hammering a failing
// executor: after failureThreshold consecutive failures it opens and
// rejects calls until recoveryTimeout elapses, then admits exactly one
// probe call.
type CircuitBreaker struct {
	mu sync.Mutex

	failureThreshold int
	recoveryTimeout  time.Duration

	state       BreakerState
	failures    int
	trippedAt   time.Time
	halfOpenBusy bool
}

// NewCircuitBreaker constructs a breaker in the Closed state.
func NewCircuitBreaker(failureThreshold int, recoveryTimeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		failureThreshold: failureThreshold,
		recoveryTimeout:  recoveryTimeout,
		state:            Closed,
	}
}

// CanAttempt reports whether a call should be let through right now,
// transitioning Open -> HalfOpen when the recovery timeout has elapsed.
// Only one call is admitted per HalfOpen window.
func (b *CircuitBreaker) CanAttempt() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		return true
	case HalfOpen:
		if b.halfOpenBusy {
			return false
		}
		b.halfOpenBusy = true
		return true
	case Open:
		if time.Since(b.trippedAt) >= b.recoveryTimeout {
			b.state = HalfOpen
			b.halfOpenBusy = true
			return true
		}
		return false
	}
	return false
}

// RecordSuccess zeros the failure count. In Closed it is a no-op beyond
// the reset; in HalfOpen it closes the breaker.
func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	b.halfOpenBusy = false
	b.state = Closed
}

// RecordFailure increments the failure count (or, from HalfOpen, trips
// immediately) and opens the breaker once the threshold is reached.
func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.halfOpenBusy = false

	if b.state == HalfOpen {
		b.state = Open
		b.trippedAt = time.Now()
		return
	}

	b.failures++
	if b.failures >= b.failureThreshold {
		b.state = Open
		b.trippedAt = time.Now()
	}
}

// State returns the breaker's current state.
func (b *CircuitBreaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
