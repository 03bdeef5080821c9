package resilience

import (
	"sync"
	"time"

	"github.com/hookloop/hookloop/internal/core"
)

type BreakerState string

const (
	BreakerClosed   BreakerState = "CLOSED"
	BreakerOpen     BreakerState = "OPEN"
	BreakerHalfOpen BreakerState = "HALF_OPEN"
)

const (
	defaultFailureThreshold = 5
	defaultBreakerTimeout   = 60 * time.Second
)

// CircuitBreaker fails fast once an external dependency shows consecutive
// failures. State is owned by one resilience instance and is not shared
// across processes.
type CircuitBreaker struct {
	mu               sync.Mutex
	state            BreakerState
	failureCount     int
	lastFailureTime  time.Time
	trialInFlight    bool
	failureThreshold int
	timeout          time.Duration
	clock            core.Clock
}

func NewCircuitBreaker(failureThreshold int, timeout time.Duration, clock core.Clock) *CircuitBreaker {
	if failureThreshold <= 0 {
		failureThreshold = defaultFailureThreshold
	}
	if timeout <= 0 {
		timeout = defaultBreakerTimeout
	}
	return &CircuitBreaker{
		state:            BreakerClosed,
		failureThreshold: failureThreshold,
		timeout:          timeout,
		clock:            clock,
	}
}

// CanProceed reports whether a call may be attempted. When the breaker is
// OPEN and the timeout has elapsed it moves to HALF_OPEN and allows one
// trial call. Further callers are held back until that trial's outcome is
// recorded.
func (b *CircuitBreaker) CanProceed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerOpen:
		if b.clock.Now().Sub(b.lastFailureTime) >= b.timeout {
			b.state = BreakerHalfOpen
			b.trialInFlight = true
			return true
		}
		return false
	case BreakerHalfOpen:
		if b.trialInFlight {
			return false
		}
		b.trialInFlight = true
		return true
	default:
		return true
	}
}

// RecordSuccess resets the breaker, a success in any state forces CLOSED.
func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = BreakerClosed
	b.failureCount = 0
	b.trialInFlight = false
}

// RecordFailure counts a failed call, opening the breaker at the threshold
// or immediately when the HALF_OPEN trial fails.
func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failureCount++
	b.lastFailureTime = b.clock.Now()
	b.trialInFlight = false

	if b.state == BreakerHalfOpen || b.failureCount >= b.failureThreshold {
		b.state = BreakerOpen
	}
}

func (b *CircuitBreaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *CircuitBreaker) FailureCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failureCount
}
