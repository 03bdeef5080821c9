package resilience

import (
	"context"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/hookloop/hookloop/internal/core"
)

// Operation is one attempt against an external API. It returns the raw
// result or an error which will be classified.
type Operation func(ctx context.Context) (any, error)

// RetryConfig controls the backoff loop around retryable failures.
type RetryConfig struct {
	MaxRetries        int
	BaseDelay         time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        5,
		BaseDelay:         time.Second,
		MaxDelay:          30 * time.Second,
		BackoffMultiplier: 2,
	}
}

// Executor wraps every external API call with the rate limiter, the circuit
// breaker and a classified retry loop. One Executor guards one external
// service client.
type Executor struct {
	name    string
	limiter *RateLimiter
	breaker *CircuitBreaker
	retry   RetryConfig
	clock   core.Clock
}

func NewExecutor(name string, limiter *RateLimiter, breaker *CircuitBreaker, retry RetryConfig, clock core.Clock) *Executor {
	if retry.MaxRetries <= 0 {
		retry = DefaultRetryConfig()
	}
	return &Executor{name: name, limiter: limiter, breaker: breaker, retry: retry, clock: clock}
}

// Execute runs op under the full resilience policy. Retryable failures are
// retried with exponential backoff and jitter until MaxRetries, then the
// last classified error is surfaced. Non retryable failures surface
// immediately.
func (e *Executor) Execute(ctx context.Context, cost int, op Operation) (any, error) {
	var lastErr *ClassifiedError

	for attempt := 0; attempt <= e.retry.MaxRetries; attempt++ {
		result, cerr := e.attempt(ctx, cost, op)
		if cerr == nil {
			return result, nil
		}
		lastErr = cerr

		if !cerr.Retryable || attempt == e.retry.MaxRetries {
			break
		}

		delay := e.BackoffDelay(attempt)
		if cerr.RetryAfter > 0 {
			delay = cerr.RetryAfter
		}
		slog.InfoContext(ctx, "Retrying external call", "service", e.name, "attempt", attempt+1, "delay", delay.String(), "error_type", string(cerr.Type))
		e.clock.Sleep(delay)
	}

	slog.WarnContext(ctx, "External call failed", "service", e.name, "error_type", string(lastErr.Type), "retryable", lastErr.Retryable)
	return nil, lastErr
}

func (e *Executor) attempt(ctx context.Context, cost int, op Operation) (any, *ClassifiedError) {
	// Breaker check happens before anything touches the network.
	if e.breaker != nil && !e.breaker.CanProceed() {
		return nil, &ClassifiedError{
			Type:       ErrorCircuitOpen,
			Message:    "circuit breaker open for " + e.name,
			Retryable:  true,
			RetryAfter: e.breaker.timeout,
		}
	}

	if e.limiter != nil {
		if allowed, wait := e.limiter.CanProceed(cost); !allowed {
			return nil, &ClassifiedError{
				Type:       ErrorRateLimitExceeded,
				Message:    "local rate limit window full for " + e.name,
				Retryable:  true,
				RetryAfter: wait,
			}
		}
	}

	result, err := op(ctx)
	if e.limiter != nil {
		e.limiter.Record(cost)
	}

	if err != nil {
		cerr := Classify(err)
		if e.breaker != nil {
			e.breaker.RecordFailure()
		}
		return nil, cerr
	}

	if e.breaker != nil {
		e.breaker.RecordSuccess()
	}
	return result, nil
}

// BackoffDelay computes min(base * multiplier^attempt, max) plus up to 10%
// random jitter.
func (e *Executor) BackoffDelay(attempt int) time.Duration {
	base := float64(e.retry.BaseDelay) * math.Pow(e.retry.BackoffMultiplier, float64(attempt))
	if capped := float64(e.retry.MaxDelay); base > capped {
		base = capped
	}
	jitter := base * 0.1 * rand.Float64()
	return time.Duration(base + jitter)
}
