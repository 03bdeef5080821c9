package resilience

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hookloop/hookloop/internal/core"
)

func TestRateLimiterAllowsUpToPerSecondLimit(t *testing.T) {
	clock := core.NewFakeClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	limiter := NewRateLimiter(RateLimiterConfig{MaxRequestsPerSecond: 10}, clock)

	for i := 0; i < 10; i++ {
		allowed, _ := limiter.CanProceed(1)
		assert.True(t, allowed, "request %d should be allowed", i+1)
		limiter.Record(1)
	}

	allowed, wait := limiter.CanProceed(1)
	assert.False(t, allowed, "11th request within the same second should be rejected")
	assert.InDelta(t, float64(time.Second), float64(wait), float64(50*time.Millisecond))
}

func TestRateLimiterWindowSlides(t *testing.T) {
	clock := core.NewFakeClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	limiter := NewRateLimiter(RateLimiterConfig{MaxRequestsPerSecond: 2}, clock)

	limiter.Record(1)
	limiter.Record(1)

	allowed, _ := limiter.CanProceed(1)
	assert.False(t, allowed)

	clock.Advance(1100 * time.Millisecond)
	allowed, _ = limiter.CanProceed(1)
	assert.True(t, allowed, "window should be clear after a second has passed")
}

func TestRateLimiterMinuteWindow(t *testing.T) {
	clock := core.NewFakeClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	limiter := NewRateLimiter(RateLimiterConfig{MaxRequestsPerMinute: 3}, clock)

	for i := 0; i < 3; i++ {
		limiter.Record(1)
		clock.Advance(2 * time.Second)
	}

	allowed, wait := limiter.CanProceed(1)
	assert.False(t, allowed)
	// the oldest entry is 6s old, so the window frees up in ~54s
	assert.InDelta(t, float64(54*time.Second), float64(wait), float64(time.Second))
}

func TestRateLimiterCostQuota(t *testing.T) {
	clock := core.NewFakeClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	limiter := NewRateLimiter(RateLimiterConfig{MaxCostPerHour: 100}, clock)

	limiter.Record(60)
	allowed, _ := limiter.CanProceed(40)
	assert.True(t, allowed, "exactly at quota should be allowed")

	limiter.Record(40)
	allowed, _ = limiter.CanProceed(1)
	assert.False(t, allowed, "quota exhausted")
}

func TestRateLimiterZeroLimitsDisabled(t *testing.T) {
	clock := core.NewFakeClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	limiter := NewRateLimiter(RateLimiterConfig{}, clock)

	for i := 0; i < 1000; i++ {
		limiter.Record(5)
	}
	allowed, _ := limiter.CanProceed(5)
	assert.True(t, allowed)
}
