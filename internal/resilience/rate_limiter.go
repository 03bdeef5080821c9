package resilience

import (
	"sync"
	"time"

	"github.com/hookloop/hookloop/internal/core"
)

// RateLimiterConfig sets the per window request limits and the cumulative
// cost quota over the longest window. A zero limit disables that window.
type RateLimiterConfig struct {
	MaxRequestsPerSecond int
	MaxRequestsPerMinute int
	MaxRequestsPerHour   int
	// MaxCostPerHour bounds the sum of cost units (eg API quota points)
	// recorded in the last hour.
	MaxCostPerHour int
}

type usage struct {
	at   time.Time
	cost int
}

// RateLimiter keeps sliding window counters per second, minute and hour plus
// a cost quota. It rejects rather than queues, returning a suggested wait.
// Counters are scoped to this instance, there is no cross process
// coordination.
type RateLimiter struct {
	mu     sync.Mutex
	cfg    RateLimiterConfig
	clock  core.Clock
	window []usage
}

func NewRateLimiter(cfg RateLimiterConfig, clock core.Clock) *RateLimiter {
	return &RateLimiter{cfg: cfg, clock: clock}
}

// CanProceed reports whether a call costing cost units may be made now. When
// rejected, wait is how long the caller should delay before asking again.
func (l *RateLimiter) CanProceed(cost int) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	l.prune(now)

	if allowed, wait := l.checkWindow(now, time.Second, l.cfg.MaxRequestsPerSecond, 0); !allowed {
		return false, wait
	}
	if allowed, wait := l.checkWindow(now, time.Minute, l.cfg.MaxRequestsPerMinute, 0); !allowed {
		return false, wait
	}
	if allowed, wait := l.checkWindow(now, time.Hour, l.cfg.MaxRequestsPerHour, 0); !allowed {
		return false, wait
	}
	if allowed, wait := l.checkWindow(now, time.Hour, l.cfg.MaxCostPerHour, cost); !allowed {
		return false, wait
	}
	return true, 0
}

// Record notes that a call costing cost units was actually made.
func (l *RateLimiter) Record(cost int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.window = append(l.window, usage{at: l.clock.Now(), cost: cost})
}

// checkWindow validates one sliding window. With cost == 0 it counts
// requests against limit, otherwise it sums cost units and checks that
// adding cost would not exceed limit.
func (l *RateLimiter) checkWindow(now time.Time, span time.Duration, limit int, cost int) (bool, time.Duration) {
	if limit <= 0 {
		return true, 0
	}
	cutoff := now.Add(-span)
	count := 0
	total := 0
	var oldest time.Time
	for _, u := range l.window {
		if u.at.After(cutoff) {
			if oldest.IsZero() {
				oldest = u.at
			}
			count++
			total += u.cost
		}
	}
	exceeded := false
	if cost > 0 {
		exceeded = total+cost > limit
	} else {
		exceeded = count >= limit
	}
	if !exceeded {
		return true, 0
	}
	wait := span
	if !oldest.IsZero() {
		wait = oldest.Add(span).Sub(now)
	}
	if wait < 0 {
		wait = 0
	}
	return false, wait
}

// prune drops usage entries older than the longest configured window so the
// slice stays bounded between checks.
func (l *RateLimiter) prune(now time.Time) {
	cutoff := now.Add(-time.Hour)
	kept := l.window[:0]
	for _, u := range l.window {
		if u.at.After(cutoff) {
			kept = append(kept, u)
		}
	}
	l.window = kept
}
