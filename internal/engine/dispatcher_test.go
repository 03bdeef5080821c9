package engine

import (
	"testing"
	"time"

	"github.com/hookloop/hookloop/internal/config"
)

func TestStaleClaimIntervalUsesSetting(t *testing.T) {
	t.Setenv(config.ENGINE_STALE_CLAIM_INTERVAL, "5s")
	if got := staleClaimInterval(); got != 5*time.Second {
		t.Errorf("expected 5s, got %v", got)
	}
}

func TestStaleClaimIntervalFallsBackOnGarbage(t *testing.T) {
	t.Setenv(config.ENGINE_STALE_CLAIM_INTERVAL, "sixty seconds")
	if got := staleClaimInterval(); got != time.Minute {
		t.Errorf("expected fallback of one minute, got %v", got)
	}
}

func TestStaleClaimIntervalFallsBackOnZero(t *testing.T) {
	t.Setenv(config.ENGINE_STALE_CLAIM_INTERVAL, "0s")
	if got := staleClaimInterval(); got != time.Minute {
		t.Errorf("expected fallback of one minute, got %v", got)
	}
}
