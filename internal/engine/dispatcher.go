package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/hookloop/hookloop/internal/config"
)

var runQueue chan string // Initialized in Start using system setting

// Dispatcher polls the outbox for pending runs, claims them, and feeds them
// to worker goroutines. Claims use an optimistic UPDATE so several hookloop
// instances can share one database.
type Dispatcher struct {
	runRepo  RunRepo
	executor *ChainExecutor
	workerID string
	wakeup   chan struct{}
}

func NewDispatcher(runRepo RunRepo, executor *ChainExecutor) *Dispatcher {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "hookloop"
	}
	return &Dispatcher{
		runRepo:  runRepo,
		executor: executor,
		workerID: fmt.Sprintf("%s-%d", hostname, os.Getpid()),
		wakeup:   make(chan struct{}, 1),
	}
}

// Start begins polling the outbox at the given interval. It blocks until the
// context is cancelled.
func (d *Dispatcher) Start(ctx context.Context, pollInterval time.Duration) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	go d.startStaleClaimRepair(ctx)

	queueSize := config.GetSystemSettingInteger(config.ENGINE_BATCH_SIZE)
	if queueSize <= 0 {
		queueSize = 10 // fallback default
	}
	runQueue = make(chan string, queueSize)

	workers := config.GetSystemSettingInteger(config.ENGINE_WORKER_SIZE)
	slog.Info("Starting run engine", "workers", workers, "queue_size", queueSize)
	for i := 0; i < workers; i++ {
		go Worker(ctx, i, d.executor, runQueue)
	}

	slog.Info("Run engine started", "poll_interval", pollInterval.String(), "worker_id", d.workerID)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Run engine stopping due to context cancel")
			return
		case <-ticker.C:
			d.pollAndDispatch(ctx)
		case <-d.wakeup:
			d.pollAndDispatch(ctx)
		}
	}
}

// pollAndDispatch queries the outbox for pending entries and queues the ones
// this instance manages to claim.
func (d *Dispatcher) pollAndDispatch(ctx context.Context) {
	slog.Debug("Polling outbox for pending runs")

	batchSize := config.GetSystemSettingInteger(config.ENGINE_BATCH_SIZE)
	if len(runQueue) >= batchSize {
		slog.Warn("run queue full, skipping outbox poll, possibly slow or stuck actions")
		return
	}

	entries, err := d.runRepo.FindPendingOutbox(batchSize)
	if err != nil {
		slog.Error("Error fetching pending outbox entries", "error", err)
		return
	}

	for _, entry := range *entries {
		if !d.runRepo.ClaimOutboxEntry(entry.RunID, d.workerID) {
			slog.InfoContext(ctx, "Unable to claim outbox entry, possibly picked up by another instance", "run_id", entry.RunID)
			continue
		}
		slog.InfoContext(ctx, "Claimed run, adding to execution channel", "run_id", entry.RunID)
		runQueue <- entry.RunID
	}
}

// startStaleClaimRepair periodically releases outbox claims held by instances
// that died mid-execution so another instance can pick the runs up again.
func (d *Dispatcher) startStaleClaimRepair(ctx context.Context) {
	ticker := time.NewTicker(staleClaimInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stale claim repair stopping due to context cancel")
			return
		case <-ticker.C:
			requeued, err := d.runRepo.RequeueStaleClaims(
				config.GetSystemSettingInteger(config.ENGINE_STALE_CLAIM_AFTER_MINUTES))
			if err != nil {
				slog.Error("Error requeueing stale outbox claims", "error", err)
				continue
			}
			if requeued > 0 {
				slog.Warn("Requeued stale outbox claims", "count", requeued)
			}
		}
	}
}

// staleClaimInterval reads the repair sweep interval, falling back to a
// minute when the setting does not parse. NewTicker panics on a zero
// interval, a bad env value must not take the repair goroutine down.
func staleClaimInterval() time.Duration {
	dur, err := time.ParseDuration(config.GetSystemSettingString(config.ENGINE_STALE_CLAIM_INTERVAL))
	if err != nil || dur <= 0 {
		slog.Warn("Invalid stale claim interval setting, using default", "setting", config.GetSystemSettingString(config.ENGINE_STALE_CLAIM_INTERVAL))
		return time.Minute
	}
	return dur
}

func (d *Dispatcher) Wakeup() {
	slog.Debug("Wakeup Dispatcher called")
	select {
	case d.wakeup <- struct{}{}:
	default:
	}
}
