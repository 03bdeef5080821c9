package poller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bsm/redislock"

	"github.com/hookloop/hookloop/internal/domain"
)

// TriggerRepo lists the poll triggers a sweep visits.
type TriggerRepo interface {
	FindActivePollTriggers() (*[]domain.PollTrigger, error)
}

// RunCreator is the engine's single admission point for trigger events.
type RunCreator interface {
	CreateRun(ctx context.Context, workflowID int64, payload json.RawMessage, source string) (*domain.Run, error)
}

// Sweeper drives a poll cycle over every active trigger on a fixed
// interval. A per trigger redis lock serializes cycles so a slow poll
// cannot overlap the next sweep's poll of the same trigger and race the
// hash writes.
type Sweeper struct {
	triggerRepo TriggerRepo
	runCreator  RunCreator
	poller      *Poller
	locker      *redislock.Client
	sources     map[string]Source
	interval    time.Duration
	lockTTL     time.Duration
}

func NewSweeper(triggerRepo TriggerRepo, runCreator RunCreator, poller *Poller, locker *redislock.Client,
	sources map[string]Source, interval time.Duration) *Sweeper {
	return &Sweeper{
		triggerRepo: triggerRepo,
		runCreator:  runCreator,
		poller:      poller,
		locker:      locker,
		sources:     sources,
		interval:    interval,
		lockTTL:     2 * interval,
	}
}

// Start blocks, sweeping until the context is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("Starting poll sweeper", "interval", s.interval.String(), "sources", len(s.sources))
	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Poll sweeper stopping due to context cancel")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep polls every active trigger once. Failures are isolated per trigger,
// one broken source never aborts the sweep.
func (s *Sweeper) Sweep(ctx context.Context) {
	triggers, err := s.triggerRepo.FindActivePollTriggers()
	if err != nil {
		slog.Error("Error fetching poll triggers", "error", err)
		return
	}

	for _, trigger := range *triggers {
		if err := s.pollOne(ctx, trigger); err != nil {
			slog.ErrorContext(ctx, "Poll failed", "trigger_id", trigger.ID, "workflow_id", trigger.WorkflowID, "error", err)
		}
	}
}

func (s *Sweeper) pollOne(ctx context.Context, trigger domain.PollTrigger) error {
	source, ok := s.sources[trigger.SourceType]
	if !ok {
		return fmt.Errorf("no source registered for type %s", trigger.SourceType)
	}

	if s.locker != nil {
		lock, err := s.locker.Obtain(ctx, fmt.Sprintf("hookloop:poll:%d", trigger.ID), s.lockTTL, nil)
		if errors.Is(err, redislock.ErrNotObtained) {
			slog.InfoContext(ctx, "Skipping poll, previous cycle still running", "trigger_id", trigger.ID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("obtaining poll lock: %w", err)
		}
		defer lock.Release(ctx)
	}

	updated, err := s.poller.Poll(ctx, trigger.ID, trigger.Config, source)
	if err != nil {
		return err
	}

	for _, record := range updated {
		payload, err := json.Marshal(map[string]any{
			"triggerId": trigger.ID,
			"rowKey":    record.RowKey,
			"fields":    record.Fields,
		})
		if err != nil {
			slog.ErrorContext(ctx, "Error encoding updated record", "trigger_id", trigger.ID, "row_key", record.RowKey, "error", err)
			continue
		}
		if _, err := s.runCreator.CreateRun(ctx, trigger.WorkflowID, payload, domain.RunSourcePoller); err != nil {
			slog.ErrorContext(ctx, "Error creating run for updated record", "trigger_id", trigger.ID, "row_key", record.RowKey, "error", err)
		}
	}
	return nil
}
