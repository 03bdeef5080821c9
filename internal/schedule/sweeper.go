package schedule

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hookloop/hookloop/internal/core"
	"github.com/hookloop/hookloop/internal/domain"
)

// ScheduleRepo persists time based triggers.
type ScheduleRepo interface {
	FindDueSchedules(limit int) (*[]domain.Schedule, error)
	UpdateNextRunAt(id int64, next time.Time) error
	UpdateLastRunAt(id int64, last time.Time) error
}

// RunCreator is the engine's single admission point for trigger events.
type RunCreator interface {
	CreateRun(ctx context.Context, workflowID int64, payload json.RawMessage, source string) (*domain.Run, error)
}

// Sweeper fires due schedules: it creates a run per due schedule and rolls
// nextRunAt forward. Each due item is processed independently so one
// failure cannot block the rest.
type Sweeper struct {
	scheduleRepo ScheduleRepo
	runCreator   RunCreator
	clock        core.Clock
	interval     time.Duration
	batchSize    int
}

func NewSweeper(scheduleRepo ScheduleRepo, runCreator RunCreator, clock core.Clock, interval time.Duration, batchSize int) *Sweeper {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Sweeper{
		scheduleRepo: scheduleRepo,
		runCreator:   runCreator,
		clock:        clock,
		interval:     interval,
		batchSize:    batchSize,
	}
}

// Start blocks, sweeping until the context is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("Starting schedule sweeper", "interval", s.interval.String())
	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Schedule sweeper stopping due to context cancel")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep fires every schedule whose nextRunAt has passed.
func (s *Sweeper) Sweep(ctx context.Context) {
	due, err := s.scheduleRepo.FindDueSchedules(s.batchSize)
	if err != nil {
		slog.Error("Error fetching due schedules", "error", err)
		return
	}

	for _, sched := range *due {
		s.fireOne(ctx, sched)
	}
}

func (s *Sweeper) fireOne(ctx context.Context, sched domain.Schedule) {
	now := s.clock.Now()

	payload, err := json.Marshal(map[string]any{
		"scheduleId":   sched.ID,
		"scheduleType": sched.ScheduleType,
		"scheduledFor": sched.NextRunAt.UTC().Format(time.RFC3339),
		"firedAt":      now.UTC().Format(time.RFC3339),
	})
	if err != nil {
		slog.ErrorContext(ctx, "Error encoding schedule payload", "schedule_id", sched.ID, "error", err)
		return
	}

	if _, err := s.runCreator.CreateRun(ctx, sched.WorkflowID, payload, domain.RunSourceSchedule); err != nil {
		slog.ErrorContext(ctx, "Error creating run for due schedule", "schedule_id", sched.ID, "workflow_id", sched.WorkflowID, "error", err)
		return
	}

	next, err := NextRun(sched, now)
	if err != nil {
		slog.ErrorContext(ctx, "Error computing next run", "schedule_id", sched.ID, "error", err)
		return
	}
	if err := s.scheduleRepo.UpdateNextRunAt(sched.ID, next); err != nil {
		slog.ErrorContext(ctx, "Error saving next run", "schedule_id", sched.ID, "error", err)
		return
	}
	if err := s.scheduleRepo.UpdateLastRunAt(sched.ID, now); err != nil {
		slog.ErrorContext(ctx, "Error saving last run", "schedule_id", sched.ID, "error", err)
	}

	slog.InfoContext(ctx, "Schedule fired", "schedule_id", sched.ID, "workflow_id", sched.WorkflowID, "next_run_at", next)
}
