package engine

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hookloop/hookloop/internal/core"
	"github.com/hookloop/hookloop/internal/domain"
	"github.com/hookloop/hookloop/internal/models"
)

// RunCreator is the single admission point for new runs. Every trigger source
// (webhook, poller, schedule) goes through CreateRun, which persists the run
// and its outbox entry in one transaction.
type RunCreator struct {
	runRepo RunRepo
	clock   core.Clock
}

func NewRunCreator(runRepo RunRepo, clock core.Clock) *RunCreator {
	return &RunCreator{
		runRepo: runRepo,
		clock:   clock,
	}
}

// CreateFromEvent admits a generic trigger event. The event's receipt time
// becomes the run's created timestamp so ingestion latency never shifts it.
func (rc *RunCreator) CreateFromEvent(ctx context.Context, event models.TriggerEvent) (*domain.Run, error) {
	created := event.ReceivedAt
	if created.IsZero() {
		created = rc.clock.Now()
	}
	return rc.create(ctx, event.WorkflowID, event.Payload, event.Source, created)
}

func (rc *RunCreator) CreateRun(ctx context.Context, workflowID int64, payload json.RawMessage, source string) (*domain.Run, error) {
	return rc.create(ctx, workflowID, payload, source, rc.clock.Now())
}

func (rc *RunCreator) create(ctx context.Context, workflowID int64, payload json.RawMessage, source string, created time.Time) (*domain.Run, error) {
	run := &domain.Run{
		ID:         uuid.NewString(),
		WorkflowID: workflowID,
		Payload:    string(payload),
		Source:     source,
		Created:    created,
	}
	if err := rc.runRepo.SaveWithOutbox(run); err != nil {
		slog.ErrorContext(ctx, "Failed to save run", "workflow_id", workflowID, "source", source, "error", err)
		return nil, err
	}
	slog.InfoContext(ctx, "Created run", "run_id", run.ID, "workflow_id", workflowID, "source", source)
	return run, nil
}
