package engine

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hashicorp/go-multierror"

	"github.com/hookloop/hookloop/internal/actions"
	"github.com/hookloop/hookloop/internal/models"
)

// ChainExecutor runs the action chain of a workflow for a claimed run.
type ChainExecutor struct {
	runRepo      RunRepo
	workflowRepo WorkflowRepo
	registry     *actions.Registry
}

func NewChainExecutor(runRepo RunRepo, workflowRepo WorkflowRepo, registry *actions.Registry) *ChainExecutor {
	return &ChainExecutor{
		runRepo:      runRepo,
		workflowRepo: workflowRepo,
		registry:     registry,
	}
}

// ExecuteRun loads the run and its workflow, executes every action step in
// order, and marks the outbox entry processed. A failing action is recorded
// and the chain continues with the next step. The returned error is reserved
// for infrastructure failures; action errors are reported in the result.
func (ce *ChainExecutor) ExecuteRun(ctx context.Context, runID string) (*models.RunResult, error) {
	run, err := ce.runRepo.FindByID(runID)
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}

	result := &models.RunResult{RunID: runID}

	workflow, err := ce.workflowRepo.FindByID(run.WorkflowID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("load workflow %d: %w", run.WorkflowID, err)
		}
		workflow = nil
	}
	if workflow == nil || !workflow.Active {
		slog.WarnContext(ctx, "Skipping run, workflow missing or inactive", "run_id", runID, "workflow_id", run.WorkflowID)
		result.Skipped = true
		if _, err := ce.runRepo.MarkOutboxProcessed(runID); err != nil {
			return nil, fmt.Errorf("mark outbox processed %s: %w", runID, err)
		}
		return result, nil
	}

	var payload map[string]any
	if run.Payload != "" {
		if err := json.Unmarshal([]byte(run.Payload), &payload); err != nil {
			slog.WarnContext(ctx, "Run payload is not a JSON object, actions see an empty payload", "run_id", runID, "error", err)
		}
	}
	if payload == nil {
		payload = map[string]any{}
	}

	steps, err := ce.workflowRepo.FindActionSteps(run.WorkflowID)
	if err != nil {
		return nil, fmt.Errorf("load action steps for workflow %d: %w", run.WorkflowID, err)
	}

	var merr *multierror.Error
	for _, step := range *steps {
		handler, err := ce.registry.Handler(step.ActionType)
		if err != nil {
			slog.ErrorContext(ctx, "Action step failed", "run_id", runID, "step_id", step.ID, "action_type", step.ActionType, "error", err)
			merr = multierror.Append(merr, fmt.Errorf("step %d (%s): %w", step.ID, step.ActionType, err))
			continue
		}
		slog.InfoContext(ctx, "Executing action step", "run_id", runID, "step_id", step.ID, "action_type", step.ActionType, "sort_order", step.SortOrder)
		if _, err := handler.Execute(ctx, step.Metadata, payload); err != nil {
			slog.ErrorContext(ctx, "Action step failed", "run_id", runID, "step_id", step.ID, "action_type", step.ActionType, "error", err)
			merr = multierror.Append(merr, fmt.Errorf("step %d (%s): %w", step.ID, step.ActionType, err))
			continue
		}
		result.ActionsExecuted++
	}

	for _, err := range merr.WrappedErrors() {
		result.Errors = append(result.Errors, err.Error())
	}

	if _, err := ce.runRepo.MarkOutboxProcessed(runID); err != nil {
		return nil, fmt.Errorf("mark outbox processed %s: %w", runID, err)
	}

	slog.InfoContext(ctx, "Run completed", "run_id", runID,
		"actions_executed", result.ActionsExecuted, "action_errors", len(result.Errors))
	return result, nil
}
