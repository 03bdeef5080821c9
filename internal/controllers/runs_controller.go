package controllers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/hookloop/hookloop/internal/domain"
	"github.com/hookloop/hookloop/internal/models"
	"github.com/hookloop/hookloop/internal/util"
)

// RunReader is the read-only surface the API needs for runs.
type RunReader interface {
	FindByID(id string) (*domain.Run, error)
	FindByWorkflow(workflowID int64, limit int) (*[]domain.Run, error)
	IsOutboxProcessed(runID string) (bool, error)
}

type RunsController struct {
	RunRepo RunReader
}

func NewRunsController(runRepo RunReader) *RunsController {
	return &RunsController{RunRepo: runRepo}
}

func (c *RunsController) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	run, err := c.RunRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			util.WriteJSONResponse(w, http.StatusNotFound, models.ApiError{Error: "run not found"})
			return
		}
		slog.Error("Failed to load run", "run_id", id, "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	processed, err := c.RunRepo.IsOutboxProcessed(id)
	if err != nil {
		slog.Error("Failed to load run outbox state", "run_id", id, "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	util.WriteJSONResponse(w, http.StatusOK, toApiRun(run, processed))
}

func (c *RunsController) handleGetWorkflowRuns(w http.ResponseWriter, r *http.Request) {
	workflowID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		util.WriteJSONResponse(w, http.StatusBadRequest, models.ApiError{Error: "invalid workflow id"})
		return
	}

	runs, err := c.RunRepo.FindByWorkflow(workflowID, 50)
	if err != nil {
		slog.Error("Failed to list runs", "workflow_id", workflowID, "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	results := make([]models.ApiRun, 0, len(*runs))
	for i := range *runs {
		run := &(*runs)[i]
		processed, err := c.RunRepo.IsOutboxProcessed(run.ID)
		if err != nil {
			slog.Error("Failed to load run outbox state", "run_id", run.ID, "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		results = append(results, toApiRun(run, processed))
	}

	util.WriteJSONResponse(w, http.StatusOK, results)
}

func toApiRun(run *domain.Run, processed bool) models.ApiRun {
	var payload map[string]any
	if err := json.Unmarshal([]byte(run.Payload), &payload); err != nil {
		payload = map[string]any{}
	}
	return models.ApiRun{
		ID:         run.ID,
		WorkflowID: run.WorkflowID,
		Payload:    payload,
		Source:     run.Source,
		Created:    run.Created,
		Processed:  processed,
	}
}
