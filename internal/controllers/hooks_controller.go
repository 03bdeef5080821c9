package controllers

import (
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"golang.org/x/crypto/bcrypt"

	"github.com/hookloop/hookloop/internal/core"
	"github.com/hookloop/hookloop/internal/domain"
	"github.com/hookloop/hookloop/internal/engine"
	"github.com/hookloop/hookloop/internal/models"
	"github.com/hookloop/hookloop/internal/util"
)

const maxHookBodyBytes = 1 << 20

// Waker is anything that can be nudged to poll for new work immediately.
type Waker interface {
	Wakeup()
}

// HooksController ingests webhook payloads. Accepting a hook only persists
// the run, execution happens asynchronously through the outbox.
type HooksController struct {
	WorkflowRepo engine.WorkflowRepo
	RunCreator   *engine.RunCreator
	Waker        Waker
	clock        core.Clock
}

func NewHooksController(workflowRepo engine.WorkflowRepo, runCreator *engine.RunCreator, waker Waker, clock core.Clock) *HooksController {
	return &HooksController{
		WorkflowRepo: workflowRepo,
		RunCreator:   runCreator,
		Waker:        waker,
		clock:        clock,
	}
}

func (c *HooksController) handleCatchHook(w http.ResponseWriter, r *http.Request) {
	workflowID, err := strconv.ParseInt(r.PathValue("workflowId"), 10, 64)
	if err != nil {
		util.WriteJSONResponse(w, http.StatusBadRequest, models.ApiError{Error: "invalid workflow id"})
		return
	}

	workflow, err := c.WorkflowRepo.FindByID(workflowID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			util.WriteJSONResponse(w, http.StatusNotFound, models.ApiError{Error: "workflow not found"})
			return
		}
		slog.Error("Failed to load workflow for hook", "workflow_id", workflowID, "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if !workflow.Active {
		util.WriteJSONResponse(w, http.StatusNotFound, models.ApiError{Error: "workflow not found"})
		return
	}

	if workflow.SecretHash.Valid {
		secret := r.Header.Get("X-Hook-Secret")
		if err := bcrypt.CompareHashAndPassword([]byte(workflow.SecretHash.String), []byte(secret)); err != nil {
			slog.Warn("Hook secret mismatch", "workflow_id", workflowID)
			util.WriteJSONResponse(w, http.StatusUnauthorized, models.ApiError{Error: "invalid hook secret"})
			return
		}
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxHookBodyBytes))
	if err != nil {
		util.WriteJSONResponse(w, http.StatusBadRequest, models.ApiError{Error: "unable to read body"})
		return
	}
	defer r.Body.Close()
	if len(body) == 0 {
		body = []byte("{}")
	}

	run, err := c.RunCreator.CreateFromEvent(r.Context(), models.TriggerEvent{
		WorkflowID: workflowID,
		Payload:    body,
		Source:     domain.RunSourceWebhook,
		ReceivedAt: c.clock.Now(),
	})
	if err != nil {
		slog.Error("Failed to create run from hook", "workflow_id", workflowID, "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	if c.Waker != nil {
		c.Waker.Wakeup()
	}

	util.WriteJSONResponse(w, http.StatusAccepted, models.CatchHookResponse{RunID: run.ID})
}
