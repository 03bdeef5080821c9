package engine

import "github.com/hookloop/hookloop/internal/domain"

// RunRepo is the persistence surface the engine needs for runs and their
// outbox entries.
type RunRepo interface {
	SaveWithOutbox(run *domain.Run) error
	FindByID(id string) (*domain.Run, error)
	FindPendingOutbox(limit int) (*[]domain.OutboxEntry, error)
	ClaimOutboxEntry(runID string, workerID string) bool
	MarkOutboxProcessed(runID string) (bool, error)
	RequeueStaleClaims(olderThanMinutes int) (int64, error)
}

// WorkflowRepo loads workflow definitions and their action chains.
type WorkflowRepo interface {
	FindByID(id int64) (*domain.Workflow, error)
	FindActionSteps(workflowID int64) (*[]domain.ActionStep, error)
}
