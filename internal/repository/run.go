package repository

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/hookloop/hookloop/internal/core"
	"github.com/hookloop/hookloop/internal/domain"
)

type RunRepository struct {
	db    *sql.DB
	clock core.Clock
}

func NewRunRepository(db *sql.DB, clock core.Clock) *RunRepository {
	return &RunRepository{db: db, clock: clock}
}

// SaveWithOutbox persists the run and its outbox marker in one transaction,
// both or neither.
func (r *RunRepository) SaveWithOutbox(run *domain.Run) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	runQuery := `INSERT INTO run (id, workflow_id, payload, source, created)
		VALUES (` + placeholder(1) + `, ` + placeholder(2) + `, ` + placeholder(3) + `, ` + placeholder(4) + `, ` + placeholder(5) + `)`
	if _, err := tx.Exec(runQuery, run.ID, run.WorkflowID, run.Payload, run.Source, run.Created.UTC()); err != nil {
		return err
	}

	outboxQuery := `INSERT INTO outbox (run_id, processed, created)
		VALUES (` + placeholder(1) + `, ` + placeholder(2) + `, ` + placeholder(3) + `)`
	if _, err := tx.Exec(outboxQuery, run.ID, false, run.Created.UTC()); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *RunRepository) FindByID(id string) (*domain.Run, error) {
	query := `SELECT id, workflow_id, payload, source, created FROM run WHERE id = ` + placeholder(1)

	var run domain.Run
	err := r.db.QueryRow(query, id).Scan(&run.ID, &run.WorkflowID, &run.Payload, &run.Source, &run.Created)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *RunRepository) FindByWorkflow(workflowID int64, limit int) (*[]domain.Run, error) {
	query := `
		SELECT id, workflow_id, payload, source, created
		FROM run WHERE workflow_id = ` + placeholder(1) + `
		ORDER BY created DESC LIMIT ` + placeholder(2)

	rows, err := r.db.Query(query, workflowID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []domain.Run
	for rows.Next() {
		var run domain.Run
		if err := rows.Scan(&run.ID, &run.WorkflowID, &run.Payload, &run.Source, &run.Created); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &runs, nil
}

// FindPendingOutbox returns unprocessed, unclaimed outbox entries oldest
// first.
func (r *RunRepository) FindPendingOutbox(limit int) (*[]domain.OutboxEntry, error) {
	query := `
		SELECT run_id, processed, locked_by, locked_at, created
		FROM outbox
		WHERE processed = ` + placeholder(1) + ` AND locked_by IS NULL
		ORDER BY created ASC LIMIT ` + placeholder(2)

	rows, err := r.db.Query(query, false, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.OutboxEntry
	for rows.Next() {
		var e domain.OutboxEntry
		if err := rows.Scan(&e.RunID, &e.Processed, &e.LockedBy, &e.LockedAt, &e.Created); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &entries, nil
}

// ClaimOutboxEntry takes an exclusive claim on a pending entry. Returns
// false when another worker got there first.
func (r *RunRepository) ClaimOutboxEntry(runID string, workerID string) bool {
	query := `
		UPDATE outbox SET locked_by = ` + placeholder(1) + `, locked_at = ` + placeholder(2) + `
		WHERE run_id = ` + placeholder(3) + ` AND processed = ` + placeholder(4) + ` AND locked_by IS NULL
	`
	res, err := r.db.Exec(query, workerID, r.clock.Now().UTC(), runID, false)
	if err != nil {
		slog.Error("Error claiming outbox entry", "run_id", runID, "error", err)
		return false
	}
	affected, err := res.RowsAffected()
	if err != nil {
		slog.Error("Error reading claim result", "run_id", runID, "error", err)
		return false
	}
	return affected == 1
}

// MarkOutboxProcessed flips the entry to processed. Returns false when it
// was already processed, the transition happens exactly once.
func (r *RunRepository) MarkOutboxProcessed(runID string) (bool, error) {
	query := `
		UPDATE outbox SET processed = ` + placeholder(1) + `
		WHERE run_id = ` + placeholder(2) + ` AND processed = ` + placeholder(3) + `
	`
	res, err := r.db.Exec(query, true, runID, false)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// IsOutboxProcessed reports the entry's current state.
func (r *RunRepository) IsOutboxProcessed(runID string) (bool, error) {
	query := `SELECT processed FROM outbox WHERE run_id = ` + placeholder(1)
	var processed bool
	if err := r.db.QueryRow(query, runID).Scan(&processed); err != nil {
		return false, err
	}
	return processed, nil
}

// RequeueStaleClaims releases claims held longer than the given cutoff so a
// crashed worker's entries get picked up again.
func (r *RunRepository) RequeueStaleClaims(olderThanMinutes int) (int64, error) {
	cutoff := r.clock.Now().UTC().Add(-time.Duration(olderThanMinutes) * time.Minute)
	query := `
		UPDATE outbox SET locked_by = NULL, locked_at = NULL
		WHERE processed = ` + placeholder(1) + ` AND locked_at IS NOT NULL AND locked_at < ` + placeholder(2) + `
	`
	res, err := r.db.Exec(query, false, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
