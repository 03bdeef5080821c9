package repository

import (
	"database/sql"
	"strings"

	"github.com/hookloop/hookloop/internal/core"
	"github.com/hookloop/hookloop/internal/domain"
)

type WorkflowRepository struct {
	db    *sql.DB
	clock core.Clock
}

const workflowColumns = ` id, name, user_id, active, trigger_type, secret_hash, created, modified `

func NewWorkflowRepository(db *sql.DB, clock core.Clock) *WorkflowRepository {
	return &WorkflowRepository{db: db, clock: clock}
}

func (r *WorkflowRepository) FindByID(id int64) (*domain.Workflow, error) {
	query := `SELECT` + workflowColumns + `FROM workflow WHERE id = ` + placeholder(1)

	var wf domain.Workflow
	err := r.db.QueryRow(query, id).Scan(
		&wf.ID,
		&wf.Name,
		&wf.UserID,
		&wf.Active,
		&wf.TriggerType,
		&wf.SecretHash,
		&wf.Created,
		&wf.Modified,
	)
	if err != nil {
		return nil, err
	}
	return &wf, nil
}

func (r *WorkflowRepository) Save(wf *domain.Workflow) (int64, error) {
	now := r.clock.Now().UTC()
	vals := []interface{}{wf.Name, wf.UserID, wf.Active, wf.TriggerType, wf.SecretHash, now, now}
	pps := make([]string, 0, len(vals))
	for i := range vals {
		pps = append(pps, placeholder(i+1))
	}
	base := `INSERT INTO workflow (name, user_id, active, trigger_type, secret_hash, created, modified)
		VALUES (` + strings.Join(pps, ", ") + `)`

	if supportsReturning() {
		err := r.db.QueryRow(base+" RETURNING id", vals...).Scan(&wf.ID)
		return wf.ID, err
	}
	res, err := r.db.Exec(base, vals...)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	wf.ID = id
	return id, nil
}

// FindActionSteps returns a workflow's chain ordered by sort_order ascending,
// ties broken by insertion id. The executor reads this once per run so a
// mid-run edit of the workflow cannot reorder a chain in flight.
func (r *WorkflowRepository) FindActionSteps(workflowID int64) (*[]domain.ActionStep, error) {
	query := `
		SELECT id, workflow_id, sort_order, action_type, metadata
		FROM action_step WHERE workflow_id = ` + placeholder(1) + `
		ORDER BY sort_order ASC, id ASC
	`
	rows, err := r.db.Query(query, workflowID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var steps []domain.ActionStep
	for rows.Next() {
		var step domain.ActionStep
		if err := rows.Scan(&step.ID, &step.WorkflowID, &step.SortOrder, &step.ActionType, &step.Metadata); err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &steps, nil
}

func (r *WorkflowRepository) SaveActionStep(step *domain.ActionStep) (int64, error) {
	vals := []interface{}{step.WorkflowID, step.SortOrder, step.ActionType, step.Metadata}
	pps := make([]string, 0, len(vals))
	for i := range vals {
		pps = append(pps, placeholder(i+1))
	}
	base := `INSERT INTO action_step (workflow_id, sort_order, action_type, metadata)
		VALUES (` + strings.Join(pps, ", ") + `)`

	if supportsReturning() {
		err := r.db.QueryRow(base+" RETURNING id", vals...).Scan(&step.ID)
		return step.ID, err
	}
	res, err := r.db.Exec(base, vals...)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	step.ID = id
	return id, nil
}

func (r *WorkflowRepository) FindActivePollTriggers() (*[]domain.PollTrigger, error) {
	query := `
		SELECT id, workflow_id, source_type, config, active, created
		FROM poll_trigger WHERE active = ` + placeholder(1)

	rows, err := r.db.Query(query, true)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var triggers []domain.PollTrigger
	for rows.Next() {
		var t domain.PollTrigger
		if err := rows.Scan(&t.ID, &t.WorkflowID, &t.SourceType, &t.Config, &t.Active, &t.Created); err != nil {
			return nil, err
		}
		triggers = append(triggers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &triggers, nil
}

func (r *WorkflowRepository) SavePollTrigger(t *domain.PollTrigger) (int64, error) {
	vals := []interface{}{t.WorkflowID, t.SourceType, t.Config, t.Active, r.clock.Now().UTC()}
	pps := make([]string, 0, len(vals))
	for i := range vals {
		pps = append(pps, placeholder(i+1))
	}
	base := `INSERT INTO poll_trigger (workflow_id, source_type, config, active, created)
		VALUES (` + strings.Join(pps, ", ") + `)`

	if supportsReturning() {
		err := r.db.QueryRow(base+" RETURNING id", vals...).Scan(&t.ID)
		return t.ID, err
	}
	res, err := r.db.Exec(base, vals...)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	t.ID = id
	return id, nil
}
