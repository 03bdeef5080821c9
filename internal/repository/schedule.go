package repository

import (
	"database/sql"
	"strings"
	"time"

	"github.com/hookloop/hookloop/internal/core"
	"github.com/hookloop/hookloop/internal/domain"
)

type ScheduleRepository struct {
	db    *sql.DB
	clock core.Clock
}

const scheduleColumns = ` id, workflow_id, schedule_type, hour, minute, day_of_week, day_of_month, timezone, last_run_at, next_run_at, active `

func NewScheduleRepository(db *sql.DB, clock core.Clock) *ScheduleRepository {
	return &ScheduleRepository{db: db, clock: clock}
}

// FindDueSchedules returns active schedules whose next_run_at has passed,
// most overdue first.
func (r *ScheduleRepository) FindDueSchedules(limit int) (*[]domain.Schedule, error) {
	query := `
		SELECT` + scheduleColumns + `
		FROM schedule
		WHERE active = ` + placeholder(1) + ` AND next_run_at <= ` + placeholder(2) + `
		ORDER BY next_run_at ASC LIMIT ` + placeholder(3)

	rows, err := r.db.Query(query, true, r.clock.Now().UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schedules []domain.Schedule
	for rows.Next() {
		var s domain.Schedule
		if err := rows.Scan(&s.ID, &s.WorkflowID, &s.ScheduleType, &s.Hour, &s.Minute,
			&s.DayOfWeek, &s.DayOfMonth, &s.Timezone, &s.LastRunAt, &s.NextRunAt, &s.Active); err != nil {
			return nil, err
		}
		schedules = append(schedules, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &schedules, nil
}

func (r *ScheduleRepository) FindByID(id int64) (*domain.Schedule, error) {
	query := `SELECT` + scheduleColumns + `FROM schedule WHERE id = ` + placeholder(1)

	var s domain.Schedule
	err := r.db.QueryRow(query, id).Scan(&s.ID, &s.WorkflowID, &s.ScheduleType, &s.Hour, &s.Minute,
		&s.DayOfWeek, &s.DayOfMonth, &s.Timezone, &s.LastRunAt, &s.NextRunAt, &s.Active)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *ScheduleRepository) Save(s *domain.Schedule) (int64, error) {
	vals := []interface{}{s.WorkflowID, s.ScheduleType, s.Hour, s.Minute, s.DayOfWeek, s.DayOfMonth,
		s.Timezone, s.LastRunAt, s.NextRunAt.UTC(), s.Active}
	pps := make([]string, 0, len(vals))
	for i := range vals {
		pps = append(pps, placeholder(i+1))
	}
	base := `INSERT INTO schedule (workflow_id, schedule_type, hour, minute, day_of_week, day_of_month,
		timezone, last_run_at, next_run_at, active)
		VALUES (` + strings.Join(pps, ", ") + `)`

	if supportsReturning() {
		err := r.db.QueryRow(base+" RETURNING id", vals...).Scan(&s.ID)
		return s.ID, err
	}
	res, err := r.db.Exec(base, vals...)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	s.ID = id
	return id, nil
}

func (r *ScheduleRepository) UpdateNextRunAt(id int64, next time.Time) error {
	query := `UPDATE schedule SET next_run_at = ` + placeholder(1) + ` WHERE id = ` + placeholder(2)
	_, err := r.db.Exec(query, next.UTC(), id)
	return err
}

func (r *ScheduleRepository) UpdateLastRunAt(id int64, last time.Time) error {
	query := `UPDATE schedule SET last_run_at = ` + placeholder(1) + ` WHERE id = ` + placeholder(2)
	_, err := r.db.Exec(query, last.UTC(), id)
	return err
}
