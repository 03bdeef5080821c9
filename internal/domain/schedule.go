package domain

import (
	"database/sql"
	"time"
)

// Schedule is a time based trigger for a workflow.
type Schedule struct {
	ID           int64
	WorkflowID   int64
	ScheduleType string
	Hour         sql.NullInt64
	Minute       int
	DayOfWeek    sql.NullInt64
	DayOfMonth   sql.NullInt64
	Timezone     string
	LastRunAt    sql.NullTime
	NextRunAt    time.Time
	Active       bool
}

const (
	ScheduleMinutely = "minutely"
	ScheduleHourly   = "hourly"
	ScheduleDaily    = "daily"
	ScheduleWeekly   = "weekly"
	ScheduleMonthly  = "monthly"
)
