package domain

import (
	"database/sql"
	"time"
)

// Workflow is a user defined trigger-to-action chain definition.
type Workflow struct {
	ID          int64
	Name        string
	UserID      int64
	Active      bool
	TriggerType string
	// SecretHash is a bcrypt hash of the inbound webhook secret, empty when
	// the catch endpoint is open.
	SecretHash sql.NullString
	Created    time.Time
	Modified   time.Time
}

const (
	TriggerTypeWebhook  = "WEBHOOK"
	TriggerTypePoll     = "POLL"
	TriggerTypeSchedule = "SCHEDULE"
)

// ActionStep is one ordered action of a workflow. Steps are ordered by
// SortOrder ascending, ties broken by insertion id.
type ActionStep struct {
	ID         int64
	WorkflowID int64
	SortOrder  int
	ActionType string
	// Metadata is a JSON template whose placeholders are substituted from
	// the run payload before dispatch.
	Metadata string
}
