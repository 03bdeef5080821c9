package domain

import "time"

// Run is one execution instance of a workflow for a single accepted trigger
// event. Runs are append only and never mutated after creation.
type Run struct {
	ID         string
	WorkflowID int64
	Payload    string
	Source     string
	Created    time.Time
}

const (
	RunSourceWebhook  = "WEBHOOK"
	RunSourcePoller   = "POLLER"
	RunSourceSchedule = "SCHEDULE"
)
