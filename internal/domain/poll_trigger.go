package domain

import "time"

// PollTrigger watches one push-notification-less source for a workflow.
type PollTrigger struct {
	ID         int64
	WorkflowID int64
	SourceType string
	// Config is source specific JSON, eg the spreadsheet id and range for a
	// sheets source.
	Config  string
	Active  bool
	Created time.Time
}
