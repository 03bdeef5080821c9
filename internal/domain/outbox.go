package domain

import (
	"database/sql"
	"time"
)

// OutboxEntry marks a Run as pending-for-processing. It is inserted in the
// same transaction as its Run and transitions pending -> processed exactly
// once under an optimistic claim.
type OutboxEntry struct {
	RunID     string
	Processed bool
	LockedBy  sql.NullString
	LockedAt  sql.NullTime
	Created   time.Time
}
