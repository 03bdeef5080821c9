package models

import (
	"encoding/json"
	"time"
)

// TriggerEvent is the generic inbound event shape consumed by the run
// creator. It is ephemeral and lives only until it is converted into a Run.
type TriggerEvent struct {
	WorkflowID int64
	Payload    json.RawMessage
	Source     string
	ReceivedAt time.Time
}
