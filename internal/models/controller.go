package models

import "time"

// API request and response shapes for the HTTP controllers.

type CatchHookResponse struct {
	RunID string `json:"runId"`
}

type ApiRun struct {
	ID         string         `json:"id"`
	WorkflowID int64          `json:"workflowId"`
	Payload    map[string]any `json:"payload"`
	Source     string         `json:"source"`
	Created    time.Time      `json:"created"`
	Processed  bool           `json:"processed"`
}

type ApiError struct {
	Error string `json:"error"`
}
