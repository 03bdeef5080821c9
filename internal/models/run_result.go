package models

// RunResult summarises one run's chain execution. A run with per-action
// errors is still a completed run, partial success is the norm.
type RunResult struct {
	RunID           string   `json:"runId"`
	ActionsExecuted int      `json:"actionsExecuted"`
	Skipped         bool     `json:"skipped"`
	Errors          []string `json:"errors,omitempty"`
}
