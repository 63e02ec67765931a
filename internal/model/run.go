package model

import "time"

// RunStatus tracks a reconciliation run through its lifecycle.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one reconciliation run's log entry.
type Run struct {
	ID          string     `json:"id"`
	Status      RunStatus  `json:"status"`
	States      int        `json:"states"`
	Points      int        `json:"points"`
	Error       string     `json:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
