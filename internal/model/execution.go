package model

import "time"

// ExecutionStatus is the lifecycle state of one asynchronous function run.
type ExecutionStatus string

const (
	ExecutionWaiting    ExecutionStatus = "waiting"
	ExecutionProcessing ExecutionStatus = "processing"
	ExecutionCompleted  ExecutionStatus = "completed"
	ExecutionFailed     ExecutionStatus = "failed"
)

// Terminal reports whether no further transitions follow s.
func (s ExecutionStatus) Terminal() bool {
	return s == ExecutionCompleted || s == ExecutionFailed
}

// Execution is a snapshot of a function run.
type Execution struct {
	ID                 string          `json:"id"`
	UserID             string          `json:"userId"`
	Path               string          `json:"path"`
	Method             string          `json:"method"`
	Async              bool            `json:"async"`
	Status             ExecutionStatus `json:"status"`
	ResponseStatusCode int             `json:"responseStatusCode"`
	ResponseBody       string          `json:"responseBody"`
	Stdout             string          `json:"stdout"`
	Stderr             string          `json:"stderr"`
	// Duration is the run time in seconds.
	Duration  float64   `json:"duration"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ExecutionEvent is published on every status change.
type ExecutionEvent struct {
	ExecutionID string          `json:"executionId"`
	Status      ExecutionStatus `json:"status"`
	Error       string          `json:"error,omitempty"`
}
