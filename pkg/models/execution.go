package models

import "time"

// ExecutionStatus represents the state of a single subtask execution.
type ExecutionStatus string

const (
	// ExecutionPending indicates the execution has not started.
	ExecutionPending ExecutionStatus = "pending"
	// ExecutionRunning indicates the execution is in flight.
	ExecutionRunning ExecutionStatus = "running"
	// ExecutionCompleted indicates the execution finished successfully.
	ExecutionCompleted ExecutionStatus = "completed"
	// ExecutionFailed indicates the execution finished with an error.
	ExecutionFailed ExecutionStatus = "failed"
)

// Terminal returns true if the status is a final state.
func (s ExecutionStatus) Terminal() bool {
	return s == ExecutionCompleted || s == ExecutionFailed
}

// SubtaskResult is the payload produced by a successful subtask execution.
type SubtaskResult struct {
	// Summary is a short description of what the worker produced.
	Summary string `json:"summary"`
	// Confidence is the worker's confidence in the result, in [0,1].
	Confidence float64 `json:"confidence"`
	// Insights are findings contributed toward the merged result.
	Insights []string `json:"insights,omitempty"`
	// Recommendations are suggested follow-up actions.
	Recommendations []string `json:"recommendations,omitempty"`
}

// TaskExecution records one subtask run on one worker. It is created at
// assignment time, mutated only by the executor, and immutable once terminal.
type TaskExecution struct {
	// ID is the unique identifier for this execution.
	ID string `json:"id"`
	// SubtaskID is the subtask being executed.
	SubtaskID string `json:"subtask_id"`
	// WorkerID is the assigned worker, empty if no worker was eligible.
	WorkerID string `json:"worker_id,omitempty"`
	// Status is the current execution state.
	Status ExecutionStatus `json:"status"`
	// StartedAt is when the execution entered the running state.
	StartedAt time.Time `json:"started_at,omitempty"`
	// CompletedAt is when the execution reached a terminal state.
	CompletedAt time.Time `json:"completed_at,omitempty"`
	// Result holds the worker's output for completed executions.
	Result *SubtaskResult `json:"result,omitempty"`
	// Error holds the failure description for failed executions.
	Error string `json:"error,omitempty"`
	// Cause holds the typed failure error so callers can match it with
	// errors.As instead of parsing Error.
	Cause error `json:"-"`
	// Quality is the observed result quality in [0,1].
	Quality float64 `json:"quality"`
	// Efficiency is the ratio of estimated to actual duration, capped at 1.
	Efficiency float64 `json:"efficiency"`
}

// Duration returns the wall-clock execution time, or zero if the
// execution never ran.
func (e *TaskExecution) Duration() time.Duration {
	if e.StartedAt.IsZero() || e.CompletedAt.IsZero() {
		return 0
	}
	return e.CompletedAt.Sub(e.StartedAt)
}
