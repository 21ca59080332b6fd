package executor

import (
	"fmt"
	"strings"
)

// SubtaskExecutionError indicates a worker-level failure while running
// a single subtask. It is isolated: sibling executions in the same or
// later batches proceed.
type SubtaskExecutionError struct {
	// SubtaskID is the subtask that failed.
	SubtaskID string
	// WorkerID is the worker that was running it.
	WorkerID string
	// Err is the underlying worker error.
	Err error
}

// Error implements the error interface.
func (e *SubtaskExecutionError) Error() string {
	return fmt.Sprintf("subtask %s failed on worker %s: %v", e.SubtaskID, e.WorkerID, e.Err)
}

// Unwrap returns the underlying worker error.
func (e *SubtaskExecutionError) Unwrap() error {
	return e.Err
}

// DependencyDeadlockError indicates the pipeline stalled: no subtask
// was ready while pending subtasks remained, typically because a
// malformed graph left dependencies that can never become terminal.
type DependencyDeadlockError struct {
	// SubtaskID is the subtask forced to failed.
	SubtaskID string
	// Waiting lists the dependency IDs that never became terminal.
	Waiting []string
}

// Error implements the error interface.
func (e *DependencyDeadlockError) Error() string {
	return fmt.Sprintf("dependency deadlock: subtask %s waiting on [%s]",
		e.SubtaskID, strings.Join(e.Waiting, ", "))
}
