package decompose

import "fmt"

// DecompositionError indicates a task could not be broken into any
// subtasks. It is the only error fatal to a whole submission.
type DecompositionError struct {
	// TaskID is the task that failed to decompose.
	TaskID string
	// Reason describes why decomposition failed.
	Reason string
	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *DecompositionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decompose task %s: %s: %v", e.TaskID, e.Reason, e.Err)
	}
	return fmt.Sprintf("decompose task %s: %s", e.TaskID, e.Reason)
}

// Unwrap returns the underlying cause.
func (e *DecompositionError) Unwrap() error {
	return e.Err
}
