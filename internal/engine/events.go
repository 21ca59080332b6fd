package engine

import (
	"time"

	"github.com/ShayCichocki/stratum/pkg/models"
)

// EventType represents the type of engine event.
type EventType string

const (
	// EventTaskSubmitted indicates a business task entered the pipeline.
	EventTaskSubmitted EventType = "task_submitted"
	// EventSubtaskStarted indicates a subtask execution began.
	EventSubtaskStarted EventType = "subtask_started"
	// EventSubtaskCompleted indicates a subtask completed successfully.
	EventSubtaskCompleted EventType = "subtask_completed"
	// EventSubtaskFailed indicates a subtask failed.
	EventSubtaskFailed EventType = "subtask_failed"
	// EventTaskDone indicates the whole orchestration finished.
	EventTaskDone EventType = "task_done"
)

// Event represents an event emitted by the engine. Consumers read
// these for progress output; dropping events never blocks the pipeline.
type Event struct {
	// Type is the kind of event.
	Type EventType
	// TaskID is the ID of the related business task.
	TaskID string
	// SubtaskID is the ID of the related subtask, if applicable.
	SubtaskID string
	// WorkerID is the ID of the related worker, if applicable.
	WorkerID string
	// Status is the result status for task_done events.
	Status models.ResultStatus
	// Message provides additional context about the event.
	Message string
	// Timestamp is when the event occurred.
	Timestamp time.Time
}
