package models

import "time"

// ResultStatus represents the outcome of a whole orchestration.
type ResultStatus string

const (
	// ResultCompleted indicates at least one subtask succeeded.
	ResultCompleted ResultStatus = "completed"
	// ResultFailed indicates no subtask succeeded.
	ResultFailed ResultStatus = "failed"
)

// ImpactLevel is a coarse business-impact classification derived from
// result confidence and task priority.
type ImpactLevel string

const (
	// ImpactHigh is a high-confidence result on a critical task.
	ImpactHigh ImpactLevel = "high"
	// ImpactSignificant is a high-confidence result on complex work.
	ImpactSignificant ImpactLevel = "significant"
	// ImpactPositive is a high-confidence result on simpler work.
	ImpactPositive ImpactLevel = "positive"
	// ImpactModerate is a medium-confidence result.
	ImpactModerate ImpactLevel = "moderate"
	// ImpactLimited is a low-confidence result.
	ImpactLimited ImpactLevel = "limited"
)

// ExecutionSummary counts subtask outcomes for a single orchestration.
type ExecutionSummary struct {
	// Total is the number of subtask executions.
	Total int `json:"total"`
	// Succeeded is the number of completed executions.
	Succeeded int `json:"succeeded"`
	// Failed is the number of failed executions.
	Failed int `json:"failed"`
}

// OrchestrationResult is the merged outcome of one BusinessTask.
// It is created once by the synthesizer and never mutated after return.
type OrchestrationResult struct {
	// TaskID is the parent BusinessTask ID.
	TaskID string `json:"task_id"`
	// Status is completed if at least one subtask succeeded.
	Status ResultStatus `json:"status"`
	// Insights is the merged, deduplicated insight list.
	Insights []string `json:"insights,omitempty"`
	// Recommendations is the deduplicated recommendation list, capped at 5.
	Recommendations []string `json:"recommendations,omitempty"`
	// Duration is the total wall-clock orchestration time.
	Duration time.Duration `json:"duration"`
	// Confidence is the mean confidence over successful subtasks.
	Confidence float64 `json:"confidence"`
	// Impact is the business-impact classification.
	Impact ImpactLevel `json:"impact"`
	// Executions lists every subtask execution, including failures.
	Executions []*TaskExecution `json:"executions"`
	// Summary counts execution outcomes.
	Summary ExecutionSummary `json:"summary"`
	// Error describes a fatal decomposition failure, if any.
	Error string `json:"error,omitempty"`
}
