package models

import "time"

// Priority represents the business urgency of a task.
type Priority string

const (
	// PriorityCritical indicates the task blocks a critical business outcome.
	PriorityCritical Priority = "critical"
	// PriorityHigh indicates the task is important but not blocking.
	PriorityHigh Priority = "high"
	// PriorityMedium indicates normal urgency.
	PriorityMedium Priority = "medium"
	// PriorityLow indicates background work.
	PriorityLow Priority = "low"
)

// Valid returns true if the priority is a known value.
func (p Priority) Valid() bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	default:
		return false
	}
}

// Complexity represents how much decomposition a task requires.
type Complexity string

const (
	// ComplexitySimple maps to a single subtask.
	ComplexitySimple Complexity = "simple"
	// ComplexityModerate maps to an analysis subtask plus a synthesis subtask.
	ComplexityModerate Complexity = "moderate"
	// ComplexityComplex maps to the full research-to-synthesis chain.
	ComplexityComplex Complexity = "complex"
	// ComplexityEnterprise maps to the full chain with adaptive execution.
	ComplexityEnterprise Complexity = "enterprise"
)

// Valid returns true if the complexity is a known value.
func (c Complexity) Valid() bool {
	switch c {
	case ComplexitySimple, ComplexityModerate, ComplexityComplex, ComplexityEnterprise:
		return true
	default:
		return false
	}
}

// Capability is a named skill a worker can perform (e.g. "customer-intelligence").
type Capability string

// BusinessTask is a high-level unit of business work submitted for orchestration.
// It is immutable once submitted.
type BusinessTask struct {
	// ID is the unique identifier for this task.
	ID string `json:"id" yaml:"id"`
	// Title is the short description of the task.
	Title string `json:"title" yaml:"title"`
	// Description provides detailed information about the task.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	// Domain is the business domain the task belongs to (e.g. "sales").
	Domain string `json:"domain,omitempty" yaml:"domain,omitempty"`
	// Priority is the business urgency of the task.
	Priority Priority `json:"priority" yaml:"priority"`
	// Complexity controls how the task is decomposed.
	Complexity Complexity `json:"complexity" yaml:"complexity"`
	// RequiredCapabilities lists the capabilities the task needs.
	RequiredCapabilities []Capability `json:"required_capabilities,omitempty" yaml:"required_capabilities,omitempty"`
	// Context carries arbitrary caller-provided context values.
	Context map[string]string `json:"context,omitempty" yaml:"context,omitempty"`
	// Deadline is the optional completion deadline.
	Deadline *time.Time `json:"deadline,omitempty" yaml:"deadline,omitempty"`
	// CreatedAt is when the task was submitted.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// EnrichmentContext is a snapshot of prior insights attached to a subtask
// before execution. An empty context is a valid degraded result.
type EnrichmentContext struct {
	// Insights are relevant findings from earlier orchestrations.
	Insights []string `json:"insights,omitempty"`
	// Confidence is the enrichment collaborator's confidence in the insights.
	Confidence float64 `json:"confidence,omitempty"`
}

// Subtask is a single-capability unit of work derived from a BusinessTask.
// Subtasks form a directed acyclic graph keyed by dependency IDs.
type Subtask struct {
	// ID is the unique identifier for this subtask.
	ID string `json:"id"`
	// ParentID is the ID of the BusinessTask this subtask was derived from.
	ParentID string `json:"parent_id"`
	// Title is the short description of the subtask.
	Title string `json:"title"`
	// Capability is the single capability required to execute this subtask.
	Capability Capability `json:"capability"`
	// Priority is inherited from the parent task.
	Priority Priority `json:"priority"`
	// EstimatedMinutes is the expected execution duration in minutes.
	EstimatedMinutes int `json:"estimated_minutes"`
	// DependsOn lists subtask IDs that must reach a terminal state first.
	DependsOn []string `json:"depends_on,omitempty"`
	// Enrichment is the context snapshot supplied before execution.
	Enrichment EnrichmentContext `json:"enrichment,omitempty"`
}

// EstimatedHours returns the estimated duration normalized to hours,
// the unit used for worker load accounting.
func (s *Subtask) EstimatedHours() float64 {
	return float64(s.EstimatedMinutes) / 60.0
}
