package models

import "time"

// PatternKey identifies an orchestration pattern by the shape of the
// task it aggregates.
type PatternKey struct {
	// Domain is the business domain of the tasks.
	Domain string `json:"domain"`
	// Complexity is the task complexity level.
	Complexity Complexity `json:"complexity"`
	// Priority is the task priority level.
	Priority Priority `json:"priority"`
}

// OrchestrationPattern aggregates historical statistics for one
// (domain, complexity, priority) key. It lives for the engine process
// lifetime and is updated only by the learner.
type OrchestrationPattern struct {
	// Key identifies this pattern.
	Key PatternKey `json:"key"`
	// Executions is the total number of orchestrations recorded.
	Executions int `json:"executions"`
	// Successes is the number of orchestrations that completed.
	Successes int `json:"successes"`
	// AvgDuration is the running average orchestration duration.
	AvgDuration time.Duration `json:"avg_duration"`
	// AvgConfidence is the running average result confidence.
	AvgConfidence float64 `json:"avg_confidence"`
	// WorkerSuccesses attributes successful subtask executions to workers.
	WorkerSuccesses map[string]int `json:"worker_successes,omitempty"`
}

// SuccessRate returns the fraction of recorded orchestrations that
// completed, or zero if none were recorded.
func (p *OrchestrationPattern) SuccessRate() float64 {
	if p.Executions == 0 {
		return 0
	}
	return float64(p.Successes) / float64(p.Executions)
}

// Clone returns a deep copy so learner internals never leak mutable maps.
func (p *OrchestrationPattern) Clone() OrchestrationPattern {
	out := *p
	if p.WorkerSuccesses != nil {
		out.WorkerSuccesses = make(map[string]int, len(p.WorkerSuccesses))
		for id, n := range p.WorkerSuccesses {
			out.WorkerSuccesses[id] = n
		}
	}
	return out
}
