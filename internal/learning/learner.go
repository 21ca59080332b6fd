// Package learning feeds execution outcomes back into worker
// performance scores and aggregate orchestration-pattern statistics.
package learning

import (
	"sync"
	"time"

	"github.com/ShayCichocki/stratum/internal/registry"
	"github.com/ShayCichocki/stratum/pkg/models"
)

// Learner updates worker performance and orchestration patterns from
// completed executions. Pattern state lives for the engine process
// lifetime; the optional journal is a best-effort audit record and is
// never read back for scheduling decisions.
type Learner struct {
	// registry receives per-worker performance updates.
	registry *registry.Registry
	// patterns aggregates statistics per (domain, complexity, priority).
	patterns map[models.PatternKey]*models.OrchestrationPattern
	// capabilityRuns counts recorded executions per worker and capability.
	capabilityRuns map[string]map[models.Capability]int
	// capabilitySuccesses counts successful executions per worker and capability.
	capabilitySuccesses map[string]map[models.Capability]int
	// journal persists outcomes when configured. May be nil.
	journal *Journal
	// mu protects patterns and capability counters.
	mu sync.RWMutex
}

// NewLearner creates a Learner. A nil journal disables persistence.
func NewLearner(reg *registry.Registry, journal *Journal) *Learner {
	return &Learner{
		registry:            reg,
		patterns:            make(map[models.PatternKey]*models.OrchestrationPattern),
		capabilityRuns:      make(map[string]map[models.Capability]int),
		capabilitySuccesses: make(map[string]map[models.Capability]int),
		journal:             journal,
	}
}

// Record folds a finished orchestration into worker performance scores
// and the pattern keyed by the task's domain, complexity, and priority.
// subtasks maps subtask ID to its definition for capability attribution.
func (l *Learner) Record(task *models.BusinessTask, result *models.OrchestrationResult, subtasks map[string]*models.Subtask) {
	for _, exec := range result.Executions {
		if exec.WorkerID == "" {
			continue
		}
		success := exec.Status == models.ExecutionCompleted
		_ = l.registry.UpdatePerformance(exec.WorkerID, exec.Quality, success)

		if st := subtasks[exec.SubtaskID]; st != nil {
			l.recordCapability(exec.WorkerID, st.Capability, success)
		}
	}

	l.updatePattern(task, result)

	if l.journal != nil {
		// Journal failures are logged by the engine, never fatal.
		_ = l.journal.Append(task, result)
	}
}

// recordCapability updates the per-worker capability counters feeding
// HistoricalPerformance.
func (l *Learner) recordCapability(workerID string, c models.Capability, success bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.capabilityRuns[workerID] == nil {
		l.capabilityRuns[workerID] = make(map[models.Capability]int)
		l.capabilitySuccesses[workerID] = make(map[models.Capability]int)
	}
	l.capabilityRuns[workerID][c]++
	if success {
		l.capabilitySuccesses[workerID][c]++
	}
}

// updatePattern applies incremental mean updates to the pattern for the
// task's key and attributes successful executions to their workers.
func (l *Learner) updatePattern(task *models.BusinessTask, result *models.OrchestrationResult) {
	key := models.PatternKey{
		Domain:     task.Domain,
		Complexity: task.Complexity,
		Priority:   task.Priority,
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	p := l.patterns[key]
	if p == nil {
		p = &models.OrchestrationPattern{
			Key:             key,
			WorkerSuccesses: make(map[string]int),
		}
		l.patterns[key] = p
	}

	p.Executions++
	if result.Status == models.ResultCompleted {
		p.Successes++
	}

	n := float64(p.Executions)
	p.AvgDuration += time.Duration(float64(result.Duration-p.AvgDuration) / n)
	p.AvgConfidence += (result.Confidence - p.AvgConfidence) / n

	for _, exec := range result.Executions {
		if exec.Status == models.ExecutionCompleted && exec.WorkerID != "" {
			p.WorkerSuccesses[exec.WorkerID]++
		}
	}
}

// Pattern returns a snapshot of the pattern for the given key. The
// second return is false if no orchestration has been recorded for it.
// Repeated calls with no intervening Record return identical values.
func (l *Learner) Pattern(domain string, complexity models.Complexity, priority models.Priority) (models.OrchestrationPattern, bool) {
	key := models.PatternKey{Domain: domain, Complexity: complexity, Priority: priority}

	l.mu.RLock()
	defer l.mu.RUnlock()

	p, ok := l.patterns[key]
	if !ok {
		return models.OrchestrationPattern{}, false
	}
	return p.Clone(), true
}

// HistoricalPerformance returns the worker's success rate for a
// capability across recorded executions, or zero with no history. It
// implements scoring.HistorySource.
func (l *Learner) HistoricalPerformance(workerID string, c models.Capability) float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	runs := l.capabilityRuns[workerID][c]
	if runs == 0 {
		return 0
	}
	return float64(l.capabilitySuccesses[workerID][c]) / float64(runs)
}
