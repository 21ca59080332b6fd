// Package scoring ranks eligible workers for each subtask using a
// multi-factor scoring model and reserves load on the selected worker.
package scoring

import (
	"fmt"

	"github.com/ShayCichocki/stratum/internal/registry"
	"github.com/ShayCichocki/stratum/pkg/models"
)

// Weights holds the tunable coefficients of the scoring model. The
// defaults are calibration starting points, not fixed semantics; they
// are overridable through configuration.
type Weights struct {
	// Specialization scales the worker's per-capability specialization score.
	Specialization float64 `mapstructure:"specialization"`
	// LoadPenalty scales the penalty for the worker's current load.
	LoadPenalty float64 `mapstructure:"load_penalty"`
	// CriticalBonus is added when the subtask priority is critical.
	CriticalBonus float64 `mapstructure:"critical_bonus"`
	// History scales the worker's historical per-capability performance.
	History float64 `mapstructure:"history"`
	// HealthyBonus is added for healthy workers.
	HealthyBonus float64 `mapstructure:"healthy_bonus"`
	// DegradedPenalty is added for degraded workers (negative).
	DegradedPenalty float64 `mapstructure:"degraded_penalty"`
	// UnhealthyPenalty is added for unhealthy workers (negative).
	UnhealthyPenalty float64 `mapstructure:"unhealthy_penalty"`
}

// DefaultWeights returns the default scoring coefficients.
func DefaultWeights() Weights {
	return Weights{
		Specialization:   0.3,
		LoadPenalty:      0.4,
		CriticalBonus:    0.15,
		History:          0.2,
		HealthyBonus:     0.2,
		DegradedPenalty:  -0.1,
		UnhealthyPenalty: -0.5,
	}
}

// HistorySource reports a worker's historical performance for a
// capability, in [0,1]. The learner implements this.
type HistorySource interface {
	HistoricalPerformance(workerID string, c models.Capability) float64
}

// NoEligibleWorkerError indicates no registered worker holds the
// capability a subtask requires. It is isolated to that subtask;
// sibling assignments proceed.
type NoEligibleWorkerError struct {
	// SubtaskID is the subtask that could not be assigned.
	SubtaskID string
	// Capability is the missing capability.
	Capability models.Capability
}

// Error implements the error interface.
func (e *NoEligibleWorkerError) Error() string {
	return fmt.Sprintf("no eligible worker for subtask %s (capability %s)", e.SubtaskID, e.Capability)
}

// Assignment pairs a subtask with its selected worker.
type Assignment struct {
	// SubtaskID is the assigned subtask.
	SubtaskID string
	// WorkerID is the selected worker.
	WorkerID string
	// Score is the winning score.
	Score float64
}

// Scorer selects the best-fit worker for each subtask.
type Scorer struct {
	// registry is the single owner of worker state.
	registry *registry.Registry
	// weights are the scoring coefficients.
	weights Weights
	// history supplies historical per-capability performance. May be nil.
	history HistorySource
}

// New creates a Scorer.
func New(reg *registry.Registry, weights Weights, history HistorySource) *Scorer {
	return &Scorer{
		registry: reg,
		weights:  weights,
		history:  history,
	}
}

// Score computes the multi-factor score for one worker on one subtask.
func (s *Scorer) Score(w *models.Worker, st *models.Subtask) float64 {
	score := w.Performance
	score += s.weights.Specialization * w.SpecializationFor(st.Capability)
	score -= s.weights.LoadPenalty * w.CurrentLoad

	switch w.Health {
	case models.HealthHealthy:
		score += s.weights.HealthyBonus
	case models.HealthDegraded:
		score += s.weights.DegradedPenalty
	case models.HealthUnhealthy:
		score += s.weights.UnhealthyPenalty
	}

	if st.Priority == models.PriorityCritical {
		score += s.weights.CriticalBonus
	}

	if s.history != nil {
		score += s.weights.History * s.history.HistoricalPerformance(w.ID, st.Capability)
	}

	return score
}

// Select picks the highest-scoring worker holding the subtask's
// capability. Ties break by lowest current load, then by worker ID, so
// selection is deterministic. On selection the worker's load is
// immediately incremented by the subtask's estimated hours; the
// reservation is visible to subsequent Select calls in the same batch.
func (s *Scorer) Select(st *models.Subtask) (Assignment, error) {
	candidates := s.registry.WorkersFor(st.Capability)
	if len(candidates) == 0 {
		return Assignment{}, &NoEligibleWorkerError{
			SubtaskID:  st.ID,
			Capability: st.Capability,
		}
	}

	best := candidates[0]
	bestScore := s.Score(&best, st)
	for i := 1; i < len(candidates); i++ {
		c := candidates[i]
		score := s.Score(&c, st)
		if better(score, c.CurrentLoad, c.ID, bestScore, best.CurrentLoad, best.ID) {
			best = c
			bestScore = score
		}
	}

	if err := s.registry.UpdateLoad(best.ID, st.EstimatedHours()); err != nil {
		return Assignment{}, fmt.Errorf("reserve load on worker %s: %w", best.ID, err)
	}

	return Assignment{
		SubtaskID: st.ID,
		WorkerID:  best.ID,
		Score:     bestScore,
	}, nil
}

// better reports whether candidate (score, load, id) beats the current
// best under the deterministic tie-break rules.
func better(score, load float64, id string, bestScore, bestLoad float64, bestID string) bool {
	if score != bestScore {
		return score > bestScore
	}
	if load != bestLoad {
		return load < bestLoad
	}
	return id < bestID
}
