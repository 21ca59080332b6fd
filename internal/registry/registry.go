// Package registry owns all mutable worker state. Load, health, and
// performance are mutated only through registry operations so that
// concurrent batch execution cannot race on worker fields.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ShayCichocki/stratum/pkg/models"
)

// performanceDecay is the multiplier applied to a worker's performance
// score after a failed execution.
const performanceDecay = 0.95

// performanceFloor is the minimum performance score after a failure.
// The floor prevents a worker from being permanently excluded by a
// single bad run.
const performanceFloor = 0.1

// emaRetention is the weight given to historical performance when a
// successful execution is recorded.
const emaRetention = 0.9

// Registry provides thread-safe storage and mutation of worker state.
type Registry struct {
	// workers maps worker IDs to worker models.
	workers map[string]*models.Worker
	// index maps capabilities to the workers that declare them.
	index CapabilityIndex
	// mu protects all fields.
	mu sync.RWMutex
}

// New creates a new empty Registry.
func New() *Registry {
	return &Registry{
		workers: make(map[string]*models.Worker),
		index:   NewCapabilityIndex(),
	}
}

// Register adds a worker to the registry. The worker's health defaults
// to unknown if unset, and its load is reset to zero.
func (r *Registry) Register(w models.Worker) error {
	if w.ID == "" {
		return fmt.Errorf("worker ID is required")
	}
	if len(w.Capabilities) == 0 {
		return fmt.Errorf("worker %s declares no capabilities", w.ID)
	}
	if w.Performance < 0 || w.Performance > 1 {
		return fmt.Errorf("worker %s performance %.2f outside [0,1]", w.ID, w.Performance)
	}
	for c, s := range w.Specialization {
		if s < 0 || s > 1 {
			return fmt.Errorf("worker %s specialization for %s outside [0,1]", w.ID, c)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.workers[w.ID]; exists {
		return fmt.Errorf("worker %s already registered", w.ID)
	}
	if err := r.index.Add(w.ID, w.Capabilities); err != nil {
		return fmt.Errorf("index worker %s: %w", w.ID, err)
	}

	stored := w.Clone()
	stored.CurrentLoad = 0
	if stored.Health == "" {
		stored.Health = models.HealthUnknown
	}
	r.workers[w.ID] = &stored

	return nil
}

// Get returns a snapshot copy of a worker by ID.
func (r *Registry) Get(workerID string) (models.Worker, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	w, ok := r.workers[workerID]
	if !ok {
		return models.Worker{}, false
	}
	return w.Clone(), true
}

// WorkersFor returns snapshot copies of all workers declaring the given
// capability, sorted by worker ID for deterministic iteration.
func (r *Registry) WorkersFor(c models.Capability) []models.Worker {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.index.Lookup(c)
	out := make([]models.Worker, 0, len(ids))
	for _, id := range ids {
		if w, ok := r.workers[id]; ok {
			out = append(out, w.Clone())
		}
	}
	return out
}

// All returns snapshot copies of every registered worker, sorted by ID.
func (r *Registry) All() []models.Worker {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Worker, 0, len(r.workers))
	for _, w := range r.workers {
		out = append(out, w.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// UpdateLoad adjusts a worker's current load by delta hours.
// Load is clamped at zero and never goes negative.
func (r *Registry) UpdateLoad(workerID string, delta float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.workers[workerID]
	if !ok {
		return fmt.Errorf("unknown worker %s", workerID)
	}

	w.CurrentLoad += delta
	if w.CurrentLoad < 0 {
		w.CurrentLoad = 0
	}
	return nil
}

// UpdateHealth records a worker's reported health status.
func (r *Registry) UpdateHealth(workerID string, status models.HealthStatus) error {
	if !status.Valid() {
		return fmt.Errorf("invalid health status %q", status)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.workers[workerID]
	if !ok {
		return fmt.Errorf("unknown worker %s", workerID)
	}
	w.Health = status
	return nil
}

// UpdatePerformance folds an observed execution quality into a worker's
// rolling performance score. Success blends the observation into an
// exponential moving average; failure decays the score toward a floor
// of 0.1 so one bad run cannot permanently exclude the worker.
func (r *Registry) UpdatePerformance(workerID string, observedQuality float64, success bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.workers[workerID]
	if !ok {
		return fmt.Errorf("unknown worker %s", workerID)
	}

	if success {
		w.Performance = emaRetention*w.Performance + (1-emaRetention)*observedQuality
		w.CompletedTasks++
	} else {
		w.Performance *= performanceDecay
		if w.Performance < performanceFloor {
			w.Performance = performanceFloor
		}
	}
	return nil
}

// Count returns the number of registered workers.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.workers)
}
