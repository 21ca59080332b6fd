package models

// HealthStatus represents the reported health of a worker.
type HealthStatus string

const (
	// HealthHealthy indicates the worker is operating normally.
	HealthHealthy HealthStatus = "healthy"
	// HealthDegraded indicates the worker is slow or partially failing.
	HealthDegraded HealthStatus = "degraded"
	// HealthUnhealthy indicates the worker should be avoided.
	HealthUnhealthy HealthStatus = "unhealthy"
	// HealthUnknown indicates no health report has been received yet.
	HealthUnknown HealthStatus = "unknown"
)

// Valid returns true if the status is a known value.
func (h HealthStatus) Valid() bool {
	switch h {
	case HealthHealthy, HealthDegraded, HealthUnhealthy, HealthUnknown:
		return true
	default:
		return false
	}
}

// Worker is a unit of execution capacity with declared capabilities.
// Worker state is owned exclusively by the registry; callers receive
// snapshot copies and mutate only through registry operations.
type Worker struct {
	// ID is the unique identifier for this worker.
	ID string `json:"id" yaml:"id"`
	// Name is the human-readable worker name.
	Name string `json:"name" yaml:"name"`
	// Capabilities lists the capabilities this worker can perform.
	Capabilities []Capability `json:"capabilities" yaml:"capabilities"`
	// Specialization maps capability to a specialization score in [0,1].
	Specialization map[Capability]float64 `json:"specialization,omitempty" yaml:"specialization,omitempty"`
	// Performance is the exponential moving average of historical quality in [0,1].
	Performance float64 `json:"performance" yaml:"performance"`
	// CurrentLoad is the sum of estimated hours of in-flight assignments.
	CurrentLoad float64 `json:"current_load"`
	// Health is the most recently reported health status.
	Health HealthStatus `json:"health"`
	// CompletedTasks counts successfully completed subtask executions.
	CompletedTasks int `json:"completed_tasks"`
}

// HasCapability returns true if the worker declares the given capability.
func (w *Worker) HasCapability(c Capability) bool {
	for _, have := range w.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

// SpecializationFor returns the worker's specialization score for a
// capability, or zero if none is declared.
func (w *Worker) SpecializationFor(c Capability) float64 {
	return w.Specialization[c]
}

// Clone returns a deep copy of the worker so registry internals never
// leak mutable references.
func (w *Worker) Clone() Worker {
	out := *w
	out.Capabilities = append([]Capability(nil), w.Capabilities...)
	if w.Specialization != nil {
		out.Specialization = make(map[Capability]float64, len(w.Specialization))
		for c, s := range w.Specialization {
			out.Specialization[c] = s
		}
	}
	return out
}
