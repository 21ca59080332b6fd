package registry

import (
	"context"
	"time"

	"github.com/ShayCichocki/stratum/pkg/models"
)

// HealthSource reports the current health of a worker. It is an
// external collaborator; implementations typically wrap a monitoring
// system or a per-worker heartbeat.
type HealthSource interface {
	HealthOf(workerID string) (models.HealthStatus, error)
}

// HealthSourceFunc adapts a function to the HealthSource interface.
type HealthSourceFunc func(workerID string) (models.HealthStatus, error)

// HealthOf calls the wrapped function.
func (f HealthSourceFunc) HealthOf(workerID string) (models.HealthStatus, error) {
	return f(workerID)
}

// PollHealth polls the health source for every registered worker at the
// given interval until the context is cancelled. A poll error leaves
// the worker's previous status in place until the next successful poll.
func (r *Registry) PollHealth(ctx context.Context, src HealthSource, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.pollOnce(src)
		}
	}
}

// pollOnce performs a single health poll across all workers.
func (r *Registry) pollOnce(src HealthSource) {
	for _, w := range r.All() {
		status, err := src.HealthOf(w.ID)
		if err != nil {
			// Missed poll: keep the previous status.
			continue
		}
		if !status.Valid() {
			continue
		}
		_ = r.UpdateHealth(w.ID, status)
	}
}
