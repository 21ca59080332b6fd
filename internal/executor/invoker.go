package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/ShayCichocki/stratum/pkg/models"
)

// Invoker performs a subtask on a worker. Implementations wrap the
// actual execution backend; the executor never calls workers directly.
type Invoker interface {
	Invoke(ctx context.Context, st *models.Subtask, w models.Worker) (*models.SubtaskResult, error)
}

// InvokerFunc adapts a function to the Invoker interface.
type InvokerFunc func(ctx context.Context, st *models.Subtask, w models.Worker) (*models.SubtaskResult, error)

// Invoke calls the wrapped function.
func (f InvokerFunc) Invoke(ctx context.Context, st *models.Subtask, w models.Worker) (*models.SubtaskResult, error) {
	return f(ctx, st, w)
}

// SimulatedInvoker is the built-in invoker used when no execution
// backend is wired in. It derives result confidence from the worker's
// performance and specialization, so better-matched workers produce
// better results without any external service.
type SimulatedInvoker struct {
	// Latency is an optional artificial per-subtask delay.
	Latency time.Duration
}

// Invoke produces a deterministic simulated result.
func (s SimulatedInvoker) Invoke(ctx context.Context, st *models.Subtask, w models.Worker) (*models.SubtaskResult, error) {
	if s.Latency > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.Latency):
		}
	}

	confidence := 0.5 + 0.35*w.Performance + 0.15*w.SpecializationFor(st.Capability)
	if boost := 0.05 * st.Enrichment.Confidence; boost > 0 {
		confidence += boost
	}
	if confidence > 1 {
		confidence = 1
	}

	return &models.SubtaskResult{
		Summary:    fmt.Sprintf("%s completed by %s", st.Title, w.Name),
		Confidence: confidence,
		Insights: []string{
			fmt.Sprintf("%s: %s finding", st.Capability, st.Title),
		},
		Recommendations: []string{
			fmt.Sprintf("review %s output", st.Capability),
		},
	}, nil
}
