// Package strategy chooses how a subtask graph is executed.
package strategy

import (
	"github.com/ShayCichocki/stratum/internal/graph"
	"github.com/ShayCichocki/stratum/pkg/models"
)

// Strategy identifies an execution strategy.
type Strategy string

const (
	// Sequential runs subtasks one at a time in declaration order.
	Sequential Strategy = "sequential"
	// Parallel runs all subtasks concurrently.
	Parallel Strategy = "parallel"
	// Pipeline runs dependency-ordered ready-set batches.
	Pipeline Strategy = "pipeline"
	// Adaptive is an extension seam; it currently forwards to Parallel.
	Adaptive Strategy = "adaptive"
)

// Valid returns true if the strategy is a known value.
func (s Strategy) Valid() bool {
	switch s {
	case Sequential, Parallel, Pipeline, Adaptive:
		return true
	default:
		return false
	}
}

// Select chooses the execution strategy from graph shape, task
// priority, and worker availability. The decision table is evaluated
// top to bottom, first match wins:
//
//  1. Critical priority with dependencies -> Pipeline.
//  2. Critical priority without dependencies -> Parallel.
//  3. Enterprise complexity -> Adaptive.
//  4. Dependencies present -> Sequential when fewer distinct workers
//     than subtasks, else Pipeline.
//  5. Otherwise -> Parallel.
//
// workerBySubtask maps subtask ID to assigned worker ID; subtasks with
// no eligible worker are absent.
func Select(task *models.BusinessTask, g *graph.Graph, workerBySubtask map[string]string) Strategy {
	hasDeps := g.HasDependencies()

	if task.Priority == models.PriorityCritical {
		if hasDeps {
			return Pipeline
		}
		return Parallel
	}

	if task.Complexity == models.ComplexityEnterprise {
		return Adaptive
	}

	if hasDeps {
		if distinctWorkers(workerBySubtask) < g.Size() {
			return Sequential
		}
		return Pipeline
	}

	return Parallel
}

func distinctWorkers(workerBySubtask map[string]string) int {
	seen := make(map[string]bool, len(workerBySubtask))
	for _, workerID := range workerBySubtask {
		seen[workerID] = true
	}
	return len(seen)
}
