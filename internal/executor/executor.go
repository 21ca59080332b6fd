// Package executor runs a subtask graph under a selected execution
// strategy, isolating per-subtask failures.
package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ShayCichocki/stratum/internal/graph"
	"github.com/ShayCichocki/stratum/internal/registry"
	"github.com/ShayCichocki/stratum/internal/strategy"
	"github.com/ShayCichocki/stratum/pkg/models"
)

// Plan describes one execution of a subtask graph.
type Plan struct {
	// Strategy is the selected execution strategy.
	Strategy strategy.Strategy
	// Graph is the subtask dependency graph.
	Graph *graph.Graph
	// Assignments maps subtask ID to the selected worker ID.
	Assignments map[string]string
	// AssignErrors maps subtask ID to the assignment failure for
	// subtasks with no eligible worker.
	AssignErrors map[string]error
}

// Executor runs subtask graphs. All worker state mutation goes through
// the registry; the executor never holds worker references across an
// invocation.
type Executor struct {
	// registry is the single owner of worker state.
	registry *registry.Registry
	// invoker performs individual subtask executions.
	invoker Invoker
	// clock supplies timestamps, overridable in tests.
	clock func() time.Time
	// notify is called on every execution state transition. May be nil.
	notify func(*models.TaskExecution)
}

// Option configures an Executor.
type Option func(*Executor)

// WithClock overrides the executor's time source.
func WithClock(clock func() time.Time) Option {
	return func(e *Executor) { e.clock = clock }
}

// WithNotify installs a state-transition callback.
func WithNotify(notify func(*models.TaskExecution)) Option {
	return func(e *Executor) { e.notify = notify }
}

// New creates an Executor. A nil invoker falls back to the simulated one.
func New(reg *registry.Registry, invoker Invoker, opts ...Option) *Executor {
	if invoker == nil {
		invoker = SimulatedInvoker{}
	}
	e := &Executor{
		registry: reg,
		invoker:  invoker,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// run carries the mutable state of one Execute call.
type run struct {
	graph      *graph.Graph
	executions map[string]*models.TaskExecution
	order      []string
	// mu serializes graph mutation and execution state transitions.
	mu sync.Mutex
}

// strategyRunner executes all pending subtasks of a run under one strategy.
type strategyRunner func(e *Executor, ctx context.Context, r *run)

// runners is the strategy registry. Adaptive is registered as a
// forwarder to Parallel; it is the seam for future load-aware
// strategy switching.
var runners = map[strategy.Strategy]strategyRunner{
	strategy.Sequential: (*Executor).runSequential,
	strategy.Parallel:   (*Executor).runParallel,
	strategy.Pipeline:   (*Executor).runPipeline,
	strategy.Adaptive:   (*Executor).runAdaptive,
}

// Execute runs the plan and returns one TaskExecution per subtask, in
// declaration order. Worker-level failures are captured on the
// executions and never abort sibling subtasks.
func (e *Executor) Execute(ctx context.Context, plan *Plan) []*models.TaskExecution {
	r := &run{
		graph:      plan.Graph,
		executions: make(map[string]*models.TaskExecution),
	}

	// Create an execution per subtask up front. Subtasks with no
	// eligible worker fail immediately; their siblings proceed.
	for _, st := range plan.Graph.Subtasks() {
		exec := &models.TaskExecution{
			ID:        uuid.New().String(),
			SubtaskID: st.ID,
			WorkerID:  plan.Assignments[st.ID],
			Status:    models.ExecutionPending,
		}
		r.executions[st.ID] = exec
		r.order = append(r.order, st.ID)

		if assignErr, failed := plan.AssignErrors[st.ID]; failed {
			e.failExecution(r, exec, assignErr, false)
		}
	}

	runner, ok := runners[plan.Strategy]
	if !ok {
		runner = (*Executor).runParallel
	}
	runner(e, ctx, r)

	out := make([]*models.TaskExecution, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.executions[id])
	}
	return out
}

// runSequential runs subtasks one at a time in declaration order. A
// failure does not prevent starting the next subtask.
func (e *Executor) runSequential(ctx context.Context, r *run) {
	for _, id := range r.order {
		if ctx.Err() != nil {
			e.failPending(r, ctx.Err())
			return
		}
		e.runSubtask(ctx, r, id)
	}
}

// runParallel starts all subtasks concurrently regardless of declared
// dependencies and waits for every one to reach a terminal state.
func (e *Executor) runParallel(ctx context.Context, r *run) {
	if ctx.Err() != nil {
		e.failPending(r, ctx.Err())
		return
	}

	var wg sync.WaitGroup
	for _, id := range r.order {
		if !e.isPending(r, id) {
			continue
		}
		wg.Add(1)
		go func(subtaskID string) {
			defer wg.Done()
			e.runSubtask(ctx, r, subtaskID)
		}(id)
	}
	wg.Wait()
}

// runPipeline repeatedly computes the ready set and runs it as one
// concurrent batch. An empty ready set with pending subtasks remaining
// means the graph can never make progress; the stragglers are forced to
// failed so the loop terminates.
func (e *Executor) runPipeline(ctx context.Context, r *run) {
	for {
		if ctx.Err() != nil {
			e.failPending(r, ctx.Err())
			return
		}

		batch := e.pendingReady(r)
		if len(batch) == 0 {
			if e.hasPending(r) {
				e.failDeadlocked(r)
			}
			return
		}

		var wg sync.WaitGroup
		for _, id := range batch {
			wg.Add(1)
			go func(subtaskID string) {
				defer wg.Done()
				e.runSubtask(ctx, r, subtaskID)
			}(id)
		}
		wg.Wait()
	}
}

// runAdaptive currently forwards to Parallel. Kept as a distinct
// registered strategy so future adaptive logic has a home.
func (e *Executor) runAdaptive(ctx context.Context, r *run) {
	e.runParallel(ctx, r)
}

// runSubtask drives one execution through Pending -> Running ->
// {Completed, Failed}. Worker errors and panics are captured on the
// execution, never propagated.
func (e *Executor) runSubtask(ctx context.Context, r *run, subtaskID string) {
	r.mu.Lock()
	exec := r.executions[subtaskID]
	if exec == nil || exec.Status != models.ExecutionPending {
		r.mu.Unlock()
		return
	}
	exec.Status = models.ExecutionRunning
	exec.StartedAt = e.clock()
	r.mu.Unlock()

	e.emit(exec)

	st := r.graph.Subtask(subtaskID)
	worker, ok := e.registry.Get(exec.WorkerID)
	if !ok {
		e.failRunning(r, exec, &SubtaskExecutionError{
			SubtaskID: subtaskID,
			WorkerID:  exec.WorkerID,
			Err:       fmt.Errorf("worker not registered"),
		}, st)
		return
	}

	result, err := e.invoke(ctx, st, worker)

	// Release the load reserved at assignment time.
	_ = e.registry.UpdateLoad(worker.ID, -st.EstimatedHours())

	if err != nil {
		e.failRunning(r, exec, &SubtaskExecutionError{
			SubtaskID: subtaskID,
			WorkerID:  worker.ID,
			Err:       err,
		}, nil)
		return
	}

	r.mu.Lock()
	exec.Status = models.ExecutionCompleted
	exec.CompletedAt = e.clock()
	exec.Result = result
	exec.Quality = result.Confidence
	exec.Efficiency = efficiency(st, exec)
	r.graph.MarkTerminal(subtaskID)
	r.mu.Unlock()

	e.emit(exec)
}

// invoke calls the invoker with panic recovery so a misbehaving worker
// backend surfaces as a failed execution instead of tearing down the batch.
func (e *Executor) invoke(ctx context.Context, st *models.Subtask, w models.Worker) (result *models.SubtaskResult, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			result = nil
			err = fmt.Errorf("worker panic: %v", rec)
		}
	}()
	return e.invoker.Invoke(ctx, st, w)
}

// failExecution marks a pending execution failed. releaseLoad must be
// true when load was reserved for the execution at assignment time.
func (e *Executor) failExecution(r *run, exec *models.TaskExecution, cause error, releaseLoad bool) {
	r.mu.Lock()
	if exec.Status.Terminal() {
		r.mu.Unlock()
		return
	}
	exec.Status = models.ExecutionFailed
	exec.CompletedAt = e.clock()
	exec.Cause = cause
	exec.Error = cause.Error()
	r.graph.MarkTerminal(exec.SubtaskID)
	r.mu.Unlock()

	if releaseLoad && exec.WorkerID != "" {
		if st := r.graph.Subtask(exec.SubtaskID); st != nil {
			_ = e.registry.UpdateLoad(exec.WorkerID, -st.EstimatedHours())
		}
	}

	e.emit(exec)
}

// failRunning marks a running execution failed. When st is non-nil the
// reserved load has not been released yet and is returned here.
func (e *Executor) failRunning(r *run, exec *models.TaskExecution, cause *SubtaskExecutionError, st *models.Subtask) {
	r.mu.Lock()
	exec.Status = models.ExecutionFailed
	exec.CompletedAt = e.clock()
	exec.Cause = cause
	exec.Error = cause.Error()
	r.graph.MarkTerminal(exec.SubtaskID)
	r.mu.Unlock()

	if st != nil && exec.WorkerID != "" {
		_ = e.registry.UpdateLoad(exec.WorkerID, -st.EstimatedHours())
	}

	e.emit(exec)
}

// failPending fails every still-pending execution with the given cause,
// releasing any reserved load. Used on context cancellation.
func (e *Executor) failPending(r *run, cause error) {
	for _, id := range r.order {
		if e.isPending(r, id) {
			e.failExecution(r, r.executions[id], cause, true)
		}
	}
}

// failDeadlocked fails every still-pending execution with a
// DependencyDeadlockError naming its unmet dependencies.
func (e *Executor) failDeadlocked(r *run) {
	for _, id := range r.order {
		if !e.isPending(r, id) {
			continue
		}

		var waiting []string
		r.mu.Lock()
		for _, depID := range r.graph.Dependencies(id) {
			if dep := r.executions[depID]; dep == nil || !dep.Status.Terminal() {
				waiting = append(waiting, depID)
			}
		}
		r.mu.Unlock()

		e.failExecution(r, r.executions[id], &DependencyDeadlockError{
			SubtaskID: id,
			Waiting:   waiting,
		}, true)
	}
}

// pendingReady returns the ready set restricted to pending executions.
func (e *Executor) pendingReady(r *run) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var batch []string
	for _, id := range r.graph.Ready() {
		if exec := r.executions[id]; exec != nil && exec.Status == models.ExecutionPending {
			batch = append(batch, id)
		}
	}
	return batch
}

func (e *Executor) isPending(r *run, subtaskID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	exec := r.executions[subtaskID]
	return exec != nil && exec.Status == models.ExecutionPending
}

func (e *Executor) hasPending(r *run) bool {
	for _, id := range r.order {
		if e.isPending(r, id) {
			return true
		}
	}
	return false
}

// efficiency is the estimated-to-actual duration ratio, capped at 1.
func efficiency(st *models.Subtask, exec *models.TaskExecution) float64 {
	actual := exec.CompletedAt.Sub(exec.StartedAt)
	estimated := time.Duration(st.EstimatedMinutes) * time.Minute
	if actual <= 0 || actual <= estimated {
		return 1
	}
	return float64(estimated) / float64(actual)
}

func (e *Executor) emit(exec *models.TaskExecution) {
	if e.notify != nil {
		e.notify(exec)
	}
}
