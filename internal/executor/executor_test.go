package executor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/ShayCichocki/stratum/internal/graph"
	"github.com/ShayCichocki/stratum/internal/registry"
	"github.com/ShayCichocki/stratum/internal/strategy"
	"github.com/ShayCichocki/stratum/pkg/models"
)

func newRegistry(t *testing.T, ids ...string) *registry.Registry {
	t.Helper()
	r := registry.New()
	for _, id := range ids {
		err := r.Register(models.Worker{
			ID:           id,
			Name:         id,
			Capabilities: []models.Capability{"analysis"},
			Performance:  0.8,
			Health:       models.HealthHealthy,
		})
		if err != nil {
			t.Fatalf("register %s: %v", id, err)
		}
	}
	return r
}

func buildPlan(t *testing.T, strat strategy.Strategy, subtasks []*models.Subtask, assignments map[string]string) *Plan {
	t.Helper()
	g := graph.New()
	if err := g.Build(subtasks); err != nil {
		t.Fatalf("build graph: %v", err)
	}
	return &Plan{
		Strategy:     strat,
		Graph:        g,
		Assignments:  assignments,
		AssignErrors: make(map[string]error),
	}
}

func subtasks(deps bool, ids ...string) []*models.Subtask {
	out := make([]*models.Subtask, len(ids))
	for i, id := range ids {
		st := &models.Subtask{
			ID:               id,
			Title:            id,
			Capability:       "analysis",
			EstimatedMinutes: 30,
		}
		if deps && i > 0 {
			st.DependsOn = []string{ids[i-1]}
		}
		out[i] = st
	}
	return out
}

// reserve mimics the scorer's load reservation for each assignment.
func reserve(t *testing.T, reg *registry.Registry, plan *Plan) {
	t.Helper()
	for id, workerID := range plan.Assignments {
		st := plan.Graph.Subtask(id)
		if err := reg.UpdateLoad(workerID, st.EstimatedHours()); err != nil {
			t.Fatalf("reserve load: %v", err)
		}
	}
}

func byID(execs []*models.TaskExecution) map[string]*models.TaskExecution {
	out := make(map[string]*models.TaskExecution, len(execs))
	for _, e := range execs {
		out[e.SubtaskID] = e
	}
	return out
}

func TestParallelAllComplete(t *testing.T) {
	reg := newRegistry(t, "w1", "w2", "w3")
	plan := buildPlan(t, strategy.Parallel, subtasks(false, "a", "b", "c"),
		map[string]string{"a": "w1", "b": "w2", "c": "w3"})
	reserve(t, reg, plan)

	execs := New(reg, nil).Execute(context.Background(), plan)

	if len(execs) != 3 {
		t.Fatalf("expected 3 executions, got %d", len(execs))
	}
	for _, e := range execs {
		if e.Status != models.ExecutionCompleted {
			t.Errorf("subtask %s: expected completed, got %s (%s)", e.SubtaskID, e.Status, e.Error)
		}
		if e.Result == nil || e.Result.Confidence <= 0 {
			t.Errorf("subtask %s: expected result with confidence", e.SubtaskID)
		}
	}
}

func TestParallelIsolatesFailure(t *testing.T) {
	reg := newRegistry(t, "w1", "w2", "w3")
	plan := buildPlan(t, strategy.Parallel, subtasks(false, "a", "b", "c"),
		map[string]string{"a": "w1", "b": "w2", "c": "w3"})
	reserve(t, reg, plan)

	failB := InvokerFunc(func(ctx context.Context, st *models.Subtask, w models.Worker) (*models.SubtaskResult, error) {
		if st.ID == "b" {
			return nil, fmt.Errorf("worker crashed")
		}
		return SimulatedInvoker{}.Invoke(ctx, st, w)
	})

	execs := byID(New(reg, failB).Execute(context.Background(), plan))

	if execs["b"].Status != models.ExecutionFailed {
		t.Errorf("expected b failed, got %s", execs["b"].Status)
	}
	var execErr *SubtaskExecutionError
	if !errors.As(execs["b"].Cause, &execErr) {
		t.Errorf("expected SubtaskExecutionError, got %v", execs["b"].Cause)
	}
	for _, id := range []string{"a", "c"} {
		if execs[id].Status != models.ExecutionCompleted {
			t.Errorf("sibling %s should complete, got %s", id, execs[id].Status)
		}
	}
}

func TestPipelineDependencyOrdering(t *testing.T) {
	reg := newRegistry(t, "w1", "w2", "w3", "w4")
	plan := buildPlan(t, strategy.Pipeline, subtasks(true, "a", "b", "c", "d"),
		map[string]string{"a": "w1", "b": "w2", "c": "w3", "d": "w4"})
	reserve(t, reg, plan)

	execs := byID(New(reg, nil).Execute(context.Background(), plan))

	for _, e := range execs {
		if e.Status != models.ExecutionCompleted {
			t.Fatalf("subtask %s: expected completed, got %s", e.SubtaskID, e.Status)
		}
	}

	// A subtask never starts before all its dependencies are terminal.
	for _, id := range []string{"b", "c", "d"} {
		for _, depID := range plan.Graph.Dependencies(id) {
			if execs[id].StartedAt.Before(execs[depID].CompletedAt) {
				t.Errorf("subtask %s started before dependency %s finished", id, depID)
			}
		}
	}
}

func TestPipelineFailedDependencyStillUnblocks(t *testing.T) {
	// A failed dependency is terminal: dependents still run.
	reg := newRegistry(t, "w1", "w2")
	plan := buildPlan(t, strategy.Pipeline, subtasks(true, "a", "b"),
		map[string]string{"a": "w1", "b": "w2"})
	reserve(t, reg, plan)

	failA := InvokerFunc(func(ctx context.Context, st *models.Subtask, w models.Worker) (*models.SubtaskResult, error) {
		if st.ID == "a" {
			return nil, fmt.Errorf("boom")
		}
		return SimulatedInvoker{}.Invoke(ctx, st, w)
	})

	execs := byID(New(reg, failA).Execute(context.Background(), plan))
	if execs["a"].Status != models.ExecutionFailed {
		t.Errorf("expected a failed, got %s", execs["a"].Status)
	}
	if execs["b"].Status != models.ExecutionCompleted {
		t.Errorf("expected b completed after failed dependency, got %s", execs["b"].Status)
	}
}

func TestSequentialRunsAllAfterFailure(t *testing.T) {
	reg := newRegistry(t, "w1")
	plan := buildPlan(t, strategy.Sequential, subtasks(false, "a", "b", "c"),
		map[string]string{"a": "w1", "b": "w1", "c": "w1"})
	reserve(t, reg, plan)

	failFirst := InvokerFunc(func(ctx context.Context, st *models.Subtask, w models.Worker) (*models.SubtaskResult, error) {
		if st.ID == "a" {
			return nil, fmt.Errorf("boom")
		}
		return SimulatedInvoker{}.Invoke(ctx, st, w)
	})

	execs := New(reg, failFirst).Execute(context.Background(), plan)

	// Declaration order preserved in the returned slice.
	for i, want := range []string{"a", "b", "c"} {
		if execs[i].SubtaskID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, execs[i].SubtaskID)
		}
	}
	if execs[0].Status != models.ExecutionFailed {
		t.Errorf("expected a failed, got %s", execs[0].Status)
	}
	for _, e := range execs[1:] {
		if e.Status != models.ExecutionCompleted {
			t.Errorf("subtask %s should run after failure, got %s", e.SubtaskID, e.Status)
		}
	}
}

func TestNoEligibleWorkerIsolated(t *testing.T) {
	reg := newRegistry(t, "w1", "w2")
	plan := buildPlan(t, strategy.Parallel, subtasks(false, "a", "b", "c"),
		map[string]string{"a": "w1", "c": "w2"})
	reserve(t, reg, plan)
	assignErr := fmt.Errorf("no eligible worker for subtask b")
	plan.AssignErrors["b"] = assignErr

	execs := byID(New(reg, nil).Execute(context.Background(), plan))

	if execs["b"].Status != models.ExecutionFailed {
		t.Errorf("expected b failed, got %s", execs["b"].Status)
	}
	if !errors.Is(execs["b"].Cause, assignErr) {
		t.Errorf("expected assignment error captured, got %v", execs["b"].Cause)
	}
	if execs["b"].WorkerID != "" {
		t.Errorf("unassigned execution should have no worker, got %s", execs["b"].WorkerID)
	}
	for _, id := range []string{"a", "c"} {
		if execs[id].Status != models.ExecutionCompleted {
			t.Errorf("sibling %s should complete, got %s", id, execs[id].Status)
		}
	}
}

func TestPanicRecovered(t *testing.T) {
	reg := newRegistry(t, "w1")
	plan := buildPlan(t, strategy.Sequential, subtasks(false, "a"),
		map[string]string{"a": "w1"})
	reserve(t, reg, plan)

	panicky := InvokerFunc(func(ctx context.Context, st *models.Subtask, w models.Worker) (*models.SubtaskResult, error) {
		panic("nil map write")
	})

	execs := New(reg, panicky).Execute(context.Background(), plan)
	if execs[0].Status != models.ExecutionFailed {
		t.Fatalf("expected failed, got %s", execs[0].Status)
	}
	var execErr *SubtaskExecutionError
	if !errors.As(execs[0].Cause, &execErr) {
		t.Errorf("expected SubtaskExecutionError, got %v", execs[0].Cause)
	}
}

func TestCancelledContextFailsPending(t *testing.T) {
	reg := newRegistry(t, "w1")
	plan := buildPlan(t, strategy.Sequential, subtasks(false, "a", "b"),
		map[string]string{"a": "w1", "b": "w1"})
	reserve(t, reg, plan)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	execs := New(reg, nil).Execute(ctx, plan)
	for _, e := range execs {
		if e.Status != models.ExecutionFailed {
			t.Errorf("subtask %s: expected failed on cancelled context, got %s", e.SubtaskID, e.Status)
		}
	}

	// Reserved load is returned even though nothing ran.
	w, _ := reg.Get("w1")
	if math.Abs(w.CurrentLoad) > 1e-9 {
		t.Errorf("expected load released, got %f", w.CurrentLoad)
	}
}

func TestLoadReleasedAfterExecution(t *testing.T) {
	reg := newRegistry(t, "w1", "w2")
	plan := buildPlan(t, strategy.Parallel, subtasks(false, "a", "b"),
		map[string]string{"a": "w1", "b": "w2"})
	reserve(t, reg, plan)

	failB := InvokerFunc(func(ctx context.Context, st *models.Subtask, w models.Worker) (*models.SubtaskResult, error) {
		if st.ID == "b" {
			return nil, fmt.Errorf("boom")
		}
		return SimulatedInvoker{}.Invoke(ctx, st, w)
	})

	New(reg, failB).Execute(context.Background(), plan)

	// Success and failure both release the assignment reservation.
	for _, id := range []string{"w1", "w2"} {
		w, _ := reg.Get(id)
		if math.Abs(w.CurrentLoad) > 1e-9 {
			t.Errorf("worker %s: expected load released, got %f", id, w.CurrentLoad)
		}
	}
}

func TestAdaptiveForwardsToParallel(t *testing.T) {
	reg := newRegistry(t, "w1", "w2")
	plan := buildPlan(t, strategy.Adaptive, subtasks(false, "a", "b"),
		map[string]string{"a": "w1", "b": "w2"})
	reserve(t, reg, plan)

	execs := New(reg, nil).Execute(context.Background(), plan)
	for _, e := range execs {
		if e.Status != models.ExecutionCompleted {
			t.Errorf("subtask %s: expected completed, got %s", e.SubtaskID, e.Status)
		}
	}
}

func TestFailDeadlocked(t *testing.T) {
	reg := newRegistry(t, "w1")
	g := graph.New()
	if err := g.Build(subtasks(true, "a", "b")); err != nil {
		t.Fatalf("build graph: %v", err)
	}

	e := New(reg, nil)
	r := &run{
		graph: g,
		executions: map[string]*models.TaskExecution{
			"a": {ID: "e1", SubtaskID: "a", Status: models.ExecutionPending},
			"b": {ID: "e2", SubtaskID: "b", Status: models.ExecutionPending},
		},
		// b is examined while its dependency is still pending.
		order: []string{"b", "a"},
	}

	e.failDeadlocked(r)

	var deadlock *DependencyDeadlockError
	if !errors.As(r.executions["b"].Cause, &deadlock) {
		t.Fatalf("expected DependencyDeadlockError, got %v", r.executions["b"].Cause)
	}
	if len(deadlock.Waiting) != 1 || deadlock.Waiting[0] != "a" {
		t.Errorf("expected waiting on [a], got %v", deadlock.Waiting)
	}
	for id, exec := range r.executions {
		if exec.Status != models.ExecutionFailed {
			t.Errorf("subtask %s: expected failed, got %s", id, exec.Status)
		}
	}
}

func TestNotifyTransitions(t *testing.T) {
	reg := newRegistry(t, "w1")
	plan := buildPlan(t, strategy.Sequential, subtasks(false, "a"),
		map[string]string{"a": "w1"})
	reserve(t, reg, plan)

	var seen []models.ExecutionStatus
	e := New(reg, nil, WithNotify(func(exec *models.TaskExecution) {
		seen = append(seen, exec.Status)
	}))
	e.Execute(context.Background(), plan)

	if len(seen) != 2 || seen[0] != models.ExecutionRunning || seen[1] != models.ExecutionCompleted {
		t.Errorf("expected running then completed, got %v", seen)
	}
}
