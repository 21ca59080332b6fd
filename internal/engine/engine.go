package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ShayCichocki/stratum/internal/config"
	"github.com/ShayCichocki/stratum/internal/decompose"
	"github.com/ShayCichocki/stratum/internal/executor"
	"github.com/ShayCichocki/stratum/internal/graph"
	"github.com/ShayCichocki/stratum/internal/learning"
	"github.com/ShayCichocki/stratum/internal/registry"
	"github.com/ShayCichocki/stratum/internal/scoring"
	"github.com/ShayCichocki/stratum/internal/strategy"
	"github.com/ShayCichocki/stratum/internal/synthesis"
	"github.com/ShayCichocki/stratum/pkg/models"
)

// Engine orchestrates business tasks: decomposition, worker assignment,
// strategy selection, execution, synthesis, and learning.
type Engine struct {
	cfg        *config.Config
	registry   *registry.Registry
	decomposer *decompose.Decomposer
	scorer     *scoring.Scorer
	executor   *executor.Executor
	learner    *learning.Learner
	logger     *DebugLogger
	events     chan Event
	clock      func() time.Time

	// construction-time overrides
	enricher decompose.Enricher
	invoker  executor.Invoker
	journal  *learning.Journal
}

// Option configures an Engine.
type Option func(*Engine)

// WithEnricher wires in the search/enrichment collaborator.
func WithEnricher(e decompose.Enricher) Option {
	return func(eng *Engine) { eng.enricher = e }
}

// WithInvoker wires in the execution backend.
func WithInvoker(inv executor.Invoker) Option {
	return func(eng *Engine) { eng.invoker = inv }
}

// WithJournal wires in the outcome journal.
func WithJournal(j *learning.Journal) Option {
	return func(eng *Engine) { eng.journal = j }
}

// WithLogger installs a debug logger.
func WithLogger(l *DebugLogger) Option {
	return func(eng *Engine) { eng.logger = l }
}

// WithClock overrides the engine's time source.
func WithClock(clock func() time.Time) Option {
	return func(eng *Engine) { eng.clock = clock }
}

// New creates an Engine on top of a worker registry.
func New(cfg *config.Config, reg *registry.Registry, opts ...Option) *Engine {
	if cfg == nil {
		cfg = config.Default()
	}

	eng := &Engine{
		cfg:      cfg,
		registry: reg,
		events:   make(chan Event, 100),
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = &DebugLogger{}
	}
	setPackageLogger(eng.logger)

	if eng.invoker == nil {
		eng.invoker = executor.SimulatedInvoker{Latency: cfg.Executor.SimulatedLatency}
	}

	eng.decomposer = decompose.New(eng.enricher, models.Capability(cfg.Defaults.Capability))
	eng.learner = learning.NewLearner(reg, eng.journal)
	eng.scorer = scoring.New(reg, cfg.Scoring, eng.learner)
	eng.executor = executor.New(reg, eng.invoker,
		executor.WithClock(eng.clock),
		executor.WithNotify(eng.onExecutionTransition),
	)

	return eng
}

// Events returns the engine's event stream. Events are dropped when the
// buffer is full; consumers are advisory, never load-bearing.
func (e *Engine) Events() <-chan Event {
	return e.events
}

// Registry returns the engine's worker registry.
func (e *Engine) Registry() *registry.Registry {
	return e.registry
}

// Submit orchestrates one business task and returns the merged result.
// Only a decomposition failure produces a non-nil error; every other
// failure is isolated and surfaces on the result as partial success.
func (e *Engine) Submit(ctx context.Context, task *models.BusinessTask) (*models.OrchestrationResult, error) {
	submitted := e.normalize(task)
	start := e.clock()

	e.emit(Event{Type: EventTaskSubmitted, TaskID: submitted.ID, Message: submitted.Title, Timestamp: start})
	debugLog("[engine] submit task %s (%s/%s/%s)", submitted.ID, submitted.Domain, submitted.Complexity, submitted.Priority)

	subtasks, err := e.decomposer.Decompose(ctx, submitted)
	if err != nil {
		var decompErr *decompose.DecompositionError
		if !errors.As(err, &decompErr) {
			err = &decompose.DecompositionError{TaskID: submitted.ID, Reason: "decomposition failed", Err: err}
		}
		debugLog("[engine] task %s failed to decompose: %v", submitted.ID, err)
		result := &models.OrchestrationResult{
			TaskID:   submitted.ID,
			Status:   models.ResultFailed,
			Impact:   models.ImpactLimited,
			Duration: e.clock().Sub(start),
			Error:    err.Error(),
		}
		e.emit(Event{Type: EventTaskDone, TaskID: submitted.ID, Status: result.Status, Timestamp: e.clock()})
		return result, err
	}
	debugLog("[engine] task %s decomposed into %d subtasks", submitted.ID, len(subtasks))

	g := graph.New()
	if err := g.Build(subtasks); err != nil {
		// Decompose already validated the graph; reaching this means a
		// decomposition policy bug.
		return nil, fmt.Errorf("build subtask graph: %w", err)
	}

	assignments := make(map[string]string, len(subtasks))
	assignErrors := make(map[string]error)
	subtaskByID := make(map[string]*models.Subtask, len(subtasks))
	for _, st := range subtasks {
		subtaskByID[st.ID] = st
		assignment, err := e.scorer.Select(st)
		if err != nil {
			// Isolated: the subtask fails, siblings proceed.
			assignErrors[st.ID] = err
			debugLog("[engine] subtask %s unassigned: %v", st.ID, err)
			continue
		}
		assignments[st.ID] = assignment.WorkerID
		debugLog("[engine] subtask %s -> worker %s (score %.3f)", st.ID, assignment.WorkerID, assignment.Score)
	}

	strat := strategy.Select(submitted, g, assignments)
	debugLog("[engine] task %s strategy: %s", submitted.ID, strat)

	executions := e.executor.Execute(ctx, &executor.Plan{
		Strategy:     strat,
		Graph:        g,
		Assignments:  assignments,
		AssignErrors: assignErrors,
	})

	result := synthesis.Synthesize(submitted, executions, e.clock().Sub(start))
	e.learner.Record(submitted, result, subtaskByID)

	debugLog("[engine] task %s done: %s (%d/%d succeeded, confidence %.2f)",
		submitted.ID, result.Status, result.Summary.Succeeded, result.Summary.Total, result.Confidence)
	e.emit(Event{
		Type:      EventTaskDone,
		TaskID:    submitted.ID,
		Status:    result.Status,
		Message:   fmt.Sprintf("%d/%d subtasks succeeded", result.Summary.Succeeded, result.Summary.Total),
		Timestamp: e.clock(),
	})

	return result, nil
}

// PatternStats returns a read-only snapshot of the orchestration
// pattern for the given key. The second return is false if nothing has
// been recorded for it.
func (e *Engine) PatternStats(domain string, complexity models.Complexity, priority models.Priority) (models.OrchestrationPattern, bool) {
	return e.learner.Pattern(domain, complexity, priority)
}

// Close releases engine resources.
func (e *Engine) Close() error {
	setPackageLogger(nil)
	return e.logger.Close()
}

// normalize fills defaults on a copy of the submitted task; the
// caller's task is immutable once submitted.
func (e *Engine) normalize(task *models.BusinessTask) *models.BusinessTask {
	out := *task
	if out.ID == "" {
		out.ID = uuid.New().String()
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = e.clock()
	}
	if !out.Priority.Valid() {
		out.Priority = models.Priority(e.cfg.Defaults.Priority)
	}
	if !out.Complexity.Valid() {
		out.Complexity = models.Complexity(e.cfg.Defaults.Complexity)
	}
	return &out
}

// onExecutionTransition converts executor state changes into events.
func (e *Engine) onExecutionTransition(exec *models.TaskExecution) {
	switch exec.Status {
	case models.ExecutionRunning:
		e.emit(Event{Type: EventSubtaskStarted, SubtaskID: exec.SubtaskID, WorkerID: exec.WorkerID, Timestamp: exec.StartedAt})
	case models.ExecutionCompleted:
		e.emit(Event{Type: EventSubtaskCompleted, SubtaskID: exec.SubtaskID, WorkerID: exec.WorkerID, Timestamp: exec.CompletedAt})
	case models.ExecutionFailed:
		e.emit(Event{Type: EventSubtaskFailed, SubtaskID: exec.SubtaskID, WorkerID: exec.WorkerID, Message: exec.Error, Timestamp: exec.CompletedAt})
	}
}

// emit sends an event without ever blocking the pipeline.
func (e *Engine) emit(ev Event) {
	select {
	case e.events <- ev:
	default:
	}
}
