package learning

import (
	"math"
	"testing"
	"time"

	"github.com/ShayCichocki/stratum/internal/registry"
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
			Performance:  0.7,
		})
		if err != nil {
			t.Fatalf("register %s: %v", id, err)
		}
	}
	return r
}

func salesTask() *models.BusinessTask {
	return &models.BusinessTask{
		ID:         "task-1",
		Domain:     "sales",
		Complexity: models.ComplexityModerate,
		Priority:   models.PriorityHigh,
	}
}

func resultWith(status models.ResultStatus, confidence float64, duration time.Duration, execs ...*models.TaskExecution) *models.OrchestrationResult {
	return &models.OrchestrationResult{
		TaskID:     "task-1",
		Status:     status,
		Confidence: confidence,
		Duration:   duration,
		Executions: execs,
	}
}

func execution(subtaskID, workerID string, status models.ExecutionStatus, quality float64) *models.TaskExecution {
	return &models.TaskExecution{
		ID:        "exec-" + subtaskID,
		SubtaskID: subtaskID,
		WorkerID:  workerID,
		Status:    status,
		Quality:   quality,
	}
}

func TestRecordUpdatesWorkerPerformance(t *testing.T) {
	reg := newRegistry(t, "w1")
	l := NewLearner(reg, nil)

	subtasks := map[string]*models.Subtask{
		"a": {ID: "a", Capability: "analysis"},
	}
	l.Record(salesTask(),
		resultWith(models.ResultCompleted, 0.9, time.Second,
			execution("a", "w1", models.ExecutionCompleted, 0.9)),
		subtasks)

	w, _ := reg.Get("w1")
	want := 0.9*0.7 + 0.1*0.9
	if math.Abs(w.Performance-want) > 1e-9 {
		t.Errorf("expected performance %f, got %f", want, w.Performance)
	}
	if w.CompletedTasks != 1 {
		t.Errorf("expected 1 completed task, got %d", w.CompletedTasks)
	}
}

func TestRecordSkipsUnassignedExecutions(t *testing.T) {
	reg := newRegistry(t, "w1")
	l := NewLearner(reg, nil)

	l.Record(salesTask(),
		resultWith(models.ResultFailed, 0, time.Second,
			execution("a", "", models.ExecutionFailed, 0)),
		map[string]*models.Subtask{"a": {ID: "a", Capability: "analysis"}})

	w, _ := reg.Get("w1")
	if w.Performance != 0.7 {
		t.Errorf("unassigned execution must not touch worker performance, got %f", w.Performance)
	}
}

func TestPatternIncrementalMeans(t *testing.T) {
	l := NewLearner(newRegistry(t), nil)

	l.Record(salesTask(), resultWith(models.ResultCompleted, 0.8, 2*time.Second), nil)
	l.Record(salesTask(), resultWith(models.ResultCompleted, 0.6, 4*time.Second), nil)
	l.Record(salesTask(), resultWith(models.ResultFailed, 0, 6*time.Second), nil)

	p, ok := l.Pattern("sales", models.ComplexityModerate, models.PriorityHigh)
	if !ok {
		t.Fatal("expected pattern")
	}
	if p.Executions != 3 || p.Successes != 2 {
		t.Errorf("expected 3 executions with 2 successes, got %d/%d", p.Successes, p.Executions)
	}
	wantConfidence := (0.8 + 0.6 + 0.0) / 3.0
	if math.Abs(p.AvgConfidence-wantConfidence) > 1e-9 {
		t.Errorf("expected avg confidence %f, got %f", wantConfidence, p.AvgConfidence)
	}
	wantDuration := 4 * time.Second
	if diff := p.AvgDuration - wantDuration; diff < -time.Millisecond || diff > time.Millisecond {
		t.Errorf("expected avg duration near %s, got %s", wantDuration, p.AvgDuration)
	}
	wantRate := 2.0 / 3.0
	if math.Abs(p.SuccessRate()-wantRate) > 1e-9 {
		t.Errorf("expected success rate %f, got %f", wantRate, p.SuccessRate())
	}
}

func TestPatternReadIsIdempotent(t *testing.T) {
	l := NewLearner(newRegistry(t), nil)
	l.Record(salesTask(), resultWith(models.ResultCompleted, 0.8, time.Second), nil)

	first, _ := l.Pattern("sales", models.ComplexityModerate, models.PriorityHigh)
	second, _ := l.Pattern("sales", models.ComplexityModerate, models.PriorityHigh)

	if first.Executions != second.Executions || first.AvgConfidence != second.AvgConfidence {
		t.Error("repeated pattern reads must return identical values")
	}

	// Mutating the snapshot must not leak back into the learner.
	first.WorkerSuccesses["intruder"] = 99
	third, _ := l.Pattern("sales", models.ComplexityModerate, models.PriorityHigh)
	if _, leaked := third.WorkerSuccesses["intruder"]; leaked {
		t.Error("snapshot mutation leaked into learner state")
	}
}

func TestPatternMissing(t *testing.T) {
	l := NewLearner(newRegistry(t), nil)
	if _, ok := l.Pattern("nowhere", models.ComplexitySimple, models.PriorityLow); ok {
		t.Error("expected no pattern for unrecorded key")
	}
}

func TestWorkerSuccessAttribution(t *testing.T) {
	l := NewLearner(newRegistry(t, "w1", "w2"), nil)

	l.Record(salesTask(),
		resultWith(models.ResultCompleted, 0.8, time.Second,
			execution("a", "w1", models.ExecutionCompleted, 0.8),
			execution("b", "w2", models.ExecutionFailed, 0)),
		nil)

	p, _ := l.Pattern("sales", models.ComplexityModerate, models.PriorityHigh)
	if p.WorkerSuccesses["w1"] != 1 {
		t.Errorf("expected w1 credited once, got %d", p.WorkerSuccesses["w1"])
	}
	if p.WorkerSuccesses["w2"] != 0 {
		t.Errorf("failed execution must not credit w2, got %d", p.WorkerSuccesses["w2"])
	}
}

func TestHistoricalPerformance(t *testing.T) {
	l := NewLearner(newRegistry(t, "w1"), nil)
	subtasks := map[string]*models.Subtask{
		"a": {ID: "a", Capability: "analysis"},
	}

	if got := l.HistoricalPerformance("w1", "analysis"); got != 0 {
		t.Errorf("expected 0 with no history, got %f", got)
	}

	for i := 0; i < 4; i++ {
		status := models.ExecutionCompleted
		if i == 3 {
			status = models.ExecutionFailed
		}
		l.Record(salesTask(),
			resultWith(models.ResultCompleted, 0.8, time.Second,
				execution("a", "w1", status, 0.8)),
			subtasks)
	}

	if got := l.HistoricalPerformance("w1", "analysis"); math.Abs(got-0.75) > 1e-9 {
		t.Errorf("expected success rate 0.75, got %f", got)
	}
	if got := l.HistoricalPerformance("w1", "research"); got != 0 {
		t.Errorf("expected 0 for unseen capability, got %f", got)
	}
}

func TestConcurrentRecord(t *testing.T) {
	l := NewLearner(newRegistry(t, "w1"), nil)
	subtasks := map[string]*models.Subtask{
		"a": {ID: "a", Capability: "analysis"},
	}

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 25; j++ {
				l.Record(salesTask(),
					resultWith(models.ResultCompleted, 0.8, time.Second,
						execution("a", "w1", models.ExecutionCompleted, 0.8)),
					subtasks)
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}

	p, _ := l.Pattern("sales", models.ComplexityModerate, models.PriorityHigh)
	if p.Executions != 200 {
		t.Errorf("expected 200 recorded executions, got %d", p.Executions)
	}
	if got := l.HistoricalPerformance("w1", "analysis"); got != 1 {
		t.Errorf("expected success rate 1, got %f", got)
	}
}
