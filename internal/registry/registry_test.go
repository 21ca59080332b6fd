package registry

import (
	"fmt"
	"math"
	"testing"

	"github.com/ShayCichocki/stratum/pkg/models"
)

func testWorker(id string, caps ...models.Capability) models.Worker {
	return models.Worker{
		ID:           id,
		Name:         "worker " + id,
		Capabilities: caps,
		Performance:  0.7,
	}
}

func TestRegisterAndGet(t *testing.T) {
	r := New()
	if err := r.Register(testWorker("w1", "research")); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	w, ok := r.Get("w1")
	if !ok {
		t.Fatal("expected worker w1")
	}
	if w.Health != models.HealthUnknown {
		t.Errorf("expected unknown health, got %s", w.Health)
	}
	if w.CurrentLoad != 0 {
		t.Errorf("expected zero load, got %f", w.CurrentLoad)
	}
}

func TestRegisterValidation(t *testing.T) {
	r := New()

	if err := r.Register(models.Worker{ID: "nocaps"}); err == nil {
		t.Error("expected error for worker without capabilities")
	}
	if err := r.Register(models.Worker{ID: "", Capabilities: []models.Capability{"x"}}); err == nil {
		t.Error("expected error for empty worker ID")
	}
	if err := r.Register(models.Worker{ID: "bad", Capabilities: []models.Capability{"x"}, Performance: 1.5}); err == nil {
		t.Error("expected error for performance outside [0,1]")
	}

	if err := r.Register(testWorker("dup", "x")); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := r.Register(testWorker("dup", "x")); err == nil {
		t.Error("expected error for duplicate registration")
	}
}

func TestGetReturnsSnapshot(t *testing.T) {
	r := New()
	w := testWorker("w1", "research")
	w.Specialization = map[models.Capability]float64{"research": 0.9}
	if err := r.Register(w); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	snap, _ := r.Get("w1")
	snap.Specialization["research"] = 0.1
	snap.Performance = 0

	again, _ := r.Get("w1")
	if again.Specialization["research"] != 0.9 {
		t.Error("snapshot mutation leaked into registry")
	}
	if again.Performance != 0.7 {
		t.Error("snapshot mutation leaked into registry performance")
	}
}

func TestWorkersForDeterministicOrder(t *testing.T) {
	r := New()
	for _, id := range []string{"w3", "w1", "w2"} {
		if err := r.Register(testWorker(id, "analysis")); err != nil {
			t.Fatalf("register failed: %v", err)
		}
	}

	workers := r.WorkersFor("analysis")
	if len(workers) != 3 {
		t.Fatalf("expected 3 workers, got %d", len(workers))
	}
	for i, want := range []string{"w1", "w2", "w3"} {
		if workers[i].ID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, workers[i].ID)
		}
	}

	if got := r.WorkersFor("missing"); len(got) != 0 {
		t.Errorf("expected no workers for missing capability, got %d", len(got))
	}
}

func TestUpdateLoadClampsAtZero(t *testing.T) {
	r := New()
	if err := r.Register(testWorker("w1", "x")); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if err := r.UpdateLoad("w1", 0.5); err != nil {
		t.Fatalf("update load failed: %v", err)
	}
	if err := r.UpdateLoad("w1", -2.0); err != nil {
		t.Fatalf("update load failed: %v", err)
	}

	w, _ := r.Get("w1")
	if w.CurrentLoad != 0 {
		t.Errorf("expected load clamped to 0, got %f", w.CurrentLoad)
	}

	if err := r.UpdateLoad("ghost", 1); err == nil {
		t.Error("expected error for unknown worker")
	}
}

func TestLoadConservation(t *testing.T) {
	r := New()
	if err := r.Register(testWorker("w1", "x")); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	deltas := []float64{0.5, 0.75, 1.25, -0.5, -0.75, -1.25}
	for _, d := range deltas {
		if err := r.UpdateLoad("w1", d); err != nil {
			t.Fatalf("update load failed: %v", err)
		}
	}

	w, _ := r.Get("w1")
	if math.Abs(w.CurrentLoad) > 1e-9 {
		t.Errorf("expected balanced load near 0, got %g", w.CurrentLoad)
	}
}

func TestUpdatePerformanceSuccess(t *testing.T) {
	r := New()
	if err := r.Register(testWorker("w1", "x")); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if err := r.UpdatePerformance("w1", 0.9, true); err != nil {
		t.Fatalf("update performance failed: %v", err)
	}

	w, _ := r.Get("w1")
	want := 0.9*0.7 + 0.1*0.9
	if math.Abs(w.Performance-want) > 1e-9 {
		t.Errorf("expected performance %f, got %f", want, w.Performance)
	}
	if w.CompletedTasks != 1 {
		t.Errorf("expected 1 completed task, got %d", w.CompletedTasks)
	}
}

func TestUpdatePerformanceFailureFloor(t *testing.T) {
	r := New()
	if err := r.Register(testWorker("w1", "x")); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	// Repeated failures decay performance but never below the floor.
	for i := 0; i < 100; i++ {
		if err := r.UpdatePerformance("w1", 0, false); err != nil {
			t.Fatalf("update performance failed: %v", err)
		}
	}

	w, _ := r.Get("w1")
	if w.Performance != 0.1 {
		t.Errorf("expected performance floor 0.1, got %f", w.Performance)
	}
	if w.CompletedTasks != 0 {
		t.Errorf("expected 0 completed tasks, got %d", w.CompletedTasks)
	}
}

func TestUpdateHealth(t *testing.T) {
	r := New()
	if err := r.Register(testWorker("w1", "x")); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if err := r.UpdateHealth("w1", models.HealthDegraded); err != nil {
		t.Fatalf("update health failed: %v", err)
	}
	w, _ := r.Get("w1")
	if w.Health != models.HealthDegraded {
		t.Errorf("expected degraded, got %s", w.Health)
	}

	if err := r.UpdateHealth("w1", "sideways"); err == nil {
		t.Error("expected error for invalid status")
	}
}

func TestPollOnceKeepsStatusOnError(t *testing.T) {
	r := New()
	if err := r.Register(testWorker("w1", "x")); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := r.UpdateHealth("w1", models.HealthHealthy); err != nil {
		t.Fatalf("update health failed: %v", err)
	}

	r.pollOnce(HealthSourceFunc(func(workerID string) (models.HealthStatus, error) {
		return "", fmt.Errorf("probe timeout")
	}))

	w, _ := r.Get("w1")
	if w.Health != models.HealthHealthy {
		t.Errorf("missed poll should keep previous status, got %s", w.Health)
	}

	r.pollOnce(HealthSourceFunc(func(workerID string) (models.HealthStatus, error) {
		return models.HealthUnhealthy, nil
	}))

	w, _ = r.Get("w1")
	if w.Health != models.HealthUnhealthy {
		t.Errorf("expected unhealthy after successful poll, got %s", w.Health)
	}
}

func TestCapabilityIndexRemove(t *testing.T) {
	idx := NewCapabilityIndex()
	if err := idx.Add("w1", []models.Capability{"a", "b"}); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := idx.Add("w1", []models.Capability{"a"}); err == nil {
		t.Error("expected error for duplicate index entry")
	}

	idx.Remove("w1")
	if got := idx.Lookup("a"); len(got) != 0 {
		t.Errorf("expected empty lookup after removal, got %v", got)
	}
}
