package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ShayCichocki/stratum/pkg/models"
)

// TaskFile is the YAML definition consumed by the run and watch
// commands: one business task plus the worker fleet to execute it.
type TaskFile struct {
	// Task is the business task to orchestrate.
	Task models.BusinessTask `yaml:"task"`
	// Workers is the worker fleet registered before submission.
	Workers []models.Worker `yaml:"workers"`
}

// LoadTaskFile reads and validates a task definition file.
func LoadTaskFile(path string) (*TaskFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read task file: %w", err)
	}

	var tf TaskFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parse task file: %w", err)
	}

	if err := tf.validate(); err != nil {
		return nil, fmt.Errorf("validate task file %s: %w", path, err)
	}
	return &tf, nil
}

func (tf *TaskFile) validate() error {
	if tf.Task.Title == "" {
		return fmt.Errorf("task title is required")
	}
	if tf.Task.Priority != "" && !tf.Task.Priority.Valid() {
		return fmt.Errorf("unknown priority %q", tf.Task.Priority)
	}
	if tf.Task.Complexity != "" && !tf.Task.Complexity.Valid() {
		return fmt.Errorf("unknown complexity %q", tf.Task.Complexity)
	}
	if len(tf.Workers) == 0 {
		return fmt.Errorf("at least one worker is required")
	}

	seen := make(map[string]bool, len(tf.Workers))
	for i, w := range tf.Workers {
		if w.ID == "" {
			return fmt.Errorf("worker %d: id is required", i)
		}
		if seen[w.ID] {
			return fmt.Errorf("duplicate worker id %s", w.ID)
		}
		seen[w.ID] = true
		if len(w.Capabilities) == 0 {
			return fmt.Errorf("worker %s: capabilities are required", w.ID)
		}
		if w.Performance < 0 || w.Performance > 1 {
			return fmt.Errorf("worker %s: performance %.2f outside [0,1]", w.ID, w.Performance)
		}
		for c, s := range w.Specialization {
			if s < 0 || s > 1 {
				return fmt.Errorf("worker %s: specialization for %s outside [0,1]", w.ID, c)
			}
		}
	}
	return nil
}
