package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/stratum/internal/config"
	"github.com/ShayCichocki/stratum/internal/engine"
	"github.com/ShayCichocki/stratum/internal/learning"
	"github.com/ShayCichocki/stratum/internal/registry"
	"github.com/ShayCichocki/stratum/pkg/models"
)

var runVerbose bool

var runCmd = &cobra.Command{
	Use:   "run <task-file.yaml>",
	Short: "Orchestrate a task defined in a YAML file",
	Long: `Run orchestrates a single business task.

The task file declares the task (title, domain, priority, complexity,
required capabilities) and the worker fleet. The task is decomposed by
complexity, each subtask is assigned to the best-scoring worker, and
the subtask graph executes under an automatically selected strategy.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runTaskFile(ctx, args[0])
	},
}

func init() {
	runCmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print per-subtask progress")
}

// runTaskFile loads a task file, builds an engine around its fleet, and
// submits the task.
func runTaskFile(ctx context.Context, path string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	tf, err := LoadTaskFile(path)
	if err != nil {
		return err
	}

	reg := registry.New()
	for _, w := range tf.Workers {
		if err := reg.Register(w); err != nil {
			return fmt.Errorf("register worker: %w", err)
		}
	}

	opts := []engine.Option{}
	if cfg.Logging.DebugLog != "" {
		logger, err := engine.NewDebugLogger(cfg.Logging.DebugLog)
		if err != nil {
			return err
		}
		opts = append(opts, engine.WithLogger(logger))
	}
	if cfg.Journal.Enabled {
		journalPath := cfg.Journal.Path
		if journalPath == "" {
			journalPath = learning.DefaultJournalPath()
		}
		journal, err := learning.OpenJournal(journalPath)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer journal.Close()
		opts = append(opts, engine.WithJournal(journal))
	}

	eng := engine.New(cfg, reg, opts...)
	defer eng.Close()

	if runVerbose {
		go printEvents(eng.Events())
	}

	result, err := eng.Submit(ctx, &tf.Task)
	if err != nil {
		printResult(result)
		return err
	}

	printResult(result)
	return nil
}

// printEvents streams per-subtask progress to stdout.
func printEvents(events <-chan engine.Event) {
	for ev := range events {
		switch ev.Type {
		case engine.EventSubtaskStarted:
			fmt.Printf("  → subtask %s running on %s\n", shortID(ev.SubtaskID), ev.WorkerID)
		case engine.EventSubtaskCompleted:
			color.Green("  ✓ subtask %s completed", shortID(ev.SubtaskID))
		case engine.EventSubtaskFailed:
			color.Red("  ✗ subtask %s failed: %s", shortID(ev.SubtaskID), ev.Message)
		}
	}
}

// printResult prints the orchestration outcome summary.
func printResult(result *models.OrchestrationResult) {
	if result == nil {
		return
	}

	fmt.Println()
	if result.Status == models.ResultCompleted {
		color.Green("Task %s: %s", shortID(result.TaskID), result.Status)
	} else {
		color.Red("Task %s: %s", shortID(result.TaskID), result.Status)
	}

	fmt.Printf("  subtasks:   %d total, %d succeeded, %d failed\n",
		result.Summary.Total, result.Summary.Succeeded, result.Summary.Failed)
	fmt.Printf("  confidence: %.2f\n", result.Confidence)
	fmt.Printf("  impact:     %s\n", result.Impact)
	fmt.Printf("  duration:   %s\n", result.Duration)

	if result.Error != "" {
		color.Red("  error:      %s", result.Error)
	}
	if len(result.Insights) > 0 {
		fmt.Println("  insights:")
		for _, insight := range result.Insights {
			fmt.Printf("    - %s\n", insight)
		}
	}
	if len(result.Recommendations) > 0 {
		fmt.Println("  recommendations:")
		for _, rec := range result.Recommendations {
			fmt.Printf("    - %s\n", rec)
		}
	}
}

// shortID trims UUIDs for terminal output.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
