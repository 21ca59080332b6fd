package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "stratum",
	Short: "Task Orchestration Engine",
	Long: `Stratum decomposes high-level business tasks into dependency
graphs of subtasks, assigns each subtask to the best-fit worker using a
multi-factor scoring model, executes the graph under a selected
concurrency strategy, and learns from execution outcomes to improve
future worker selection.

Core capabilities:
- Decomposes tasks by complexity into single-capability subtasks
- Scores workers on performance, specialization, load, and health
- Executes graphs sequentially, in parallel, or as a pipeline
- Synthesizes partial results with business-impact classification
- Feeds outcomes back into worker performance scores`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(workersCmd)
	rootCmd.AddCommand(patternsCmd)
	rootCmd.AddCommand(versionCmd)
}
