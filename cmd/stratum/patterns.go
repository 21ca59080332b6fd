package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/stratum/internal/config"
	"github.com/ShayCichocki/stratum/internal/learning"
)

var (
	patternsDomain string
	patternsDB     string
)

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "Show orchestration pattern statistics from the journal",
	Long: `Patterns aggregates the outcome journal per (domain,
complexity, priority) key: execution counts, success rates, average
duration, and average confidence. The journal must be enabled in the
configuration for outcomes to accumulate.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath := patternsDB
		if dbPath == "" {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			dbPath = cfg.Journal.Path
		}
		if dbPath == "" {
			dbPath = learning.DefaultJournalPath()
		}

		journal, err := learning.OpenJournal(dbPath)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer journal.Close()

		rows, err := journal.AggregatePatterns(patternsDomain)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			fmt.Println("no orchestrations recorded")
			return nil
		}

		fmt.Printf("%-16s %-12s %-10s %6s %8s %10s %6s\n",
			"DOMAIN", "COMPLEXITY", "PRIORITY", "RUNS", "SUCCESS", "AVG TIME", "CONF")
		for _, r := range rows {
			successRate := float64(r.Successes) / float64(r.Executions)
			avg := time.Duration(r.AvgDurationMS) * time.Millisecond
			fmt.Printf("%-16s %-12s %-10s %6d %7.0f%% %10s %6.2f\n",
				r.Domain, r.Complexity, r.Priority, r.Executions, successRate*100, avg, r.AvgConfidence)
		}
		return nil
	},
}

func init() {
	patternsCmd.Flags().StringVar(&patternsDomain, "domain", "", "Filter by business domain")
	patternsCmd.Flags().StringVar(&patternsDB, "db", "", "Journal database path")
}
