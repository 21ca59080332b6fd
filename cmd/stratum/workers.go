package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/stratum/internal/registry"
)

var workersCmd = &cobra.Command{
	Use:   "workers <task-file.yaml>",
	Short: "Validate and list the worker fleet in a task file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tf, err := LoadTaskFile(args[0])
		if err != nil {
			return err
		}

		reg := registry.New()
		for _, w := range tf.Workers {
			if err := reg.Register(w); err != nil {
				return err
			}
		}

		for _, w := range reg.All() {
			caps := make([]string, len(w.Capabilities))
			for i, c := range w.Capabilities {
				caps[i] = string(c)
			}
			fmt.Printf("%-12s %-20s perf=%.2f health=%-9s [%s]\n",
				w.ID, w.Name, w.Performance, w.Health, strings.Join(caps, ", "))
		}
		fmt.Printf("%d workers registered\n", reg.Count())
		return nil
	},
}
