// Package cli wires the cobra commands behind the cmd/flame2 example
// driver: "run --model <file>" loads a declarative model and drives it
// for a number of iterations, "demo circles" builds a small population
// programmatically to show the same entry points a modeldef file
// drives under the hood.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Execute runs the flame2 example driver CLI.
func Execute() error {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	root := &cobra.Command{
		Use:           "flame2",
		Short:         "Example driver for the flame2 agent-based simulation library",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newRunCmd())
	root.AddCommand(newDemoCmd())

	return root.Execute()
}
