// Command flame2 is a minimal example driver: it loads a modeldef YAML
// file or builds a small population of circle agents programmatically
// and runs iterations, to exercise the library end-to-end for manual
// or CI smoke testing. It is not a general CLI framework.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/flame-hpc/flame2/pkg/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
