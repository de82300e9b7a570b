// Command argus is the CLI entrypoint wiring the context engine, retrieval
// orchestrator, memory layer and review generator into its three modes:
// bootstrap, index and review.
package main

import (
	"os"

	"github.com/argus-review/argus/internal/logging"
)

func main() {
	logger := logging.NewLogger(logging.Config{
		Format: logging.HumanFormat,
		Level:  logging.InfoLevel,
	})

	// With no subcommand on the command line, the mode comes from ARGUS_MODE.
	if mode := os.Getenv("ARGUS_MODE"); mode != "" && len(os.Args) == 1 {
		rootCmd.SetArgs([]string{mode})
	}

	if err := rootCmd.Execute(); err != nil {
		logger.Error("command failed", map[string]interface{}{
			"error": err.Error(),
		})
		os.Exit(1)
	}
}
