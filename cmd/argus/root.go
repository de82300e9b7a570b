package main

import (
	"github.com/argus-review/argus/internal/version"
	"github.com/spf13/cobra"
)

var (
	repoRootFlag string
	logFormat    string
	logLevel     string
	branchFlag   string
)

var rootCmd = &cobra.Command{
	Use:     "argus",
	Short:   "Argus - automated pull-request review context engine",
	Long:    "Argus indexes a repository into a dependency-aware codebase map, persists it to a data branch, and assembles grounded review prompts for pull requests.",
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate("argus version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&repoRootFlag, "repo-root", ".", "path to the repository to operate on")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "human", "log output format: human or json")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&branchFlag, "data-branch", "argus-data", "orphan branch Argus persists its codebase map to")

	rootCmd.AddCommand(bootstrapCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(outlineCmd)
	rootCmd.AddCommand(whyCmd)
	rootCmd.AddCommand(inspectCmd)
}
