package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	verbose    bool
	jsonOutput bool
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fsv",
		Short: "FlySight Viewer - flight telemetry analysis",
		Long: `FlySight Viewer analyzes flight telemetry recorded by FlySight GNSS
loggers and companion sensors.

Features:
  - FS1 and FS2 log file import
  - Lazy, cached resolution of computed measurements and attributes
  - Built-in producers: flight times, Allan deviation, pitot airspeed
  - Session catalog backed by SQLite
  - Directory watching for freshly mounted devices`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	// Add subcommands
	rootCmd.AddCommand(newImportCommand())
	rootCmd.AddCommand(newEvalCommand())
	rootCmd.AddCommand(newAttrsCommand())
	rootCmd.AddCommand(newPlotsCommand())
	rootCmd.AddCommand(newSessionsCommand())
	rootCmd.AddCommand(newWatchCommand())

	return rootCmd
}
