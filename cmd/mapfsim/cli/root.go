// Package cli wires the mapfsim command tree: a thin layer over simcore
// that loads configuration and a logger and hands off to the simulation
// core, nothing more.
package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgPath string
	verbose bool
	logger  *zap.Logger
)

// Execute runs the mapfsim root command.
func Execute() error {
	root := &cobra.Command{
		Use:   "mapfsim",
		Short: "Run cooperative-discrete-planner and local-reactive-controller trials",
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "path to the run's YAML configuration")
	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug-level logging")

	root.AddCommand(newRunCmd())
	root.AddCommand(newBenchCmd())

	return root.Execute()
}

func buildLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
