package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	storeKind string
	dbPath    string
	runID     string
	verbose   bool

	// Logger
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "cellevoctl",
	Short: "cellevo - genetic search over 2D cellular-automaton rule space",
	Long: `cellevoctl drives a genetic algorithm over the space of 512-bit
2D cellular-automaton transition rules, scoring candidates by emergent
behavior (local symmetry, pattern formation) on toroidal grids.

Runs checkpoint at every generation boundary and can be resumed.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&storeKind, "store", "sqlite", "store backend: memory|sqlite")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "cellevo.db", "sqlite database path")
	rootCmd.PersistentFlags().StringVar(&runID, "run", "", "run identifier (generated when empty)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(initCmd, runCmd, resumeCmd, bestCmd, historyCmd, summaryCmd, runsCmd, exportCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
