package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cellevo/internal/stats"
	"cellevo/internal/storage"
)

var exportDir string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a persisted run's artifacts as JSON files",
	RunE: func(cmd *cobra.Command, args []string) error {
		if runID == "" {
			return fmt.Errorf("--run is required")
		}
		store, err := storage.NewStore(storeKind, dbPath)
		if err != nil {
			return err
		}
		defer func() {
			_ = storage.CloseIfSupported(store)
		}()
		if err := store.Init(cmd.Context()); err != nil {
			return err
		}

		state, found, err := store.GetState(cmd.Context(), runID)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("run %s not found", runID)
		}
		dir, err := stats.WriteRunArtifacts(exportDir, stats.RunArtifacts{State: state})
		if err != nil {
			return err
		}
		fmt.Printf("exported run %s to %s\n", runID, dir)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportDir, "out", "exports", "export base directory")
}
