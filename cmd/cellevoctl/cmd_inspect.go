package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cellevo/internal/model"
	"cellevo/internal/storage"
)

var historyLimit int

// loadRunState opens the configured store and loads one persisted run.
// Inspection commands never initialize anything: a missing run is an error.
func loadRunState(ctx context.Context) (model.EvolutionState, func(), error) {
	if runID == "" {
		return model.EvolutionState{}, nil, fmt.Errorf("--run is required")
	}
	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return model.EvolutionState{}, nil, err
	}
	closeStore := func() { _ = storage.CloseIfSupported(store) }

	if err := store.Init(ctx); err != nil {
		closeStore()
		return model.EvolutionState{}, nil, err
	}
	state, found, err := store.GetState(ctx, runID)
	if err != nil {
		closeStore()
		return model.EvolutionState{}, nil, err
	}
	if !found {
		closeStore()
		return model.EvolutionState{}, nil, fmt.Errorf("run %s not found", runID)
	}
	return state, closeStore, nil
}

var bestCmd = &cobra.Command{
	Use:   "best",
	Short: "Print the best individual of a persisted run",
	RunE: func(cmd *cobra.Command, args []string) error {
		state, closeStore, err := loadRunState(cmd.Context())
		if err != nil {
			return err
		}
		defer closeStore()

		pool := state.Population
		if state.Best != nil {
			pool = state.Best.Population
		}
		if len(pool) == 0 {
			return fmt.Errorf("run %s has no population", runID)
		}
		best := pool[0]
		for _, ind := range pool[1:] {
			if ind.Fitness > best.Fitness {
				best = ind
			}
		}
		fmt.Printf("fitness: %.3f\nrule: %s\n", best.Fitness, formatRule(best.Rule))
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print per-generation fitness statistics of a persisted run",
	RunE: func(cmd *cobra.Command, args []string) error {
		state, closeStore, err := loadRunState(cmd.Context())
		if err != nil {
			return err
		}
		defer closeStore()

		history := state.History
		start := 0
		if historyLimit > 0 && len(history) > historyLimit {
			start = len(history) - historyLimit
		}
		for _, record := range history[start:] {
			fmt.Printf("gen %4d  avg %10.3f  best %10.3f  min %10.3f\n",
				record.Generation, record.Average, record.Best, record.Min)
		}
		return nil
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print the current standing of a persisted run",
	RunE: func(cmd *cobra.Command, args []string) error {
		state, closeStore, err := loadRunState(cmd.Context())
		if err != nil {
			return err
		}
		defer closeStore()

		fmt.Printf("run:              %s\n", state.RunID)
		fmt.Printf("generation:       %d\n", state.Generation)
		fmt.Printf("population:       %d\n", len(state.Population))
		if n := len(state.History); n > 0 {
			fmt.Printf("last average:     %.3f\n", state.History[n-1].Average)
			fmt.Printf("last best:        %.3f\n", state.History[n-1].Best)
		}
		if state.Best != nil {
			fmt.Printf("best-ever avg:    %.3f\n", state.Best.AverageFitness)
		} else {
			fmt.Println("best-ever avg:    (no checkpoint yet)")
		}
		return nil
	},
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List persisted runs",
	RunE: func(cmd *cobra.Command, args []string) error {
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
		runs, err := store.ListRuns(cmd.Context())
		if err != nil {
			return err
		}
		for _, id := range runs {
			fmt.Println(id)
		}
		return nil
	},
}

// formatRule renders a rule as a 512-character bitstring, MSB-first by
// neighborhood index.
func formatRule(rule model.Rule) string {
	var b strings.Builder
	b.Grow(len(rule))
	for _, bit := range rule {
		b.WriteByte('0' + bit)
	}
	return b.String()
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 0, "show only the last N generations (0 = all)")
}
