package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cellevo/internal/model"
	"cellevo/pkg/cellevo"
)

var (
	profilePath string
	generations int
	gridW       int
	gridH       int
	iterations  int
	popSize     int
	mutRate     float64
	mutGenes    int
	workers     int
	seed        int64
	strategy    string
)

func addRunConfigFlags(cmd *cobra.Command) {
	defaults := model.DefaultRunConfig()
	cmd.Flags().StringVar(&profilePath, "profile", "", "YAML run profile (flags override profile values)")
	cmd.Flags().IntVar(&gridW, "width", defaults.GridWidth, "grid width")
	cmd.Flags().IntVar(&gridH, "height", defaults.GridHeight, "grid height")
	cmd.Flags().IntVar(&iterations, "iterations", defaults.Iterations, "simulation steps per evaluation")
	cmd.Flags().IntVar(&popSize, "population", defaults.PopulationSize, "population size (divisible by 4)")
	cmd.Flags().Float64Var(&mutRate, "mutation-rate", defaults.MutationRatePct, "mutation probability percent (0,100]")
	cmd.Flags().IntVar(&mutGenes, "mutation-genes", defaults.MaxGenes, "max genes flipped per mutation event")
	cmd.Flags().IntVar(&workers, "workers", defaults.Workers, "parallel evaluation workers")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed")
	cmd.Flags().StringVar(&strategy, "strategy", defaults.Fitness.Strategy, "fitness strategy: density_symmetry|pattern_match")
}

func buildRunConfig(cmd *cobra.Command) (model.RunConfig, error) {
	cfg := model.DefaultRunConfig()
	if profilePath != "" {
		loaded, err := loadProfile(profilePath)
		if err != nil {
			return model.RunConfig{}, err
		}
		cfg = loaded
	}
	// Explicit flags override the profile.
	if cmd.Flags().Changed("width") {
		cfg.GridWidth = gridW
	}
	if cmd.Flags().Changed("height") {
		cfg.GridHeight = gridH
	}
	if cmd.Flags().Changed("iterations") {
		cfg.Iterations = iterations
	}
	if cmd.Flags().Changed("population") {
		cfg.PopulationSize = popSize
	}
	if cmd.Flags().Changed("mutation-rate") {
		cfg.MutationRatePct = mutRate
	}
	if cmd.Flags().Changed("mutation-genes") {
		cfg.MaxGenes = mutGenes
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = workers
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}
	if cmd.Flags().Changed("strategy") {
		cfg.Fitness.Strategy = strategy
	}
	return cfg, cfg.Validate()
}

func openSession(cmd *cobra.Command, cfg model.RunConfig) (*cellevo.Session, error) {
	return cellevo.NewSession(cmd.Context(), cellevo.Options{
		StoreKind: storeKind,
		DBPath:    dbPath,
		Logger:    logger,
	}, runID, cfg)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a fresh random population",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := buildRunConfig(cmd)
		if err != nil {
			return err
		}
		session, err := openSession(cmd, cfg)
		if err != nil {
			return err
		}
		defer session.Close()

		if err := session.InitializePopulation(cmd.Context()); err != nil {
			return err
		}
		fmt.Printf("initialized run %s with %d individuals\n", session.RunID(), cfg.PopulationSize)
		return nil
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Initialize (or resume) and run generations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := buildRunConfig(cmd)
		if err != nil {
			return err
		}
		session, err := openSession(cmd, cfg)
		if err != nil {
			return err
		}
		defer session.Close()

		if err := session.Resume(cmd.Context()); err != nil {
			return err
		}
		summary, err := session.RunGenerations(cmd.Context(), generations)
		if err != nil {
			return err
		}
		printSummary(session.RunID(), summary)
		return nil
	},
}

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume a persisted run and continue evolving",
	RunE: func(cmd *cobra.Command, args []string) error {
		if runID == "" {
			return fmt.Errorf("--run is required for resume")
		}
		session, err := openSession(cmd, model.DefaultRunConfig())
		if err != nil {
			return err
		}
		defer session.Close()

		if err := session.Resume(cmd.Context()); err != nil {
			return err
		}
		summary, err := session.RunGenerations(cmd.Context(), generations)
		if err != nil {
			return err
		}
		printSummary(session.RunID(), summary)
		return nil
	},
}

func printSummary(runID string, summary cellevo.RunSummary) {
	fmt.Printf("run %s: %d generations, final average %.3f, best-ever average %.3f\n",
		runID, summary.Generations, summary.FinalAverage, summary.BestAverageFitness)
	if summary.CheckpointFailures > 0 {
		fmt.Printf("warning: %d checkpoint writes failed; latest snapshot may be stale\n", summary.CheckpointFailures)
	}
}

func init() {
	addRunConfigFlags(initCmd)
	addRunConfigFlags(runCmd)
	runCmd.Flags().IntVar(&generations, "generations", 10, "generations to run")
	resumeCmd.Flags().IntVar(&generations, "generations", 10, "generations to run")
}
