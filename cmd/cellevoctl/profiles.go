package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"cellevo/internal/model"
)

// runProfile is the YAML shape of a run configuration file. Zero-valued
// fields keep their defaults.
type runProfile struct {
	GridWidth       int     `yaml:"grid_width"`
	GridHeight      int     `yaml:"grid_height"`
	Iterations      int     `yaml:"iterations"`
	PopulationSize  int     `yaml:"population_size"`
	MutationRatePct float64 `yaml:"mutation_rate_pct"`
	MaxGenes        int     `yaml:"max_genes_per_mutation"`
	Workers         int     `yaml:"workers"`
	Seed            int64   `yaml:"seed"`
	Fitness         struct {
		Strategy    string  `yaml:"strategy"`
		MinDensity  float64 `yaml:"min_density"`
		MaxDensity  float64 `yaml:"max_density"`
		PatchSize   int     `yaml:"patch_size"`
		Pattern     string  `yaml:"pattern"`
		Tolerance   int     `yaml:"tolerance"`
		ScoringMode string  `yaml:"scoring_mode"`
		ScoreWindow int     `yaml:"score_window"`
	} `yaml:"fitness"`
}

func loadProfile(path string) (model.RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.RunConfig{}, fmt.Errorf("read profile %s: %w", path, err)
	}
	var profile runProfile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return model.RunConfig{}, fmt.Errorf("parse profile %s: %w", path, err)
	}

	cfg := model.DefaultRunConfig()
	if profile.GridWidth != 0 {
		cfg.GridWidth = profile.GridWidth
	}
	if profile.GridHeight != 0 {
		cfg.GridHeight = profile.GridHeight
	}
	if profile.Iterations != 0 {
		cfg.Iterations = profile.Iterations
	}
	if profile.PopulationSize != 0 {
		cfg.PopulationSize = profile.PopulationSize
	}
	if profile.MutationRatePct != 0 {
		cfg.MutationRatePct = profile.MutationRatePct
	}
	if profile.MaxGenes != 0 {
		cfg.MaxGenes = profile.MaxGenes
	}
	if profile.Workers != 0 {
		cfg.Workers = profile.Workers
	}
	cfg.Seed = profile.Seed
	if profile.Fitness.Strategy != "" {
		cfg.Fitness.Strategy = profile.Fitness.Strategy
	}
	if profile.Fitness.MinDensity != 0 {
		cfg.Fitness.MinDensity = profile.Fitness.MinDensity
	}
	if profile.Fitness.MaxDensity != 0 {
		cfg.Fitness.MaxDensity = profile.Fitness.MaxDensity
	}
	if profile.Fitness.PatchSize != 0 {
		cfg.Fitness.PatchSize = profile.Fitness.PatchSize
	}
	if profile.Fitness.Pattern != "" {
		cfg.Fitness.Pattern = profile.Fitness.Pattern
	}
	if profile.Fitness.Tolerance != 0 {
		cfg.Fitness.Tolerance = profile.Fitness.Tolerance
	}
	if profile.Fitness.ScoringMode != "" {
		cfg.Fitness.ScoringMode = profile.Fitness.ScoringMode
	}
	if profile.Fitness.ScoreWindow != 0 {
		cfg.Fitness.ScoreWindow = profile.Fitness.ScoreWindow
	}
	return cfg, cfg.Validate()
}
