// Package stats writes run artifacts: JSON snapshots of a run's
// configuration, history, and best checkpoint for offline analysis.
package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"cellevo/internal/model"
)

const runIndexFile = "run_index.json"

// RunArtifacts bundles everything exported for one run.
type RunArtifacts struct {
	State model.EvolutionState
}

// RunIndexEntry is one line of the export directory's run index.
type RunIndexEntry struct {
	RunID          string  `json:"run_id"`
	Generation     int     `json:"generation"`
	PopulationSize int     `json:"population_size"`
	BestAverage    float64 `json:"best_average,omitempty"`
}

// WriteRunArtifacts writes the run's artifacts under baseDir/<runID> and
// returns the directory. Existing artifacts for the run are overwritten.
func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	state := artifacts.State
	if state.RunID == "" {
		return "", fmt.Errorf("run id is required")
	}
	runDir := filepath.Join(baseDir, state.RunID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, "config.json"), state.Config); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "history.json"), state.History); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "population.json"), state.Population); err != nil {
		return "", err
	}
	if state.Best != nil {
		if err := writeJSON(filepath.Join(runDir, "best_checkpoint.json"), state.Best); err != nil {
			return "", err
		}
	}

	entry := RunIndexEntry{
		RunID:          state.RunID,
		Generation:     state.Generation,
		PopulationSize: len(state.Population),
	}
	if state.Best != nil {
		entry.BestAverage = state.Best.AverageFitness
	}
	if err := AppendRunIndex(baseDir, entry); err != nil {
		return "", err
	}
	return runDir, nil
}

// AppendRunIndex upserts an entry in the export directory's run index.
func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		return err
	}
	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}
	index = append(index, entry)
	sort.Slice(index, func(i, j int) bool { return index[i].RunID < index[j].RunID })
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

// ListRunIndex reads the run index; a missing index is an empty list.
func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, runIndexFile))
	if err != nil {
		if os.IsNotExist(err) {
			return []RunIndexEntry{}, nil
		}
		return nil, err
	}
	var entries []RunIndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
