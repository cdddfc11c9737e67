// Package goalset loads and merges the held-out goal files that gate and
// diagnose a run.
package goalset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// GoalSet is a parallel list of theorem statements and reference solutions.
type GoalSet struct {
	Theorems  []string
	Solutions []string
}

type goalFile struct {
	Goals []struct {
		Theorem  string `json:"theorem"`
		Solution string `json:"solution"`
	} `json:"goals"`
}

// Load reads a single goal file of the form
// {"goals": [{"theorem": ..., "solution": ...}, ...]}.
func Load(path string) (GoalSet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return GoalSet{}, fmt.Errorf("read goal file %s: %w", path, err)
	}

	var parsed goalFile
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return GoalSet{}, fmt.Errorf("parse goal file %s: %w", path, err)
	}
	if len(parsed.Goals) == 0 {
		return GoalSet{}, fmt.Errorf("goal file %s contains no goals", path)
	}

	var gs GoalSet
	for _, g := range parsed.Goals {
		gs.Theorems = append(gs.Theorems, g.Theorem)
		gs.Solutions = append(gs.Solutions, g.Solution)
	}
	return gs, nil
}

// LoadPrefix loads a goal set named by path. If path is an existing file it
// is loaded directly; otherwise every .json file in path's directory whose
// name starts with path's base name is loaded and concatenated. This matches
// validation sets sharded across multiple files.
func LoadPrefix(path string) (GoalSet, error) {
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	dir := filepath.Dir(path)
	prefix := filepath.Base(path)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return GoalSet{}, fmt.Errorf("read goals directory %s: %w", dir, err)
	}

	var merged GoalSet
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		gs, err := Load(filepath.Join(dir, name))
		if err != nil {
			return GoalSet{}, err
		}
		merged.Theorems = append(merged.Theorems, gs.Theorems...)
		merged.Solutions = append(merged.Solutions, gs.Solutions...)
	}
	if len(merged.Theorems) == 0 {
		return GoalSet{}, fmt.Errorf("no goal files matching %s", path)
	}
	return merged, nil
}

// Merge appends b onto a, dropping theorems already present. Order is
// preserved so runs stay reproducible.
func Merge(a, b GoalSet) GoalSet {
	seen := make(map[string]struct{}, len(a.Theorems))
	var merged GoalSet
	add := func(theorem, solution string) {
		if _, dup := seen[theorem]; dup {
			return
		}
		seen[theorem] = struct{}{}
		merged.Theorems = append(merged.Theorems, theorem)
		merged.Solutions = append(merged.Solutions, solution)
	}
	for i, t := range a.Theorems {
		add(t, a.Solutions[i])
	}
	for i, t := range b.Theorems {
		add(t, b.Solutions[i])
	}
	return merged
}
