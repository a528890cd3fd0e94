package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"macro-meal-planner/internal/planner"
)

const fileTimeLayout = "20060102T150405Z"

// PlanArchive provides a file-based archive of generated meal plans.
type PlanArchive struct {
	basePath string
}

// ArchivedPlan describes one archived plan file.
type ArchivedPlan struct {
	RunID     string
	CreatedAt time.Time
	Path      string
}

// NewPlanArchive creates a new PlanArchive and ensures the base directory exists.
func NewPlanArchive(basePath string) (*PlanArchive, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory %s: %w", basePath, err)
	}
	return &PlanArchive{basePath: basePath}, nil
}

// planPath names files by creation time first so a directory listing is
// chronological.
func (a *PlanArchive) planPath(plan *planner.Plan) string {
	filename := fmt.Sprintf("%s_%s.json", plan.CreatedAt.UTC().Format(fileTimeLayout), plan.RunID)
	return filepath.Join(a.basePath, filename)
}

// Save stores a plan as indented JSON and returns the file path.
func (a *PlanArchive) Save(plan *planner.Plan) (string, error) {
	if plan.RunID == "" {
		return "", fmt.Errorf("plan has no run id")
	}
	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal plan: %w", err)
	}

	filePath := a.planPath(plan)
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write plan file: %w", err)
	}
	return filePath, nil
}

// Load retrieves an archived plan by run id.
func (a *PlanArchive) Load(runID string) (*planner.Plan, error) {
	filePath, err := a.find(runID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}

	var plan planner.Plan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plan: %w", err)
	}
	return &plan, nil
}

// Exists checks if a plan with the given run id has been archived.
func (a *PlanArchive) Exists(runID string) bool {
	_, err := a.find(runID)
	return err == nil
}

func (a *PlanArchive) find(runID string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(a.basePath, "*_"+runID+".json"))
	if err != nil {
		return "", fmt.Errorf("failed to glob plan files: %w", err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("plan %s: %w", runID, os.ErrNotExist)
	}
	return matches[0], nil
}

// List returns every archived plan, newest first. Files that do not follow
// the archive naming scheme are ignored.
func (a *PlanArchive) List() ([]ArchivedPlan, error) {
	matches, err := filepath.Glob(filepath.Join(a.basePath, "*_*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to glob plan files: %w", err)
	}

	plans := make([]ArchivedPlan, 0, len(matches))
	for _, match := range matches {
		name := strings.TrimSuffix(filepath.Base(match), ".json")
		stamp, runID, ok := strings.Cut(name, "_")
		if !ok {
			continue
		}
		createdAt, err := time.Parse(fileTimeLayout, stamp)
		if err != nil {
			continue
		}
		plans = append(plans, ArchivedPlan{RunID: runID, CreatedAt: createdAt, Path: match})
	}
	sort.Slice(plans, func(i, j int) bool {
		return plans[i].CreatedAt.After(plans[j].CreatedAt)
	})
	return plans, nil
}
