package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"macro-meal-planner/internal/nutrition"
	"macro-meal-planner/internal/planner"
	"macro-meal-planner/internal/recipe"
	"macro-meal-planner/internal/solver"
)

func TestPlanArchive(t *testing.T) {
	tempDir := t.TempDir()
	archive, err := NewPlanArchive(filepath.Join(tempDir, "plans"))
	if err != nil {
		t.Fatalf("Failed to create PlanArchive: %v", err)
	}

	target := nutrition.Macros{Calories: 500, Protein: 40, Carbs: 62.5, Fat: 10}
	soup := recipe.New("Lentil Soup", 500, 40, 10)
	older := &planner.Plan{
		RunID:     "run-older",
		CreatedAt: time.Date(2024, 3, 9, 8, 0, 0, 0, time.UTC),
		Mode:      planner.ModeShared,
		Target:    target,
		Days: []planner.DayPlan{{Day: 1, Menu: &planner.Menu{
			Target: target,
			Items:  []planner.MenuItem{{Recipe: soup, Servings: 1}},
			Totals: soup.Macros(),
			Status: solver.StatusOptimal,
		}}},
	}
	newer := &planner.Plan{
		RunID:     "run-newer",
		CreatedAt: time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC),
		Mode:      planner.ModePartitioned,
		Target:    target,
	}

	t.Run("CheckExists-False", func(t *testing.T) {
		if archive.Exists("run-older") {
			t.Error("Expected plan 'run-older' to not exist, but it does")
		}
	})

	t.Run("Save", func(t *testing.T) {
		for _, p := range []*planner.Plan{older, newer} {
			path, err := archive.Save(p)
			if err != nil {
				t.Fatalf("Failed to save plan: %v", err)
			}
			if _, err := os.Stat(path); err != nil {
				t.Errorf("Expected file '%s' to be created: %v", path, err)
			}
		}
	})

	t.Run("Load", func(t *testing.T) {
		loaded, err := archive.Load("run-older")
		if err != nil {
			t.Fatalf("Failed to load plan: %v", err)
		}
		if loaded.Mode != planner.ModeShared {
			t.Errorf("Expected mode shared, got %s", loaded.Mode)
		}
		if len(loaded.Days) != 1 || loaded.Days[0].Menu.Items[0].Recipe.Title != "Lentil Soup" {
			t.Errorf("Expected Lentil Soup on day 1, got %+v", loaded.Days)
		}
		if loaded.Days[0].Menu.Status != solver.StatusOptimal {
			t.Errorf("Expected status optimal, got %s", loaded.Days[0].Menu.Status)
		}
	})

	t.Run("LoadMissing", func(t *testing.T) {
		if _, err := archive.Load("nope"); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("Expected os.ErrNotExist, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		plans, err := archive.List()
		if err != nil {
			t.Fatalf("Failed to list plans: %v", err)
		}
		if len(plans) != 2 {
			t.Fatalf("Expected 2 plans, got %d", len(plans))
		}
		if plans[0].RunID != "run-newer" || plans[1].RunID != "run-older" {
			t.Errorf("Expected newest first, got %s then %s", plans[0].RunID, plans[1].RunID)
		}
	})

	t.Run("SaveWithoutRunID", func(t *testing.T) {
		if _, err := archive.Save(&planner.Plan{}); err == nil {
			t.Error("Expected an error for a plan without a run id")
		}
	})
}
