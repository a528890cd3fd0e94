package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"macro-meal-planner/internal/config"
	"macro-meal-planner/internal/ingest"
	"macro-meal-planner/internal/nutrition"
	"macro-meal-planner/internal/planner"
	"macro-meal-planner/internal/solver"
	"macro-meal-planner/internal/storage"
)

const recipesCSV = `title,calories,protein,fat
Lentil Soup,500,40,10
Chickpea Curry,500,40,10
Rice Bowl,400,10,5
Tiny Snack,100,5,2
`

func newTestApp(t *testing.T) (*App, *config.Config) {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		DBDriver:         config.DriverSQLite,
		DBName:           filepath.Join(dir, "recipes.db"),
		CandidateLimit:   2100,
		PlannerObjective: "min-calories",
		MaxServings:      3,
		NodeLimit:        5000,
		PlanArchiveDir:   filepath.Join(dir, "plans"),
		IngestLockPath:   filepath.Join(dir, "ingest.lock"),
	}
	a, err := New(cfg, ingest.DefaultFilter(), zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to create app: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a, cfg
}

func writeCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "recipes.csv")
	if err := os.WriteFile(path, []byte(recipesCSV), 0644); err != nil {
		t.Fatalf("Failed to write csv: %v", err)
	}
	return path
}

func TestIngestRecipes(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestApp(t)
	path := writeCSV(t)

	stats, err := a.IngestRecipes(ctx, path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if stats.Inserted != 3 || stats.TotalSkipped() != 1 {
		t.Errorf("Expected 3 inserted and 1 skipped, got %s", stats)
	}

	count, err := a.RecipeCount(ctx)
	if err != nil {
		t.Fatalf("Failed to count recipes: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected 3 recipes, got %d", count)
	}

	if _, err := a.IngestRecipes(ctx, filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("Expected an error for a missing file")
	}
}

func TestGeneratePlan(t *testing.T) {
	ctx := context.Background()
	a, cfg := newTestApp(t)
	if _, err := a.IngestRecipes(ctx, writeCSV(t)); err != nil {
		t.Fatalf("Failed to ingest: %v", err)
	}
	target := nutrition.Macros{Calories: 500, Protein: 40, Carbs: 62.5, Fat: 10}

	t.Run("PartitionedRecordsMetricsAndArchives", func(t *testing.T) {
		plan, err := a.GeneratePlan(ctx, planner.PlanRequest{Target: target, Days: 1, Mode: planner.ModePartitioned})
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if len(plan.Days) != 1 || plan.Days[0].Menu.Status != solver.StatusOptimal {
			t.Fatalf("Expected one optimal day, got %+v", plan.Days)
		}

		summary, err := a.DailySummary(ctx, 1)
		if err != nil {
			t.Fatalf("Failed to read metrics: %v", err)
		}
		if len(summary) != 1 || summary[0].Solves != 1 || summary[0].Optimal != 1 {
			t.Errorf("Expected one optimal solve recorded, got %+v", summary)
		}

		archive, err := storage.NewPlanArchive(cfg.PlanArchiveDir)
		if err != nil {
			t.Fatalf("Failed to open archive: %v", err)
		}
		if !archive.Exists(plan.RunID) {
			t.Errorf("Expected plan %s to be archived", plan.RunID)
		}
	})

	t.Run("SharedRepeatsAcrossDays", func(t *testing.T) {
		plan, err := a.GeneratePlan(ctx, planner.PlanRequest{Target: target, Days: 2, Mode: planner.ModeShared})
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		first, second := plan.Days[0].Menu, plan.Days[1].Menu
		if first.Empty() || second.Empty() {
			t.Fatalf("Expected both days to have a menu, got %+v and %+v", first, second)
		}
		if first.Candidates != 3 || second.Candidates != 3 {
			t.Errorf("Expected the full pool each day, got %d and %d", first.Candidates, second.Candidates)
		}
	})

	t.Run("InvalidTarget", func(t *testing.T) {
		bad := nutrition.Macros{Calories: 2000, Protein: 150, Carbs: 200, Fat: 60}
		_, err := a.GeneratePlan(ctx, planner.PlanRequest{Target: bad, Days: 1})
		if !errors.Is(err, nutrition.ErrMacroMismatch) {
			t.Errorf("Expected ErrMacroMismatch, got %v", err)
		}
	})

	t.Run("CleanupKeepsRecentMetrics", func(t *testing.T) {
		deleted, err := a.CleanupMetrics(ctx, 30)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if deleted != 0 {
			t.Errorf("Expected no recent metric to be deleted, got %d", deleted)
		}
	})
}

func TestStorePath(t *testing.T) {
	a, cfg := newTestApp(t)
	if a.StorePath() != cfg.DBName {
		t.Errorf("Expected store path %s, got %s", cfg.DBName, a.StorePath())
	}
}
