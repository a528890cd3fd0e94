package ingest

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofrs/flock"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"macro-meal-planner/internal/database"
	"macro-meal-planner/internal/recipe"
)

const sampleCSV = `title,calories,protein,fat,rating
"Lentil Soup",500,40,10,4.5
"Tiny Snack",100,5,2,3
"Lentil Soup",500,40,10,4
"",500,40,10,1
"Bad Number",abc,1,1,2
"Not A Number",NaN,1,1,2
"Negative Carbs",400,60,30,5
"Zero Fat",500,40,0,3
"Pasta",800,30,20,4
"Edge 1501",1501,50,50,1
"Edge 385",385,20,10,2
`

func newTestRepository(t *testing.T) *recipe.Repository {
	t.Helper()
	db, err := database.NewSQLite(filepath.Join(t.TempDir(), "recipes.db"), nil)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return recipe.NewRepository(db)
}

func TestIngestCSV(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	in := NewIngester(repo, Options{Filter: DefaultFilter()}, zap.NewNop())

	stats, err := in.IngestCSV(ctx, strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if stats.Read != 11 {
		t.Errorf("Expected 11 rows read, got %d", stats.Read)
	}
	if stats.Inserted != 3 {
		t.Errorf("Expected 3 inserted, got %d", stats.Inserted)
	}
	if stats.Duplicates != 1 {
		t.Errorf("Expected 1 duplicate, got %d", stats.Duplicates)
	}

	wantSkipped := map[string]int{
		SkipCalorieWindow:  2,
		SkipEmptyTitle:     1,
		SkipMissingValue:   2,
		SkipNegative:       1,
		SkipNonPositiveMac: 1,
	}
	for reason, n := range wantSkipped {
		if stats.Skipped[reason] != n {
			t.Errorf("Expected %d rows skipped for %q, got %d", n, reason, stats.Skipped[reason])
		}
	}

	recs, err := repo.List(ctx, 10)
	if err != nil {
		t.Fatalf("Failed to list recipes: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("Expected 3 stored recipes, got %d", len(recs))
	}
	if recs[0].Title != "Lentil Soup" || recs[0].Carbs != 62.5 {
		t.Errorf("Expected Lentil Soup with 62.5g carbs first, got %+v", recs[0])
	}
	if recs[2].Title != "Edge 385" {
		t.Errorf("Expected the lower window edge to be kept, got %s", recs[2].Title)
	}
}

func TestIngestIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	in := NewIngester(repo, Options{}, zap.NewNop())

	if _, err := in.IngestCSV(ctx, strings.NewReader(sampleCSV)); err != nil {
		t.Fatalf("First run failed: %v", err)
	}
	stats, err := in.IngestCSV(ctx, strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("Second run failed: %v", err)
	}
	if stats.Inserted != 0 {
		t.Errorf("Expected nothing inserted on re-run, got %d", stats.Inserted)
	}
	if stats.Duplicates != 4 {
		t.Errorf("Expected 4 duplicates on re-run, got %d", stats.Duplicates)
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Failed to count recipes: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected 3 recipes after two runs, got %d", count)
	}
}

func TestIngestWithoutFilter(t *testing.T) {
	repo := newTestRepository(t)
	in := NewIngester(repo, Options{Filter: Filter{Disabled: true}}, zap.NewNop())

	stats, err := in.IngestCSV(context.Background(), strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if stats.Inserted != 6 {
		t.Errorf("Expected 6 inserted without the window, got %d", stats.Inserted)
	}
	if stats.Skipped[SkipNegative] != 1 {
		t.Errorf("Expected negative carbs to stay filtered, got %d", stats.Skipped[SkipNegative])
	}
}

func TestIngestMissingColumn(t *testing.T) {
	in := NewIngester(newTestRepository(t), Options{}, zap.NewNop())
	_, err := in.IngestCSV(context.Background(), strings.NewReader("title,calories,protein\nA,1,1\n"))
	if err == nil || !strings.Contains(err.Error(), "fat") {
		t.Errorf("Expected a missing fat column error, got %v", err)
	}
}

func TestIngestXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recipes.xlsx")
	f := excelize.NewFile()
	rows := [][]interface{}{
		{"Title", "Calories", "Protein", "Fat"},
		{"Shakshuka", 500, 40, 10},
		{"Salad", 120, 3, 8},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	f.Close()

	repo := newTestRepository(t)
	in := NewIngester(repo, Options{}, zap.NewNop())
	stats, err := in.IngestFile(context.Background(), path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if stats.Inserted != 1 || stats.Skipped[SkipCalorieWindow] != 1 {
		t.Errorf("Expected 1 inserted and 1 outside the window, got %s", stats)
	}
}

func TestIngestLocked(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "ingest.lock")
	held := flock.New(lockPath)
	ok, err := held.TryLock()
	if err != nil || !ok {
		t.Fatalf("Failed to take lock: %v", err)
	}
	defer held.Unlock()

	in := NewIngester(newTestRepository(t), Options{LockPath: lockPath}, zap.NewNop())
	_, err = in.IngestCSV(context.Background(), strings.NewReader(sampleCSV))
	if !errors.Is(err, ErrLocked) {
		t.Errorf("Expected ErrLocked, got %v", err)
	}
}
