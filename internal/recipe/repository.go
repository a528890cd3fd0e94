package recipe

import (
	"context"
	"fmt"

	"macro-meal-planner/internal/database"
)

const selectColumns = "SELECT id, title, calories, protein, fat, carbs FROM recipies"

// Repository is a database-backed repository for recipes.
type Repository struct {
	db *database.DB
}

// NewRepository creates a new Repository.
func NewRepository(d *database.DB) *Repository {
	return &Repository{db: d}
}

// Save inserts a recipe unless one with the same title already exists.
// It reports whether a row was inserted.
func (r *Repository) Save(ctx context.Context, rec Recipe) (bool, error) {
	if err := rec.Validate(); err != nil {
		return false, err
	}
	res, err := r.db.Execute(ctx, `
		INSERT INTO recipies(title, calories, protein, fat, carbs)
			VALUES(?, ?, ?, ?, ?) ON CONFLICT (title) DO NOTHING RETURNING id`,
		rec.Title, rec.Calories, rec.Protein, rec.Fat, rec.Carbs)
	if err != nil {
		return false, fmt.Errorf("failed to save recipe %q: %w", rec.Title, err)
	}
	return !res.Empty(), nil
}

// Get retrieves a recipe by its ID. A missing recipe is (nil, nil).
func (r *Repository) Get(ctx context.Context, id int64) (*Recipe, error) {
	res, err := r.db.Execute(ctx, selectColumns+" WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get recipe by ID: %w", err)
	}
	if res.Empty() {
		return nil, nil // Recipe not found
	}
	rec, err := scanRecipe(res.Rows[0])
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// List returns up to limit recipes ordered by id.
func (r *Repository) List(ctx context.Context, limit int) ([]Recipe, error) {
	return r.ListPage(ctx, 0, limit)
}

// ListPage returns up to limit recipes ordered by id, skipping the first
// offset rows.
func (r *Repository) ListPage(ctx context.Context, offset, limit int) ([]Recipe, error) {
	if limit <= 0 {
		return nil, nil
	}
	res, err := r.db.Execute(ctx, selectColumns+" ORDER BY id LIMIT ? OFFSET ?", limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}

	recipes := make([]Recipe, 0, len(res.Rows))
	for _, row := range res.Rows {
		rec, err := scanRecipe(row)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, rec)
	}
	return recipes, nil
}

// Count returns the number of recipes in the database.
func (r *Repository) Count(ctx context.Context) (int, error) {
	res, err := r.db.Execute(ctx, "SELECT COUNT(*) FROM recipies")
	if err != nil {
		return 0, fmt.Errorf("failed to count recipes: %w", err)
	}
	if res.Empty() {
		return 0, nil
	}
	n, err := database.Int64(res.Rows[0][0])
	if err != nil {
		return 0, fmt.Errorf("failed to read recipe count: %w", err)
	}
	return int(n), nil
}

func scanRecipe(row []any) (Recipe, error) {
	if len(row) != 6 {
		return Recipe{}, fmt.Errorf("expected 6 recipe columns, got %d", len(row))
	}
	var (
		rec Recipe
		err error
	)
	if rec.ID, err = database.Int64(row[0]); err != nil {
		return Recipe{}, fmt.Errorf("recipe id: %w", err)
	}
	if rec.Title, err = database.String(row[1]); err != nil {
		return Recipe{}, fmt.Errorf("recipe %d title: %w", rec.ID, err)
	}
	facts := []*float64{&rec.Calories, &rec.Protein, &rec.Fat, &rec.Carbs}
	for i, dst := range facts {
		if *dst, err = database.Float64(row[2+i]); err != nil {
			return Recipe{}, fmt.Errorf("recipe %d column %d: %w", rec.ID, 2+i, err)
		}
	}
	return rec, nil
}
