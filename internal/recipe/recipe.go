package recipe

import (
	"errors"
	"fmt"
	"strings"

	"macro-meal-planner/internal/nutrition"
)

// Recipe is one row of the recipies table: a title and its nutrition facts
// per serving.
type Recipe struct {
	ID       int64   `json:"id"`
	Title    string  `json:"title"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Fat      float64 `json:"fat"`
	Carbs    float64 `json:"carbs"`
}

// New builds a recipe with carbohydrates derived from the other facts.
func New(title string, calories, protein, fat float64) Recipe {
	return Recipe{
		Title:    strings.TrimSpace(title),
		Calories: calories,
		Protein:  protein,
		Fat:      fat,
		Carbs:    nutrition.DeriveCarbs(calories, protein, fat),
	}
}

// Macros returns the recipe's nutrition facts.
func (r Recipe) Macros() nutrition.Macros {
	return nutrition.Macros{
		Calories: r.Calories,
		Protein:  r.Protein,
		Carbs:    r.Carbs,
		Fat:      r.Fat,
	}
}

// Validate checks the storage invariants: a title and no negative facts.
func (r Recipe) Validate() error {
	if r.Title == "" {
		return errors.New("recipe title is empty")
	}
	facts := []struct {
		name  string
		value float64
	}{
		{"calories", r.Calories},
		{"protein", r.Protein},
		{"fat", r.Fat},
		{"carbs", r.Carbs},
	}
	for _, f := range facts {
		if f.value < 0 {
			return fmt.Errorf("recipe %q has negative %s (%g)", r.Title, f.name, f.value)
		}
	}
	return nil
}
