package planner

import (
	"fmt"
	"math"

	"macro-meal-planner/internal/nutrition"
	"macro-meal-planner/internal/recipe"
	"macro-meal-planner/internal/solver"
)

// Objective selects what the solver optimises among menus that meet the
// target.
type Objective string

const (
	// ObjectiveMinCalories minimises the calorie-weighted selection.
	ObjectiveMinCalories Objective = "min-calories"
	// ObjectiveMaxCalories maximises the calorie-weighted selection.
	ObjectiveMaxCalories Objective = "max-calories"
	// ObjectiveMinMeals minimises the number of servings.
	ObjectiveMinMeals Objective = "min-meals"
)

// ParseObjective converts a flag or config value into an Objective.
func ParseObjective(s string) (Objective, error) {
	switch Objective(s) {
	case ObjectiveMinCalories, ObjectiveMaxCalories, ObjectiveMinMeals:
		return Objective(s), nil
	case "":
		return ObjectiveMinCalories, nil
	default:
		return "", fmt.Errorf("unknown objective %q (want %s, %s or %s)",
			s, ObjectiveMinCalories, ObjectiveMaxCalories, ObjectiveMinMeals)
	}
}

// energyTol is the relative slack allowed when checking that a recipe's
// calories come from its macros.
const energyTol = 1e-9

// buildProblem assembles the selection model: one variable per candidate,
// with
//
//	calories == target, protein >= target, fat == target, carbs == target.
//
// Ingested recipes store carbs derived from calories, so calories are
// 4·protein + 4·carbs + 9·fat for every candidate and for a valid target.
// Then the calorie row is implied by the others once protein is pinned, and
// the model becomes protein == target, fat == target, carbs == target: the
// same menus, without a redundant row whose slack is always zero. Calorie
// objectives are constant over those menus and collapse to zero.
func buildProblem(target nutrition.Macros, candidates []recipe.Recipe, opts Options) solver.Problem {
	n := len(candidates)
	objective := make([]float64, n)
	calories := make([]float64, n)
	protein := make([]float64, n)
	fat := make([]float64, n)
	carbs := make([]float64, n)
	upper := make([]float64, n)
	integer := make([]bool, n)

	maxServings := 1.0
	if opts.Servings {
		maxServings = float64(opts.MaxServings)
		if maxServings < 1 {
			maxServings = math.Inf(1)
		}
	}

	derived := energyDerived(target)
	for _, rec := range candidates {
		if !energyDerived(rec.Macros()) {
			derived = false
			break
		}
	}

	for j, rec := range candidates {
		calories[j] = rec.Calories
		protein[j] = rec.Protein
		fat[j] = rec.Fat
		carbs[j] = rec.Carbs
		upper[j] = maxServings
		integer[j] = true

		switch {
		case opts.Objective == ObjectiveMinMeals:
			objective[j] = 1
		case !derived:
			objective[j] = rec.Calories
		}
	}

	constraints := []solver.Constraint{
		{Name: "calories", Coeffs: calories, Sense: solver.Equal, RHS: target.Calories},
		{Name: "protein", Coeffs: protein, Sense: solver.GreaterEq, RHS: target.Protein},
		{Name: "fat", Coeffs: fat, Sense: solver.Equal, RHS: target.Fat},
		{Name: "carbs", Coeffs: carbs, Sense: solver.Equal, RHS: target.Carbs},
	}
	if derived {
		constraints = []solver.Constraint{
			{Name: "protein", Coeffs: protein, Sense: solver.Equal, RHS: target.Protein},
			{Name: "fat", Coeffs: fat, Sense: solver.Equal, RHS: target.Fat},
			{Name: "carbs", Coeffs: carbs, Sense: solver.Equal, RHS: target.Carbs},
		}
	}

	return solver.Problem{
		Objective:   objective,
		Maximize:    opts.Objective == ObjectiveMaxCalories,
		Constraints: constraints,
		Upper:       upper,
		Integer:     integer,
	}
}

func energyDerived(m nutrition.Macros) bool {
	return math.Abs(m.Calories-m.MacroCalories()) <= energyTol*math.Max(1, math.Abs(m.Calories))
}

// menuFromSolution turns solver output into menu items in candidate order.
func menuFromSolution(target nutrition.Macros, candidates []recipe.Recipe, sol solver.Solution) *Menu {
	menu := &Menu{
		Target:     target,
		Status:     sol.Status,
		Candidates: len(candidates),
		Nodes:      sol.Nodes,
	}
	if !sol.Feasible() {
		return menu
	}
	for j, x := range sol.X {
		servings := int(math.Round(x))
		if servings <= 0 {
			continue
		}
		rec := candidates[j]
		menu.Items = append(menu.Items, MenuItem{Recipe: rec, Servings: servings})
		menu.Totals = menu.Totals.Add(rec.Macros(), float64(servings))
	}
	return menu
}
