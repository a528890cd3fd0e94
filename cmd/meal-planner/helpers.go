package main

import (
	"fmt"
	"strconv"

	"macro-meal-planner/internal/nutrition"
)

var macroArgNames = []string{"calories", "protein", "carbs", "fat"}

func parseNonNegativeInt(name, raw string) (int, error) {
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", name, raw)
	}
	if v < 0 {
		return 0, fmt.Errorf("%s must not be negative, got %d", name, v)
	}
	return v, nil
}

// parseTarget reads calories, protein, carbs and fat from the first four args.
func parseTarget(args []string) (nutrition.Macros, error) {
	var vals [4]float64
	for i, name := range macroArgNames {
		v, err := parseNonNegativeInt(name, args[i])
		if err != nil {
			return nutrition.Macros{}, err
		}
		vals[i] = float64(v)
	}
	return nutrition.Macros{Calories: vals[0], Protein: vals[1], Carbs: vals[2], Fat: vals[3]}, nil
}
