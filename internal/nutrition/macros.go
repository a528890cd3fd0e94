// Package nutrition holds macronutrient arithmetic and the calorie
// consistency check applied to planning targets.
package nutrition

import (
	"errors"
	"fmt"
)

// Energy densities in kcal per gram.
const (
	ProteinKcalPerGram = 4
	CarbsKcalPerGram   = 4
	FatKcalPerGram     = 9
)

// ErrMacroMismatch is matched by every *MismatchError.
var ErrMacroMismatch = errors.New("calories do not match macronutrients")

// Macros is a calorie total with its macronutrient breakdown in grams.
type Macros struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// MacroCalories returns the energy implied by the macronutrients alone.
func (m Macros) MacroCalories() float64 {
	return m.Protein*ProteinKcalPerGram + m.Carbs*CarbsKcalPerGram + m.Fat*FatKcalPerGram
}

// Add returns the element-wise sum of m and o scaled by n.
func (m Macros) Add(o Macros, n float64) Macros {
	return Macros{
		Calories: m.Calories + o.Calories*n,
		Protein:  m.Protein + o.Protein*n,
		Carbs:    m.Carbs + o.Carbs*n,
		Fat:      m.Fat + o.Fat*n,
	}
}

// Validate returns a *MismatchError unless Valid holds for m.
func (m Macros) Validate() error {
	if Valid(m.Calories, m.Protein, m.Carbs, m.Fat) {
		return nil
	}
	return &MismatchError{Macros: m, Computed: m.MacroCalories()}
}

// Valid reports whether calories equals protein*4 + carbs*4 + fat*9.
// The comparison is exact.
func Valid(calories, protein, carbs, fat float64) bool {
	return calories == Macros{Protein: protein, Carbs: carbs, Fat: fat}.MacroCalories()
}

// DeriveCarbs returns the carbohydrate grams left over once protein and fat
// are accounted for in calories.
func DeriveCarbs(calories, protein, fat float64) float64 {
	return (calories - protein*ProteinKcalPerGram - fat*FatKcalPerGram) / CarbsKcalPerGram
}

// MismatchError reports a target whose calories disagree with its macros.
type MismatchError struct {
	Macros   Macros
	Computed float64
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%v: %g kcal claimed, %g kcal from %gg protein, %gg carbs, %gg fat",
		ErrMacroMismatch, e.Macros.Calories, e.Computed, e.Macros.Protein, e.Macros.Carbs, e.Macros.Fat)
}

func (e *MismatchError) Is(target error) bool {
	return target == ErrMacroMismatch
}
