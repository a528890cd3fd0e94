package nutrition

import (
	"errors"
	"math"
	"testing"
)

func TestValid(t *testing.T) {
	tests := []struct {
		name     string
		calories float64
		protein  float64
		carbs    float64
		fat      float64
		want     bool
	}{
		{"Exact", 2000, 70, 250, 80, true},
		{"FullDayProfile", 3999, 166, 584, 111, true},
		{"Fractional", 500, 40, 62.5, 10, true},
		{"OffByOne", 2001, 70, 250, 80, false},
		{"ZeroEverything", 0, 0, 0, 0, true},
		{"FatCountedAsFour", 1600, 70, 250, 80, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Valid(tt.calories, tt.protein, tt.carbs, tt.fat); got != tt.want {
				t.Errorf("Valid(%v, %v, %v, %v) = %v, want %v", tt.calories, tt.protein, tt.carbs, tt.fat, got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	t.Run("Consistent", func(t *testing.T) {
		if err := (Macros{Calories: 2000, Protein: 70, Carbs: 250, Fat: 80}).Validate(); err != nil {
			t.Errorf("Expected no error, got %v", err)
		}
	})

	t.Run("Mismatch", func(t *testing.T) {
		err := (Macros{Calories: 2100, Protein: 70, Carbs: 250, Fat: 80}).Validate()
		if err == nil {
			t.Fatal("Expected a mismatch error, got nil")
		}
		if !errors.Is(err, ErrMacroMismatch) {
			t.Errorf("Expected errors.Is(err, ErrMacroMismatch), got %v", err)
		}
		var mismatch *MismatchError
		if !errors.As(err, &mismatch) {
			t.Fatalf("Expected *MismatchError, got %T", err)
		}
		if mismatch.Computed != 2000 {
			t.Errorf("Expected computed 2000 kcal, got %v", mismatch.Computed)
		}
	})
}

func TestDeriveCarbs(t *testing.T) {
	tests := []struct {
		calories, protein, fat, want float64
	}{
		{500, 40, 10, 62.5},
		{400, 0, 0, 100},
		{90, 0, 10, 0},
		{100, 10, 10, -7.5},
	}
	for _, tt := range tests {
		got := DeriveCarbs(tt.calories, tt.protein, tt.fat)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("DeriveCarbs(%v, %v, %v) = %v, want %v", tt.calories, tt.protein, tt.fat, got, tt.want)
		}
		// The derived value always closes the calorie equation.
		m := Macros{Calories: tt.calories, Protein: tt.protein, Carbs: got, Fat: tt.fat}
		if math.Abs(m.MacroCalories()-tt.calories) > 1e-9 {
			t.Errorf("Derived carbs do not reproduce %v kcal: %v", tt.calories, m.MacroCalories())
		}
	}
}

func TestAdd(t *testing.T) {
	base := Macros{Calories: 100, Protein: 1, Carbs: 2, Fat: 3}
	got := base.Add(Macros{Calories: 10, Protein: 1, Carbs: 1, Fat: 1}, 2)
	want := Macros{Calories: 120, Protein: 3, Carbs: 4, Fat: 5}
	if got != want {
		t.Errorf("Expected %+v, got %+v", want, got)
	}
}
