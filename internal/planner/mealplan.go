package planner

import (
	"fmt"
	"time"

	"macro-meal-planner/internal/nutrition"
	"macro-meal-planner/internal/recipe"
	"macro-meal-planner/internal/solver"
)

// Mode controls how candidate pools are drawn for a multi-day plan.
type Mode string

const (
	// ModeShared plans every day from the same pool; menus may repeat.
	ModeShared Mode = "shared"
	// ModePartitioned gives each day its own slice of the recipe table so no
	// recipe is reused across days.
	ModePartitioned Mode = "partitioned"
)

// ParseMode converts a flag value into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeShared, ModePartitioned:
		return Mode(s), nil
	case "":
		return ModePartitioned, nil
	default:
		return "", fmt.Errorf("unknown plan mode %q (want %s or %s)", s, ModeShared, ModePartitioned)
	}
}

// MenuItem is one selected recipe and how many servings of it to eat.
type MenuItem struct {
	Recipe   recipe.Recipe `json:"recipe"`
	Servings int           `json:"servings"`
}

// Menu is the outcome of one day's solve.
type Menu struct {
	Target     nutrition.Macros `json:"target"`
	Items      []MenuItem       `json:"items"`
	Totals     nutrition.Macros `json:"totals"`
	Status     solver.Status    `json:"status"`
	Candidates int              `json:"candidates"`
	Nodes      int              `json:"nodes"`
	Latency    time.Duration    `json:"latency"`
}

// Empty reports whether nothing was selected.
func (m *Menu) Empty() bool {
	return m == nil || len(m.Items) == 0
}

// Selected returns the total number of servings on the menu.
func (m *Menu) Selected() int {
	if m == nil {
		return 0
	}
	n := 0
	for _, it := range m.Items {
		n += it.Servings
	}
	return n
}

// DayPlan represents the plan for a single day.
type DayPlan struct {
	Day  int   `json:"day"`
	Menu *Menu `json:"menu"`
}

// Plan represents a full multi-day meal plan.
type Plan struct {
	RunID     string           `json:"run_id"`
	CreatedAt time.Time        `json:"created_at"`
	Mode      Mode             `json:"mode"`
	Objective Objective        `json:"objective"`
	Target    nutrition.Macros `json:"target"`
	Days      []DayPlan        `json:"days"`
}
