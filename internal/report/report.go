// Package report renders meal plans for people to read.
package report

import (
	"fmt"
	"strings"

	"macro-meal-planner/internal/nutrition"
	"macro-meal-planner/internal/planner"
)

// Format selects the report layout.
type Format string

const (
	FormatText  Format = "text"
	FormatTable Format = "table"
)

// ParseFormat converts a flag value into a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatText, FormatTable:
		return Format(s), nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown report format %q (want %s or %s)", s, FormatText, FormatTable)
	}
}

// Render formats plan in the requested layout.
func Render(plan *planner.Plan, format Format) string {
	if format == FormatTable {
		return Table(plan)
	}
	return Text(plan)
}

// Text renders plan as plain text, one "Day N" section per day.
func Text(plan *planner.Plan) string {
	var b strings.Builder
	for i, d := range plan.Days {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Day %d\n", d.Day)
		b.WriteString(DayText(d.Menu))
	}
	return b.String()
}

// DayText renders a single day's menu.
func DayText(menu *planner.Menu) string {
	if menu.Empty() {
		return fmt.Sprintf("No feasible menu found (status: %s, %d candidates)\n", menu.Status, menu.Candidates)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Total daily %s\n", macrosLine(menu.Totals))
	for _, it := range menu.Items {
		b.WriteString("\n")
		b.WriteString(mealName(it))
		b.WriteString("\n")
		fmt.Fprintf(&b, "  %s\n", macrosLine(it.Recipe.Macros()))
	}
	return b.String()
}

func mealName(it planner.MenuItem) string {
	if it.Servings > 1 {
		return fmt.Sprintf("%s (x%d)", it.Recipe.Title, it.Servings)
	}
	return it.Recipe.Title
}

func macrosLine(m nutrition.Macros) string {
	return fmt.Sprintf("Calories: %s kcal, Protein: %sg, Fat: %sg, Carbs: %sg",
		num(m.Calories), num(m.Protein), num(m.Fat), num(m.Carbs))
}

// num prints whole numbers without a fraction and others with up to two
// decimals.
func num(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
