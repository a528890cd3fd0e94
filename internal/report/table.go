package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"macro-meal-planner/internal/planner"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

var mealHeaders = []string{"Meal", "Servings", "Calories", "Protein (g)", "Fat (g)", "Carbs (g)"}

var mealAligns = []columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight}

// Table renders each day as a bordered table with a totals footer.
func Table(plan *planner.Plan) string {
	var b strings.Builder
	for i, d := range plan.Days {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "Day %d\n", d.Day)
		if d.Menu.Empty() {
			fmt.Fprintf(&b, "No feasible menu found (status: %s, %d candidates)", d.Menu.Status, d.Menu.Candidates)
			continue
		}

		rows := make([][]string, 0, len(d.Menu.Items))
		for _, it := range d.Menu.Items {
			rows = append(rows, []string{
				it.Recipe.Title,
				strconv.Itoa(it.Servings),
				num(it.Recipe.Calories),
				num(it.Recipe.Protein),
				num(it.Recipe.Fat),
				num(it.Recipe.Carbs),
			})
		}
		t := d.Menu.Totals
		footer := []string{"Total", strconv.Itoa(d.Menu.Selected()), num(t.Calories), num(t.Protein), num(t.Fat), num(t.Carbs)}
		b.WriteString(renderTable(mealHeaders, rows, footer, mealAligns))
	}
	b.WriteString("\n")
	return b.String()
}

// RenderRows draws an arbitrary table; used for summaries outside plans.
func RenderRows(headers []string, rows [][]string, rightAligned ...int) string {
	aligns := make([]columnAlignment, len(headers))
	for _, i := range rightAligned {
		if i >= 0 && i < len(aligns) {
			aligns[i] = alignRight
		}
	}
	return renderTable(headers, rows, nil, aligns)
}

func renderTable(headers []string, rows [][]string, footer []string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(toRow(headers, columns))
	for _, row := range rows {
		tw.AppendRow(toRow(row, columns))
	}
	if footer != nil {
		tw.AppendFooter(toRow(footer, columns))
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
			AlignFooter: align,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

func toRow(cells []string, columns int) table.Row {
	r := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		if i < len(cells) {
			r[i] = cells[i]
		} else {
			r[i] = ""
		}
	}
	return r
}
