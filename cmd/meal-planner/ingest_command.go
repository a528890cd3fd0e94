package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"macro-meal-planner/internal/app"
	"macro-meal-planner/internal/ingest"
)

func newIngestCommand(ctx *commandContext) *cobra.Command {
	var minCalories, maxCalories float64
	var noFilter bool

	cmd := &cobra.Command{
		Use:   "ingest <file>",
		Short: "Load recipes from a CSV or XLSX export",
		Long: "Load recipes from a CSV or XLSX file with title, calories, protein and fat columns.\n" +
			"Carbohydrates are derived; titles already in the store are skipped.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !noFilter && minCalories >= maxCalories {
				return fmt.Errorf("--min-calories (%g) must be below --max-calories (%g)", minCalories, maxCalories)
			}
			cfg, err := ctx.ensureConfig(cmd)
			if err != nil {
				return err
			}
			filter := ingest.Filter{Disabled: noFilter, MinCalories: minCalories, MaxCalories: maxCalories}

			return ctx.withApp(cfg, filter, func(a *app.App) error {
				stats, err := a.IngestRecipes(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), stats.String())
				return nil
			})
		},
	}

	cmd.Flags().Float64Var(&minCalories, "min-calories", ingest.DefaultMinCalories, "Lowest calorie value kept (inclusive)")
	cmd.Flags().Float64Var(&maxCalories, "max-calories", ingest.DefaultMaxCalories, "Calorie cut-off (exclusive)")
	cmd.Flags().BoolVar(&noFilter, "no-filter", false, "Keep every well-formed row regardless of calories")

	return cmd
}
