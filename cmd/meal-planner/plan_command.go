package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"macro-meal-planner/internal/app"
	"macro-meal-planner/internal/ingest"
	"macro-meal-planner/internal/planner"
	"macro-meal-planner/internal/report"
)

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var (
		modeFlag        string
		objectiveFlag   string
		servingsFlag    bool
		maxServingsFlag int
		limitFlag       int
		formatFlag      string
		archiveDirFlag  string
	)

	cmd := &cobra.Command{
		Use:   "plan <calories> <protein> <carbs> <fat> <days>",
		Short: "Generate a multi-day menu hitting the target exactly",
		Args:  cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := parseTarget(args)
			if err != nil {
				return err
			}
			days, err := parseNonNegativeInt("days", args[4])
			if err != nil {
				return err
			}
			if days < 1 {
				return fmt.Errorf("days must be at least 1")
			}
			mode, err := planner.ParseMode(modeFlag)
			if err != nil {
				return err
			}
			format, err := report.ParseFormat(formatFlag)
			if err != nil {
				return err
			}
			// Reject an inconsistent target before touching the database.
			if err := target.Validate(); err != nil {
				return err
			}

			cfg, err := ctx.ensureConfig(cmd)
			if err != nil {
				return err
			}
			planCfg := *cfg
			flags := cmd.Flags()
			if flags.Changed("objective") {
				planCfg.PlannerObjective = objectiveFlag
			}
			if flags.Changed("servings") {
				planCfg.PlannerServings = servingsFlag
			}
			if flags.Changed("max-servings") {
				planCfg.MaxServings = maxServingsFlag
			}
			if flags.Changed("limit") {
				planCfg.CandidateLimit = limitFlag
			}
			if flags.Changed("archive-dir") {
				planCfg.PlanArchiveDir = archiveDirFlag
			}

			return ctx.withApp(&planCfg, ingest.DefaultFilter(), func(a *app.App) error {
				plan, err := a.GeneratePlan(cmd.Context(), planner.PlanRequest{
					Target: target,
					Days:   days,
					Mode:   mode,
					Limit:  planCfg.CandidateLimit,
				})
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), report.Render(plan, format))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&modeFlag, "mode", string(planner.ModePartitioned), "Candidate pools per day: shared or partitioned")
	cmd.Flags().StringVar(&objectiveFlag, "objective", "", "Objective: min-calories, max-calories or min-meals (default from PLANNER_OBJECTIVE)")
	cmd.Flags().BoolVar(&servingsFlag, "servings", false, "Allow more than one serving of a recipe")
	cmd.Flags().IntVar(&maxServingsFlag, "max-servings", 3, "Upper bound on servings per recipe with --servings (0 for no cap)")
	cmd.Flags().IntVar(&limitFlag, "limit", planner.DefaultCandidateLimit, "Candidate pool size in shared mode")
	cmd.Flags().StringVar(&formatFlag, "format", string(report.FormatText), "Output format: text or table")
	cmd.Flags().StringVar(&archiveDirFlag, "archive-dir", "", "Directory to write the plan as JSON")

	return cmd
}
