package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"macro-meal-planner/internal/app"
	"macro-meal-planner/internal/ingest"
	"macro-meal-planner/internal/report"
)

func newMetricsCommand(ctx *commandContext) *cobra.Command {
	metricsCmd := &cobra.Command{
		Use:   "metrics",
		Short: "Inspect or prune recorded solve metrics",
	}
	metricsCmd.AddCommand(newMetricsShowCommand(ctx))
	metricsCmd.AddCommand(newMetricsCleanupCommand(ctx))
	return metricsCmd
}

func newMetricsShowCommand(ctx *commandContext) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Summarise solves per day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig(cmd)
			if err != nil {
				return err
			}
			return ctx.withApp(cfg, ingest.DefaultFilter(), func(a *app.App) error {
				summary, err := a.DailySummary(cmd.Context(), days)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(summary) == 0 {
					fmt.Fprintf(out, "No solves recorded in the last %d days\n", days)
					return nil
				}
				rows := make([][]string, 0, len(summary))
				for _, d := range summary {
					rows = append(rows, []string{
						d.Date,
						strconv.Itoa(d.Solves),
						strconv.Itoa(d.Optimal),
						strconv.FormatFloat(d.AvgLatencyMS, 'f', 1, 64),
						strconv.FormatInt(d.TotalNodes, 10),
					})
				}
				fmt.Fprintln(out, report.RenderRows(
					[]string{"Date", "Solves", "Optimal", "Avg latency (ms)", "Nodes"},
					rows, 1, 2, 3, 4,
				))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 7, "Number of days to include")
	return cmd
}

func newMetricsCleanupCommand(ctx *commandContext) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete solve metrics older than --days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 1 {
				return fmt.Errorf("--days must be at least 1")
			}
			cfg, err := ctx.ensureConfig(cmd)
			if err != nil {
				return err
			}
			return ctx.withApp(cfg, ingest.DefaultFilter(), func(a *app.App) error {
				deleted, err := a.CleanupMetrics(cmd.Context(), days)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d solve metrics older than %d days\n", deleted, days)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 30, "Keep metrics from this many recent days")
	return cmd
}
