package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var envFileFlag string
	var debugFlag bool

	ctx := newCommandContext(&envFileFlag, &debugFlag)

	rootCmd := &cobra.Command{
		Use:           "meal-planner",
		Short:         "Plan daily menus that hit a macronutrient target",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			ctx.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&envFileFlag, "env-file", ".env", "Environment file loaded before reading configuration")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable development logging")

	rootCmd.AddCommand(newPlanCommand(ctx))
	rootCmd.AddCommand(newIngestCommand(ctx))
	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newMetricsCommand(ctx))

	return rootCmd
}
