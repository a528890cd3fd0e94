package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <calories> <protein> <carbs> <fat>",
		Short: "Check that calories equal protein×4 + carbs×4 + fat×9",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := parseTarget(args)
			if err != nil {
				return err
			}
			if err := target.Validate(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "OK: %g kcal = %gg protein, %gg carbs, %gg fat\n",
				target.Calories, target.Protein, target.Carbs, target.Fat)
			return nil
		},
	}
}
