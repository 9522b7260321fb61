package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/use-agent/ratewalk/walker"
)

func init() {
	rootCmd.AddCommand(awardsCmd)
}

var awardsCmd = &cobra.Command{
	Use:   "awards",
	Short: "Lists the award codes the calculator offers.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sc, err := newScraper()
		if err != nil {
			return err
		}
		defer sc.Close()

		form, release, err := sc.NewForm(true)
		if err != nil {
			return err
		}
		defer release()

		awards, err := walker.New(cfg.Walker).ListAwards(cmd.Context(), walker.AwardListingPlan(cfg.Walker.StartURL), form)
		if err != nil {
			return err
		}
		for _, a := range awards {
			fmt.Fprintln(cmd.OutOrStdout(), a)
		}
		return nil
	},
}
