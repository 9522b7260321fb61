package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/use-agent/ratewalk/dataset"
	"github.com/use-agent/ratewalk/scraper"
	"github.com/use-agent/ratewalk/walker"
)

var walkFlags struct {
	award     string
	all       bool
	out       string
	sink      string
	limit     int
	noStealth bool
}

func init() {
	f := walkCmd.Flags()
	f.StringVar(&walkFlags.award, "award", "", "The award code to walk, as printed by `awards`.")
	f.BoolVar(&walkFlags.all, "all", false, "Walk every listed award, one after another.")
	f.StringVar(&walkFlags.out, "out", cfg.Dataset.Path, "The dataset file to write entries to.")
	f.StringVar(&walkFlags.sink, "sink", cfg.Dataset.Sink, "The dataset format: jsonl or sqlite.")
	f.IntVar(&walkFlags.limit, "limit", 0, "Stop each award after this many combinations (0 walks everything).")
	f.BoolVar(&walkFlags.noStealth, "no-stealth", false, "Disable the bot-detection evasions.")
	walkCmd.MarkFlagsMutuallyExclusive("award", "all")
	walkCmd.MarkFlagsOneRequired("award", "all")
	rootCmd.AddCommand(walkCmd)
}

var walkCmd = &cobra.Command{
	Use:   "walk (--award <code> | --all) [--out <path>] [--sink jsonl|sqlite]",
	Short: "Walks every classification and age of an award and writes one entry per combination.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		dsCfg := cfg.Dataset
		dsCfg.Path = walkFlags.out
		dsCfg.Sink = walkFlags.sink
		out, err := dataset.Open(dsCfg)
		if err != nil {
			return err
		}
		defer out.Close()

		sc, err := newScraper()
		if err != nil {
			return err
		}
		defer sc.Close()

		w := walker.New(cfg.Walker)

		awards := []string{walkFlags.award}
		if walkFlags.all {
			awards, err = listAwards(cmd, sc, w)
			if err != nil {
				return err
			}
			slog.Info("walking every award", "count", len(awards))
		}

		start := time.Now()
		total := 0
		var failed []string
		for _, award := range awards {
			n, err := walkAward(cmd, sc, w, award, out)
			total += n
			if err != nil {
				if ctx.Err() != nil {
					return err
				}
				slog.Error("award walk failed", "award", award, "captured", n, "error", err)
				failed = append(failed, award)
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "captured %d entries from %d awards in %s -> %s\n",
			total, len(awards)-len(failed), time.Since(start).Round(time.Second), walkFlags.out)
		if len(failed) > 0 {
			return fmt.Errorf("%d of %d awards failed: %v", len(failed), len(awards), failed)
		}
		return nil
	},
}

func listAwards(cmd *cobra.Command, sc *scraper.Scraper, w *walker.Walker) ([]string, error) {
	form, release, err := sc.NewForm(!walkFlags.noStealth)
	if err != nil {
		return nil, err
	}
	defer release()

	awards, err := w.ListAwards(cmd.Context(), walker.AwardListingPlan(cfg.Walker.StartURL), form)
	if err != nil {
		return nil, err
	}
	if len(awards) == 0 {
		return nil, errors.New("calculator listed no awards")
	}
	return awards, nil
}

func walkAward(cmd *cobra.Command, sc *scraper.Scraper, w *walker.Walker, award string, out dataset.Sink) (int, error) {
	form, release, err := sc.NewForm(!walkFlags.noStealth)
	if err != nil {
		return 0, err
	}
	defer release()

	plan := walker.FairworkPlan(cfg.Walker.StartURL, award)
	plan.Limit = walkFlags.limit

	summary, err := w.Run(cmd.Context(), plan, form, out)
	if summary == nil {
		return 0, err
	}
	return summary.Combinations, err
}
