package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/use-agent/ratewalk/config"
	"github.com/use-agent/ratewalk/scraper"
)

var (
	cfg     = config.Load()
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "ratewalk-cli",
	Short: "ratewalk-cli walks the Fair Work pay calculator and records every rate it offers.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		slog.SetDefault(newLogger(cmd.ErrOrStderr(), cfg.Log, verbose))
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log every captured combination.")
	rootCmd.PersistentFlags().StringVar(&cfg.Walker.StartURL, "start-url", cfg.Walker.StartURL, "The calculator's first screen.")
	rootCmd.PersistentFlags().BoolVar(&cfg.Browser.Headless, "headless", cfg.Browser.Headless, "Run the browser without a window.")
}

// newLogger builds the CLI logger from RATEWALK_LOG_LEVEL and
// RATEWALK_LOG_FORMAT; --verbose forces debug.
func newLogger(w io.Writer, logCfg config.LogConfig, verbose bool) *slog.Logger {
	level := logCfg.SlogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if logCfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newScraper launches a browser with a single page; the CLI walks one
// award at a time.
func newScraper() (*scraper.Scraper, error) {
	browserCfg := cfg.Browser
	browserCfg.MaxPages = 1
	return scraper.NewScraper(browserCfg, cfg.Walker)
}
