package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"ttscraper/internal/downloader"
	"ttscraper/pkg/browser"
	"ttscraper/pkg/config"
	"ttscraper/pkg/logger"
	"ttscraper/pkg/ratelimit"
	"ttscraper/pkg/scraper"
	"ttscraper/pkg/storage"
	"ttscraper/pkg/ui"
)

var (
	// Scrape command flags
	headless      bool
	outputDir     string
	maxConcurrent int
	loadState     string
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape <handle>",
	Short: "Download all videos from a profile",
	Long: `Download all videos from a profile.

The profile is opened in a browser with stylesheets, images, media and fonts
blocked. Videos are found in the page's embedded state and in the item list
API responses fetched while scrolling.`,
	Example: `  # Download with default settings
  ttscraper scrape someone

  # Watch the browser while it works
  ttscraper scrape someone --headless=false

  # Limit parallel downloads and write elsewhere
  ttscraper scrape someone --max-concurrent 4 --output ./clips`,
	Args: cobra.ExactArgs(1),
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	for _, c := range []*cobra.Command{scrapeCmd, rootCmd} {
		c.Flags().BoolVar(&headless, "headless", true, "run the browser without a window")
		c.Flags().StringVarP(&outputDir, "output", "o", "", "root directory for downloads (default: video)")
		c.Flags().IntVar(&maxConcurrent, "max-concurrent", 0, "maximum parallel downloads per batch (0 = unbounded)")
		c.Flags().StringVar(&loadState, "load-state", "", "state to wait for after each scroll step (domcontentloaded, load, idle)")
	}

	// A bare handle runs scrape
	rootCmd.Args = cobra.MaximumNArgs(1)
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		return runScrape(cmd, args)
	}
}

// collectFlags returns only the flags the user actually set
func collectFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	if cmd.Flags().Changed("headless") {
		flags["headless"] = headless
	}
	if outputDir != "" {
		flags["output"] = outputDir
	}
	if cmd.Flags().Changed("max-concurrent") {
		flags["max-concurrent"] = maxConcurrent
	}
	if loadState != "" {
		flags["load-state"] = loadState
	}
	if cmd.Flags().Changed("log-level") {
		flags["log-level"] = logLevel
	}
	return flags
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, collectFlags(cmd))
	if err != nil {
		return err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return err
	}
	log := logger.GetLogger().WithField("run_id", logger.NewRunID())
	log.WithField("version", version).Debug("ttscraper starting")

	handle := scraper.NormalizeHandle(args[0])
	if !quiet {
		ui.PrintInfo("Target profile", "@"+handle)
		ui.PrintInfo("Output", cfg.Download.Directory)
	}

	s := scraper.New(cfg, newLauncher(cfg, log), newEngine(cfg, log), log)
	stats, err := s.Run(cmd.Context(), handle, cfg.Browser.Headless)

	if !quiet {
		ui.PrintSummary(os.Stdout, ui.Summary{
			Handle:     handle,
			Downloaded: stats.Downloaded,
			Skipped:    stats.Skipped,
			Failed:     stats.Failed,
			Batches:    stats.Batches,
		})
	}
	return err
}

// newEngine wires the media client, storage layout and optional pacing
func newEngine(cfg *config.Config, log logger.Logger) *downloader.Engine {
	fetch := downloader.DefaultFetchConfig(cfg.Download.Referer, cfg.Download.UserAgent)
	client := downloader.NewClient(fetch, cfg.Download.Timeout, log)
	store := storage.NewManager(cfg.Download.Directory)

	var limiter ratelimit.Limiter
	if cfg.Download.RequestsPerMinute > 0 {
		limiter = ratelimit.PerMinute(cfg.Download.RequestsPerMinute)
	}

	return downloader.NewEngine(client, store, downloader.Options{
		MaxConcurrent: cfg.Download.MaxConcurrent,
		Limiter:       limiter,
		Reporter:      ui.NewTerminal(os.Stdout, quiet),
	}, log)
}

// newLauncher opens rod browser sessions configured from cfg
func newLauncher(cfg *config.Config, log logger.Logger) scraper.Launcher {
	return scraper.LauncherFunc(func(ctx context.Context, headless bool) (scraper.Session, error) {
		session, err := browser.Launch(ctx, browser.OptionsFromConfig(cfg, headless), log)
		if err != nil {
			return nil, err
		}
		return session, nil
	})
}
