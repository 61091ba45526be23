package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/Ronuhz/ubborarservice/pkg/config"
	"github.com/Ronuhz/ubborarservice/pkg/pipeline"
	"github.com/Ronuhz/ubborarservice/pkg/scraper"
)

const defaultRoomLegendURL = "https://www.cs.ubbcluj.ro/files/orar/2025-2/sali/legenda.html"

var accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("99"))

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape all configured timetable pages into per-group JSON files",
	Long: `Fetch every source in the config, parse its timetable layout, and write
one JSON file per group plus the aggregate run status. Failures are
contained per source: one broken page never blocks the others.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		out, _ := cmd.Flags().GetString("out")
		timeout, _ := cmd.Flags().GetDuration("timeout")
		concurrency, _ := cmd.Flags().GetInt("concurrency")
		softFailEmpty, _ := cmd.Flags().GetBool("soft-fail-empty")
		failOnErrors, _ := cmd.Flags().GetBool("fail-on-errors")
		legendURL, _ := cmd.Flags().GetString("room-legend-url")
		skipLegend, _ := cmd.Flags().GetBool("skip-room-legend")
		userAgent, _ := cmd.Flags().GetString("user-agent")

		sources, err := config.LoadSources(configPath)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		runner := &pipeline.Runner{
			Fetcher: scraper.NewClient(timeout, userAgent),
			Store:   pipeline.NewStore(out),
			Log:     newLogger(),
			Options: pipeline.Options{
				SoftFailEmpty: softFailEmpty,
				Concurrency:   concurrency,
				RoomLegendURL: legendURL,
				SkipLegend:    skipLegend,
			},
		}

		var status *pipeline.RunStatus
		run := func() { status, err = runner.Run(ctx, sources) }
		if isatty.IsTerminal(os.Stdout.Fd()) {
			_ = spinner.New().
				Title(fmt.Sprintf("Scraping %d timetable sources...", len(sources))).
				Action(run).
				Run()
		} else {
			run()
		}
		if err != nil {
			return fmt.Errorf("scrape run failed: %w", err)
		}

		fmt.Println(accentStyle.Render(fmt.Sprintf(
			"Processed %d sources. Success: %d, failed: %d, files written: %d, empty: %d",
			status.SourcesTotal, status.SourcesSucceeded, status.SourcesFailed,
			status.TimetableFilesWritten, status.TimetableFilesEmpty)))
		if len(status.Failures) > 0 {
			fmt.Println("Failed sources:")
			for _, failure := range status.Failures {
				fmt.Printf(" - %s: %s\n", failure.URL, failure.Error)
			}
		}

		if failOnErrors && status.SourcesFailed > 0 {
			return fmt.Errorf("%d source(s) failed", status.SourcesFailed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().StringP("config", "c", "config/sources.json", "Path to sources config JSON")
	scrapeCmd.Flags().StringP("out", "o", envOr("UBBORAR_OUT", "dist"), "Output directory for generated files")
	scrapeCmd.Flags().Duration("timeout", 30*time.Second, "HTTP timeout per fetch")
	scrapeCmd.Flags().Int("concurrency", 4, "Maximum sources fetched in parallel")
	scrapeCmd.Flags().Bool("soft-fail-empty", false, "Write an empty timetable file when no previous data exists and scraping fails")
	scrapeCmd.Flags().Bool("fail-on-errors", false, "Exit non-zero if any source fails")
	scrapeCmd.Flags().String("room-legend-url", defaultRoomLegendURL, "Legend page used to map room codes to addresses")
	scrapeCmd.Flags().Bool("skip-room-legend", false, "Disable room code to address enrichment")
	scrapeCmd.Flags().String("user-agent", envOr("UBBORAR_USER_AGENT", scraper.DefaultUserAgent), "User-Agent header for fetches")
}
