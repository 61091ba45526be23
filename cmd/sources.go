package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Ronuhz/ubborarservice/pkg/scraper"
	"github.com/Ronuhz/ubborarservice/pkg/sourcegen"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Generate a sources config from the faculty's timetable index",
	Long: `Crawl the faculty's timetable index page and emit a sources config
covering every discovered program and study year. With group detection
enabled each timetable page is fetched and parsed so the config ships
with the group numbers found on the page.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		indexURL, _ := cmd.Flags().GetString("index-url")
		academicYear, _ := cmd.Flags().GetString("academic-year")
		out, _ := cmd.Flags().GetString("out")
		programMapPath, _ := cmd.Flags().GetString("program-map")
		timeout, _ := cmd.Flags().GetDuration("timeout")
		includeMaster, _ := cmd.Flags().GetBool("include-master")
		skipGroups, _ := cmd.Flags().GetBool("skip-group-detection")
		userAgent, _ := cmd.Flags().GetString("user-agent")

		log := newLogger()

		var programMap map[string]sourcegen.ProgramMapping
		if programMapPath != "" {
			var err error
			if programMap, err = sourcegen.LoadProgramMap(programMapPath); err != nil {
				return err
			}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		client := scraper.NewClient(timeout, userAgent)
		file, failures, err := sourcegen.Generate(ctx, client, sourcegen.Options{
			IndexURL:      indexURL,
			AcademicYear:  academicYear,
			ProgramMap:    programMap,
			IncludeMaster: includeMaster,
			DetectGroups:  !skipGroups,
		})
		if err != nil {
			return err
		}
		for _, failure := range failures {
			log.Warn().Msg(failure)
		}

		data, err := json.MarshalIndent(file, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to serialize sources config: %w", err)
		}
		data = append(data, '\n')
		if err := os.WriteFile(out, data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", out, err)
		}
		fmt.Printf("Wrote %d sources to %s.\n", len(file.Programs), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)

	sourcesCmd.Flags().String("index-url", "https://www.cs.ubbcluj.ro/files/orar/2025-2/tabelar/index.html", "Timetable index page to crawl")
	sourcesCmd.Flags().String("academic-year", "2025-2026", "Academic year recorded in the generated config")
	sourcesCmd.Flags().StringP("out", "o", "config/sources.json", "Path the generated sources config is written to")
	sourcesCmd.Flags().String("program-map", "", "Optional JSON map overriding program ids and titles")
	sourcesCmd.Flags().Duration("timeout", 30*time.Second, "HTTP timeout per page fetch")
	sourcesCmd.Flags().Bool("include-master", false, "Also include master's programs from the index")
	sourcesCmd.Flags().Bool("skip-group-detection", false, "Skip fetching timetable pages to detect group numbers")
	sourcesCmd.Flags().String("user-agent", scraper.DefaultUserAgent, "User-Agent header sent with each request")
}
