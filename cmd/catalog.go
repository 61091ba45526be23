package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Ronuhz/ubborarservice/pkg/catalog"
	"github.com/Ronuhz/ubborarservice/pkg/config"
	"github.com/Ronuhz/ubborarservice/pkg/pipeline"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Build catalog.json from the sources config",
	Long: `Build the program/year/group picker payload. When a scrape status file
is given, groups actually detected on the site override the configured
ones.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		out, _ := cmd.Flags().GetString("out")
		statusPath, _ := cmd.Flags().GetString("status")

		sources, err := config.LoadSources(configPath)
		if err != nil {
			return err
		}

		var status *pipeline.RunStatus
		if statusPath != "" {
			if status, err = pipeline.ReadStatus(statusPath); err != nil {
				return err
			}
		}

		generatedAt := time.Now().UTC().Format("2006-01-02T15:04:05Z")
		built := catalog.Build(sources, status, generatedAt)

		store := pipeline.NewStore(out)
		if err := store.WriteJSON("catalog.json", built); err != nil {
			return err
		}
		fmt.Printf("Wrote catalog for %d programs.\n", len(built.Programs))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)

	catalogCmd.Flags().StringP("config", "c", "config/sources.json", "Path to sources config JSON")
	catalogCmd.Flags().StringP("out", "o", envOr("UBBORAR_OUT", "dist"), "Output directory where catalog.json is written")
	catalogCmd.Flags().String("status", "", "Optional scrape status JSON to use detected groups")
}
