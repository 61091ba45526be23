package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Ronuhz/ubborarservice/pkg/announce"
	"github.com/Ronuhz/ubborarservice/pkg/pipeline"
)

var announcementsCmd = &cobra.Command{
	Use:   "announcements",
	Short: "Build announcements.json from manual items and run status",
	Long: `Pass manually configured announcements through and append a synthesized
48-hour warning when the referenced scrape status reports failed
sources.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")
		itemsPath, _ := cmd.Flags().GetString("announcements")
		statusPath, _ := cmd.Flags().GetString("status")

		manual, err := announce.LoadItems(itemsPath)
		if err != nil {
			return err
		}

		var status *pipeline.RunStatus
		if statusPath != "" {
			if status, err = pipeline.ReadStatus(statusPath); err != nil {
				return err
			}
		}

		payload := announce.Build(manual, status, time.Now())
		store := pipeline.NewStore(out)
		if err := store.WriteJSON("announcements.json", payload); err != nil {
			return err
		}
		fmt.Printf("Wrote %d announcements.\n", len(payload.Items))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(announcementsCmd)

	announcementsCmd.Flags().StringP("out", "o", envOr("UBBORAR_OUT", "dist"), "Output directory where announcements.json is written")
	announcementsCmd.Flags().String("announcements", "config/announcements.json", "Manual announcements config JSON path")
	announcementsCmd.Flags().String("status", "", "Optional scrape status JSON used to synthesize failure warnings")
}
