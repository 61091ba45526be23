package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Ronuhz/ubborarservice/pkg/exporter"
	"github.com/Ronuhz/ubborarservice/pkg/pipeline"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a generated group timetable as an ICS calendar",
	Long: `Read one generated per-group timetable JSON and project it onto a
concrete week as calendar events. The week parity picks which
alternating-week sessions are included.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		timetablePath, _ := cmd.Flags().GetString("timetable")
		out, _ := cmd.Flags().GetString("out")
		weekStartRaw, _ := cmd.Flags().GetString("week-start")
		weekParity, _ := cmd.Flags().GetInt("week-parity")

		if weekParity != 1 && weekParity != 2 {
			return fmt.Errorf("week parity must be 1 or 2, got %d", weekParity)
		}
		weekStart, err := time.Parse("2006-01-02", weekStartRaw)
		if err != nil {
			return fmt.Errorf("invalid week start %q, expected YYYY-MM-DD: %w", weekStartRaw, err)
		}
		if weekStart.Weekday() != time.Monday {
			return fmt.Errorf("week start %s is a %s, expected a Monday", weekStartRaw, weekStart.Weekday())
		}

		data, err := os.ReadFile(timetablePath)
		if err != nil {
			return fmt.Errorf("failed to read timetable: %w", err)
		}
		var tt pipeline.Timetable
		if err := json.Unmarshal(data, &tt); err != nil {
			return fmt.Errorf("failed to parse timetable: %w", err)
		}

		file, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", out, err)
		}
		defer file.Close()
		if err := exporter.GenerateICS(&tt, weekStart, weekParity, file); err != nil {
			return fmt.Errorf("failed to export calendar: %w", err)
		}

		fmt.Println(accentStyle.Render(fmt.Sprintf("Exported group %d to %s", tt.Group, out)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringP("timetable", "t", "", "Path to a generated per-group timetable JSON")
	exportCmd.Flags().StringP("out", "o", "timetable.ics", "Path the ICS calendar is written to")
	exportCmd.Flags().String("week-start", "", "Monday of the exported week (YYYY-MM-DD)")
	exportCmd.Flags().Int("week-parity", 1, "Which alternating week to include (1 or 2)")
	_ = exportCmd.MarkFlagRequired("timetable")
	_ = exportCmd.MarkFlagRequired("week-start")
}
