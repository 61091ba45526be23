package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Ronuhz/ubborarservice/pkg/discounts"
	"github.com/Ronuhz/ubborarservice/pkg/pipeline"
)

var discountsCmd = &cobra.Command{
	Use:   "discounts",
	Short: "Build discounts.json from the discounts config",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")
		discountsPath, _ := cmd.Flags().GetString("discounts")

		raw, err := discounts.LoadRaw(discountsPath)
		if err != nil {
			return err
		}
		offers, errs := discounts.Normalize(raw)
		log := newLogger()
		for _, err := range errs {
			log.Warn().Err(err).Msg("rejected discount offer")
		}

		payload := discounts.Build(offers, time.Now())
		store := pipeline.NewStore(out)
		if err := store.WriteJSON("discounts.json", payload); err != nil {
			return err
		}
		fmt.Printf("Wrote %d discounts.\n", len(payload.Items))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(discountsCmd)

	discountsCmd.Flags().StringP("out", "o", envOr("UBBORAR_OUT", "dist"), "Output directory where discounts.json is written")
	discountsCmd.Flags().String("discounts", "config/discounts.json", "Discounts config JSON path")
}
