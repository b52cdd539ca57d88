package cli

import (
	"github.com/spf13/cobra"

	"storm-radar/internal/app"
)

var (
	simulateScenario string
	simulateCycles   int
	simulateCSV      string
	simulatePNG      string
	simulateNotify   bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the scoring pipeline over a synthetic storm scenario",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Simulate(cmd.Context(), app.SimulateOptions{
			Scenario: simulateScenario,
			Cycles:   simulateCycles,
			CSVPath:  simulateCSV,
			PNGPath:  simulatePNG,
			Notify:   simulateNotify,
		})
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simulateScenario, "scenario", "bora", "Scenario to replay (calm, marine, bora, squall)")
	simulateCmd.Flags().IntVar(&simulateCycles, "cycles", 12, "Number of poll cycles to simulate")
	simulateCmd.Flags().StringVar(&simulateCSV, "csv", "", "Write the score trajectory to this CSV file")
	simulateCmd.Flags().StringVar(&simulatePNG, "png", "", "Render the score trajectory to this PNG file")
	simulateCmd.Flags().BoolVar(&simulateNotify, "notify", false, "Deliver the final assessment via Telegram")
}
