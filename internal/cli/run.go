package cli

import (
	"github.com/spf13/cobra"
)

var runOnce bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the storm monitoring service",
	RunE: func(cmd *cobra.Command, args []string) error {
		if runOnce {
			return getApp().RunOnce(cmd.Context())
		}
		return getApp().Run(cmd.Context())
	},
}

func init() {
	runCmd.Flags().BoolVar(&runOnce, "once", false, "Execute a single poll cycle and exit")
}
