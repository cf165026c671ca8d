package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/coah80/mediaconv/internal/util"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one retention pass over the upload and output folders and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		result := util.NewSweeperFromConfig(cfg).Sweep(time.Now())
		fmt.Fprintf(cmd.OutOrStdout(), "removed %d entries, %d failed\n", len(result.Removed), result.Failed)
		if result.Failed > 0 {
			return fmt.Errorf("%d entries could not be removed", result.Failed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}
