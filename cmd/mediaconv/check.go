package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/coah80/mediaconv/internal/util"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report which external tools are available on PATH",
	RunE: func(cmd *cobra.Command, args []string) error {
		deps := util.CheckDependencies()
		out := cmd.OutOrStdout()
		for _, d := range deps {
			switch {
			case d.Found:
				fmt.Fprintf(out, "  ok       %-9s %s\n", d.Name, d.Path)
			case d.Required:
				fmt.Fprintf(out, "  missing  %-9s (required)\n", d.Name)
			default:
				fmt.Fprintf(out, "  missing  %-9s (optional)\n", d.Name)
			}
		}
		if missing := util.MissingRequired(deps); len(missing) > 0 {
			return fmt.Errorf("required tools not found: %s", strings.Join(missing, ", "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
