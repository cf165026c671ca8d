package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/coah80/mediaconv/internal/config"
	"github.com/coah80/mediaconv/internal/logger"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "mediaconv",
	Short: "Convert uploaded or downloaded media and hand it back as a zip",
	Long: `mediaconv runs a small web service that accepts media uploads or a URL,
optionally splits tracks into stems with spleeter, transcodes with ffmpeg and
returns a zip archive to download.

Configuration comes from the environment (and a .env file when present).

Example:
  PORT=8000 OUTPUT_FOLDER=/srv/outputs mediaconv serve`,
	Version:       config.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
		logger.Log.SetMinStatus(logger.ParseLevel(cfg.LogLevel))
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
