package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	appLog "papercal/internal/log"
)

var (
	flagConfig string
	flagDebug  bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "papercal",
	Short:         "Printable daily schedules from ICS calendars",
	Long:          "papercal expands recurring ICS calendar events into per-day schedules and renders them as printable HTML pages, optionally rasterized to PNG.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if flagDebug {
			appLog.SetLevel(appLog.LevelDebug)
		}
	},
	// No Run — prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "config.yaml", "path to config file")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(watchCmd)
}
