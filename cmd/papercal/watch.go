package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"papercal/internal/config"
	appLog "papercal/internal/log"
)

var flagCron string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Regenerate on a cron schedule until interrupted",
	Long:  "Runs generate immediately, then on the configured cron schedule. Change detection makes unchanged runs cheap.",
	Args:  cobra.NoArgs,
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&flagCron, "cron", "", "cron schedule (overrides config watch_cron)")
	watchCmd.Flags().StringVar(&flagDate, "date", "", "target date or range passed to each generate run")
	watchCmd.Flags().BoolVar(&flagPNG, "png", false, "also rasterize each page to PNG")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	schedule := cfg.WatchCron
	if flagCron != "" {
		schedule = flagCron
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	run := func() {
		if err := generate(ctx, cfg, flagDate, false, flagPNG); err != nil {
			appLog.Error("scheduled generation failed", err)
		}
	}

	// First pass right away, then on schedule.
	run()

	c := cron.New()
	if _, err := c.AddFunc(schedule, run); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}
	c.Start()
	appLog.Info("watch started", "cron", schedule)

	<-ctx.Done()
	<-c.Stop().Done()
	appLog.Info("watch stopped")
	return nil
}
