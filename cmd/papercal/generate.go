package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"papercal/internal/capture"
	"papercal/internal/config"
	"papercal/internal/ics"
	appLog "papercal/internal/log"
	"papercal/internal/meta"
	"papercal/internal/render"
	"papercal/internal/sched"
)

var (
	flagDate  string
	flagForce bool
	flagPNG   bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Fetch calendars and render the schedule pages",
	Long:  "Fetches all configured calendars, expands events for the requested dates, and writes one HTML page per day. Skipped entirely when neither the events nor the date range changed since the last run.",
	Args:  cobra.NoArgs,
	RunE:  runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&flagDate, "date", "", `target date or range: "2025-04-01", "2025-04-01:2025-04-07", "today", "this week" (default today)`)
	generateCmd.Flags().BoolVar(&flagForce, "force", false, "regenerate even if nothing changed")
	generateCmd.Flags().BoolVar(&flagPNG, "png", false, "also rasterize each page to PNG via headless Chromium")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	return generate(cmd.Context(), cfg, flagDate, flagForce, flagPNG)
}

// generate runs one full pipeline pass: ingest, change detection, per-day
// expansion and layout, rendering, optional capture, meta persistence.
func generate(ctx context.Context, cfg *config.Config, dateExpr string, force, png bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	dates, err := parseDateRange(dateExpr, loc)
	if err != nil {
		return err
	}

	sources := make([]ics.Source, 0, len(cfg.Calendars))
	for _, c := range cfg.Calendars {
		sources = append(sources, ics.Source{Name: c.Name, Color: c.Color, Location: c.Source})
	}

	fs := afero.NewOsFs()
	fetcher := ics.NewFetcher(fs, cfg.CacheDir, cfg.FetchParallelism)
	raw := fetcher.Ingest(ctx, sources, loc)
	appLog.Info("ingest completed", "calendars", len(sources), "events", len(raw))

	anchor := ics.Anchor(dates)
	digest := ics.Digest(raw)
	store := meta.NewStore(fs, cfg.MetaFile)
	prev := store.Load()
	if meta.ShouldSkip(prev, anchor, digest, force) {
		appLog.Info("no event or date-range changes, skipping generation", "anchor", anchor)
		return nil
	}

	overrides := sched.BuildOverrideIndex(raw, loc)
	opts := optionsFromConfig(cfg, loc)
	expander := sched.NewExpander(opts, overrides, sched.LogReporter{})

	days := expander.BuildDays(raw, dates)
	for _, day := range days {
		path, err := render.WriteDay(fs, cfg.OutputDir, day, opts)
		if err != nil {
			return fmt.Errorf("render %s: %w", day.Date.Format("2006-01-02"), err)
		}
		appLog.Info("page written", "date", day.Date.Format("2006-01-02"),
			"all_day", len(day.AllDay), "timed", len(day.Timed), "path", path)

		if png {
			pngPath := strings.TrimSuffix(path, ".html") + ".png"
			if err := capture.PagePNG(ctx, capture.Options{Page: path, OutputPath: pngPath}); err != nil {
				return fmt.Errorf("capture %s: %w", day.Date.Format("2006-01-02"), err)
			}
			appLog.Info("png written", "path", pngPath)
		}
	}

	if err := store.Save(meta.Record{LastAnchor: anchor, EventsHash: digest}); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	appLog.Info("generation completed", "anchor", anchor, "days", len(days))
	return nil
}

func optionsFromConfig(cfg *config.Config, loc *time.Location) sched.Options {
	denylist := make([]string, 0, len(cfg.Denylist))
	for _, d := range cfg.Denylist {
		denylist = append(denylist, strings.ToLower(d))
	}
	return sched.Options{
		Location:         loc,
		StartHour:        cfg.StartHour,
		EndHour:          cfg.EndHour,
		ExcludeBefore:    cfg.ExcludeBefore,
		MinEventDuration: time.Duration(cfg.MinEventMinutes) * time.Minute,
		Denylist:         denylist,
		OffGridAllDay:    cfg.OffGridAllDay,
		Use24Hour:        cfg.TimeFormat == "24",
	}
}
