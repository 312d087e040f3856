package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// CalendarSource describes a single subscribed calendar.
type CalendarSource struct {
	// Name is a human-friendly label, also used as the digest grouping key.
	Name string `yaml:"name" json:"name"`
	// Color is the hex color events from this calendar are drawn in.
	Color string `yaml:"color" json:"color"`
	// Source is an http(s) URL, a local .ics file, or a directory of .ics files.
	Source string `yaml:"source" json:"source"`
}

// Config is the top-level application configuration.
type Config struct {
	// Timezone is the IANA timezone all instances are normalized to.
	Timezone string `yaml:"timezone" json:"timezone"`

	// StartHour / EndHour bound the visible hour grid (e.g. 6..21).
	StartHour int `yaml:"start_hour" json:"start_hour"`
	EndHour   int `yaml:"end_hour" json:"end_hour"`

	// ExcludeBefore drops timed events starting before this hour.
	ExcludeBefore int `yaml:"exclude_before" json:"exclude_before"`

	// TimeFormat selects the clock style for time labels: "24" or "12".
	TimeFormat string `yaml:"time_format" json:"time_format"`

	// MinEventMinutes drops timed events shorter than this (inclusive keep).
	MinEventMinutes int `yaml:"min_event_minutes" json:"min_event_minutes"`

	// OffGridAllDay moves events entirely outside the hour grid into the
	// all-day band instead of dropping them.
	OffGridAllDay bool `yaml:"offgrid_all_day" json:"offgrid_all_day"`

	// Denylist drops events whose lowercased title or status contains one
	// of these strings.
	Denylist []string `yaml:"denylist" json:"denylist"`

	// WatchCron is the cron schedule used by the watch command.
	WatchCron string `yaml:"watch_cron" json:"watch_cron"`

	// FetchParallelism bounds concurrent network fetches.
	FetchParallelism int `yaml:"fetch_parallelism" json:"fetch_parallelism"`

	OutputDir string `yaml:"output_dir" json:"output_dir"`
	MetaFile  string `yaml:"meta_file" json:"meta_file"`
	CacheDir  string `yaml:"cache_dir" json:"cache_dir"`

	Calendars []CalendarSource `yaml:"calendars" json:"calendars"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Timezone:         "UTC",
		StartHour:        6,
		EndHour:          21,
		ExcludeBefore:    0,
		TimeFormat:       "24",
		MinEventMinutes:  15,
		OffGridAllDay:    true,
		Denylist:         []string{"cancelled", "canceled"},
		WatchCron:        "*/15 * * * *",
		FetchParallelism: 4,
		OutputDir:        "output",
		MetaFile:         "feeds_meta.yaml",
		CacheDir:         "./var/ics-cache",
		Calendars:        []CalendarSource{},
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	if c.EndHour <= 0 || c.EndHour > 24 {
		c.EndHour = 21
	}
	if c.StartHour < 0 || c.StartHour >= c.EndHour {
		c.StartHour = 0
	}
	if c.ExcludeBefore < 0 {
		c.ExcludeBefore = 0
	}
	switch c.TimeFormat {
	case "24", "12":
	default:
		c.TimeFormat = "24"
	}
	if c.MinEventMinutes <= 0 {
		c.MinEventMinutes = 15
	}
	if c.Denylist == nil {
		c.Denylist = []string{"cancelled", "canceled"}
	}
	if c.WatchCron == "" {
		c.WatchCron = "*/15 * * * *"
	}
	if c.FetchParallelism <= 0 {
		c.FetchParallelism = 4
	}
	if c.OutputDir == "" {
		c.OutputDir = "output"
	}
	if c.MetaFile == "" {
		c.MetaFile = "feeds_meta.yaml"
	}
	if c.CacheDir == "" {
		c.CacheDir = "./var/ics-cache"
	}
	if c.Calendars == nil {
		c.Calendars = []CalendarSource{}
	}
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, write a default config (0600) and return it.
//   - Otherwise read, unmarshal, normalize.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path atomically
// (temp file + rename) with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".papercal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
