// Package sched turns raw calendar events into per-day renderable
// schedules: recurrence expansion, classification and filtering, and the
// overlap stacking layout. Everything here is pure over immutable inputs,
// so distinct days can be built in parallel without coordination.
package sched

import "time"

// Options carries the run configuration the core needs. It is threaded
// explicitly into every call; there is no process-wide mutable state.
type Options struct {
	// Location is the display timezone every instance is normalized to.
	Location *time.Location

	// StartHour / EndHour bound the visible hour grid.
	StartHour int
	EndHour   int

	// ExcludeBefore drops timed events starting before this hour.
	ExcludeBefore int

	// MinEventDuration drops shorter timed events (boundary inclusive:
	// an event of exactly this length is kept).
	MinEventDuration time.Duration

	// Denylist drops events whose lowercased title contains, or whose
	// status equals, one of these strings.
	Denylist []string

	// OffGridAllDay reclassifies events entirely outside the hour grid
	// into the all-day band instead of losing them.
	OffGridAllDay bool

	// Use24Hour selects the clock style for time labels.
	Use24Hour bool
}

func (o Options) location() *time.Location {
	if o.Location != nil {
		return o.Location
	}
	return time.UTC
}

// dayWindow returns local midnight of target's date and of the next date.
func (o Options) dayWindow(target time.Time) (sod, sodNext time.Time) {
	loc := o.location()
	t := target.In(loc)
	sod = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return sod, sod.AddDate(0, 0, 1)
}

// gridBounds returns the visible grid window within a day.
func (o Options) gridBounds(sod time.Time) (gridStart, gridEnd time.Time) {
	return sod.Add(time.Duration(o.StartHour) * time.Hour),
		sod.Add(time.Duration(o.EndHour) * time.Hour)
}

// FormatClock renders a timestamp in the configured clock style.
func (o Options) FormatClock(t time.Time) string {
	if o.Use24Hour {
		return t.Format("15:04")
	}
	return t.Format("3:04 PM")
}

// timeLabel renders the original span of an off-grid event for the
// all-day band.
func (o Options) timeLabel(start, end time.Time) string {
	return o.FormatClock(start) + "–" + o.FormatClock(end)
}
