package model

import "time"

// Instance is one concrete occurrence of an event on a single target date,
// after recurrence expansion and timezone normalization. Start/End are always
// in the configured display timezone and End >= Start.
type Instance struct {
	UID   string
	Title string

	CalendarName  string
	CalendarColor string

	Start time.Time
	End   time.Time

	AllDay bool

	// TimeLabel carries the original start-end time of an off-grid event
	// that was reclassified into the all-day band, so the renderer can
	// still show when it actually happens. Empty otherwise.
	TimeLabel string

	// Status is the lowercased STATUS property value, if any ("cancelled", ...).
	Status string
}

// Duration returns the instance length. Zero for instantaneous events.
func (in Instance) Duration() time.Duration {
	return in.End.Sub(in.Start)
}

// Overlaps reports whether two half-open intervals [Start, End) intersect.
func (in Instance) Overlaps(other Instance) bool {
	return in.Start.Before(other.End) && other.Start.Before(in.End)
}

// LayeredInstance is a timed Instance plus its stacking assignment for one
// day. Layer 0 is the widest "back" box; deeper layers draw narrower boxes
// on top of it.
type LayeredInstance struct {
	Instance

	Layer int
	// WidthFrac = (maxDepth - Layer) / maxDepth within the instance's
	// overlap cluster; always in (0, 1].
	WidthFrac float64
}

// DaySchedule is the immutable per-date output handed to the renderer.
type DaySchedule struct {
	// Date is local midnight of the target date.
	Date time.Time

	// AllDay is in presentation order: ends-before-grid, true all-day,
	// partial-overlap, starts-after-grid.
	AllDay []Instance

	// Timed is sorted by (Layer, Start) for drawing.
	Timed []LayeredInstance
}
