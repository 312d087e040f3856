package sched

import (
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"papercal/internal/ics"
	"papercal/internal/model"
)

// Expander materializes concrete event instances for single target dates.
// It holds only immutable inputs and is safe to share across goroutines.
type Expander struct {
	Opts      Options
	Overrides OverrideIndex
	Report    Reporter
}

// NewExpander wires an expander; a nil reporter gets the no-op one.
func NewExpander(opts Options, overrides OverrideIndex, rep Reporter) *Expander {
	if rep == nil {
		rep = NopReporter{}
	}
	return &Expander{Opts: opts, Overrides: overrides, Report: rep}
}

// ExpandDay expands every raw event for one target date, deduplicating by
// UID: the first accepted instance for a UID wins, later ones are dropped.
// This guards against a series and its override both producing an entry,
// and against multi-day one-offs double-emitting in adjacent windows.
func (x *Expander) ExpandDay(events []ics.RawEvent, target time.Time) []model.Instance {
	seen := make(map[string]struct{})
	out := make([]model.Instance, 0)
	for _, ev := range events {
		for _, in := range x.expandEvent(ev, target) {
			if _, dup := seen[in.UID]; dup {
				x.Report.DuplicateDropped(in.UID, in.Start)
				continue
			}
			seen[in.UID] = struct{}{}
			out = append(out, in)
		}
	}
	return out
}

// expandEvent produces zero or more instances of one raw event on the
// target date. Many instances are only possible for a recurring series
// with several occurrences inside the same day window.
func (x *Expander) expandEvent(ev ics.RawEvent, target time.Time) []model.Instance {
	pe := ev.Event
	loc := x.Opts.location()
	sod, sodNext := x.Opts.dayWindow(target)

	// Whole-day components: present for every date in [startDate, endDate).
	if pe.Start.DateOnly {
		return x.expandDateOnly(ev, sod, sodNext)
	}

	// Timed: normalize start, then derive end by precedence
	// DTEND > DTSTART+DURATION > DTSTART (instantaneous).
	start := pe.Start.Localize(ev.TZ, loc)
	var end time.Time
	switch {
	case pe.End != nil:
		end = pe.End.Localize(ev.TZ, loc)
	case pe.HasDuration:
		end = start.Add(pe.Duration)
	default:
		end = start
		x.Report.InstantaneousEnd(pe.UID)
	}
	if end.Before(start) {
		end = start
		x.Report.InstantaneousEnd(pe.UID)
	}

	var raw []model.Instance
	if pe.RawRRule != "" {
		raw = x.expandRecurring(ev, start, end, sod, sodNext)
	} else if sameDate(start, sod) {
		raw = []model.Instance{x.instance(ev, start, end, false)}
	}

	out := make([]model.Instance, 0, len(raw))
	for _, in := range raw {
		if in, keep := x.reclassifyOffGrid(in, sod, sodNext); keep {
			out = append(out, in)
		}
	}
	return out
}

// expandDateOnly handles DATE-valued components: one midnight-to-midnight
// all-day instance if the target date falls inside [startDate, endDate).
// The end date is the day after the last all-day instance.
//
// Containment compares calendar dates, never instants: the raw DATE
// values parse at UTC midnight, so the target date is rebuilt there too
// before comparing. Comparing sod directly would shift the presence
// window by a day in any display zone with a non-zero offset.
func (x *Expander) expandDateOnly(ev ics.RawEvent, sod, sodNext time.Time) []model.Instance {
	pe := ev.Event
	startDate := dateOf(pe.Start.Time)

	var endDate time.Time
	switch {
	case pe.End != nil:
		endDate = dateOf(pe.End.Time)
	case pe.HasDuration:
		endDate = startDate.Add(pe.Duration)
	default:
		endDate = startDate
		x.Report.InstantaneousEnd(pe.UID)
	}

	y, m, d := sod.Date()
	targetDate := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	if targetDate.Before(startDate) || !targetDate.Before(endDate) {
		return nil
	}
	return []model.Instance{x.instance(ev, sod, sodNext, true)}
}

// expandRecurring materializes rule occurrences intersecting
// [sod, sodNext], inclusive of boundaries, skipping overridden and
// excepted instants. A missing UNTIL means the rule is unbounded; it is
// still evaluated only inside the single-day window.
func (x *Expander) expandRecurring(ev ics.RawEvent, start, end, sod, sodNext time.Time) []model.Instance {
	pe := ev.Event
	loc := x.Opts.location()

	r, err := rrule.StrToRRule(rewriteDateOnlyUntil(pe.RawRRule))
	if err != nil {
		x.Report.SkippedOccurrence(pe.UID, start, "rrule parse: "+err.Error())
		return nil
	}
	r.DTStart(start)

	nominal := end.Sub(start)
	exDates := x.localizedExDates(ev)

	var out []model.Instance
	for _, occ := range r.Between(sod, sodNext, true) {
		occ = occ.In(loc)
		if x.Overrides.Contains(pe.UID, occ) {
			// The standalone override event expands separately as its
			// own RawEvent.
			x.Report.SkippedOccurrence(pe.UID, occ, "override")
			continue
		}
		if containsInstant(exDates, occ) {
			x.Report.SkippedOccurrence(pe.UID, occ, "exdate")
			continue
		}
		out = append(out, x.instance(ev, occ, occ.Add(nominal), false))
	}
	return out
}

// reclassifyOffGrid drops instances with no overlap with the day window
// and, when the policy is on, moves timed events lying entirely outside
// the visible hour grid into the all-day band, keeping their original
// span as a human-readable label.
func (x *Expander) reclassifyOffGrid(in model.Instance, sod, sodNext time.Time) (model.Instance, bool) {
	if in.AllDay {
		return in, true
	}

	// No overlap with [sod, sodNext) at all: discard. Zero-length
	// instances count as a point at their start.
	if !in.Start.Before(sodNext) {
		return in, false
	}
	if !in.End.After(sod) && !in.End.Equal(in.Start) {
		return in, false
	}

	if x.Opts.OffGridAllDay {
		gridStart, gridEnd := x.Opts.gridBounds(sod)
		beforeGrid := !in.End.After(gridStart)
		// The boundary instant belongs to the off-grid side: a start
		// exactly at the grid-end hour is off-grid.
		afterGrid := !in.Start.Before(gridEnd)
		if beforeGrid || afterGrid {
			x.Report.OffGridClamped(in.UID, in.Start, in.End)
			in.TimeLabel = x.Opts.timeLabel(in.Start, in.End)
			in.Start, in.End = sod, sodNext
			in.AllDay = true
		}
	}
	return in, true
}

func (x *Expander) instance(ev ics.RawEvent, start, end time.Time, allDay bool) model.Instance {
	return model.Instance{
		UID:           ev.Event.UID,
		Title:         ev.Event.Summary,
		CalendarName:  ev.Calendar,
		CalendarColor: ev.Color,
		Start:         start,
		End:           end,
		AllDay:        allDay,
		Status:        ev.Event.Status,
	}
}

// localizedExDates converts the component's exception dates into concrete
// instants. Naive values without a TZID are interpreted in the display
// zone, matching how feeds that omit TZID on EXDATE behave in practice.
func (x *Expander) localizedExDates(ev ics.RawEvent) []time.Time {
	if len(ev.Event.ExDates) == 0 {
		return nil
	}
	loc := x.Opts.location()
	out := make([]time.Time, 0, len(ev.Event.ExDates))
	for _, ex := range ev.Event.ExDates {
		if ex.Naive && ex.TZID == "" {
			t := ex.Time
			out = append(out, time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc))
			continue
		}
		out = append(out, ex.Localize(ev.TZ, loc))
	}
	return out
}

// rewriteDateOnlyUntil rewrites a date-valued UNTIL bound to midnight UTC
// so the rule library accepts it.
func rewriteDateOnlyUntil(raw string) string {
	parts := strings.Split(raw, ";")
	for i, part := range parts {
		if !strings.HasPrefix(strings.ToUpper(part), "UNTIL=") {
			continue
		}
		val := part[len("UNTIL="):]
		if !strings.Contains(val, "T") && len(val) == 8 {
			parts[i] = "UNTIL=" + val + "T000000Z"
		}
	}
	return strings.Join(parts, ";")
}

func containsInstant(set []time.Time, at time.Time) bool {
	for _, t := range set {
		if t.Equal(at) {
			return true
		}
	}
	return false
}

func sameDate(t, sod time.Time) bool {
	y1, m1, d1 := t.Date()
	y2, m2, d2 := sod.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// dateOf strips the time of day, keeping the location.
func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
