package sched

import (
	"sort"
	"strings"
	"time"

	"papercal/internal/model"
)

// SplitAllDay buckets instances into all-day vs timed. An instance is
// all-day if it is flagged so, or if its span covers the full day window
// [startOfDay, startOfNextDay).
func SplitAllDay(instances []model.Instance, target time.Time, opts Options) (allDay, timed []model.Instance) {
	sod, sodNext := opts.dayWindow(target)
	for _, in := range instances {
		spansDay := !in.Start.After(sod) && !in.End.Before(sodNext)
		if in.AllDay || spansDay {
			allDay = append(allDay, in)
		} else {
			timed = append(timed, in)
		}
	}
	return allDay, timed
}

// FilterTimed applies the exclusion rules to timed instances: wrong local
// date, start outside the visible hours, denylisted title/status, or
// duration under the minimum (an event of exactly the minimum is kept).
// Survivors come back sorted by start time, stable on ties.
func FilterTimed(timed []model.Instance, target time.Time, opts Options) []model.Instance {
	sod, _ := opts.dayWindow(target)

	kept := make([]model.Instance, 0, len(timed))
	for _, in := range timed {
		if !sameDate(in.Start, sod) {
			continue
		}
		h := in.Start.Hour()
		if h < opts.ExcludeBefore || h >= opts.EndHour {
			continue
		}
		if denied(in, opts.Denylist) {
			continue
		}
		if in.Duration() < opts.MinEventDuration {
			continue
		}
		kept = append(kept, in)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Start.Before(kept[j].Start)
	})
	return kept
}

// FilterAllDay applies the denylist to all-day instances.
func FilterAllDay(allDay []model.Instance, opts Options) []model.Instance {
	kept := make([]model.Instance, 0, len(allDay))
	for _, in := range allDay {
		if denied(in, opts.Denylist) {
			continue
		}
		kept = append(kept, in)
	}
	return kept
}

// BucketAllDay orders all-day instances for presentation: events ending
// before the grid starts, true midnight-to-midnight all-day events,
// partial overlaps, then events starting at or after the grid ends.
func BucketAllDay(allDay []model.Instance, target time.Time, opts Options) []model.Instance {
	sod, sodNext := opts.dayWindow(target)
	gridStart, gridEnd := opts.gridBounds(sod)

	var pre, full, other, post []model.Instance
	for _, in := range allDay {
		switch {
		case in.Start.Equal(sod) && in.End.Equal(sodNext):
			full = append(full, in)
		case !in.End.After(gridStart):
			pre = append(pre, in)
		case !in.Start.Before(gridEnd):
			post = append(post, in)
		default:
			other = append(other, in)
		}
	}

	sort.SliceStable(pre, func(i, j int) bool { return pre[i].End.Before(pre[j].End) })
	sort.SliceStable(full, func(i, j int) bool { return full[i].Start.Before(full[j].Start) })
	sort.SliceStable(other, func(i, j int) bool { return other[i].Start.Before(other[j].Start) })
	sort.SliceStable(post, func(i, j int) bool { return post[i].Start.Before(post[j].Start) })

	out := make([]model.Instance, 0, len(allDay))
	out = append(out, pre...)
	out = append(out, full...)
	out = append(out, other...)
	out = append(out, post...)
	return out
}

// denied reports whether the denylist hits the instance: substring match
// on the lowercased title, exact match on the status.
func denied(in model.Instance, denylist []string) bool {
	if len(denylist) == 0 {
		return false
	}
	title := strings.ToLower(in.Title)
	for _, d := range denylist {
		if d == "" {
			continue
		}
		if strings.Contains(title, d) || in.Status == d {
			return true
		}
	}
	return false
}
