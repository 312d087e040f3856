package sched

import (
	"sort"
	"sync"
	"time"

	"papercal/internal/ics"
	"papercal/internal/model"
)

// BuildDay runs the full per-day pipeline: expansion with UID dedup,
// all-day/timed classification, filtering, all-day bucket ordering, and
// overlap layout. The result is an immutable snapshot for that date.
func (x *Expander) BuildDay(events []ics.RawEvent, target time.Time) model.DaySchedule {
	sod, _ := x.Opts.dayWindow(target)

	instances := x.ExpandDay(events, target)
	allDay, timed := SplitAllDay(instances, target, x.Opts)
	allDay = FilterAllDay(allDay, x.Opts)
	allDay = BucketAllDay(allDay, target, x.Opts)
	timed = FilterTimed(timed, target, x.Opts)

	layered := Layout(timed)
	sort.SliceStable(layered, func(i, j int) bool {
		if layered[i].Layer != layered[j].Layer {
			return layered[i].Layer < layered[j].Layer
		}
		return layered[i].Start.Before(layered[j].Start)
	})

	return model.DaySchedule{Date: sod, AllDay: allDay, Timed: layered}
}

// BuildDays builds schedules for every date in parallel. Each day writes
// only its own result slot; no coordination is needed because all inputs
// are immutable.
func (x *Expander) BuildDays(events []ics.RawEvent, dates []time.Time) []model.DaySchedule {
	out := make([]model.DaySchedule, len(dates))
	var wg sync.WaitGroup
	for i, d := range dates {
		wg.Add(1)
		go func(i int, d time.Time) {
			defer wg.Done()
			out[i] = x.BuildDay(events, d)
		}(i, d)
	}
	wg.Wait()
	return out
}
