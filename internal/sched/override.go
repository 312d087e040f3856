package sched

import (
	"time"

	"papercal/internal/ics"
)

// OverrideIndex maps an event UID to the set of recurrence instants that
// have a standalone override VEVENT. Overrides are global facts about a
// UID's recurrence, so the index is built once per run, before any per-day
// work, and is read-only afterward.
type OverrideIndex struct {
	byUID map[string]map[int64]struct{}
}

// BuildOverrideIndex scans the full raw event sequence once. The override
// events themselves still flow through expansion as their own RawEvents;
// the index only suppresses the series-generated occurrences they replace.
func BuildOverrideIndex(events []ics.RawEvent, loc *time.Location) OverrideIndex {
	byUID := make(map[string]map[int64]struct{})
	for _, ev := range events {
		rid := ev.Event.RecurrenceID
		if rid == nil {
			continue
		}
		at := rid.Localize(ev.TZ, loc)
		set, ok := byUID[ev.Event.UID]
		if !ok {
			set = make(map[int64]struct{})
			byUID[ev.Event.UID] = set
		}
		set[at.Unix()] = struct{}{}
	}
	return OverrideIndex{byUID: byUID}
}

// Contains reports whether the given instant of a UID's series is
// overridden. Comparison is by absolute instant, not wall clock.
func (ix OverrideIndex) Contains(uid string, at time.Time) bool {
	set, ok := ix.byUID[uid]
	if !ok {
		return false
	}
	_, ok = set[at.Unix()]
	return ok
}

// Len returns the number of UIDs with at least one override.
func (ix OverrideIndex) Len() int {
	return len(ix.byUID)
}
