package sched

import (
	"time"

	appLog "papercal/internal/log"
)

// Reporter receives structured facts from the expansion pipeline so
// observability stays out of the algorithms themselves. Implementations
// must be safe for concurrent use; days are built in parallel.
type Reporter interface {
	// SkippedOccurrence fires when a rule-generated occurrence is
	// suppressed (override exists, EXDATE, or rule evaluation error).
	SkippedOccurrence(uid string, at time.Time, reason string)

	// OffGridClamped fires when a timed event is reclassified into the
	// all-day band.
	OffGridClamped(uid string, start, end time.Time)

	// DuplicateDropped fires when per-day UID deduplication discards an
	// instance.
	DuplicateDropped(uid string, at time.Time)

	// InstantaneousEnd fires when an event has neither DTEND nor
	// DURATION and is treated as zero-length. Data-quality signal, not
	// an error.
	InstantaneousEnd(uid string)
}

// NopReporter discards all facts. Used by tests.
type NopReporter struct{}

func (NopReporter) SkippedOccurrence(string, time.Time, string) {}
func (NopReporter) OffGridClamped(string, time.Time, time.Time) {}
func (NopReporter) DuplicateDropped(string, time.Time)          {}
func (NopReporter) InstantaneousEnd(string)                     {}

// LogReporter forwards facts to the application logger.
type LogReporter struct{}

func (LogReporter) SkippedOccurrence(uid string, at time.Time, reason string) {
	appLog.Debug("sched: occurrence skipped", "uid", uid, "at", at.Format(time.RFC3339), "reason", reason)
}

func (LogReporter) OffGridClamped(uid string, start, end time.Time) {
	appLog.Debug("sched: off-grid event moved to all-day band",
		"uid", uid, "start", start.Format(time.RFC3339), "end", end.Format(time.RFC3339))
}

func (LogReporter) DuplicateDropped(uid string, at time.Time) {
	appLog.Warn("sched: duplicate instance dropped", "uid", uid, "at", at.Format(time.RFC3339))
}

func (LogReporter) InstantaneousEnd(uid string) {
	appLog.Warn("sched: event has no end or duration, treating as instantaneous", "uid", uid)
}
