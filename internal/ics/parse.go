package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "papercal/internal/log"
)

// TimeValue is a raw DTSTART/DTEND/EXDATE/RECURRENCE-ID value before
// timezone normalization. Naive and date-only values are parsed with a UTC
// placeholder; the expander rebuilds them in their resolved location.
type TimeValue struct {
	Time     time.Time
	DateOnly bool
	// Naive is true when the value had neither a Z suffix nor a date-only
	// form; its real zone comes from TZID (via the calendar's resolver).
	Naive bool
	TZID  string
}

// ParsedEvent is the fixed typed representation of one VEVENT. Downstream
// stages never touch the loosely-typed property bag again.
type ParsedEvent struct {
	UID     string
	Summary string
	Status  string // lowercased STATUS value, "" if absent

	Start       TimeValue
	End         *TimeValue
	Duration    time.Duration
	HasDuration bool

	RawRRule string
	ExDates  []TimeValue

	// RecurrenceID marks this VEVENT as an override replacing one
	// occurrence of the recurring series with the same UID.
	RecurrenceID *TimeValue
	IsOverride   bool
}

// RawEvent is one parsed component plus its provenance. Immutable for the
// run's duration; owned by ingestion, read by every downstream stage.
type RawEvent struct {
	Event ParsedEvent

	// Component is retained solely for change-detection hashing.
	Component *ical.VEvent

	Calendar string
	Color    string
	TZ       *TZResolver
}

// SortTime is the ingestion sort key: the event start normalized the same
// way the expander will normalize it (date-only to local midnight, naive
// via the calendar resolver, else as parsed), converted into loc.
func (e RawEvent) SortTime(loc *time.Location) time.Time {
	return e.Event.Start.Localize(e.TZ, loc)
}

// Localize converts a raw value into a concrete zoned timestamp in loc.
func (v TimeValue) Localize(tz *TZResolver, loc *time.Location) time.Time {
	t := v.Time
	if v.DateOnly {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	}
	if v.Naive {
		src := tz.Resolve(v.TZID)
		t = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, src)
	}
	return t.In(loc)
}

// ParseCalendar parses a single ICS payload into RawEvents, attaching the
// calendar's timezone resolver and color/name metadata to every event.
// Individual VEVENTs that fail to parse are logged and skipped.
func ParseCalendar(src Source, body []byte) ([]RawEvent, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ics: parse %s: %w", src.Name, err)
	}

	resolver := buildTZResolver(src.Name, body)

	events := make([]RawEvent, 0)
	for _, ve := range cal.Events() {
		ev, perr := parseVEvent(ve)
		if perr != nil {
			appLog.Warn("ics: skipping malformed VEVENT", "calendar", src.Name, "reason", perr.Error())
			continue
		}
		events = append(events, RawEvent{
			Event:     ev,
			Component: ve,
			Calendar:  src.Name,
			Color:     src.Color,
			TZ:        resolver,
		})
	}

	appLog.Info("ics: parse completed", "calendar", src.Name, "event_count", len(events))
	return events, nil
}

func parseVEvent(ve *ical.VEvent) (ParsedEvent, error) {
	var out ParsedEvent

	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return out, errors.New("missing UID")
	}
	out.UID = uidProp.Value

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}
	if strings.TrimSpace(out.Summary) == "" {
		out.Summary = "Untitled"
	}
	if p := ve.GetProperty("STATUS"); p != nil {
		out.Status = strings.ToLower(strings.TrimSpace(p.Value))
	}

	startProp := ve.GetProperty(ical.ComponentPropertyDtStart)
	if startProp == nil || startProp.Value == "" {
		return out, errors.New("missing DTSTART")
	}
	start, err := parseTimeValue(startProp.Value, startProp.ICalParameters)
	if err != nil {
		return out, fmt.Errorf("bad DTSTART: %w", err)
	}
	out.Start = start

	if endProp := ve.GetProperty(ical.ComponentPropertyDtEnd); endProp != nil && endProp.Value != "" {
		end, err := parseTimeValue(endProp.Value, endProp.ICalParameters)
		if err != nil {
			return out, fmt.Errorf("bad DTEND: %w", err)
		}
		out.End = &end
	}

	if durProp := ve.GetProperty("DURATION"); durProp != nil && durProp.Value != "" {
		d, err := parseICSDuration(durProp.Value)
		if err != nil {
			return out, fmt.Errorf("bad DURATION: %w", err)
		}
		out.Duration = d
		out.HasDuration = true
	}

	if rruleProp := ve.GetProperty(ical.ComponentPropertyRrule); rruleProp != nil {
		out.RawRRule = rruleProp.Value
	}

	// EXDATE can appear multiple times and each value can be a comma list.
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			ex, err := parseTimeValue(part, p.ICalParameters)
			if err != nil {
				appLog.Warn("ics: unparsable EXDATE entry", "uid", out.UID, "value", part)
				continue
			}
			out.ExDates = append(out.ExDates, ex)
		}
	}

	// RECURRENCE-ID marks a standalone override of one series occurrence.
	if ridProp := ve.GetProperty("RECURRENCE-ID"); ridProp != nil && ridProp.Value != "" {
		rid, err := parseTimeValue(ridProp.Value, ridProp.ICalParameters)
		if err != nil {
			return out, fmt.Errorf("bad RECURRENCE-ID: %w", err)
		}
		out.RecurrenceID = &rid
		out.IsOverride = true
	}

	return out, nil
}

// parseTimeValue parses an ICS DATE or DATE-TIME value together with its
// parameters (VALUE=DATE, TZID).
func parseTimeValue(val string, params map[string][]string) (TimeValue, error) {
	val = strings.TrimSpace(val)
	if val == "" {
		return TimeValue{}, errors.New("empty time value")
	}

	dateOnly := !strings.Contains(val, "T")
	if vs, ok := params["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		dateOnly = true
	}
	if dateOnly {
		t, err := time.ParseInLocation("20060102", val, time.UTC)
		if err != nil {
			return TimeValue{}, err
		}
		return TimeValue{Time: t, DateOnly: true}, nil
	}

	if strings.HasSuffix(val, "Z") {
		t, err := time.Parse("20060102T150405Z", val)
		if err != nil {
			return TimeValue{}, err
		}
		return TimeValue{Time: t}, nil
	}

	t, err := time.ParseInLocation("20060102T150405", val, time.UTC)
	if err != nil {
		return TimeValue{}, err
	}
	tv := TimeValue{Time: t, Naive: true}
	if tzs, ok := params["TZID"]; ok && len(tzs) > 0 {
		tv.TZID = tzs[0]
	}
	return tv, nil
}

// parseICSDuration parses the RFC 5545 duration subset that appears in
// DURATION properties: [+-]P[nW | nD][T nH nM nS].
func parseICSDuration(val string) (time.Duration, error) {
	s := strings.TrimSpace(val)
	neg := false
	switch {
	case strings.HasPrefix(s, "-"):
		neg = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	if !strings.HasPrefix(s, "P") {
		return 0, fmt.Errorf("duration %q missing P", val)
	}
	s = s[1:]

	var total time.Duration
	inTime := false
	num := ""
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			num += string(r)
		case r == 'T':
			inTime = true
		default:
			if num == "" {
				return 0, fmt.Errorf("duration %q: dangling designator %c", val, r)
			}
			n, err := strconv.Atoi(num)
			if err != nil {
				return 0, err
			}
			num = ""
			switch {
			case r == 'W':
				total += time.Duration(n) * 7 * 24 * time.Hour
			case r == 'D':
				total += time.Duration(n) * 24 * time.Hour
			case r == 'H' && inTime:
				total += time.Duration(n) * time.Hour
			case r == 'M' && inTime:
				total += time.Duration(n) * time.Minute
			case r == 'S' && inTime:
				total += time.Duration(n) * time.Second
			default:
				return 0, fmt.Errorf("duration %q: unexpected designator %c", val, r)
			}
		}
	}
	if num != "" {
		return 0, fmt.Errorf("duration %q: trailing number", val)
	}
	if neg {
		total = -total
	}
	return total, nil
}
