package main

import (
	"fmt"
	"strings"
	"time"
)

// parseDateRange resolves a date expression into an ordered list of local
// midnights. Supported forms:
//
//	""                        today
//	"today" / "tomorrow"      single day
//	"this week" / "next week" Monday through Sunday
//	"2025-04-01"              single day
//	"2025-04-01:2025-04-07"   inclusive range
func parseDateRange(expr string, loc *time.Location) ([]time.Time, error) {
	today := midnight(time.Now().In(loc))

	switch strings.ToLower(strings.TrimSpace(expr)) {
	case "", "today":
		return []time.Time{today}, nil
	case "tomorrow":
		return []time.Time{today.AddDate(0, 0, 1)}, nil
	case "this week":
		return weekOf(today), nil
	case "next week":
		return weekOf(today.AddDate(0, 0, 7)), nil
	}

	if from, to, ok := strings.Cut(expr, ":"); ok {
		start, err := parseDay(from, loc)
		if err != nil {
			return nil, err
		}
		end, err := parseDay(to, loc)
		if err != nil {
			return nil, err
		}
		if end.Before(start) {
			return nil, fmt.Errorf("date range %q ends before it starts", expr)
		}
		var out []time.Time
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			out = append(out, d)
		}
		return out, nil
	}

	d, err := parseDay(expr, loc)
	if err != nil {
		return nil, err
	}
	return []time.Time{d}, nil
}

func parseDay(s string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return d, nil
}

// weekOf returns Monday through Sunday of the week containing d.
func weekOf(d time.Time) []time.Time {
	offset := (int(d.Weekday()) + 6) % 7 // Monday = 0
	monday := d.AddDate(0, 0, -offset)
	out := make([]time.Time, 7)
	for i := range out {
		out[i] = monday.AddDate(0, 0, i)
	}
	return out
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
