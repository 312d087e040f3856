package ics

import (
	"bufio"
	"bytes"
	"strings"
	"time"

	appLog "papercal/internal/log"
)

// TZResolver resolves TZID parameters declared by a single calendar to
// concrete locations. It is built from the calendar's embedded VTIMEZONE
// blocks; calendars without VTIMEZONE have a nil resolver and naive
// timestamps default to UTC.
type TZResolver struct {
	byID map[string]*time.Location
}

// Resolve returns the location for a TZID. Unknown or malformed zones fall
// back to UTC; that fallback is a data-quality warning, not an error.
func (r *TZResolver) Resolve(tzid string) *time.Location {
	if r == nil || tzid == "" {
		return time.UTC
	}
	if loc, ok := r.byID[tzid]; ok {
		return loc
	}
	return time.UTC
}

// buildTZResolver scans raw ICS bytes for VTIMEZONE blocks and maps each
// declared TZID to a location.
//
// VTIMEZONE transition rules are not interpreted directly: in practice the
// TZID (or the X-LIC-LOCATION vendor property) names an IANA zone, which is
// what time.LoadLocation understands. Other X- vendor properties are
// ignored entirely so they cannot break parsing.
func buildTZResolver(calName string, body []byte) *TZResolver {
	byID := make(map[string]*time.Location)

	inBlock := false
	var tzid, licLocation string

	flush := func() {
		if tzid == "" {
			return
		}
		if loc, err := time.LoadLocation(tzid); err == nil {
			byID[tzid] = loc
			return
		}
		// TZID is not an IANA name (e.g. "Custom TZ"); try the vendor hint.
		if licLocation != "" {
			if loc, err := time.LoadLocation(licLocation); err == nil {
				byID[tzid] = loc
				return
			}
		}
		appLog.Warn("ics: unresolvable VTIMEZONE, naive times fall back to UTC",
			"calendar", calName, "tzid", tzid)
	}

	sc := bufio.NewScanner(bytes.NewReader(body))
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		switch {
		case line == "BEGIN:VTIMEZONE":
			inBlock = true
			tzid, licLocation = "", ""
		case line == "END:VTIMEZONE":
			if inBlock {
				flush()
			}
			inBlock = false
		case inBlock && strings.HasPrefix(line, "TZID"):
			tzid = propertyValue(line)
		case inBlock && strings.HasPrefix(line, "X-LIC-LOCATION"):
			licLocation = propertyValue(line)
		}
	}

	if len(byID) == 0 {
		return nil
	}
	return &TZResolver{byID: byID}
}

// propertyValue returns the text after the first ':' of a content line,
// skipping any ;PARAM=... segments before it.
func propertyValue(line string) string {
	if i := strings.Index(line, ":"); i >= 0 {
		return strings.TrimSpace(line[i+1:])
	}
	return ""
}
