package ics

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doc(lines ...string) []byte {
	all := append([]string{"BEGIN:VCALENDAR", "VERSION:2.0", "PRODID:-//papercal//test//EN"}, lines...)
	all = append(all, "END:VCALENDAR")
	return []byte(strings.Join(all, "\r\n") + "\r\n")
}

func parse(t *testing.T, body []byte) []RawEvent {
	t.Helper()
	events, err := ParseCalendar(Source{Name: "fixtures", Color: "#112233"}, body)
	require.NoError(t, err)
	return events
}

func TestParseCalendar_Basics(t *testing.T) {
	t.Parallel()
	events := parse(t, doc(
		"BEGIN:VEVENT",
		"UID:ev-1",
		"SUMMARY:Review",
		"STATUS:CONFIRMED",
		"DTSTART:20240302T100000Z",
		"DTEND:20240302T110000Z",
		"END:VEVENT",
	))
	require.Len(t, events, 1)

	ev := events[0].Event
	assert.Equal(t, "ev-1", ev.UID)
	assert.Equal(t, "Review", ev.Summary)
	assert.Equal(t, "confirmed", ev.Status)
	assert.Equal(t, "fixtures", events[0].Calendar)
	assert.Equal(t, "#112233", events[0].Color)

	assert.False(t, ev.Start.DateOnly)
	assert.False(t, ev.Start.Naive)
	assert.Equal(t, time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC), ev.Start.Time)
	require.NotNil(t, ev.End)
	assert.Equal(t, time.Date(2024, 3, 2, 11, 0, 0, 0, time.UTC), ev.End.Time)
}

func TestParseCalendar_MissingUIDSkipped(t *testing.T) {
	t.Parallel()
	events := parse(t, doc(
		"BEGIN:VEVENT",
		"SUMMARY:No identity",
		"DTSTART:20240302T100000Z",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:ok-1",
		"SUMMARY:Fine",
		"DTSTART:20240302T120000Z",
		"END:VEVENT",
	))
	require.Len(t, events, 1)
	assert.Equal(t, "ok-1", events[0].Event.UID)
}

func TestParseVEvent_MissingSummaryDefaultsToUntitled(t *testing.T) {
	t.Parallel()
	events := parse(t, doc(
		"BEGIN:VEVENT",
		"UID:blank-1",
		"DTSTART:20240302T100000Z",
		"DTEND:20240302T110000Z",
		"END:VEVENT",
	))
	require.Len(t, events, 1)
	assert.Equal(t, "Untitled", events[0].Event.Summary)
}

func TestParseCalendar_EmptyBody(t *testing.T) {
	t.Parallel()
	_, err := ParseCalendar(Source{Name: "empty"}, nil)
	assert.Error(t, err)
}

func TestParseVEvent_DateOnly(t *testing.T) {
	t.Parallel()
	events := parse(t, doc(
		"BEGIN:VEVENT",
		"UID:ad-1",
		"SUMMARY:Holiday",
		"DTSTART;VALUE=DATE:20240301",
		"DTEND;VALUE=DATE:20240302",
		"END:VEVENT",
	))
	require.Len(t, events, 1)

	ev := events[0].Event
	assert.True(t, ev.Start.DateOnly)
	require.NotNil(t, ev.End)
	assert.True(t, ev.End.DateOnly)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), ev.Start.Time)
}

func TestParseVEvent_NaiveWithTZID(t *testing.T) {
	t.Parallel()
	events := parse(t, doc(
		"BEGIN:VEVENT",
		"UID:tz-1",
		"SUMMARY:Local meeting",
		"DTSTART;TZID=Europe/Berlin:20240302T100000",
		"DTEND;TZID=Europe/Berlin:20240302T110000",
		"END:VEVENT",
	))
	require.Len(t, events, 1)

	start := events[0].Event.Start
	assert.True(t, start.Naive)
	assert.Equal(t, "Europe/Berlin", start.TZID)
	assert.Equal(t, 10, start.Time.Hour())
}

func TestParseVEvent_DurationAndRRule(t *testing.T) {
	t.Parallel()
	events := parse(t, doc(
		"BEGIN:VEVENT",
		"UID:dur-1",
		"SUMMARY:Standup",
		"DTSTART:20240302T090000Z",
		"DURATION:PT30M",
		"RRULE:FREQ=DAILY;COUNT=5",
		"END:VEVENT",
	))
	require.Len(t, events, 1)

	ev := events[0].Event
	assert.Nil(t, ev.End)
	assert.True(t, ev.HasDuration)
	assert.Equal(t, 30*time.Minute, ev.Duration)
	assert.Equal(t, "FREQ=DAILY;COUNT=5", ev.RawRRule)
}

func TestParseVEvent_ExdateCommaList(t *testing.T) {
	t.Parallel()
	events := parse(t, doc(
		"BEGIN:VEVENT",
		"UID:ex-1",
		"SUMMARY:Daily",
		"DTSTART:20240301T090000Z",
		"DTEND:20240301T100000Z",
		"RRULE:FREQ=DAILY",
		"EXDATE:20240304T090000Z,20240305T090000Z",
		"EXDATE:20240308T090000Z",
		"END:VEVENT",
	))
	require.Len(t, events, 1)

	ex := events[0].Event.ExDates
	require.Len(t, ex, 3)
	assert.Equal(t, time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC), ex[0].Time)
	assert.Equal(t, time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC), ex[1].Time)
	assert.Equal(t, time.Date(2024, 3, 8, 9, 0, 0, 0, time.UTC), ex[2].Time)
}

func TestParseVEvent_RecurrenceID(t *testing.T) {
	t.Parallel()
	events := parse(t, doc(
		"BEGIN:VEVENT",
		"UID:ov-1",
		"SUMMARY:Moved",
		"DTSTART:20240402T140000Z",
		"DTEND:20240402T150000Z",
		"RECURRENCE-ID:20240402T100000Z",
		"END:VEVENT",
	))
	require.Len(t, events, 1)

	ev := events[0].Event
	assert.True(t, ev.IsOverride)
	require.NotNil(t, ev.RecurrenceID)
	assert.Equal(t, time.Date(2024, 4, 2, 10, 0, 0, 0, time.UTC), ev.RecurrenceID.Time)
}

func TestParseICSDuration(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"PT15M", 15 * time.Minute},
		{"PT1H30M", 90 * time.Minute},
		{"P1D", 24 * time.Hour},
		{"P1W", 7 * 24 * time.Hour},
		{"P1DT12H", 36 * time.Hour},
		{"PT45S", 45 * time.Second},
		{"-PT30M", -30 * time.Minute},
		{"+PT5M", 5 * time.Minute},
	}
	for _, tc := range cases {
		got, err := parseICSDuration(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	for _, bad := range []string{"", "T15M", "P1X", "PTM", "P1"} {
		_, err := parseICSDuration(bad)
		assert.Error(t, err, bad)
	}
}

func TestLocalize(t *testing.T) {
	t.Parallel()
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	// Date-only values materialize at local midnight of the display zone.
	dateOnly := TimeValue{Time: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), DateOnly: true}
	assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, berlin), dateOnly.Localize(nil, berlin))

	// Zoned UTC values convert.
	zoned := TimeValue{Time: time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)}
	assert.Equal(t, 11, zoned.Localize(nil, berlin).Hour())

	// Naive values without a resolver default to UTC wall time.
	naive := TimeValue{Time: time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC), Naive: true, TZID: "Europe/Berlin"}
	assert.Equal(t, 11, naive.Localize(nil, berlin).Hour())
}

func TestTZResolver(t *testing.T) {
	t.Parallel()
	body := doc(
		"BEGIN:VTIMEZONE",
		"TZID:Europe/Berlin",
		"BEGIN:STANDARD",
		"TZOFFSETFROM:+0200",
		"TZOFFSETTO:+0100",
		"DTSTART:19701025T030000",
		"END:STANDARD",
		"END:VTIMEZONE",
		"BEGIN:VTIMEZONE",
		"TZID:Custom Company Zone",
		"X-LIC-LOCATION:Asia/Seoul",
		"END:VTIMEZONE",
	)

	r := buildTZResolver("fixtures", body)
	require.NotNil(t, r)

	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	seoul, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)

	assert.Equal(t, berlin, r.Resolve("Europe/Berlin"))
	// Non-IANA TZID falls back to the vendor location hint.
	assert.Equal(t, seoul, r.Resolve("Custom Company Zone"))
	// Unknown zones resolve to UTC.
	assert.Equal(t, time.UTC, r.Resolve("Mars/Olympus"))
	// A nil resolver is always UTC.
	assert.Equal(t, time.UTC, (*TZResolver)(nil).Resolve("Europe/Berlin"))
}

func TestTZResolver_NoBlocks(t *testing.T) {
	t.Parallel()
	assert.Nil(t, buildTZResolver("fixtures", doc()))
}
