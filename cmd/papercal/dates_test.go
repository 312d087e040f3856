package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateRange_SingleDay(t *testing.T) {
	t.Parallel()
	got, err := parseDateRange("2025-04-01", time.UTC)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), got[0])
}

func TestParseDateRange_InclusiveRange(t *testing.T) {
	t.Parallel()
	got, err := parseDateRange("2025-04-01:2025-04-03", time.UTC)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), got[0])
	assert.Equal(t, time.Date(2025, 4, 3, 0, 0, 0, 0, time.UTC), got[2])
}

func TestParseDateRange_SameDayRange(t *testing.T) {
	t.Parallel()
	got, err := parseDateRange("2025-04-01:2025-04-01", time.UTC)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestParseDateRange_ReversedRangeRejected(t *testing.T) {
	t.Parallel()
	_, err := parseDateRange("2025-04-07:2025-04-01", time.UTC)
	assert.Error(t, err)
}

func TestParseDateRange_InvalidInput(t *testing.T) {
	t.Parallel()
	for _, bad := range []string{"yesterday", "2025-13-01", "04/01/2025", "2025-04-01:nope"} {
		_, err := parseDateRange(bad, time.UTC)
		assert.Error(t, err, bad)
	}
}

func TestParseDateRange_TodayAndTomorrow(t *testing.T) {
	t.Parallel()
	today, err := parseDateRange("", time.UTC)
	require.NoError(t, err)
	require.Len(t, today, 1)
	assert.Equal(t, 0, today[0].Hour())

	named, err := parseDateRange("today", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, today, named)

	tomorrow, err := parseDateRange("tomorrow", time.UTC)
	require.NoError(t, err)
	require.Len(t, tomorrow, 1)
	assert.Equal(t, today[0].AddDate(0, 0, 1), tomorrow[0])
}

func TestParseDateRange_Weeks(t *testing.T) {
	t.Parallel()
	week, err := parseDateRange("this week", time.UTC)
	require.NoError(t, err)
	require.Len(t, week, 7)
	assert.Equal(t, time.Monday, week[0].Weekday())
	assert.Equal(t, time.Sunday, week[6].Weekday())
	for i := 1; i < len(week); i++ {
		assert.Equal(t, week[i-1].AddDate(0, 0, 1), week[i])
	}

	next, err := parseDateRange("next week", time.UTC)
	require.NoError(t, err)
	require.Len(t, next, 7)
	assert.Equal(t, week[0].AddDate(0, 0, 7), next[0])
}

func TestWeekOf_MidWeek(t *testing.T) {
	t.Parallel()
	// 2025-04-03 is a Thursday.
	week := weekOf(time.Date(2025, 4, 3, 0, 0, 0, 0, time.UTC))
	require.Len(t, week, 7)
	assert.Equal(t, time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC), week[0])
	assert.Equal(t, time.Date(2025, 4, 6, 0, 0, 0, 0, time.UTC), week[6])

	// A Sunday still belongs to the week that started the previous Monday.
	sunday := weekOf(time.Date(2025, 4, 6, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, week, sunday)
}
