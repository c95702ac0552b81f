package voice

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInQuietHoursNonWrapping(t *testing.T) {
	loc := time.UTC
	inside := time.Date(2026, 1, 1, 22, 0, 0, 0, loc)
	outside := time.Date(2026, 1, 1, 12, 0, 0, 0, loc)
	require.True(t, inQuietHours(inside, "UTC", 21, 23))
	require.False(t, inQuietHours(outside, "UTC", 21, 23))
}

func TestInQuietHoursWrapsPastMidnight(t *testing.T) {
	lateNight := time.Date(2026, 1, 1, 23, 0, 0, 0, time.UTC)
	earlyMorning := time.Date(2026, 1, 1, 5, 0, 0, 0, time.UTC)
	midday := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	require.True(t, inQuietHours(lateNight, "UTC", 21, 8))
	require.True(t, inQuietHours(earlyMorning, "UTC", 21, 8))
	require.False(t, inQuietHours(midday, "UTC", 21, 8))
}

func TestInQuietHoursDisabledWhenStartEqualsEnd(t *testing.T) {
	now := time.Date(2026, 1, 1, 3, 0, 0, 0, time.UTC)
	require.False(t, inQuietHours(now, "UTC", 9, 9))
}

func TestNextNonQuietTimeSameDay(t *testing.T) {
	now := time.Date(2026, 1, 1, 22, 0, 0, 0, time.UTC)
	next := nextNonQuietTime(now, "UTC", 21, 23)
	require.Equal(t, time.Date(2026, 1, 1, 23, 0, 0, 0, time.UTC), next)
}

func TestNextNonQuietTimeWrapsToTomorrow(t *testing.T) {
	now := time.Date(2026, 1, 1, 22, 0, 0, 0, time.UTC)
	next := nextNonQuietTime(now, "UTC", 21, 8)
	require.Equal(t, time.Date(2026, 1, 2, 8, 0, 0, 0, time.UTC), next)
}

func TestNextNonQuietTimeReturnsNowWhenNotQuiet(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	require.Equal(t, now, nextNonQuietTime(now, "UTC", 21, 8))
}

func TestResolveLocationFallsBackToUTC(t *testing.T) {
	require.Equal(t, time.UTC, resolveLocation(""))
	require.Equal(t, time.UTC, resolveLocation("Not/A_Real_Zone"))
}
