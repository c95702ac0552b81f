package voice

import "time"

// inQuietHours reports whether now (in the user's timezone) falls
// within [start, end) quiet hours. start == end disables the quiet-hour
// check entirely; start > end is treated as a window that wraps past
// midnight (e.g. 21 -> 8). Grounded on
// voice_recovery_service.py's _in_quiet_hours.
func inQuietHours(now time.Time, tz string, start, end int) bool {
	if start == end {
		return false
	}
	loc := resolveLocation(tz)
	hour := now.In(loc).Hour()
	if start < end {
		return hour >= start && hour < end
	}
	return hour >= start || hour < end
}

// nextNonQuietTime returns the earliest instant at or after now that
// falls outside the quiet window, mirroring
// voice_recovery_service.py's _next_non_quiet_time: a job found inside
// quiet hours is rescheduled to the window's end, not cancelled.
func nextNonQuietTime(now time.Time, tz string, start, end int) time.Time {
	if start == end || !inQuietHours(now, tz, start, end) {
		return now
	}
	loc := resolveLocation(tz)
	local := now.In(loc)
	endToday := time.Date(local.Year(), local.Month(), local.Day(), end, 0, 0, 0, loc)
	if endToday.After(local) {
		return endToday
	}
	// end-of-window already passed today (we're in the pre-midnight
	// half of a wrapping window, e.g. hour 22 with start=21/end=8):
	// the window doesn't end until tomorrow.
	return endToday.Add(24 * time.Hour)
}

// resolveLocation looks up tz, falling back to UTC on any failure — the
// Python service does the same rather than letting a bad per-user
// timezone value break scheduling for everyone else.
func resolveLocation(tz string) *time.Location {
	if tz == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}
