// Package timeutil provides timezone utilities for Brasília time (UTC-3).
// Club Progress Hub serves clubs located in Brazil; ranking periods
// (per-week, per-month) are anchored to the local calendar, not UTC.
// Brazil abolished DST in 2019, so the offset is constant year-round.
// No external dependencies - uses only standard library.
package timeutil

import (
	"errors"
	"time"
)

// ClubTZ is the Brasília timezone (UTC-3, no DST).
var ClubTZ = time.FixedZone("America/Sao_Paulo", -3*60*60)

// Now returns the current time in club timezone.
func Now() time.Time {
	return time.Now().In(ClubTZ)
}

// ToClub converts a time to club timezone.
func ToClub(t time.Time) time.Time {
	return t.In(ClubTZ)
}

// ToUTC converts a time to UTC.
func ToUTC(t time.Time) time.Time {
	return t.UTC()
}

// Date creates a time in club timezone with the given date.
func Date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, ClubTZ)
}

// StartOfDay returns the start of the day (00:00:00) in club timezone.
func StartOfDay(t time.Time) time.Time {
	local := ToClub(t)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, ClubTZ)
}

// EndOfDay returns the end of the day (23:59:59.999999999) in club timezone.
func EndOfDay(t time.Time) time.Time {
	local := ToClub(t)
	return time.Date(local.Year(), local.Month(), local.Day(), 23, 59, 59, 999999999, ClubTZ)
}

// StartOfWeek returns the start of the week (Monday 00:00:00) in club timezone.
func StartOfWeek(t time.Time) time.Time {
	local := ToClub(t)
	weekday := int(local.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	daysToSubtract := weekday - 1 // Monday = 1
	return StartOfDay(local.AddDate(0, 0, -daysToSubtract))
}

// EndOfWeek returns the end of the week (Sunday 23:59:59) in club timezone.
func EndOfWeek(t time.Time) time.Time {
	start := StartOfWeek(t)
	return EndOfDay(start.AddDate(0, 0, 6))
}

// StartOfMonth returns the start of the month in club timezone.
func StartOfMonth(t time.Time) time.Time {
	local := ToClub(t)
	return time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, ClubTZ)
}

// EndOfMonth returns the end of the month in club timezone.
func EndOfMonth(t time.Time) time.Time {
	start := StartOfMonth(t)
	return EndOfDay(start.AddDate(0, 1, -1))
}

// StartOfYear returns the start of the year in club timezone.
// Ranking seasons reset yearly with the curriculum.
func StartOfYear(t time.Time) time.Time {
	local := ToClub(t)
	return time.Date(local.Year(), 1, 1, 0, 0, 0, 0, ClubTZ)
}

// IsSameDay checks if two times are on the same day in club timezone.
func IsSameDay(t1, t2 time.Time) bool {
	a1, a2 := ToClub(t1), ToClub(t2)
	return a1.Year() == a2.Year() && a1.YearDay() == a2.YearDay()
}

// DaysBetween calculates the number of days between two times.
func DaysBetween(t1, t2 time.Time) int {
	a1 := StartOfDay(t1)
	a2 := StartOfDay(t2)
	duration := a2.Sub(a1)
	days := int(duration.Hours() / 24)
	if days < 0 {
		days = -days
	}
	return days
}

// ══════════════════════════════════════════════════════════════════════════════
// RANKING PERIODS
// ══════════════════════════════════════════════════════════════════════════════

// ErrUnknownPeriod is returned for a period name PeriodWindow does not know.
var ErrUnknownPeriod = errors.New("timeutil: unknown period")

// PeriodWindow returns the [from, to) window for a named ranking period
// relative to now: "day", "week", "month", "year".
func PeriodWindow(period string, now time.Time) (time.Time, time.Time, error) {
	switch period {
	case "day":
		return StartOfDay(now), EndOfDay(now), nil
	case "week":
		return StartOfWeek(now), EndOfWeek(now), nil
	case "month":
		return StartOfMonth(now), EndOfMonth(now), nil
	case "year":
		return StartOfYear(now), EndOfDay(now), nil
	}
	return time.Time{}, time.Time{}, ErrUnknownPeriod
}

// Common date/time formats.
const (
	// FormatDate is the standard date format (YYYY-MM-DD).
	FormatDate = "2006-01-02"
	// FormatDateTime is the standard datetime format.
	FormatDateTime = "2006-01-02 15:04"
	// FormatDateTimeSeconds includes seconds.
	FormatDateTimeSeconds = "2006-01-02 15:04:05"
)

// FormatLocal formats a time in club timezone with the given layout.
func FormatLocal(t time.Time, layout string) string {
	return ToClub(t).Format(layout)
}

// FormatDateStr formats a time as a date string (YYYY-MM-DD) in club timezone.
func FormatDateStr(t time.Time) string {
	return FormatLocal(t, FormatDate)
}

// ParseLocal parses a time string in club timezone.
func ParseLocal(layout, value string) (time.Time, error) {
	return time.ParseInLocation(layout, value, ClubTZ)
}

// ParseDate parses a date string (YYYY-MM-DD) in club timezone.
func ParseDate(value string) (time.Time, error) {
	return ParseLocal(FormatDate, value)
}
