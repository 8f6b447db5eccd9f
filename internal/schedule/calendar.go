package schedule

import (
	"fmt"
	"time"
)

// Calendar arithmetic treats Saturday and Sunday as non-working. All dates
// are day-resolution: callers get and pass midnight-UTC timestamps, and
// every function normalizes its inputs so a stray time component cannot
// shift a day boundary.

// Midnight truncates t to 00:00:00 UTC of the same calendar day.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// IsBusinessDay reports whether t falls on Monday through Friday.
func IsBusinessDay(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// AddBusinessDays steps forward one calendar day at a time, counting only
// Mon-Fri, until n working days have been consumed. n = 0 returns the
// normalized date unchanged.
func AddBusinessDays(date time.Time, n int) (time.Time, error) {
	if date.IsZero() {
		return time.Time{}, ErrInvalidDate
	}
	if n < 0 {
		return time.Time{}, fmt.Errorf("%w: %d", ErrInvalidDuration, n)
	}

	d := Midnight(date)
	for counted := 0; counted < n; {
		d = d.AddDate(0, 0, 1)
		if IsBusinessDay(d) {
			counted++
		}
	}
	return d, nil
}

// CountBusinessDays counts Mon-Fri calendar days in the half-open range
// [start, end). An empty or inverted range counts zero.
func CountBusinessDays(start, end time.Time) int {
	s := Midnight(start)
	e := Midnight(end)

	n := 0
	for d := s; d.Before(e); d = d.AddDate(0, 0, 1) {
		if IsBusinessDay(d) {
			n++
		}
	}
	return n
}

// EndDateExclusive returns the exclusive end of a task: the calendar day
// after the last working day. This is the engine-wide convention; callers
// that display the last working day must go through InclusiveEnd instead
// of subtracting ad hoc.
func EndDateExclusive(start time.Time, durationDays int) (time.Time, error) {
	return AddBusinessDays(start, durationDays)
}

// InclusiveEnd converts an exclusive end date to the last working day it
// covers (one calendar day earlier).
func InclusiveEnd(exclusive time.Time) time.Time {
	return Midnight(exclusive).AddDate(0, 0, -1)
}

// MondayOnOrBefore returns the Monday of the week containing t. Used to
// anchor capacity reporting windows.
func MondayOnOrBefore(t time.Time) time.Time {
	d := Midnight(t)
	// Weekday() is Sunday=0; shift so Monday=0.
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}
