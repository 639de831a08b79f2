package day

import (
	"errors"
	"fmt"
	"time"
)

// Domain errors
var (
	// ErrInvalidDate is returned when an input cannot be reduced to a valid
	// calendar date. Callers must treat the owning record as never-matching
	// rather than failing the whole calendar.
	ErrInvalidDate = errors.New("invalid calendar date")
)

// Date is a calendar day with no time-of-day and no time zone.
// INVARIANT: two Dates are equal iff Year, Month and Day all match; ordering
// is lexicographic on (Year, Month, Day).
type Date struct {
	Year  int
	Month int // 1-12
	Day   int // 1-31
}

// Parse converts an ISO date string ("2006-01-02") or ISO datetime string
// into a Date, keeping only the calendar fields of the local representation.
// A holiday stored as "2025-01-26" must match the cell for January 26 for
// every viewer, so the time-of-day and offset are discarded before any
// zone-aware operation can shift the day.
// PRE: none
// POST: returns a valid Date, or an error wrapping ErrInvalidDate
func Parse(s string) (Date, error) {
	if s == "" {
		return Date{}, fmt.Errorf("%w: empty string", ErrInvalidDate)
	}
	// Bare dates parse without any zone at all.
	if t, err := time.ParseInLocation("2006-01-02", s, time.Local); err == nil {
		return FromTime(t), nil
	}
	// Datetime inputs keep their wall-clock fields as written; converting
	// between zones here would shift the day near midnight.
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return FromTime(t), nil
		}
	}
	return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// FromTime extracts the calendar fields of t's local representation.
// PRE: t is non-zero
// POST: returns the Date t falls on in t's location
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: int(m), Day: d}
}

// Valid reports whether the Date names a real calendar day.
// PRE: none
// POST: returns true iff the (Year, Month, Day) triple round-trips through time.Date
func (d Date) Valid() bool {
	if d.Month < 1 || d.Month > 12 || d.Day < 1 || d.Day > 31 {
		return false
	}
	t := time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
	return FromTime(t.UTC()) == d
}

// Compare returns -1, 0 or +1 ordering d against other.
// INVARIANT: ordering is lexicographic on (Year, Month, Day)
func (d Date) Compare(other Date) int {
	switch {
	case d.Year != other.Year:
		return sign(d.Year - other.Year)
	case d.Month != other.Month:
		return sign(d.Month - other.Month)
	default:
		return sign(d.Day - other.Day)
	}
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool { return d.Compare(other) < 0 }

// After reports whether d is strictly later than other.
func (d Date) After(other Date) bool { return d.Compare(other) > 0 }

// Next returns the following calendar day.
// POST: result is valid even across month and year boundaries
func (d Date) Next() Date {
	t := time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
	return FromTime(t.AddDate(0, 0, 1).UTC())
}

// String formats the Date as an ISO date string.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}
