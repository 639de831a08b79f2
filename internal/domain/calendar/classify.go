package calendar

import "schoolcal/internal/domain/day"

// Classification describes how one calendar cell should be presented:
// boolean flags for the compact markers plus the full matching record lists
// for the expandable detail view, so one call serves both.
type Classification struct {
	Day       day.Date
	IsHoliday bool
	IsEvent   bool
	IsToday   bool
	Holidays  []Record
	Events    []Record
}

// Classify combines holiday and event membership for a single day.
// The current date is injected by the caller so results are deterministic
// under test.
// PRE: none
// POST: pure — inputs are never mutated, identical inputs yield identical results
func Classify(d day.Date, holidays, events []Record, today day.Date) Classification {
	matchedHolidays := FilterContaining(holidays, d)
	matchedEvents := FilterContaining(events, d)
	return Classification{
		Day:       d,
		IsHoliday: len(matchedHolidays) > 0,
		IsEvent:   len(matchedEvents) > 0,
		IsToday:   d == today,
		Holidays:  matchedHolidays,
		Events:    matchedEvents,
	}
}
