package calendar_test

import (
	"reflect"
	"testing"

	"schoolcal/internal/domain/calendar"
	"schoolcal/internal/domain/day"
)

// TestClassify tests flag and record-list derivation for a single day.
func TestClassify(t *testing.T) {
	today := day.Date{Year: 2025, Month: 1, Day: 20}
	holidays := []calendar.Record{
		calendar.NewPoint("h1", "Republic Day", calendar.CategoryHoliday, "", day.Date{Year: 2025, Month: 1, Day: 26}),
	}
	events := []calendar.Record{
		calendar.NewRange("e1", "Science Fair", calendar.CategoryEvent, "",
			day.Date{Year: 2025, Month: 1, Day: 24}, day.Date{Year: 2025, Month: 1, Day: 26}),
	}

	tests := []struct {
		name        string
		d           day.Date
		wantHoliday bool
		wantEvent   bool
		wantToday   bool
	}{
		{"plain day", day.Date{Year: 2025, Month: 1, Day: 10}, false, false, false},
		{"today only", day.Date{Year: 2025, Month: 1, Day: 20}, false, false, true},
		{"event only", day.Date{Year: 2025, Month: 1, Day: 24}, false, true, false},
		{"holiday and event", day.Date{Year: 2025, Month: 1, Day: 26}, true, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calendar.Classify(tt.d, holidays, events, today)
			if got.IsHoliday != tt.wantHoliday || got.IsEvent != tt.wantEvent || got.IsToday != tt.wantToday {
				t.Errorf("Classify(%v) flags = (%v, %v, %v), want (%v, %v, %v)",
					tt.d, got.IsHoliday, got.IsEvent, got.IsToday,
					tt.wantHoliday, tt.wantEvent, tt.wantToday)
			}
			if got.IsHoliday && len(got.Holidays) == 0 {
				t.Error("IsHoliday set but Holidays list empty")
			}
			if got.IsEvent && len(got.Events) == 0 {
				t.Error("IsEvent set but Events list empty")
			}
		})
	}
}

// TestClassify_Pure tests determinism and non-mutation of inputs.
func TestClassify_Pure(t *testing.T) {
	d := day.Date{Year: 2025, Month: 1, Day: 26}
	today := day.Date{Year: 2025, Month: 1, Day: 20}
	holidays := []calendar.Record{
		calendar.NewPoint("h1", "Republic Day", calendar.CategoryHoliday, "", d),
		calendar.NewRange("h2", "Exam Week", calendar.CategoryHoliday, "",
			day.Date{Year: 2025, Month: 1, Day: 25}, day.Date{Year: 2025, Month: 1, Day: 28}),
	}
	events := []calendar.Record{
		calendar.NewPoint("e1", "Prize Giving", calendar.CategoryEvent, "", d),
	}
	holidaysBefore := append([]calendar.Record(nil), holidays...)
	eventsBefore := append([]calendar.Record(nil), events...)

	first := calendar.Classify(d, holidays, events, today)
	second := calendar.Classify(d, holidays, events, today)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Classify not deterministic:\n first = %+v\nsecond = %+v", first, second)
	}
	if !reflect.DeepEqual(holidays, holidaysBefore) {
		t.Error("holidays slice was mutated")
	}
	if !reflect.DeepEqual(events, eventsBefore) {
		t.Error("events slice was mutated")
	}
}

// TestClassify_MalformedRecordFailsOpen tests that a day whose only matching
// record is malformed renders like a day with no records.
func TestClassify_MalformedRecordFailsOpen(t *testing.T) {
	d := day.Date{Year: 2025, Month: 3, Day: 9}
	today := day.Date{Year: 2025, Month: 3, Day: 1}
	events := []calendar.Record{
		calendar.NewRange("e1", "Sports Meet", calendar.CategoryEvent, "",
			day.Date{Year: 2025, Month: 3, Day: 10}, day.Date{Year: 2025, Month: 3, Day: 8}), // end before start
	}

	got := calendar.Classify(d, nil, events, today)
	if got.IsEvent {
		t.Error("malformed range must not mark the day as an event")
	}
	if len(got.Events) != 0 {
		t.Errorf("expected no matching events, got %d", len(got.Events))
	}
}
