package calendar_test

import (
	"testing"

	"schoolcal/internal/domain/calendar"
	"schoolcal/internal/domain/day"
)

// TestRecord_Validate tests record invariant checks.
func TestRecord_Validate(t *testing.T) {
	d := day.Date{Year: 2025, Month: 1, Day: 26}

	tests := []struct {
		name    string
		rec     calendar.Record
		wantErr error
	}{
		{
			name:    "valid point",
			rec:     calendar.NewPoint("h1", "Republic Day", calendar.CategoryHoliday, "", d),
			wantErr: nil,
		},
		{
			name:    "valid range",
			rec:     calendar.NewRange("h2", "Winter Break", calendar.CategoryHoliday, "", d, d.Next()),
			wantErr: nil,
		},
		{
			name:    "empty id",
			rec:     calendar.NewPoint("", "Republic Day", calendar.CategoryHoliday, "", d),
			wantErr: calendar.ErrEmptyID,
		},
		{
			name:    "blank title",
			rec:     calendar.NewPoint("h3", "   ", calendar.CategoryHoliday, "", d),
			wantErr: calendar.ErrEmptyTitle,
		},
		{
			name:    "unknown kind",
			rec:     calendar.Record{ID: "h4", Title: "Mystery", Kind: "weekly"},
			wantErr: calendar.ErrBadKind,
		},
		{
			name:    "impossible day",
			rec:     calendar.NewPoint("h5", "Glitch", calendar.CategoryHoliday, "", day.Date{Year: 2025, Month: 2, Day: 30}),
			wantErr: calendar.ErrBadDay,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.rec.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestRecord_Contains_Point tests point membership is structural day equality.
func TestRecord_Contains_Point(t *testing.T) {
	republicDay := calendar.NewPoint("h1", "Republic Day", calendar.CategoryHoliday, "",
		day.Date{Year: 2025, Month: 1, Day: 26})

	tests := []struct {
		name string
		d    day.Date
		want bool
	}{
		{"exact day", day.Date{Year: 2025, Month: 1, Day: 26}, true},
		{"day before", day.Date{Year: 2025, Month: 1, Day: 25}, false},
		{"day after", day.Date{Year: 2025, Month: 1, Day: 27}, false},
		{"same day other year", day.Date{Year: 2026, Month: 1, Day: 26}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := republicDay.Contains(tt.d); got != tt.want {
				t.Errorf("Contains(%v) = %v, want %v", tt.d, got, tt.want)
			}
		})
	}
}

// TestRecord_Contains_Range tests inclusive range membership across a year boundary.
func TestRecord_Contains_Range(t *testing.T) {
	winterBreak := calendar.NewRange("h2", "Winter Break", calendar.CategoryHoliday, "",
		day.Date{Year: 2025, Month: 12, Day: 23}, day.Date{Year: 2026, Month: 1, Day: 2})

	tests := []struct {
		name string
		d    day.Date
		want bool
	}{
		{"before start", day.Date{Year: 2025, Month: 12, Day: 22}, false},
		{"first day", day.Date{Year: 2025, Month: 12, Day: 23}, true},
		{"new years eve", day.Date{Year: 2025, Month: 12, Day: 31}, true},
		{"across year boundary", day.Date{Year: 2026, Month: 1, Day: 1}, true},
		{"last day", day.Date{Year: 2026, Month: 1, Day: 2}, true},
		{"after end", day.Date{Year: 2026, Month: 1, Day: 3}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := winterBreak.Contains(tt.d); got != tt.want {
				t.Errorf("Contains(%v) = %v, want %v", tt.d, got, tt.want)
			}
		})
	}
}

// TestRecord_Contains_ReversedRange tests that an end-before-start range
// matches nothing, including the days between end and start.
func TestRecord_Contains_ReversedRange(t *testing.T) {
	reversed := calendar.NewRange("e1", "Sports Meet", calendar.CategoryEvent, "",
		day.Date{Year: 2025, Month: 3, Day: 10}, day.Date{Year: 2025, Month: 3, Day: 8})

	for _, d := range []day.Date{
		{Year: 2025, Month: 3, Day: 7},
		{Year: 2025, Month: 3, Day: 8},
		{Year: 2025, Month: 3, Day: 9},
		{Year: 2025, Month: 3, Day: 10},
		{Year: 2025, Month: 3, Day: 11},
	} {
		if reversed.Contains(d) {
			t.Errorf("reversed range should not contain %v", d)
		}
	}
}

// TestFilterContaining tests that matching preserves input order and skips
// non-matching records.
func TestFilterContaining(t *testing.T) {
	target := day.Date{Year: 2025, Month: 4, Day: 18}
	records := []calendar.Record{
		calendar.NewRange("a", "Term Break", calendar.CategoryHoliday, "",
			day.Date{Year: 2025, Month: 4, Day: 14}, day.Date{Year: 2025, Month: 4, Day: 25}),
		calendar.NewPoint("b", "Staff Day", calendar.CategoryHoliday, "", day.Date{Year: 2025, Month: 4, Day: 21}),
		calendar.NewPoint("c", "Good Friday", calendar.CategoryHoliday, "", day.Date{Year: 2025, Month: 4, Day: 18}),
	}

	got := calendar.FilterContaining(records, target)
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(got))
	}
	if got[0].ID != "a" || got[1].ID != "c" {
		t.Errorf("expected input order [a c], got [%s %s]", got[0].ID, got[1].ID)
	}

	if len(records) != 3 {
		t.Error("input slice was mutated")
	}
}

// TestFilterContaining_Empty tests behavior with no records and no matches.
func TestFilterContaining_Empty(t *testing.T) {
	d := day.Date{Year: 2025, Month: 4, Day: 18}
	if got := calendar.FilterContaining(nil, d); len(got) != 0 {
		t.Errorf("expected no matches from nil input, got %d", len(got))
	}

	records := []calendar.Record{
		calendar.NewPoint("b", "Staff Day", calendar.CategoryHoliday, "", day.Date{Year: 2025, Month: 4, Day: 21}),
	}
	if got := calendar.FilterContaining(records, d); len(got) != 0 {
		t.Errorf("expected no matches, got %d", len(got))
	}
}
