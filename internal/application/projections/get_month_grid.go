package projections

import (
	"errors"
	"time"

	"schoolcal/internal/application/monthcache"
	"schoolcal/internal/domain/calendar"
	"schoolcal/internal/domain/day"
)

// ErrWindowNotLoaded signals that the cache does not hold the requested
// month. The caller must run the loader first (or report "loading", never
// "no holidays exist").
var ErrWindowNotLoaded = errors.New("calendar window not loaded for requested month")

// MonthGridWindowSource defines the cache interface needed by this projection.
type MonthGridWindowSource interface {
	Current() (monthcache.Window, bool)
}

// GetMonthGridDeps holds dependencies for the projection.
type GetMonthGridDeps struct {
	Cache MonthGridWindowSource
}

// MonthGridRecord is the compact record summary shown on a calendar cell.
type MonthGridRecord struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category"`
}

// MonthGridDay is one classified cell of the month grid.
type MonthGridDay struct {
	Date      string            `json:"date"` // ISO, e.g. "2025-03-09"
	Weekday   string            `json:"weekday"`
	IsHoliday bool              `json:"is_holiday"`
	IsEvent   bool              `json:"is_event"`
	IsToday   bool              `json:"is_today"`
	Holidays  []MonthGridRecord `json:"holidays,omitempty"`
	Events    []MonthGridRecord `json:"events,omitempty"`
}

// MonthGridResult is the full classified grid for one month.
type MonthGridResult struct {
	Year      int            `json:"year"`
	Month     int            `json:"month"`
	FetchedAt time.Time      `json:"fetched_at"`
	Days      []MonthGridDay `json:"days"`
}

// QueryGetMonthGrid classifies every day of the requested month against the
// cached window. Algorithm: 1) verify the cache holds the requested month,
// 2) walk days 1..last, 3) classify each against the window's holiday and
// event collections with the injected "today".
// PRE: month is 1-12; today is the caller's current date
// POST: pure read — the cached window is not mutated
func QueryGetMonthGrid(year, month int, today day.Date, deps GetMonthGridDeps) (MonthGridResult, error) {
	w, ok := deps.Cache.Current()
	if !ok || w.Year != year || w.Month != month {
		return MonthGridResult{}, ErrWindowNotLoaded
	}

	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	lastDay := first.AddDate(0, 1, -1).Day()

	result := MonthGridResult{
		Year:      year,
		Month:     month,
		FetchedAt: w.FetchedAt,
		Days:      make([]MonthGridDay, 0, lastDay),
	}

	for dom := 1; dom <= lastDay; dom++ {
		d := day.Date{Year: year, Month: month, Day: dom}
		c := calendar.Classify(d, w.Holidays, w.Events, today)

		cell := MonthGridDay{
			Date:      d.String(),
			Weekday:   time.Date(year, time.Month(month), dom, 0, 0, 0, 0, time.UTC).Weekday().String(),
			IsHoliday: c.IsHoliday,
			IsEvent:   c.IsEvent,
			IsToday:   c.IsToday,
			Holidays:  summarize(c.Holidays),
			Events:    summarize(c.Events),
		}
		result.Days = append(result.Days, cell)
	}

	return result, nil
}

func summarize(records []calendar.Record) []MonthGridRecord {
	if len(records) == 0 {
		return nil
	}
	out := make([]MonthGridRecord, 0, len(records))
	for _, r := range records {
		out = append(out, MonthGridRecord{ID: r.ID, Title: r.Title, Category: r.Category})
	}
	return out
}
