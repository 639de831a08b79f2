package schoolapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"schoolcal/internal/domain/calendar"
	"schoolcal/internal/domain/day"
)

// MonthCalendar carries the domain records decoded from one remote
// calendar response. Custom and imported school holidays are unioned into
// one collection; membership treats them identically.
type MonthCalendar struct {
	Holidays []calendar.Record
	Events   []calendar.Record
}

// Fetcher is the consumer-side interface the month loader depends on.
type Fetcher interface {
	FetchMonth(ctx context.Context, year, month int) (MonthCalendar, error)
}

// Client talks to the school management API's calendar endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a calendar API client.
// PRE: baseURL is the API root without a trailing slash
// POST: returns a ready-to-use client with a request timeout applied
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Wire shapes. Ranges carry start_date/end_date, points carry date, all as
// ISO date strings.
type rawRangeItem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Type        string `json:"type"`
	Description string `json:"description"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
}

type rawPointItem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Date        string `json:"date"`
}

type rawCalendarResponse struct {
	CustomHolidays []rawRangeItem `json:"custom_holidays"`
	SchoolHolidays []rawPointItem `json:"school_holidays"`
	Events         []rawRangeItem `json:"events"`
}

// FetchMonth retrieves the holiday and event collections for one month.
// Records whose dates cannot be parsed are excluded and logged; a single bad
// upstream record must not blank the calendar.
// PRE: month is 1-12
// POST: returns the decoded collections, or an error on transport/decode failure
func (c *Client) FetchMonth(ctx context.Context, year, month int) (MonthCalendar, error) {
	q := url.Values{}
	q.Set("year", strconv.Itoa(year))
	q.Set("month", strconv.Itoa(month))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/calendar?"+q.Encode(), nil)
	if err != nil {
		return MonthCalendar{}, fmt.Errorf("create calendar request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return MonthCalendar{}, fmt.Errorf("fetch calendar %d-%02d: %w", year, month, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return MonthCalendar{}, fmt.Errorf("calendar API returned %d: %s", resp.StatusCode, string(body))
	}

	var raw rawCalendarResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return MonthCalendar{}, fmt.Errorf("decode calendar response: %w", err)
	}

	return convert(raw), nil
}

// convert maps wire items to domain records, dropping undecodable dates.
func convert(raw rawCalendarResponse) MonthCalendar {
	var out MonthCalendar
	for _, item := range raw.CustomHolidays {
		if rec, ok := rangeRecord(item, calendar.CategoryHoliday); ok {
			out.Holidays = append(out.Holidays, rec)
		}
	}
	for _, item := range raw.SchoolHolidays {
		if rec, ok := pointRecord(item, calendar.CategoryHoliday); ok {
			out.Holidays = append(out.Holidays, rec)
		}
	}
	for _, item := range raw.Events {
		if rec, ok := rangeRecord(item, calendar.CategoryEvent); ok {
			out.Events = append(out.Events, rec)
		}
	}
	return out
}

func rangeRecord(item rawRangeItem, fallbackCategory string) (calendar.Record, bool) {
	start, err := day.Parse(item.StartDate)
	if err != nil {
		slog.Warn("calendar_record_skipped", "title", item.Title, "field", "start_date", "error", err)
		return calendar.Record{}, false
	}
	end, err := day.Parse(item.EndDate)
	if err != nil {
		slog.Warn("calendar_record_skipped", "title", item.Title, "field", "end_date", "error", err)
		return calendar.Record{}, false
	}
	return calendar.NewRange(recordID(item.ID), item.Title, category(item.Type, fallbackCategory), item.Description, start, end), true
}

func pointRecord(item rawPointItem, fallbackCategory string) (calendar.Record, bool) {
	d, err := day.Parse(item.Date)
	if err != nil {
		slog.Warn("calendar_record_skipped", "title", item.Title, "field", "date", "error", err)
		return calendar.Record{}, false
	}
	return calendar.NewPoint(recordID(item.ID), item.Title, category(item.Type, fallbackCategory), item.Description, d), true
}

// recordID keeps the upstream id when present; older API versions omit it.
func recordID(id string) string {
	if id != "" {
		return id
	}
	return uuid.New().String()
}

func category(t, fallback string) string {
	if t != "" {
		return t
	}
	return fallback
}
