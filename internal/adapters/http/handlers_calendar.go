package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"schoolcal/internal/application/projections"
	"schoolcal/internal/domain/calendar"
	"schoolcal/internal/domain/day"
)

// timeNow is a variable for testability.
var timeNow = time.Now

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set), preventing XSS.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// errorDTO is the error body for fetch failures; retryable tells the UI to
// render a retry affordance rather than a dead end.
type errorDTO struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable"`
}

// monthResponse wraps the grid with staleness info. Stale is set when the
// latest fetch failed but an older window for the month is still served.
type monthResponse struct {
	projections.MonthGridResult
	Stale      bool   `json:"stale,omitempty"`
	FetchError string `json:"fetch_error,omitempty"`
}

// parseMonthParams reads and validates year/month query or form values.
func parseMonthParams(get func(string) string) (int, int, bool) {
	year, err := strconv.Atoi(get("year"))
	if err != nil || year < 1970 || year > 2999 {
		return 0, 0, false
	}
	month, err := strconv.Atoi(get("month"))
	if err != nil || month < 1 || month > 12 {
		return 0, 0, false
	}
	return year, month, true
}

// handleCalendarMonth handles GET /api/calendar/month?year=Y&month=M.
// Ensures the month window is loaded, then returns the classified day grid.
func handleCalendarMonth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	year, month, ok := parseMonthParams(r.URL.Query().Get)
	if !ok {
		http.Error(w, "year and month query parameters are required", http.StatusBadRequest)
		return
	}

	fetchErr := deps.Loader.EnsureMonth(r.Context(), year, month)

	today := day.FromTime(timeNow())
	grid, gridErr := projections.QueryGetMonthGrid(year, month, today, projections.GetMonthGridDeps{Cache: deps.Cache})

	if gridErr != nil {
		if fetchErr != nil {
			// Nothing cached for this month and the fetch failed: the UI
			// shows "failed to load, retry".
			writeJSON(w, http.StatusBadGateway, errorDTO{Error: "failed to load calendar", Retryable: true})
			return
		}
		if errors.Is(gridErr, projections.ErrWindowNotLoaded) {
			// The window was superseded between load and read (a newer month
			// was requested concurrently). The UI simply re-requests.
			writeJSON(w, http.StatusConflict, errorDTO{Error: "calendar window superseded", Retryable: true})
			return
		}
		internalError(w, gridErr)
		return
	}

	resp := monthResponse{MonthGridResult: grid}
	if fetchErr != nil {
		resp.Stale = true
		resp.FetchError = "failed to refresh calendar"
	}
	writeJSON(w, http.StatusOK, resp)
}

// dayRecordDTO is a record in the day detail panel. DescriptionHTML carries
// the markdown description rendered to escaped HTML.
type dayRecordDTO struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Category        string `json:"category"`
	DescriptionHTML string `json:"description_html,omitempty"`
}

type dayResponse struct {
	Date      string         `json:"date"`
	IsHoliday bool           `json:"is_holiday"`
	IsEvent   bool           `json:"is_event"`
	IsToday   bool           `json:"is_today"`
	Holidays  []dayRecordDTO `json:"holidays"`
	Events    []dayRecordDTO `json:"events"`
}

// handleCalendarDay handles GET /api/calendar/day?date=YYYY-MM-DD.
// Returns the records occupying that day for the detail panel.
func handleCalendarDay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	d, err := day.Parse(r.URL.Query().Get("date"))
	if err != nil {
		http.Error(w, "date must be an ISO date (YYYY-MM-DD)", http.StatusBadRequest)
		return
	}

	window, ok := deps.Cache.Current()
	if !ok {
		writeJSON(w, http.StatusConflict, errorDTO{Error: "calendar not loaded yet", Retryable: true})
		return
	}

	c := calendar.Classify(d, window.Holidays, window.Events, day.FromTime(timeNow()))
	resp := dayResponse{
		Date:      d.String(),
		IsHoliday: c.IsHoliday,
		IsEvent:   c.IsEvent,
		IsToday:   c.IsToday,
		Holidays:  detailRecords(c.Holidays),
		Events:    detailRecords(c.Events),
	}
	writeJSON(w, http.StatusOK, resp)
}

func detailRecords(records []calendar.Record) []dayRecordDTO {
	out := make([]dayRecordDTO, 0, len(records))
	for _, r := range records {
		out = append(out, dayRecordDTO{
			ID:              r.ID,
			Title:           r.Title,
			Category:        r.Category,
			DescriptionHTML: renderMarkdown(r.Description),
		})
	}
	return out
}

func renderMarkdown(md string) string {
	if md == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		slog.Warn("markdown_render_failed", "error", err)
		return ""
	}
	return buf.String()
}

// handleCalendarRefresh handles POST /api/calendar/refresh with year/month
// as form or query values. Forces a re-fetch even when the cache already
// holds the month.
func handleCalendarRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}
	year, month, ok := parseMonthParams(r.Form.Get)
	if !ok {
		http.Error(w, "year and month form values are required", http.StatusBadRequest)
		return
	}

	if err := deps.Loader.Refresh(r.Context(), year, month); err != nil {
		writeJSON(w, http.StatusBadGateway, errorDTO{Error: "failed to refresh calendar", Retryable: true})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleHealth handles GET /api/health.
func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handlePerf handles GET /api/perf: request timing for the last hour.
func handlePerf(w http.ResponseWriter, r *http.Request) {
	if perfCollector == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "collector disabled"})
		return
	}
	snap := perfCollector.Snapshot(timeNow().Add(-time.Hour), 10)
	writeJSON(w, http.StatusOK, snap)
}
