package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"schoolcal/internal/adapters/email"
	"schoolcal/internal/adapters/schoolapi"
	"schoolcal/internal/domain/calendar"
	"schoolcal/internal/domain/day"
)

// WeekDigestInput carries input for the digest orchestrator.
type WeekDigestInput struct {
	Start      day.Date // first day covered; zero value means today
	Recipients []string
}

// WeekDigestDeps holds dependencies for SendWeekDigest.
type WeekDigestDeps struct {
	Fetcher schoolapi.Fetcher
	Sender  email.Sender
	From    string
	ReplyTo string
	Now     func() time.Time
}

// ExecuteSendWeekDigest mails office staff the holidays and events falling
// in the coming week. The week may straddle a month boundary, so each month
// touched is fetched directly rather than read from the single-month cache.
// PRE: input.Recipients is non-empty; input.Start is valid
// POST: one email sent summarizing the 7-day span; no email when the span is empty
func ExecuteSendWeekDigest(ctx context.Context, input WeekDigestInput, deps WeekDigestDeps) error {
	if len(input.Recipients) == 0 {
		return errors.New("digest recipients are required")
	}
	start := input.Start
	if start == (day.Date{}) {
		now := deps.Now
		if now == nil {
			now = time.Now
		}
		start = day.FromTime(now())
	}
	if !start.Valid() {
		return fmt.Errorf("digest start %v: %w", start, day.ErrInvalidDate)
	}

	months, err := fetchSpanMonths(ctx, deps.Fetcher, start)
	if err != nil {
		return fmt.Errorf("fetch digest span: %w", err)
	}

	var sections []string
	itemCount := 0
	d := start
	for i := 0; i < 7; i++ {
		data := months[monthOf(d)]
		holidays := calendar.FilterContaining(data.Holidays, d)
		events := calendar.FilterContaining(data.Events, d)
		if len(holidays)+len(events) > 0 {
			sections = append(sections, daySection(d, holidays, events))
			itemCount += len(holidays) + len(events)
		}
		d = d.Next()
	}

	if itemCount == 0 {
		slog.Info("week_digest_skipped", "start", start.String(), "reason", "no items in span")
		return nil
	}

	end := start
	for i := 0; i < 6; i++ {
		end = end.Next()
	}
	subject := fmt.Sprintf("School calendar: week of %s", start.String())
	body := fmt.Sprintf("<h2>Holidays and events, %s to %s</h2>\n%s",
		start.String(), end.String(), strings.Join(sections, "\n"))

	_, err = deps.Sender.Send(ctx, email.SendRequest{
		To:      input.Recipients,
		From:    deps.From,
		Subject: subject,
		HTML:    body,
		ReplyTo: deps.ReplyTo,
	})
	if err != nil {
		return fmt.Errorf("send digest: %w", err)
	}

	slog.Info("week_digest_sent", "start", start.String(), "items", itemCount, "recipients", len(input.Recipients))
	return nil
}

type yearMonth struct {
	year  int
	month int
}

func monthOf(d day.Date) yearMonth {
	return yearMonth{year: d.Year, month: d.Month}
}

// fetchSpanMonths fetches every month the 7-day span touches (one or two).
func fetchSpanMonths(ctx context.Context, fetcher schoolapi.Fetcher, start day.Date) (map[yearMonth]schoolapi.MonthCalendar, error) {
	months := make(map[yearMonth]schoolapi.MonthCalendar)
	d := start
	for i := 0; i < 7; i++ {
		key := monthOf(d)
		if _, ok := months[key]; !ok {
			data, err := fetcher.FetchMonth(ctx, key.year, key.month)
			if err != nil {
				return nil, err
			}
			months[key] = data
		}
		d = d.Next()
	}
	return months, nil
}

func daySection(d day.Date, holidays, events []calendar.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<h3>%s</h3>\n<ul>\n", d.String())
	for _, r := range holidays {
		fmt.Fprintf(&b, "<li><strong>%s</strong> (holiday)</li>\n", html.EscapeString(r.Title))
	}
	for _, r := range events {
		fmt.Fprintf(&b, "<li>%s (%s)</li>\n", html.EscapeString(r.Title), html.EscapeString(r.Category))
	}
	b.WriteString("</ul>")
	return b.String()
}
