package calendar

import (
	"errors"
	"strings"

	"schoolcal/internal/domain/day"
)

// Record kind constants.
const (
	KindPoint = "point" // occupies exactly one calendar day
	KindRange = "range" // occupies an inclusive span of days
)

// Category constants for display-only color coding. Membership never
// inspects the category.
const (
	CategoryHoliday = "holiday"
	CategoryEvent   = "event"
)

// Domain errors
var (
	ErrEmptyID    = errors.New("record id cannot be empty")
	ErrEmptyTitle = errors.New("record title cannot be empty")
	ErrBadKind    = errors.New("record kind must be 'point' or 'range'")
	ErrBadDay     = errors.New("record day is not a valid calendar date")
)

// Record is a dated calendar item: a holiday or an event, either a single
// day or an inclusive start/end span.
// INVARIANT: Kind selects which date fields are meaningful — Day for
// KindPoint, Start/End for KindRange.
// A range with Start after End is treated as empty (matches no day), never
// as an error: one malformed upstream record must not hide the rest.
type Record struct {
	ID          string
	Title       string
	Category    string // display-only color coding (e.g. "holiday", "event")
	Description string // markdown, rendered by the detail panel
	Kind        string // KindPoint or KindRange
	Day         day.Date
	Start       day.Date
	End         day.Date
}

// NewPoint builds a single-day record.
// PRE: d is a valid date
// POST: returned record matches exactly d
func NewPoint(id, title, category, description string, d day.Date) Record {
	return Record{
		ID:          id,
		Title:       title,
		Category:    category,
		Description: description,
		Kind:        KindPoint,
		Day:         d,
	}
}

// NewRange builds a record spanning start..end inclusive.
// PRE: start <= end for a non-empty range
// POST: returned record matches every day in [start, end]
func NewRange(id, title, category, description string, start, end day.Date) Record {
	return Record{
		ID:          id,
		Title:       title,
		Category:    category,
		Description: description,
		Kind:        KindRange,
		Start:       start,
		End:         end,
	}
}

// Validate checks the record's invariants.
// PRE: none
// POST: returns nil if valid, the first violated invariant otherwise
func (r Record) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(r.Title) == "" {
		return ErrEmptyTitle
	}
	switch r.Kind {
	case KindPoint:
		if !r.Day.Valid() {
			return ErrBadDay
		}
	case KindRange:
		if !r.Start.Valid() || !r.End.Valid() {
			return ErrBadDay
		}
	default:
		return ErrBadKind
	}
	return nil
}

// Contains reports whether the record occupies the given day.
// Point records match by structural equality; range records match the
// inclusive [Start, End] span. A reversed range matches nothing.
// INVARIANT: Record fields are not mutated
func (r Record) Contains(d day.Date) bool {
	switch r.Kind {
	case KindPoint:
		return r.Day == d
	case KindRange:
		if r.Start.After(r.End) {
			return false
		}
		return !d.Before(r.Start) && !d.After(r.End)
	default:
		return false
	}
}

// FilterContaining returns the records that occupy the given day, preserving
// input order. Used both for cell markers and the day detail panel.
// PRE: none
// POST: result is a new slice; records is not mutated
func FilterContaining(records []Record, d day.Date) []Record {
	var out []Record
	for _, r := range records {
		if r.Contains(d) {
			out = append(out, r)
		}
	}
	return out
}
