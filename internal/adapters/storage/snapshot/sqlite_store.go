package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"schoolcal/internal/adapters/storage"
	"schoolcal/internal/application/monthcache"
	"schoolcal/internal/domain/calendar"
	"schoolcal/internal/domain/day"
)

const (
	timeFormat = time.RFC3339

	collectionHoliday = "holiday"
	collectionEvent   = "event"
)

// SQLiteStore implements Store using SQLite. Exactly one snapshot is kept;
// saving replaces it wholesale inside a transaction.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new snapshot store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// SaveWindow persists the window, replacing any previous snapshot.
// PRE: w came from one successful fetch
// POST: LoadWindow returns w until the next SaveWindow
func (s *SQLiteStore) SaveWindow(ctx context.Context, w monthcache.Window) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM month_window"); err != nil {
		return fmt.Errorf("clear month_window: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM calendar_record"); err != nil {
		return fmt.Errorf("clear calendar_record: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO month_window (id, year, month, fetched_at) VALUES (1, ?, ?, ?)",
		w.Year, w.Month, w.FetchedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("insert month_window: %w", err)
	}

	if err := insertRecords(ctx, tx, collectionHoliday, w.Holidays); err != nil {
		return err
	}
	if err := insertRecords(ctx, tx, collectionEvent, w.Events); err != nil {
		return err
	}

	return tx.Commit()
}

// LoadWindow retrieves the persisted window.
// POST: ok is false when no snapshot has been saved yet
func (s *SQLiteStore) LoadWindow(ctx context.Context) (monthcache.Window, bool, error) {
	row := s.db.QueryRowContext(ctx, "SELECT year, month, fetched_at FROM month_window WHERE id = 1")

	var w monthcache.Window
	var fetchedStr string
	err := row.Scan(&w.Year, &w.Month, &fetchedStr)
	if err == sql.ErrNoRows {
		return monthcache.Window{}, false, nil
	}
	if err != nil {
		return monthcache.Window{}, false, err
	}
	w.FetchedAt, _ = time.Parse(timeFormat, fetchedStr)

	w.Holidays, err = s.loadRecords(ctx, collectionHoliday)
	if err != nil {
		return monthcache.Window{}, false, err
	}
	w.Events, err = s.loadRecords(ctx, collectionEvent)
	if err != nil {
		return monthcache.Window{}, false, err
	}
	return w, true, nil
}

func insertRecords(ctx context.Context, tx *sql.Tx, collection string, records []calendar.Record) error {
	for i, r := range records {
		var dayStr, startStr, endStr string
		switch r.Kind {
		case calendar.KindPoint:
			dayStr = r.Day.String()
		case calendar.KindRange:
			startStr = r.Start.String()
			endStr = r.End.String()
		}
		_, err := tx.ExecContext(ctx,
			"INSERT INTO calendar_record (collection, position, id, title, category, description, kind, day, start_date, end_date) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
			collection, i, r.ID, r.Title, r.Category, r.Description, r.Kind, dayStr, startStr, endStr,
		)
		if err != nil {
			return fmt.Errorf("insert calendar_record %s: %w", r.ID, err)
		}
	}
	return nil
}

func (s *SQLiteStore) loadRecords(ctx context.Context, collection string) ([]calendar.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, title, category, description, kind, day, start_date, end_date FROM calendar_record WHERE collection = ? ORDER BY position",
		collection,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []calendar.Record
	for rows.Next() {
		var r calendar.Record
		var dayStr, startStr, endStr string
		if err := rows.Scan(&r.ID, &r.Title, &r.Category, &r.Description, &r.Kind, &dayStr, &startStr, &endStr); err != nil {
			return nil, err
		}
		switch r.Kind {
		case calendar.KindPoint:
			r.Day, _ = parseStoredDate(dayStr)
		case calendar.KindRange:
			r.Start, _ = parseStoredDate(startStr)
			r.End, _ = parseStoredDate(endStr)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// parseStoredDate reads a date written by SaveWindow. Rows are written from
// validated records, so a parse failure leaves a zero Date that simply never
// matches.
func parseStoredDate(s string) (day.Date, error) {
	return day.Parse(s)
}
