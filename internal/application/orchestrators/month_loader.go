package orchestrators

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"schoolcal/internal/adapters/schoolapi"
	"schoolcal/internal/application/monthcache"
)

// WindowSaver persists a committed window so it survives restarts.
// Optional: a nil saver disables persistence.
type WindowSaver interface {
	SaveWindow(ctx context.Context, w monthcache.Window) error
}

// WindowLoaderStore reads back a previously persisted window.
type WindowLoaderStore interface {
	LoadWindow(ctx context.Context) (monthcache.Window, bool, error)
}

// MonthLoader fetches month windows from the school API and commits them to
// the cache. It is the only writer of the cache.
//
// Two guarantees beyond a plain fetch-and-store:
//   - de-duplication: concurrent loads of the same (year, month) share one
//     network call and one result;
//   - stale-response guard: every fetch captures a token from a monotonic
//     counter, and a response commits only when its token is still the
//     newest, so a slow response for an old month never overwrites the
//     window of a month requested later.
type MonthLoader struct {
	fetcher  schoolapi.Fetcher
	cache    *monthcache.Cache
	snapshot WindowSaver
	now      func() time.Time
	maxAge   time.Duration // 0 disables age-based refetch

	mu       sync.Mutex
	inflight map[windowKey]*monthCall
	latest   uint64
}

type windowKey struct {
	year  int
	month int
}

type monthCall struct {
	done chan struct{}
	err  error
}

// NewMonthLoader creates a loader writing to the given cache.
// PRE: fetcher and cache are non-nil; snapshot may be nil
func NewMonthLoader(fetcher schoolapi.Fetcher, cache *monthcache.Cache, snapshot WindowSaver) *MonthLoader {
	return &MonthLoader{
		fetcher:  fetcher,
		cache:    cache,
		snapshot: snapshot,
		now:      time.Now,
		inflight: make(map[windowKey]*monthCall),
	}
}

// EnsureMonth makes the cache hold the requested month, fetching only when
// it does not already.
// POST: on nil return, either the cache held the month already, or a fetch
// for it completed (its commit may still have been superseded by a newer
// request); on error the previous window is untouched
func (l *MonthLoader) EnsureMonth(ctx context.Context, year, month int) error {
	if !l.cache.IsStale(year, month) && !l.windowExpired() {
		return nil
	}
	return l.load(ctx, year, month)
}

// SetMaxAge makes EnsureMonth refetch a matching window once it is older
// than d. A snapshot-warmed window from before a restart stays servable, but
// is re-fetched on first use; if that fetch fails the old window keeps
// serving, flagged stale by the HTTP layer.
func (l *MonthLoader) SetMaxAge(d time.Duration) {
	l.maxAge = d
}

func (l *MonthLoader) windowExpired() bool {
	if l.maxAge <= 0 {
		return false
	}
	w, ok := l.cache.Current()
	if !ok {
		return false
	}
	return l.now().Sub(w.FetchedAt) > l.maxAge
}

// Refresh re-fetches the month even when the cache already holds it.
// Used by the retry affordance and the scheduled refresh.
func (l *MonthLoader) Refresh(ctx context.Context, year, month int) error {
	return l.load(ctx, year, month)
}

func (l *MonthLoader) load(ctx context.Context, year, month int) error {
	key := windowKey{year: year, month: month}

	l.mu.Lock()
	if call, ok := l.inflight[key]; ok {
		l.mu.Unlock()
		select {
		case <-call.done:
			return call.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	l.latest++
	token := l.latest
	call := &monthCall{done: make(chan struct{})}
	l.inflight[key] = call
	l.mu.Unlock()

	data, err := l.fetcher.FetchMonth(ctx, year, month)

	var committed monthcache.Window
	var didCommit bool

	l.mu.Lock()
	delete(l.inflight, key)
	if err == nil {
		if token == l.latest {
			committed = monthcache.Window{
				Year:      year,
				Month:     month,
				Holidays:  data.Holidays,
				Events:    data.Events,
				FetchedAt: l.now(),
			}
			l.cache.Load(committed)
			didCommit = true
		} else {
			// A newer month has been requested since this fetch started;
			// committing now would roll the window back.
			slog.Info("month_fetch_discarded", "year", year, "month", month)
		}
	}
	l.mu.Unlock()

	call.err = err
	close(call.done)

	if err != nil {
		slog.Error("month_fetch_failed", "year", year, "month", month, "error", err)
		return err
	}

	if didCommit {
		slog.Info("month_window_loaded", "year", year, "month", month,
			"holidays", len(committed.Holidays), "events", len(committed.Events))
		if l.snapshot != nil {
			if serr := l.snapshot.SaveWindow(ctx, committed); serr != nil {
				// Persistence is best-effort; the in-memory window is already live.
				slog.Error("month_snapshot_save_failed", "year", year, "month", month, "error", serr)
			}
		}
	}
	return nil
}

// WarmFromSnapshot seeds the cache from the persisted window, if any.
// Called once at startup so the calendar renders stale-but-valid data while
// the first fetch is still in flight (or failing).
// POST: returns true when a window was loaded
func (l *MonthLoader) WarmFromSnapshot(ctx context.Context, store WindowLoaderStore) bool {
	w, ok, err := store.LoadWindow(ctx)
	if err != nil {
		slog.Error("month_snapshot_load_failed", "error", err)
		return false
	}
	if !ok {
		return false
	}
	l.cache.Load(w)
	slog.Info("month_window_warmed", "year", w.Year, "month", w.Month, "fetched_at", w.FetchedAt)
	return true
}
