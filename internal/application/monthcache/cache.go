package monthcache

import (
	"sync/atomic"
	"time"

	"schoolcal/internal/domain/calendar"
)

// Window holds the holiday and event collections fetched for one
// (year, month) pair. It is replaced wholesale on every successful fetch and
// read-only in between.
type Window struct {
	Year      int
	Month     int
	Holidays  []calendar.Record
	Events    []calendar.Record
	FetchedAt time.Time
}

// Cache is a passive store for the active month window. It never fetches;
// it is populated only by the month loader.
// INVARIANT: Load swaps a single pointer, so concurrent readers observe
// either the fully-old or fully-new window, never a mix.
type Cache struct {
	window atomic.Pointer[Window]
}

// New creates an empty cache with no window loaded.
func New() *Cache {
	return &Cache{}
}

// Load replaces the current window.
// PRE: w carries the collections from one successful fetch
// POST: Current returns w until the next Load
func (c *Cache) Load(w Window) {
	c.window.Store(&w)
}

// Current returns the active window.
// POST: ok is false before the first successful Load; "no window yet" must
// be presented as loading, never as an empty calendar
func (c *Cache) Current() (Window, bool) {
	w := c.window.Load()
	if w == nil {
		return Window{}, false
	}
	return *w, true
}

// IsStale reports whether the requested (year, month) differs from the
// cached window, signaling the loader that a fetch is needed before
// classification can be trusted.
// PRE: month is 1-12
// POST: returns true when no window is loaded or the window is for another month
func (c *Cache) IsStale(year, month int) bool {
	w := c.window.Load()
	if w == nil {
		return true
	}
	return w.Year != year || w.Month != month
}
