package snapshot

import (
	"context"

	"schoolcal/internal/application/monthcache"
)

// Store persists the last successfully fetched month window so the calendar
// can render stale-but-valid data immediately after a restart.
type Store interface {
	SaveWindow(ctx context.Context, w monthcache.Window) error
	LoadWindow(ctx context.Context) (monthcache.Window, bool, error)
}
