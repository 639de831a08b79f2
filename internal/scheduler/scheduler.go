package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"schoolcal/internal/application/orchestrators"
	"schoolcal/internal/domain/day"
)

// Scheduler runs the periodic calendar jobs: refreshing the cached month so
// upstream edits appear without a user-driven fetch, and the Monday morning
// week digest for office staff.
type Scheduler struct {
	cron       *cron.Cron
	loader     *orchestrators.MonthLoader
	digestDeps orchestrators.WeekDigestDeps
	recipients []string
	now        func() time.Time
}

// New creates a scheduler. An empty recipients list disables the digest job.
// PRE: loader is non-nil
func New(loader *orchestrators.MonthLoader, digestDeps orchestrators.WeekDigestDeps, recipients []string) *Scheduler {
	return &Scheduler{
		cron:       cron.New(),
		loader:     loader,
		digestDeps: digestDeps,
		recipients: recipients,
		now:        time.Now,
	}
}

// Start registers the cron jobs and runs until ctx is cancelled.
// POST: blocks until ctx.Done, then stops the cron runner
func (s *Scheduler) Start(ctx context.Context) error {
	// Keep the active month fresh without waiting for a page load.
	if _, err := s.cron.AddFunc("*/30 * * * *", s.refreshCurrentMonth); err != nil {
		return fmt.Errorf("add month refresh: %w", err)
	}

	if len(s.recipients) > 0 {
		// Monday 07:00 local time.
		if _, err := s.cron.AddFunc("0 7 * * 1", s.sendWeekDigest); err != nil {
			return fmt.Errorf("add week digest: %w", err)
		}
	}

	s.cron.Start()
	slog.Info("scheduler_started", "digest_recipients", len(s.recipients))

	<-ctx.Done()
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	slog.Info("scheduler_stopped")
	return nil
}

func (s *Scheduler) refreshCurrentMonth() {
	today := day.FromTime(s.now())
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.loader.Refresh(ctx, today.Year, today.Month); err != nil {
		// Refresh keeps the previous window on failure; the next tick retries.
		slog.Warn("scheduled_refresh_failed", "year", today.Year, "month", today.Month, "error", err)
	}
}

func (s *Scheduler) sendWeekDigest() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	input := orchestrators.WeekDigestInput{
		Start:      day.FromTime(s.now()),
		Recipients: s.recipients,
	}
	if err := orchestrators.ExecuteSendWeekDigest(ctx, input, s.digestDeps); err != nil {
		slog.Error("week_digest_failed", "error", err)
	}
}
