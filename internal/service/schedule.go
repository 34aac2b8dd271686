package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Schedule archives the previous interval on every tick until ctx is done.
// Windows are aligned to interval boundaries in UTC, so each tick exports
// [boundary-interval, boundary). After a failed tick the next window starts
// where the failed one did, so no entries are skipped.
func Schedule(ctx context.Context, svc AuditArchiveService, interval time.Duration, logger zerolog.Logger) {
	runSchedule(ctx, svc, interval, logger, time.Now)
}

func runSchedule(ctx context.Context, svc AuditArchiveService, interval time.Duration, logger zerolog.Logger, now func() time.Time) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var next time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		to := now().UTC().Truncate(interval)
		from := next
		if from.IsZero() {
			from = to.Add(-interval)
		}
		if !to.After(from) {
			continue
		}
		if _, err := svc.Archive(ctx, from, to); err != nil {
			logger.Error().Err(err).Time("from", from).Time("to", to).Msg("scheduled audit archive failed")
			next = from
			continue
		}
		next = to
	}
}
