package planner

import (
	"context"
	"time"

	"arborsched/internal/schedule"
	logx "arborsched/pkg/logx"
)

// runDigest logs a one-week availability summary for every tracked resource.
// The digest is informational; failures on one resource don't abort the rest.
func (s *Service) runDigest(ctx context.Context) error {
	s.mu.Lock()
	resources := make([]string, len(s.cfg.TrackedResources))
	copy(resources, s.cfg.TrackedResources)
	loc := s.loc
	s.mu.Unlock()
	if len(resources) == 0 {
		return nil
	}
	if loc == nil {
		loc = time.Local
	}

	now := time.Now().In(loc)
	rng := schedule.Interval{Start: now, End: now.AddDate(0, 0, 7)}

	var lastErr error
	for _, id := range resources {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		av, err := s.book.Availability(ctx, id, rng)
		if err != nil {
			lastErr = err
			s.log.Warn("digest lookup failed", logx.String("resource", id), logx.Err(err))
			continue
		}
		var booked time.Duration
		for _, b := range av.Busy {
			booked += b.Duration()
		}
		s.log.Info("availability digest",
			logx.String("resource", id),
			logx.Int("bookings", len(av.Busy)),
			logx.Duration("booked", booked),
			logx.Time("from", rng.Start),
			logx.Time("to", rng.End),
		)
	}
	return lastErr
}

// runRetention prunes audit entries older than the configured retention.
func (s *Service) runRetention(ctx context.Context) error {
	s.mu.Lock()
	retention := s.cfg.AuditRetention
	s.mu.Unlock()
	if retention <= 0 {
		return nil
	}

	cutoff := time.Now().Add(-retention)
	removed, err := s.repo.PruneAudit(ctx, cutoff)
	if err != nil {
		return err
	}
	if removed > 0 {
		s.log.Info("audit entries pruned",
			logx.Int("removed", removed),
			logx.Time("cutoff", cutoff),
		)
	}
	return nil
}
