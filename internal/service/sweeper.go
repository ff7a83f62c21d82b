package service

import (
	"context"
	"errors"
	"time"

	"github.com/xiaot623/gogo/deliveryagent/internal/domain"
)

// RunSessionSweeper deletes sessions idle for longer than the configured
// TTL until ctx is done. It returns at once when no TTL is set.
func (s *Service) RunSessionSweeper(ctx context.Context) {
	if s.idleTTL <= 0 {
		return
	}
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepIdleSessions(ctx)
		}
	}
}

func (s *Service) sweepIdleSessions(ctx context.Context) int {
	sweepCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	ids, err := s.store.ListIdleSessions(sweepCtx, s.now().Add(-s.idleTTL))
	if err != nil {
		s.logger.Warn().Err(err).Msg("idle session sweep failed")
		return 0
	}

	removed := 0
	for _, id := range ids {
		unlock := s.locks.Lock(id)
		// Re-check under the lock; a message may have arrived meanwhile.
		session, err := s.store.GetSession(sweepCtx, id)
		if err == nil && !session.LastActivity.Before(s.now().Add(-s.idleTTL)) {
			unlock()
			continue
		}
		if err == nil {
			err = s.store.DeleteSession(sweepCtx, id)
		}
		unlock()

		switch {
		case err == nil:
			removed++
		case errors.Is(err, domain.ErrSessionNotFound):
		default:
			s.logger.Warn().Err(err).Str("session_id", id).Msg("failed to delete idle session")
		}
	}
	if removed > 0 {
		s.logger.Info().Int("removed", removed).Msg("idle sessions swept")
		s.refreshSessionGauge(ctx)
	}
	return removed
}
