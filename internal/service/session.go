package service

import (
	"context"

	"github.com/xiaot623/gogo/deliveryagent/internal/domain"
)

// CreateSession starts an empty conversation for userID.
func (s *Service) CreateSession(ctx context.Context, userID string) (*domain.Session, error) {
	session, err := s.store.CreateSession(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("session_id", session.SessionID).Str("user_id", session.UserID).Msg("session created")
	s.refreshSessionGauge(ctx)
	return session, nil
}

// GetSession returns the session summary.
func (s *Service) GetSession(ctx context.Context, sessionID string) (*domain.SessionInfo, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	sum := session.Summary()
	return &domain.SessionInfo{
		SessionID:    sum.SessionID,
		UserID:       sum.UserID,
		CreatedAt:    sum.CreatedAt,
		MessageCount: sum.MessageCount,
		LastActivity: sum.LastActivity,
	}, nil
}

// GetMessages returns the transcript of a session in append order.
func (s *Service) GetMessages(ctx context.Context, sessionID string) ([]domain.Message, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return session.Messages, nil
}

// ListSessions returns every live session.
func (s *Service) ListSessions(ctx context.Context) (*domain.ListSessionsResponse, error) {
	sessions, err := s.store.ListSessions(ctx)
	if err != nil {
		return nil, err
	}
	return &domain.ListSessionsResponse{Total: len(sessions), Sessions: sessions}, nil
}

// DeleteSession removes a session. Its tool invocation records are kept.
// It waits for any in-flight message on the same session.
func (s *Service) DeleteSession(ctx context.Context, sessionID string) error {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	if err := s.store.DeleteSession(ctx, sessionID); err != nil {
		return err
	}
	s.logger.Info().Str("session_id", sessionID).Msg("session deleted")
	s.refreshSessionGauge(ctx)
	return nil
}

func (s *Service) refreshSessionGauge(ctx context.Context) {
	if s.metrics == nil {
		return
	}
	n, err := s.store.CountSessions(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to count sessions")
		return
	}
	s.metrics.SetSessions(n)
}
