// Package repository defines the session and tool-log storage interfaces and
// their implementations.
package repository

import (
	"context"
	"time"

	"github.com/xiaot623/gogo/deliveryagent/internal/domain"
)

// SessionStore holds conversation state keyed by session id.
type SessionStore interface {
	CreateSession(ctx context.Context, userID string) (*domain.Session, error)
	// GetSession returns a copy of the session or domain.ErrSessionNotFound.
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)
	// AppendMessage appends to the transcript and bumps last activity. Only
	// user messages count towards MessageCount.
	AppendMessage(ctx context.Context, sessionID string, role domain.Role, content string) (*domain.Message, error)
	ListSessions(ctx context.Context) ([]domain.SessionSummary, error)
	CountSessions(ctx context.Context) (int, error)
	DeleteSession(ctx context.Context, sessionID string) error
	// ListIdleSessions returns ids of sessions whose last activity is before the cutoff.
	ListIdleSessions(ctx context.Context, before time.Time) ([]string, error)
}

// ToolLog is the append-only audit trail of tool invocations. It is not
// tied to session lifetime.
type ToolLog interface {
	RecordToolInvocation(ctx context.Context, inv *domain.ToolInvocation) error
	// ListToolInvocations returns the most recent limit records in
	// chronological order. A non-positive limit returns every record.
	ListToolInvocations(ctx context.Context, limit int) ([]domain.ToolInvocation, error)
	CountToolInvocations(ctx context.Context) (int, error)
}

// Store combines both halves of the agent state.
type Store interface {
	SessionStore
	ToolLog

	Close() error
}

// Options tune store behaviour shared by all implementations.
type Options struct {
	// MaxToolLogEntries caps the tool log; the oldest records are dropped.
	// Zero keeps every record.
	MaxToolLogEntries int
	// Now overrides the clock, for tests.
	Now func() time.Time
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func normalizeUserID(userID string) string {
	if userID == "" {
		return domain.DefaultUserID
	}
	return userID
}
