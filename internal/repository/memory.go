package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xiaot623/gogo/deliveryagent/internal/domain"
)

// MemoryStore keeps sessions and the tool log in process memory. All
// methods are safe for concurrent use; returned values are copies.
type MemoryStore struct {
	opts Options

	mu       sync.RWMutex
	sessions map[string]*domain.Session

	logMu sync.RWMutex
	log   toolRing
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts Options) *MemoryStore {
	return &MemoryStore{
		opts:     opts,
		sessions: make(map[string]*domain.Session),
		log:      toolRing{max: opts.MaxToolLogEntries},
	}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) CreateSession(ctx context.Context, userID string) (*domain.Session, error) {
	now := s.opts.now()
	session := &domain.Session{
		SessionID:    uuid.New().String(),
		UserID:       normalizeUserID(userID),
		CreatedAt:    now,
		LastActivity: now,
		Messages:     []domain.Message{},
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.SessionID] = session
	return session.Clone(), nil
}

func (s *MemoryStore) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session.Clone(), nil
}

func (s *MemoryStore) AppendMessage(ctx context.Context, sessionID string, role domain.Role, content string) (*domain.Message, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: role %q", domain.ErrInvalidArgument, role)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}

	now := s.opts.now()
	msg := domain.Message{
		MessageID: "msg_" + uuid.New().String(),
		Role:      role,
		Content:   content,
		Timestamp: now,
	}
	session.Messages = append(session.Messages, msg)
	session.LastActivity = now
	if role == domain.RoleUser {
		session.MessageCount++
	}
	return &msg, nil
}

func (s *MemoryStore) ListSessions(ctx context.Context) ([]domain.SessionSummary, error) {
	s.mu.RLock()
	out := make([]domain.SessionSummary, 0, len(s.sessions))
	for _, session := range s.sessions {
		out = append(out, session.Summary())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].SessionID < out[j].SessionID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) CountSessions(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions), nil
}

func (s *MemoryStore) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return domain.ErrSessionNotFound
	}
	delete(s.sessions, sessionID)
	return nil
}

func (s *MemoryStore) ListIdleSessions(ctx context.Context, before time.Time) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for id, session := range s.sessions {
		if session.LastActivity.Before(before) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *MemoryStore) RecordToolInvocation(ctx context.Context, inv *domain.ToolInvocation) error {
	if inv == nil {
		return fmt.Errorf("%w: nil tool invocation", domain.ErrInvalidArgument)
	}
	args, err := storedArgs(inv.Arguments)
	if err != nil {
		return err
	}
	rec := *inv
	rec.Arguments = args

	s.logMu.Lock()
	defer s.logMu.Unlock()
	s.log.push(rec)
	return nil
}

func (s *MemoryStore) ListToolInvocations(ctx context.Context, limit int) ([]domain.ToolInvocation, error) {
	s.logMu.RLock()
	defer s.logMu.RUnlock()

	all := s.log.ordered()
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	out := make([]domain.ToolInvocation, len(all))
	for i, rec := range all {
		out[i] = rec
		out[i].Arguments = domain.CloneArgs(rec.Arguments)
	}
	return out, nil
}

func (s *MemoryStore) CountToolInvocations(ctx context.Context) (int, error) {
	s.logMu.RLock()
	defer s.logMu.RUnlock()
	return len(s.log.entries), nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// toolRing is an append-only log that overwrites its oldest entry once max
// entries are held. A zero max never overwrites.
type toolRing struct {
	entries []domain.ToolInvocation
	start   int
	max     int
}

func (r *toolRing) push(rec domain.ToolInvocation) {
	if r.max <= 0 || len(r.entries) < r.max {
		r.entries = append(r.entries, rec)
		return
	}
	r.entries[r.start] = rec
	r.start = (r.start + 1) % r.max
}

// ordered returns the entries oldest first. The result shares no backing
// array with the ring.
func (r *toolRing) ordered() []domain.ToolInvocation {
	out := make([]domain.ToolInvocation, 0, len(r.entries))
	out = append(out, r.entries[r.start:]...)
	out = append(out, r.entries[:r.start]...)
	return out
}
