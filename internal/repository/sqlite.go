package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/xiaot623/gogo/deliveryagent/internal/domain"
)

// SQLiteStore implements Store using SQLite. Timestamps are stored as unix
// nanoseconds so ordering survives round trips.
type SQLiteStore struct {
	db   *sql.DB
	opts Options
}

// NewSQLiteStore opens dsn and applies migrations.
func NewSQLiteStore(dsn string, opts Options) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	store := &SQLiteStore{db: db, opts: opts}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

var _ Store = (*SQLiteStore)(nil)

func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			last_activity INTEGER NOT NULL,
			message_count INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			message_id TEXT NOT NULL UNIQUE,
			session_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, seq)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_activity ON sessions(last_activity)`,
		// Tool invocations outlive their session, so there is no foreign key.
		`CREATE TABLE IF NOT EXISTS tool_invocations (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			tool_name TEXT NOT NULL,
			arguments TEXT NOT NULL,
			result TEXT NOT NULL,
			session_id TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateSession(ctx context.Context, userID string) (*domain.Session, error) {
	now := s.opts.now()
	session := &domain.Session{
		SessionID:    uuid.New().String(),
		UserID:       normalizeUserID(userID),
		CreatedAt:    now,
		LastActivity: now,
		Messages:     []domain.Message{},
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (session_id, user_id, created_at, last_activity, message_count) VALUES (?, ?, ?, ?, 0)`,
		session.SessionID, session.UserID, now.UnixNano(), now.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	session := &domain.Session{}
	var createdAt, lastActivity int64
	err := s.db.QueryRowContext(ctx,
		`SELECT session_id, user_id, created_at, last_activity, message_count FROM sessions WHERE session_id = ?`,
		sessionID,
	).Scan(&session.SessionID, &session.UserID, &createdAt, &lastActivity, &session.MessageCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	session.CreatedAt = time.Unix(0, createdAt)
	session.LastActivity = time.Unix(0, lastActivity)

	rows, err := s.db.QueryContext(ctx,
		`SELECT message_id, role, content, created_at FROM messages WHERE session_id = ? ORDER BY seq ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}
	defer rows.Close()

	session.Messages = []domain.Message{}
	for rows.Next() {
		var msg domain.Message
		var role string
		var ts int64
		if err := rows.Scan(&msg.MessageID, &role, &msg.Content, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msg.Role = domain.Role(role)
		msg.Timestamp = time.Unix(0, ts)
		session.Messages = append(session.Messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}
	return session, nil
}

func (s *SQLiteStore) AppendMessage(ctx context.Context, sessionID string, role domain.Role, content string) (*domain.Message, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: role %q", domain.ErrInvalidArgument, role)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := s.opts.now()
	increment := 0
	if role == domain.RoleUser {
		increment = 1
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE sessions SET last_activity = ?, message_count = message_count + ? WHERE session_id = ?`,
		now.UnixNano(), increment, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to touch session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, domain.ErrSessionNotFound
	}

	msg := &domain.Message{
		MessageID: "msg_" + uuid.New().String(),
		Role:      role,
		Content:   content,
		Timestamp: now,
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO messages (message_id, session_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		msg.MessageID, sessionID, string(role), content, now.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to append message: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit message: %w", err)
	}
	return msg, nil
}

func (s *SQLiteStore) ListSessions(ctx context.Context) ([]domain.SessionSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, user_id, created_at, last_activity, message_count FROM sessions ORDER BY created_at ASC, session_id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	out := []domain.SessionSummary{}
	for rows.Next() {
		var sum domain.SessionSummary
		var createdAt, lastActivity int64
		if err := rows.Scan(&sum.SessionID, &sum.UserID, &createdAt, &lastActivity, &sum.MessageCount); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sum.CreatedAt = time.Unix(0, createdAt)
		sum.LastActivity = time.Unix(0, lastActivity)
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) DeleteSession(ctx context.Context, sessionID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrSessionNotFound
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) ListIdleSessions(ctx context.Context, before time.Time) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id FROM sessions WHERE last_activity < ? ORDER BY session_id ASC`,
		before.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list idle sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteStore) RecordToolInvocation(ctx context.Context, inv *domain.ToolInvocation) error {
	if inv == nil {
		return fmt.Errorf("%w: nil tool invocation", domain.ErrInvalidArgument)
	}
	argsJSON, err := encodeArgs(inv.Arguments)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO tool_invocations (id, tool_name, arguments, result, session_id, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.ToolName, argsJSON, inv.Result, inv.SessionID, inv.Timestamp.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to record tool invocation: %w", err)
	}
	if keep := s.opts.MaxToolLogEntries; keep > 0 {
		_, err = tx.ExecContext(ctx,
			`DELETE FROM tool_invocations WHERE seq <= (SELECT MAX(seq) FROM tool_invocations) - ?`,
			keep,
		)
		if err != nil {
			return fmt.Errorf("failed to trim tool log: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) ListToolInvocations(ctx context.Context, limit int) ([]domain.ToolInvocation, error) {
	query := `SELECT id, tool_name, arguments, result, session_id, created_at FROM tool_invocations ORDER BY seq ASC`
	var args []any
	if limit > 0 {
		query = `SELECT id, tool_name, arguments, result, session_id, created_at FROM (
			SELECT * FROM tool_invocations ORDER BY seq DESC LIMIT ?
		) ORDER BY seq ASC`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tool invocations: %w", err)
	}
	defer rows.Close()

	out := []domain.ToolInvocation{}
	for rows.Next() {
		var inv domain.ToolInvocation
		var argsJSON string
		var ts int64
		if err := rows.Scan(&inv.ID, &inv.ToolName, &argsJSON, &inv.Result, &inv.SessionID, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan tool invocation: %w", err)
		}
		inv.Arguments, err = decodeArgs(argsJSON)
		if err != nil {
			return nil, fmt.Errorf("failed to decode arguments of %s: %w", inv.ID, err)
		}
		inv.Timestamp = time.Unix(0, ts)
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CountSessions(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) CountToolInvocations(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tool_invocations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count tool invocations: %w", err)
	}
	return n, nil
}
