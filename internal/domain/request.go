package domain

import "time"

// MessageRequest is the inbound "process a message" request.
type MessageRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
}

// MessageResponse is returned after a message has been processed.
type MessageResponse struct {
	Response  string           `json:"response"`
	SessionID string           `json:"session_id"`
	ToolCalls []ToolInvocation `json:"tool_calls,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// CreateSessionRequest is the explicit session creation request.
type CreateSessionRequest struct {
	UserID string `json:"user_id,omitempty"`
}

// SessionInfo is the "get session" response.
type SessionInfo struct {
	SessionID    string    `json:"session_id"`
	UserID       string    `json:"user_id"`
	CreatedAt    time.Time `json:"created_at"`
	MessageCount int       `json:"message_count"`
	LastActivity time.Time `json:"last_activity"`
}

// ListSessionsResponse is the "list sessions" response.
type ListSessionsResponse struct {
	Total    int              `json:"total"`
	Sessions []SessionSummary `json:"sessions"`
}

// ToolLogsResponse is the "list tool logs" response.
type ToolLogsResponse struct {
	Total int              `json:"total"`
	Logs  []ToolInvocation `json:"logs"`
}

// DeleteSessionResponse acknowledges a deletion.
type DeleteSessionResponse struct {
	Status    string `json:"status"`
	SessionID string `json:"session_id"`
}

// ListToolsResponse is the tool catalog listing.
type ListToolsResponse struct {
	Tools []ToolInfo `json:"tools"`
}
