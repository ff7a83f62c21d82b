package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

// Frame types exchanged with /agent/ws.
const (
	TypeMessage  = "message"
	TypeResponse = "response"
	TypeError    = "error"
)

// OutgoingMessage is sent for every user line.
type OutgoingMessage struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
}

// ToolCall is the part of a tool invocation record the client shows.
type ToolCall struct {
	ToolName  string         `json:"tool_name"`
	Arguments map[string]any `json:"arguments"`
}

// Reply is a response or error frame from the server.
type Reply struct {
	Type      string     `json:"type"`
	Response  string     `json:"response"`
	SessionID string     `json:"session_id"`
	ToolCalls []ToolCall `json:"tool_calls"`
	Code      string     `json:"code"`
	Message   string     `json:"message"`
}

// Client is a WebSocket chat client. It keeps the session id of the first
// reply so later messages continue the same conversation.
type Client struct {
	conn      *websocket.Conn
	userID    string
	sessionID string
	timeout   time.Duration
}

// NewClient creates a new client and connects to the server.
func NewClient(addr, userID, sessionID string, timeout time.Duration) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.Dial(addr, nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	return &Client{
		conn:      conn,
		userID:    userID,
		sessionID: sessionID,
		timeout:   timeout,
	}, nil
}

// SessionID returns the current session id, empty before the first reply.
func (c *Client) SessionID() string {
	return c.sessionID
}

// Close closes the client connection.
func (c *Client) Close() error {
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return c.conn.Close()
}

// Send sends one message and waits for its reply.
func (c *Client) Send(text string) (*Reply, error) {
	msg := OutgoingMessage{
		Type:      TypeMessage,
		Message:   text,
		SessionID: c.sessionID,
		UserID:    c.userID,
	}
	if err := c.conn.WriteJSON(msg); err != nil {
		return nil, fmt.Errorf("write message: %w", err)
	}

	if c.timeout > 0 {
		_ = c.conn.SetReadDeadline(time.Now().Add(c.timeout))
	}
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("read reply: %w", err)
	}

	var reply Reply
	if err := json.Unmarshal(data, &reply); err != nil {
		return nil, fmt.Errorf("unmarshal reply: %w", err)
	}
	switch reply.Type {
	case TypeResponse:
		c.sessionID = reply.SessionID
		return &reply, nil
	case TypeError:
		return &reply, fmt.Errorf("%s - %s", reply.Code, reply.Message)
	default:
		return nil, fmt.Errorf("unexpected frame type: %s", reply.Type)
	}
}
