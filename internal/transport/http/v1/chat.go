package v1

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/xiaot623/gogo/deliveryagent/internal/domain"
	"github.com/xiaot623/gogo/deliveryagent/internal/service"
)

// Chat frame types.
const (
	FrameMessage  = "message"
	FrameResponse = "response"
	FrameError    = "error"
)

// Chat error codes.
const (
	ErrorCodeInvalidMessage  = "invalid_message"
	ErrorCodeSessionNotFound = "session_not_found"
	ErrorCodeInternalError   = "internal_error"
)

const (
	chatMaxMessageSize = 64 * 1024
	chatPongWait       = 60 * time.Second
	chatPingInterval   = 50 * time.Second
	chatWriteWait      = 10 * time.Second
)

// ChatRequest is an inbound chat frame.
type ChatRequest struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
}

// ChatResponse is an outbound reply frame.
type ChatResponse struct {
	Type string `json:"type"`
	domain.MessageResponse
}

// ChatError is an outbound error frame.
type ChatError struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// chatServer bridges WebSocket connections to the orchestrator. Frames on
// one connection are processed in arrival order.
type chatServer struct {
	service  *service.Service
	logger   zerolog.Logger
	upgrader websocket.Upgrader
}

func newChatServer(svc *service.Service, logger zerolog.Logger) *chatServer {
	return &chatServer{
		service: svc,
		logger:  logger.With().Str("surface", "ws").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Handle upgrades the request and serves the connection until it closes.
// GET /agent/ws
func (s *chatServer) Handle(c echo.Context) error {
	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return nil
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.WithoutCancel(c.Request().Context()))
	defer cancel()

	conn.SetReadLimit(chatMaxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(chatPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(chatPongWait))
	})

	w := &chatWriter{conn: conn}
	go w.keepAlive(ctx)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn().Err(err).Msg("websocket read failed")
			}
			return nil
		}
		if err := w.writeJSON(s.handleFrame(ctx, data)); err != nil {
			s.logger.Warn().Err(err).Msg("websocket write failed")
			return nil
		}
	}
}

func (s *chatServer) handleFrame(ctx context.Context, data []byte) any {
	var req ChatRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return chatError(ErrorCodeInvalidMessage, "invalid JSON message")
	}
	if req.Type != FrameMessage {
		return chatError(ErrorCodeInvalidMessage, "unknown message type: "+req.Type)
	}

	resp, err := s.service.ProcessMessage(ctx, domain.MessageRequest{
		Message:   req.Message,
		SessionID: req.SessionID,
		UserID:    req.UserID,
	})
	switch {
	case err == nil:
		return ChatResponse{Type: FrameResponse, MessageResponse: *resp}
	case errors.Is(err, domain.ErrSessionNotFound):
		return chatError(ErrorCodeSessionNotFound, "Session not found")
	case errors.Is(err, domain.ErrInvalidArgument):
		return chatError(ErrorCodeInvalidMessage, err.Error())
	default:
		s.logger.Error().Err(err).Msg("chat message failed")
		return chatError(ErrorCodeInternalError, "internal error")
	}
}

func chatError(code, msg string) ChatError {
	return ChatError{Type: FrameError, Code: code, Message: msg}
}
