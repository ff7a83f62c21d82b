// Package rpc exposes the agent operations over JSON-RPC.
package rpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"sync"

	"github.com/rs/zerolog"

	"github.com/xiaot623/gogo/deliveryagent/internal/domain"
	"github.com/xiaot623/gogo/deliveryagent/internal/observability"
	"github.com/xiaot623/gogo/deliveryagent/internal/service"
)

// ServiceName is the JSON-RPC receiver name.
const ServiceName = "Agent"

// Server accepts JSON-RPC connections.
type Server struct {
	mu        sync.Mutex
	listener  net.Listener
	rpcServer *rpc.Server
	logger    zerolog.Logger
	done      chan struct{}
}

// NewServer creates a new RPC server bound to the agent service.
func NewServer(svc *service.Service, logger zerolog.Logger) (*Server, error) {
	rpcServer := rpc.NewServer()
	handler := &Handler{service: svc}
	if err := rpcServer.RegisterName(ServiceName, handler); err != nil {
		return nil, fmt.Errorf("register rpc handler: %w", err)
	}

	return &Server{
		rpcServer: rpcServer,
		logger:    observability.Component(logger, "rpc"),
		done:      make(chan struct{}),
	}, nil
}

// Start begins accepting RPC connections on the given address.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until it is closed.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				close(s.done)
				return nil
			}
			s.logger.Warn().Err(err).Msg("rpc accept error")
			continue
		}

		go s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(conn))
	}
}

// Shutdown stops accepting new RPC connections.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	if ln == nil {
		return nil
	}

	if err := ln.Close(); err != nil {
		return err
	}

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Handler implements the agent RPC methods.
type Handler struct {
	service *service.Service
}

// SessionArgs identifies a session.
type SessionArgs struct {
	SessionID string `json:"session_id"`
}

// ListSessionsArgs is the (empty) ListSessions request.
type ListSessionsArgs struct{}

// ToolLogsArgs bounds a tool log query. Zero means the default limit.
type ToolLogsArgs struct {
	Limit int `json:"limit"`
}

// ProcessMessage handles one user message.
func (h *Handler) ProcessMessage(req *domain.MessageRequest, resp *domain.MessageResponse) error {
	if req == nil {
		return errors.New("message request is required")
	}

	result, err := h.service.ProcessMessage(context.Background(), *req)
	if err != nil {
		return rpcError(err)
	}
	*resp = *result
	return nil
}

// GetSession returns a session summary.
func (h *Handler) GetSession(req *SessionArgs, resp *domain.SessionInfo) error {
	if req == nil || req.SessionID == "" {
		return errors.New("session_id is required")
	}

	info, err := h.service.GetSession(context.Background(), req.SessionID)
	if err != nil {
		return rpcError(err)
	}
	*resp = *info
	return nil
}

// ListSessions lists every live session.
func (h *Handler) ListSessions(_ *ListSessionsArgs, resp *domain.ListSessionsResponse) error {
	result, err := h.service.ListSessions(context.Background())
	if err != nil {
		return rpcError(err)
	}
	*resp = *result
	return nil
}

// DeleteSession removes a session.
func (h *Handler) DeleteSession(req *SessionArgs, resp *domain.DeleteSessionResponse) error {
	if req == nil || req.SessionID == "" {
		return errors.New("session_id is required")
	}

	if err := h.service.DeleteSession(context.Background(), req.SessionID); err != nil {
		return rpcError(err)
	}
	resp.Status = "deleted"
	resp.SessionID = req.SessionID
	return nil
}

// ListToolLogs returns the most recent tool invocations.
func (h *Handler) ListToolLogs(req *ToolLogsArgs, resp *domain.ToolLogsResponse) error {
	limit := 0
	if req != nil {
		limit = req.Limit
	}

	result, err := h.service.ListToolLogs(context.Background(), limit)
	if err != nil {
		return rpcError(err)
	}
	*resp = *result
	return nil
}

// rpcError matches the REST error messages.
func rpcError(err error) error {
	if errors.Is(err, domain.ErrSessionNotFound) {
		return errors.New("Session not found")
	}
	return err
}
