package http

import (
	"context"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/gogo/deliveryagent/internal/domain"
	"github.com/xiaot623/gogo/deliveryagent/internal/intent"
	"github.com/xiaot623/gogo/deliveryagent/internal/observability"
	"github.com/xiaot623/gogo/deliveryagent/internal/service"
	"github.com/xiaot623/gogo/deliveryagent/internal/tools"
	v1 "github.com/xiaot623/gogo/deliveryagent/internal/transport/http/v1"
	"github.com/xiaot623/gogo/deliveryagent/tests/helpers"
)

func newTestServer(t *testing.T) (*httptest.Server, *service.Service) {
	t.Helper()
	metrics := observability.NewMetrics()
	upstream := helpers.NewFakeUpstream(t)
	registry := tools.NewDeliveryRegistry(upstream.UnconfiguredClient(), tools.WithMetrics(metrics))
	svc := service.New(helpers.NewTestMemoryStore(t), registry, intent.NewRuleClassifier(), intent.NewExtractor(), service.Options{
		Logger:  zerolog.Nop(),
		Metrics: metrics,
	})
	srv := httptest.NewServer(NewServer(svc, metrics, zerolog.Nop()))
	t.Cleanup(srv.Close)
	return srv, svc
}

func dialChat(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/agent/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	return conn
}

func TestChatRoundTrip(t *testing.T) {
	srv, svc := newTestServer(t)
	conn := dialChat(t, srv)

	require.NoError(t, conn.WriteJSON(v1.ChatRequest{Type: v1.FrameMessage, Message: "hello", UserID: "ws-user"}))

	var first struct {
		Type string `json:"type"`
		domain.MessageResponse
	}
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, v1.FrameResponse, first.Type)
	assert.Contains(t, first.Response, "pong")
	require.NotEmpty(t, first.SessionID)

	require.NoError(t, conn.WriteJSON(v1.ChatRequest{Type: v1.FrameMessage, Message: "get a quote", SessionID: first.SessionID}))

	var second struct {
		Type string `json:"type"`
		domain.MessageResponse
	}
	require.NoError(t, conn.ReadJSON(&second))
	assert.Equal(t, first.SessionID, second.SessionID)
	assert.Equal(t, tools.CredentialsError, second.Response)

	info, err := svc.GetSession(context.Background(), first.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 2, info.MessageCount)
	assert.Equal(t, "ws-user", info.UserID)
}

func TestChatErrors(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dialChat(t, srv)

	cases := []struct {
		frame string
		code  string
	}{
		{`not json`, v1.ErrorCodeInvalidMessage},
		{`{"type":"subscribe"}`, v1.ErrorCodeInvalidMessage},
		{`{"type":"message","message":"hi","session_id":"gone"}`, v1.ErrorCodeSessionNotFound},
	}
	for _, tc := range cases {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(tc.frame)))
		var frame v1.ChatError
		require.NoError(t, conn.ReadJSON(&frame))
		assert.Equal(t, v1.FrameError, frame.Type, tc.frame)
		assert.Equal(t, tc.code, frame.Code, tc.frame)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, svc := newTestServer(t)
	_, err := svc.ProcessMessage(context.Background(), domain.MessageRequest{Message: "ping"})
	require.NoError(t, err)

	resp, err := nethttp.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `deliveryagent_tool_invocations_total{outcome="success",tool="ping"} 1`)
	assert.Contains(t, string(body), "deliveryagent_messages_total")
}

func TestRoutes(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := nethttp.Get(srv.URL + "/agent/session/unknown")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, nethttp.StatusNotFound, resp.StatusCode)

	resp, err = nethttp.Post(srv.URL+"/agent/message", "application/json", strings.NewReader(`{"message":"hello"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)

	resp, err = nethttp.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
}

func TestChatEmptyMessageGetsResponse(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dialChat(t, srv)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"message","message":""}`)))

	var reply struct {
		Type string `json:"type"`
		domain.MessageResponse
	}
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, v1.FrameResponse, reply.Type)
	assert.Equal(t, "I understand you're asking about: . How can I help you with delivery services?", reply.Response)
	assert.NotEmpty(t, reply.SessionID)
}
