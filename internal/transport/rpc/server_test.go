package rpc

import (
	"context"
	"net"
	"net/rpc/jsonrpc"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/gogo/deliveryagent/internal/domain"
	"github.com/xiaot623/gogo/deliveryagent/internal/intent"
	"github.com/xiaot623/gogo/deliveryagent/internal/service"
	"github.com/xiaot623/gogo/deliveryagent/internal/tools"
	"github.com/xiaot623/gogo/deliveryagent/tests/helpers"
)

func startServer(t *testing.T) string {
	t.Helper()
	upstream := helpers.NewFakeUpstream(t)
	svc := service.New(helpers.NewTestMemoryStore(t), tools.NewDeliveryRegistry(upstream.UnconfiguredClient()),
		intent.NewRuleClassifier(), intent.NewExtractor(), service.Options{Logger: zerolog.Nop()})

	srv, err := NewServer(svc, zerolog.Nop())
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return ln.Addr().String()
}

func TestAgentRPC(t *testing.T) {
	client, err := jsonrpc.Dial("tcp", startServer(t))
	require.NoError(t, err)
	defer client.Close()

	var msg domain.MessageResponse
	require.NoError(t, client.Call("Agent.ProcessMessage", &domain.MessageRequest{Message: "ping", UserID: "rpc"}, &msg))
	assert.Contains(t, msg.Response, "pong")
	require.NotEmpty(t, msg.SessionID)

	var info domain.SessionInfo
	require.NoError(t, client.Call("Agent.GetSession", &SessionArgs{SessionID: msg.SessionID}, &info))
	assert.Equal(t, "rpc", info.UserID)
	assert.Equal(t, 1, info.MessageCount)

	var list domain.ListSessionsResponse
	require.NoError(t, client.Call("Agent.ListSessions", &ListSessionsArgs{}, &list))
	assert.Equal(t, 1, list.Total)

	var logs domain.ToolLogsResponse
	require.NoError(t, client.Call("Agent.ListToolLogs", &ToolLogsArgs{}, &logs))
	require.Equal(t, 1, logs.Total)
	assert.Equal(t, "ping", logs.Logs[0].ToolName)

	var deleted domain.DeleteSessionResponse
	require.NoError(t, client.Call("Agent.DeleteSession", &SessionArgs{SessionID: msg.SessionID}, &deleted))
	assert.Equal(t, "deleted", deleted.Status)

	err = client.Call("Agent.GetSession", &SessionArgs{SessionID: msg.SessionID}, &info)
	require.Error(t, err)
	assert.Equal(t, "Session not found", err.Error())
}

func TestAgentRPCValidation(t *testing.T) {
	client, err := jsonrpc.Dial("tcp", startServer(t))
	require.NoError(t, err)
	defer client.Close()

	var info domain.SessionInfo
	err = client.Call("Agent.GetSession", &SessionArgs{}, &info)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session_id is required")

	var msg domain.MessageResponse
	require.NoError(t, client.Call("Agent.ProcessMessage", &domain.MessageRequest{Message: ""}, &msg))
	assert.Contains(t, msg.Response, "I understand you're asking about: .")

	err = client.Call("Agent.ProcessMessage", &domain.MessageRequest{Message: "hi", SessionID: "gone"}, &msg)
	require.Error(t, err)
	assert.Equal(t, "Session not found", err.Error())
}
