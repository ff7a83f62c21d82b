package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoAgent answers every message frame with a response that echoes it,
// and "fail" with an error frame.
func echoAgent(t *testing.T) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			var msg OutgoingMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			if msg.Message == "fail" {
				_ = conn.WriteJSON(Reply{Type: TypeError, Code: "session_not_found", Message: "Session not found"})
				continue
			}
			session := msg.SessionID
			if session == "" {
				session = "s-" + msg.UserID
			}
			_ = conn.WriteJSON(Reply{
				Type:      TypeResponse,
				Response:  "echo: " + msg.Message,
				SessionID: session,
				ToolCalls: []ToolCall{{ToolName: "ping"}},
			})
		}
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestClientKeepsSession(t *testing.T) {
	client, err := NewClient(echoAgent(t), "u1", "", time.Second)
	require.NoError(t, err)
	defer client.Close()

	reply, err := client.Send("hello")
	require.NoError(t, err)
	assert.Equal(t, "echo: hello", reply.Response)
	assert.Equal(t, "s-u1", client.SessionID())

	reply, err = client.Send("again")
	require.NoError(t, err)
	assert.Equal(t, "s-u1", reply.SessionID)
}

func TestClientErrorFrame(t *testing.T) {
	client, err := NewClient(echoAgent(t), "", "", time.Second)
	require.NoError(t, err)
	defer client.Close()

	reply, err := client.Send("fail")
	require.Error(t, err)
	require.NotNil(t, reply)
	assert.Equal(t, "session_not_found - Session not found", err.Error())
}

func TestChatLoop(t *testing.T) {
	client, err := NewClient(echoAgent(t), "u2", "", time.Second)
	require.NoError(t, err)
	defer client.Close()

	var out bytes.Buffer
	in := strings.NewReader("hi\n\nfail\n/session\n/quit\n")
	require.NoError(t, chat(client, in, &out))

	assert.Contains(t, out.String(), "echo: hi")
	assert.Contains(t, out.String(), "error: session_not_found - Session not found")
	assert.Contains(t, out.String(), "session: s-u2")
	assert.Contains(t, out.String(), "Bye!")
}

func TestCommandsRegistered(t *testing.T) {
	names := make([]string, 0)
	for _, cmd := range rootCmd.Commands() {
		names = append(names, cmd.Name())
	}
	assert.Contains(t, names, "send")
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("addr"))
}
