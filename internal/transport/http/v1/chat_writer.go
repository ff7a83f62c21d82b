package v1

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// chatWriter serialises writes; gorilla connections allow one writer.
type chatWriter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *chatWriter) writeJSON(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(chatWriteWait))
	return w.conn.WriteJSON(v)
}

func (w *chatWriter) ping() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(chatWriteWait))
}

func (w *chatWriter) keepAlive(ctx context.Context) {
	ticker := time.NewTicker(chatPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.ping(); err != nil {
				return
			}
		}
	}
}
