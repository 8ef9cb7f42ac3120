package ingest

import (
	"context"
	"time"

	"github.com/gorilla/websocket"

	"github.com/quakeline/quakeline/internal/adapter"
)

// Reconnect backoff bounds for WebSocket sources.
const (
	reconnectBase = 1 * time.Second
	reconnectMax  = 60 * time.Second
)

// runSocket maintains one WebSocket connection for the lifetime of the
// context: dial, read until failure, back off, redial. The backoff
// doubles per consecutive failure and resets after a successful dial.
func (m *Manager) runSocket(ctx context.Context, a adapter.Adapter, url string) {
	backoff := reconnectBase
	for {
		if ctx.Err() != nil {
			return
		}

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
		if err != nil {
			m.log.Warn("websocket dial failed", "source", a.Source(), "url", url, "err", err, "retry_in", backoff)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > reconnectMax {
				backoff = reconnectMax
			}
			continue
		}

		m.log.Info("websocket connected", "source", a.Source(), "url", url)
		backoff = reconnectBase

		m.readLoop(ctx, conn, a)
		conn.Close()

		if ctx.Err() != nil {
			return
		}
		m.log.Info("websocket disconnected, reconnecting", "source", a.Source())
	}
}

// readLoop consumes frames until the connection breaks or the context
// is cancelled. A goroutine watching the context closes the connection
// to unblock the blocking read.
func (m *Manager) readLoop(ctx context.Context, conn *websocket.Conn, a adapter.Adapter) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				m.log.Warn("websocket read failed", "source", a.Source(), "err", err)
			}
			return
		}
		m.emit(a, raw)
	}
}
