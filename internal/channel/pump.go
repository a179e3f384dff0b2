package channel

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"coachlink/messaging/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// readPump reads inbound frames for one connection and hands each decoded
// wire message to the registered handler, in arrival order. When the read
// loop dies and the session is still live, it kicks off a reconnect.
func (m *Manager) readPump(conn *websocket.Conn, gen int) {
	defer conn.Close()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				m.log.Warn("channel read failed", "error", err)
			}
			break
		}

		var msg models.WireMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			m.log.Warn("channel dropped undecodable frame", "error", err)
			continue
		}

		m.mu.Lock()
		h := m.handler
		stale := m.gen != gen
		m.mu.Unlock()
		if stale {
			return
		}
		if h != nil {
			h(msg)
		}
	}

	go m.reconnect(gen)
}

// writePump serializes outbound messages onto one connection, one frame per
// message so the peer can decode each frame standalone, and keeps the
// connection alive with pings.
func (m *Manager) writePump(conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case <-stop:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case msg := <-m.sendCh:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			data, err := json.Marshal(msg)
			if err != nil {
				m.log.Error("channel encode failed", "error", err)
				continue
			}

			w, err := conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(data)
			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
