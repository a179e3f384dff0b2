package hub

import (
	"encoding/json"
	"log/slog"
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

// WebSocketClient implements Client over a gorilla websocket connection.
type WebSocketClient struct {
	participantID string
	conn          *websocket.Conn
	hub           *Hub
	send          chan models.WireMessage
	log           *slog.Logger
}

func NewWebSocketClient(h *Hub, participantID string, conn *websocket.Conn) *WebSocketClient {
	return &WebSocketClient{
		participantID: participantID,
		conn:          conn,
		hub:           h,
		send:          make(chan models.WireMessage, 256),
		log:           h.log.With("participant", participantID),
	}
}

func (c *WebSocketClient) ParticipantID() string              { return c.participantID }
func (c *WebSocketClient) Deliver() chan<- models.WireMessage { return c.send }

// Run starts the pumps for this connection.
func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

// Close closes the send channel, which stops the write pump; the read pump
// stops when the connection is closed in its defer.
func (c *WebSocketClient) Close() {
	close(c.send)
}

func (c *WebSocketClient) readPump() {
	defer func() {
		c.hub.UnregisterCh <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn("read failed", "error", err)
			}
			break
		}

		var msg models.WireMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.log.Warn("dropping undecodable frame", "error", err)
			continue
		}

		// The sender identity comes from the authenticated connection, not
		// from whatever the payload claims.
		msg.SenderID = c.participantID
		if msg.Timestamp == "" {
			msg.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
		}

		c.hub.IncomingCh <- msg
	}
}

func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			data, err := json.Marshal(msg)
			if err != nil {
				c.log.Error("encode failed", "error", err)
				continue
			}

			// One message per frame: the client decodes frames as single
			// JSON documents.
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
