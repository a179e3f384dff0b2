// Package hub relays wire messages between connected participants. One hub
// goroutine owns the connection map; everything reaches it over channels.
package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"coachlink/messaging/internal/models"
	"coachlink/messaging/internal/storage"
)

// Hub dispatches inbound messages: persist first, then publish to the
// sender's and receiver's inbox channels. Local delivery happens when the
// pub/sub listener hands the message back, so a message takes the same path
// whether or not both participants sit on the same relay instance.
type Hub struct {
	Clients map[string]Client

	RegisterCh   chan Client
	UnregisterCh chan Client
	IncomingCh   chan models.WireMessage

	storage storage.Storage
	log     *slog.Logger

	inboxCh chan inboxEvent
}

type inboxEvent struct {
	participantID string
	msg           models.WireMessage
}

func New(s storage.Storage, log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		Clients:      make(map[string]Client),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		IncomingCh:   make(chan models.WireMessage),
		storage:      s,
		log:          log,
		inboxCh:      make(chan inboxEvent, 64),
	}
}

// Run is the hub dispatcher. It returns when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	go h.listenInboxes(ctx)

	for {
		select {
		case <-ctx.Done():
			for _, c := range h.Clients {
				c.Close()
			}
			return

		case c := <-h.RegisterCh:
			// A second connection for the same participant replaces the
			// first; the design allows one channel per session.
			if old, ok := h.Clients[c.ParticipantID()]; ok {
				old.Close()
			}
			h.Clients[c.ParticipantID()] = c
			h.log.Info("participant connected", "participant", c.ParticipantID())

		case c := <-h.UnregisterCh:
			if cur, ok := h.Clients[c.ParticipantID()]; ok && cur == c {
				delete(h.Clients, c.ParticipantID())
				c.Close()
				h.log.Info("participant disconnected", "participant", c.ParticipantID())
			}

		case msg := <-h.IncomingCh:
			h.handleIncoming(msg)

		case ev := <-h.inboxCh:
			h.deliverLocal(ev.participantID, ev.msg)
		}
	}
}

// handleIncoming persists the message, then publishes it to the receiver's
// inbox and echoes it to the sender's own inbox so the sending client can
// promote its optimistic copy.
func (h *Hub) handleIncoming(msg models.WireMessage) {
	rec := models.RecordFromWire(msg)
	if err := h.storage.SaveMessage(&rec); err != nil {
		// Not persisted means not relayed: history must never lag a
		// delivered message.
		h.log.Error("dropping unpersistable message",
			"correlation", msg.CorrelationID, "error", err)
		return
	}

	if err := h.storage.PublishInbound(msg.ReceiverID, msg); err != nil {
		h.log.Error("publish to receiver inbox failed",
			"receiver", msg.ReceiverID, "error", err)
	}
	if err := h.storage.PublishInbound(msg.SenderID, msg); err != nil {
		h.log.Error("echo to sender inbox failed",
			"sender", msg.SenderID, "error", err)
	}
}

// deliverLocal hands a message to the participant's connection, if the
// participant is connected to this instance.
func (h *Hub) deliverLocal(participantID string, msg models.WireMessage) {
	c, ok := h.Clients[participantID]
	if !ok {
		return
	}
	select {
	case c.Deliver() <- msg:
	default:
		// Slow consumer: drop the connection, the client reconnects and
		// refetches history.
		h.log.Warn("dropping slow connection", "participant", participantID)
		delete(h.Clients, participantID)
		c.Close()
	}
}

// DeliverInbox enqueues a fanned-in message for local delivery on the
// dispatcher goroutine.
func (h *Hub) DeliverInbox(participantID string, msg models.WireMessage) {
	h.inboxCh <- inboxEvent{participantID: participantID, msg: msg}
}

// listenInboxes forwards Redis pub/sub traffic into the dispatcher.
func (h *Hub) listenInboxes(ctx context.Context) {
	sub := h.storage.SubscribeInboxes()
	if sub == nil {
		return
	}
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-ch:
			if !ok {
				return
			}
			participantID := strings.TrimPrefix(raw.Channel, "inbox:")
			var msg models.WireMessage
			if err := json.Unmarshal([]byte(raw.Payload), &msg); err != nil {
				h.log.Error("undecodable inbox payload", "error", err)
				continue
			}
			h.DeliverInbox(participantID, msg)
		}
	}
}
