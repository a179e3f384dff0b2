package models

import "time"

// Origin tags where a message in the in-memory log came from and whether the
// channel has relayed it yet.
type Origin string

const (
	// OriginLocalPending marks an optimistic local copy of an outbound
	// message that the backend has not echoed back yet.
	OriginLocalPending Origin = "local-pending"
	// OriginConfirmedSent marks an outbound message whose echo arrived.
	OriginConfirmedSent Origin = "confirmed-sent"
	// OriginReceived marks a message sent by the counterpart.
	OriginReceived Origin = "received"
)

// Message is one unit of communication inside a conversation log. It is
// created once (by the composer or by the delivery router) and never mutated
// afterwards, except for the local-pending -> confirmed-sent transition.
type Message struct {
	// CorrelationID is generated by the sending client and survives the
	// round trip through the backend, so an echo of our own message can be
	// matched against the optimistic local copy.
	CorrelationID string
	SenderID      string
	ReceiverID    string
	Content       string
	FileURL       string
	FileType      string
	Timestamp     time.Time
	Origin        Origin
}

// HasAttachment reports whether the message carries an uploaded file.
func (m Message) HasAttachment() bool {
	return m.FileURL != ""
}

// ToWire converts the message to its wire shape.
func (m Message) ToWire() WireMessage {
	w := WireMessage{
		CorrelationID: m.CorrelationID,
		SenderID:      m.SenderID,
		ReceiverID:    m.ReceiverID,
		Content:       m.Content,
		Timestamp:     m.Timestamp.UTC().Format(time.RFC3339Nano),
	}
	if m.FileURL != "" {
		u, t := m.FileURL, m.FileType
		w.FileURL = &u
		w.FileType = &t
	}
	return w
}
