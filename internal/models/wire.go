package models

import "time"

// WireMessage is the JSON payload exchanged over the websocket channel, in
// both directions. fileUrl and fileType are null for plain text messages.
type WireMessage struct {
	CorrelationID string  `json:"correlationId"`
	SenderID      string  `json:"senderId"`
	ReceiverID    string  `json:"receiverId"`
	Content       string  `json:"content"`
	Timestamp     string  `json:"timestamp"` // ISO-8601
	FileURL       *string `json:"fileUrl"`
	FileType      *string `json:"fileType"`
}

// ToMessage converts a wire payload into a log entry with the given origin.
// A timestamp the sender failed to format is treated as the zero time rather
// than rejecting the whole message.
func (w WireMessage) ToMessage(origin Origin) Message {
	ts, _ := time.Parse(time.RFC3339Nano, w.Timestamp)
	m := Message{
		CorrelationID: w.CorrelationID,
		SenderID:      w.SenderID,
		ReceiverID:    w.ReceiverID,
		Content:       w.Content,
		Timestamp:     ts,
		Origin:        origin,
	}
	if w.FileURL != nil {
		m.FileURL = *w.FileURL
	}
	if w.FileType != nil {
		m.FileType = *w.FileType
	}
	return m
}
