package models

import (
	"time"

	"gorm.io/gorm"
)

// MessageRecord is a relayed message persisted to PostgreSQL. The embedded
// gorm.Model provides ID, CreatedAt, UpdatedAt, and DeletedAt fields.
type MessageRecord struct {
	gorm.Model

	// CorrelationID is the client-generated id carried on the wire. Unique
	// so a reconnect replay cannot store the same message twice.
	CorrelationID string `gorm:"type:uuid;uniqueIndex"`
	// SenderID and ReceiverID identify the conversation pair.
	SenderID   string `gorm:"not null;index:idx_pair"`
	ReceiverID string `gorm:"not null;index:idx_pair"`
	// Content is the text body, possibly empty for attachment-only messages.
	Content string `gorm:"type:text"`
	// FileURL and FileType describe an uploaded attachment, if any.
	FileURL  *string `gorm:"type:text"`
	FileType *string
	// SentAt is the sender-declared timestamp; history ordering uses it.
	SentAt time.Time `gorm:"index"`
}

// ToWire converts the record back to the wire shape served by the history
// endpoint, so a backlog entry is indistinguishable from a live one.
func (r MessageRecord) ToWire() WireMessage {
	return WireMessage{
		CorrelationID: r.CorrelationID,
		SenderID:      r.SenderID,
		ReceiverID:    r.ReceiverID,
		Content:       r.Content,
		Timestamp:     r.SentAt.UTC().Format(time.RFC3339Nano),
		FileURL:       r.FileURL,
		FileType:      r.FileType,
	}
}

// RecordFromWire builds the persisted row for an incoming wire message.
func RecordFromWire(w WireMessage) MessageRecord {
	ts, _ := time.Parse(time.RFC3339Nano, w.Timestamp)
	return MessageRecord{
		CorrelationID: w.CorrelationID,
		SenderID:      w.SenderID,
		ReceiverID:    w.ReceiverID,
		Content:       w.Content,
		FileURL:       w.FileURL,
		FileType:      w.FileType,
		SentAt:        ts,
	}
}
