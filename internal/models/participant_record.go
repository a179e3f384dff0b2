package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// ParticipantRecord is the persisted account row behind a Participant.
type ParticipantRecord struct {
	ID    string `gorm:"primaryKey" json:"id"` // UUID
	Name  string `gorm:"not null" json:"name"`
	Role  string `gorm:"not null;index" json:"role"` // "coach" | "client"
	Photo string `json:"photo"`
	// CoachID links a client to their assigned coach. Nil for coaches.
	CoachID *string `gorm:"index" json:"coach_id,omitempty"`
	// Goals holds the client's coaching goal tags.
	Goals pq.StringArray `gorm:"type:text[]" json:"goals,omitempty"`
}

// BeforeCreate generates a UUID for the participant if the ID is not set yet.
func (p *ParticipantRecord) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return
}

// ToParticipant maps the record to the session-facing descriptor.
func (p ParticipantRecord) ToParticipant() Participant {
	return Participant{
		ID:    p.ID,
		Name:  p.Name,
		Photo: p.Photo,
		Role:  Role(p.Role),
	}
}
