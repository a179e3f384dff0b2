// Package storage persists participants and relayed messages to PostgreSQL
// and fans messages out across relay instances through Redis pub/sub.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"coachlink/messaging/internal/models"
)

// ErrParticipantNotFound is returned for lookups of unknown participants.
var ErrParticipantNotFound = errors.New("storage: participant not found")

type Storage interface {
	SaveParticipant(p *models.ParticipantRecord) error
	GetParticipant(id string) (*models.ParticipantRecord, error)
	// GetRoster returns the counterparts of a participant: every client
	// assigned to a coach, or the single assigned coach of a client.
	GetRoster(participantID string) ([]models.ParticipantRecord, error)

	SaveMessage(rec *models.MessageRecord) error
	GetHistory(participantID, counterpartID string) ([]models.MessageRecord, error)

	PublishInbound(participantID string, msg models.WireMessage) error
	SubscribeInboxes() *redis.PubSub
}

type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
	Ctx   context.Context
}

// NewService Constructor
func NewService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
		Ctx:   context.Background(),
	}
}

func (s *Service) SaveParticipant(p *models.ParticipantRecord) error {
	return s.DB.Save(p).Error
}

func (s *Service) GetParticipant(id string) (*models.ParticipantRecord, error) {
	var rec models.ParticipantRecord
	err := s.DB.First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrParticipantNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Service) GetRoster(participantID string) ([]models.ParticipantRecord, error) {
	rec, err := s.GetParticipant(participantID)
	if err != nil {
		return nil, err
	}

	if rec.Role == string(models.RoleCoach) {
		var clients []models.ParticipantRecord
		err := s.DB.
			Where("coach_id = ?", participantID).
			Order("name asc").
			Find(&clients).Error
		if err != nil {
			return nil, err
		}
		return clients, nil
	}

	// A client converses only with the assigned coach.
	if rec.CoachID == nil {
		return nil, nil
	}
	coach, err := s.GetParticipant(*rec.CoachID)
	if err != nil {
		return nil, err
	}
	return []models.ParticipantRecord{*coach}, nil
}
