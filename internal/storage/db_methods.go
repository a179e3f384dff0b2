package storage

import (
	"encoding/json"
	"errors"
	"log"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"coachlink/messaging/internal/models"
)

// inboxChannel is the Redis pub/sub channel for one participant's inbound
// messages. Every relay instance psubscribes to the whole prefix.
func inboxChannel(participantID string) string {
	return "inbox:" + participantID
}

// SaveMessage stores a relayed message. The unique correlation id index
// turns a reconnect replay into a no-op instead of a duplicate row.
func (s *Service) SaveMessage(rec *models.MessageRecord) error {
	err := s.DB.Create(rec).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil
	}
	if err != nil {
		log.Printf("ERROR: Failed to save message %s: %v", rec.CorrelationID, err)
		return err
	}
	return nil
}

// GetHistory returns the full message log between a participant pair,
// ordered by send time ascending.
func (s *Service) GetHistory(participantID, counterpartID string) ([]models.MessageRecord, error) {
	var records []models.MessageRecord
	err := s.DB.
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			participantID, counterpartID, counterpartID, participantID).
		Order("sent_at asc").
		Find(&records).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return records, nil
		}
		return nil, err
	}
	return records, nil
}

// PublishInbound publishes a message into a participant's inbox channel.
func (s *Service) PublishInbound(participantID string, msg models.WireMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return s.Redis.Publish(s.Ctx, inboxChannel(participantID), payload).Err()
}

// SubscribeInboxes subscribes to every participant inbox on this Redis.
func (s *Service) SubscribeInboxes() *redis.PubSub {
	return s.Redis.PSubscribe(s.Ctx, "inbox:*")
}
