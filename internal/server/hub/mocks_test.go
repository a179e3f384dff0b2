package hub_test

import (
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"

	"coachlink/messaging/internal/models"
)

// MockStorage is a testify mock of the storage.Storage interface.
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) SaveParticipant(p *models.ParticipantRecord) error {
	args := m.Called(p)
	return args.Error(0)
}

func (m *MockStorage) GetParticipant(id string) (*models.ParticipantRecord, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ParticipantRecord), args.Error(1)
}

func (m *MockStorage) GetRoster(participantID string) ([]models.ParticipantRecord, error) {
	args := m.Called(participantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ParticipantRecord), args.Error(1)
}

func (m *MockStorage) SaveMessage(rec *models.MessageRecord) error {
	args := m.Called(rec)
	return args.Error(0)
}

func (m *MockStorage) GetHistory(participantID, counterpartID string) ([]models.MessageRecord, error) {
	args := m.Called(participantID, counterpartID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MessageRecord), args.Error(1)
}

func (m *MockStorage) PublishInbound(participantID string, msg models.WireMessage) error {
	args := m.Called(participantID, msg)
	return args.Error(0)
}

func (m *MockStorage) SubscribeInboxes() *redis.PubSub {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*redis.PubSub)
}

// mockClient is an in-memory hub.Client.
type mockClient struct {
	id   string
	send chan models.WireMessage

	mu     sync.Mutex
	closed bool
}

func newMockClient(id string) *mockClient {
	return &mockClient{id: id, send: make(chan models.WireMessage, 10)}
}

func (c *mockClient) ParticipantID() string              { return c.id }
func (c *mockClient) Deliver() chan<- models.WireMessage { return c.send }
func (c *mockClient) Run()                               {}

func (c *mockClient) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *mockClient) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
