package directory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"coachlink/messaging/internal/conversation"
	"coachlink/messaging/internal/directory"
	"coachlink/messaging/internal/models"
	"coachlink/messaging/internal/session"
)

type MockRoster struct {
	mock.Mock
}

func (m *MockRoster) Roster(ctx context.Context, participantID string) ([]models.Participant, error) {
	args := m.Called(ctx, participantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Participant), args.Error(1)
}

// fakeLoader is a history loader whose responses can be held back per
// counterpart, to simulate slow fetches.
type fakeLoader struct {
	mu      sync.Mutex
	calls   []string
	gates   map[string]chan struct{}
	results map[string][]models.Message
	errs    map[string]error
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{
		gates:   make(map[string]chan struct{}),
		results: make(map[string][]models.Message),
		errs:    make(map[string]error),
	}
}

func (f *fakeLoader) hold(counterpartID string) chan struct{} {
	gate := make(chan struct{})
	f.mu.Lock()
	f.gates[counterpartID] = gate
	f.mu.Unlock()
	return gate
}

func (f *fakeLoader) Load(ctx context.Context, participantID, counterpartID string) ([]models.Message, error) {
	f.mu.Lock()
	f.calls = append(f.calls, counterpartID)
	gate := f.gates[counterpartID]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.results[counterpartID], f.errs[counterpartID]
}

func (f *fakeLoader) callCount(counterpartID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == counterpartID {
			n++
		}
	}
	return n
}

func coachSession() session.Context {
	return session.Context{ParticipantID: "coach-1", Role: models.RoleCoach, Token: "t"}
}

func received(corr, sender, content string, at time.Time) models.Message {
	return models.Message{
		CorrelationID: corr, SenderID: sender, Content: content,
		Timestamp: at, Origin: models.OriginReceived,
	}
}

func TestDirectory_InitCoachListsClientsWithoutSelecting(t *testing.T) {
	roster := new(MockRoster)
	clients := []models.Participant{
		{ID: "client-1", Name: "Ira"},
		{ID: "client-2", Name: "Olena"},
	}
	roster.On("Roster", mock.Anything, "coach-1").Return(clients, nil)

	d := directory.New(coachSession(), roster, newFakeLoader(), conversation.NewLog(), nil)
	require.NoError(t, d.Init(context.Background()))

	assert.Equal(t, clients, d.Counterparts())
	_, selected := d.Current()
	assert.False(t, selected, "a coach has no preselected conversation")
}

func TestDirectory_InitClientAutoSelectsAssignedCoach(t *testing.T) {
	roster := new(MockRoster)
	roster.On("Roster", mock.Anything, "client-1").Return(
		[]models.Participant{{ID: "coach-9", Name: "Coach"}}, nil)

	loader := newFakeLoader()
	log := conversation.NewLog()
	sess := session.Context{ParticipantID: "client-1", Role: models.RoleClient, Token: "t"}
	d := directory.New(sess, roster, loader, log, nil)
	require.NoError(t, d.Init(context.Background()))

	cur, selected := d.Current()
	require.True(t, selected)
	assert.Equal(t, "coach-9", cur.ID)
	require.Eventually(t, func() bool {
		return loader.callCount("coach-9") == 1
	}, time.Second, 5*time.Millisecond)
}

func TestDirectory_SelectInstallsBacklogInOrder(t *testing.T) {
	base := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	loader := newFakeLoader()
	loader.results["client-1"] = []models.Message{
		received("m1", "client-1", "m1", base),
		received("m2", "client-1", "m2", base.Add(time.Second)),
	}
	log := conversation.NewLog()
	d := directory.New(coachSession(), new(MockRoster), loader, log, nil)

	d.Select(context.Background(), models.Participant{ID: "client-1"})

	require.Eventually(t, func() bool { return log.Len() == 2 }, time.Second, 5*time.Millisecond)
	snap := log.Snapshot()
	assert.Equal(t, []string{"m1", "m2"}, []string{snap[0].Content, snap[1].Content})
}

// Switching away must not let the previous counterpart's late history
// response clobber the new selection.
func TestDirectory_StaleHistoryResponseIsDiscarded(t *testing.T) {
	base := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	loader := newFakeLoader()
	gateA := loader.hold("client-a")
	loader.results["client-a"] = []models.Message{received("a1", "client-a", "from A", base)}
	loader.results["client-b"] = []models.Message{received("b1", "client-b", "from B", base)}

	log := conversation.NewLog()
	d := directory.New(coachSession(), new(MockRoster), loader, log, nil)

	d.Select(context.Background(), models.Participant{ID: "client-a"})
	d.Select(context.Background(), models.Participant{ID: "client-b"})

	require.Eventually(t, func() bool { return log.Len() == 1 }, time.Second, 5*time.Millisecond)

	// A's fetch finally completes and must be dropped.
	close(gateA)
	time.Sleep(50 * time.Millisecond)

	snap := log.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "from B", snap[0].Content)
}

func TestDirectory_ReselectTriggersFreshFetch(t *testing.T) {
	loader := newFakeLoader()
	d := directory.New(coachSession(), new(MockRoster), loader, conversation.NewLog(), nil)

	ctx := context.Background()
	d.Select(ctx, models.Participant{ID: "client-a"})
	d.Select(ctx, models.Participant{ID: "client-b"})
	d.Select(ctx, models.Participant{ID: "client-a"})

	require.Eventually(t, func() bool {
		return loader.callCount("client-a") == 2 && loader.callCount("client-b") == 1
	}, time.Second, 5*time.Millisecond)
}

func TestDirectory_FetchFailureKeepsSelectionAndSurfacesError(t *testing.T) {
	loader := newFakeLoader()
	loader.errs["client-1"] = assert.AnError

	var mu sync.Mutex
	var got error
	d := directory.New(coachSession(), new(MockRoster), loader, conversation.NewLog(), nil)
	d.OnError = func(err error) {
		mu.Lock()
		got = err
		mu.Unlock()
	}

	d.Select(context.Background(), models.Participant{ID: "client-1"})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return got != nil
	}, time.Second, 5*time.Millisecond)

	cur, selected := d.Current()
	assert.True(t, selected, "selection survives a failed fetch")
	assert.Equal(t, "client-1", cur.ID)
}
