// Package history fetches the persisted message backlog between the current
// participant and a counterpart.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"coachlink/messaging/internal/models"
)

// FetchError is surfaced when the backlog could not be retrieved. The active
// selection stays valid so the user can retry by reselecting.
type FetchError struct {
	CounterpartID string
	Err           error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("history: fetch for counterpart %s failed: %v", e.CounterpartID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Loader retrieves the ordered prior message log for a conversation pair.
type Loader interface {
	Load(ctx context.Context, participantID, counterpartID string) ([]models.Message, error)
}

// HTTPLoader talks to the relay's history endpoint.
type HTTPLoader struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewHTTPLoader(baseURL, token string, client *http.Client) *HTTPLoader {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPLoader{baseURL: baseURL, token: token, client: client}
}

// Load performs a single bounded fetch. The relay already orders by send
// time, but the order is re-established locally with a stable sort so the
// monotonic log invariant never depends on the server.
func (l *HTTPLoader) Load(ctx context.Context, participantID, counterpartID string) ([]models.Message, error) {
	url := fmt.Sprintf("%s/history/%s/%s", l.baseURL, participantID, counterpartID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{CounterpartID: counterpartID, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+l.token)

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, &FetchError{CounterpartID: counterpartID, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{
			CounterpartID: counterpartID,
			Err:           fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	var wire []models.WireMessage
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, &FetchError{CounterpartID: counterpartID, Err: err}
	}

	msgs := make([]models.Message, 0, len(wire))
	for _, w := range wire {
		origin := models.OriginReceived
		if w.SenderID == participantID {
			origin = models.OriginConfirmedSent
		}
		msgs = append(msgs, w.ToMessage(origin))
	}
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].Timestamp.Before(msgs[j].Timestamp)
	})
	return msgs, nil
}
