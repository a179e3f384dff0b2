package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/samber/lo"

	"coachlink/messaging/internal/models"
)

// rosterEntry is the descriptor served by the roster endpoint.
type rosterEntry struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Photo string `json:"photo"`
	Role  string `json:"role"`
}

// HTTPRoster fetches counterpart descriptors from the relay.
type HTTPRoster struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewHTTPRoster(baseURL, token string, client *http.Client) *HTTPRoster {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPRoster{baseURL: baseURL, token: token, client: client}
}

func (r *HTTPRoster) Roster(ctx context.Context, participantID string) ([]models.Participant, error) {
	url := fmt.Sprintf("%s/roster/%s", r.baseURL, participantID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+r.token)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("roster request returned status %d", resp.StatusCode)
	}

	var entries []rosterEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, err
	}

	return lo.Map(entries, func(e rosterEntry, _ int) models.Participant {
		return models.Participant{
			ID:    e.ID,
			Name:  e.Name,
			Photo: e.Photo,
			Role:  models.Role(e.Role),
		}
	}), nil
}
