package history_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coachlink/messaging/internal/history"
	"coachlink/messaging/internal/models"
)

func wireAt(corr, sender string, at time.Time, content string) models.WireMessage {
	return models.WireMessage{
		CorrelationID: corr,
		SenderID:      sender,
		ReceiverID:    "other",
		Content:       content,
		Timestamp:     at.UTC().Format(time.RFC3339Nano),
	}
}

func TestHTTPLoader_LoadOrdersAndTagsOrigin(t *testing.T) {
	base := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/history/coach-1/client-7", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		// Server returns m2 before m1 on purpose.
		json.NewEncoder(w).Encode([]models.WireMessage{
			wireAt("m2", "client-7", base.Add(time.Minute), "reply"),
			wireAt("m1", "coach-1", base, "question"),
		})
	}))
	defer srv.Close()

	loader := history.NewHTTPLoader(srv.URL, "tok", srv.Client())
	msgs, err := loader.Load(context.Background(), "coach-1", "client-7")

	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "question", msgs[0].Content)
	assert.Equal(t, models.OriginConfirmedSent, msgs[0].Origin, "own messages come back as confirmed-sent")
	assert.Equal(t, "reply", msgs[1].Content)
	assert.Equal(t, models.OriginReceived, msgs[1].Origin)
}

func TestHTTPLoader_LoadErrorIsFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	loader := history.NewHTTPLoader(srv.URL, "tok", srv.Client())
	_, err := loader.Load(context.Background(), "coach-1", "client-7")

	var fe *history.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "client-7", fe.CounterpartID)
}
