package client_test

import (
	"testing"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coachlink/messaging/internal/client"
)

func testToken(t *testing.T, role string) string {
	claims := jwt.MapClaims{"sub": "p-1", "name": "Maiia", "role": role}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	return token
}

func TestNew_BuildsStackFromToken(t *testing.T) {
	c, err := client.New(client.Options{
		BaseURL: "http://relay.local/",
		Token:   testToken(t, "coach"),
	})

	require.NoError(t, err)
	assert.Equal(t, "p-1", c.Session.ParticipantID)
	assert.NotNil(t, c.Channel)
	assert.NotNil(t, c.Directory)
	assert.NotNil(t, c.Composer)
	assert.NotNil(t, c.Router)
	assert.Zero(t, c.Log.Len())
}

func TestNew_RejectsUnusableInputs(t *testing.T) {
	_, err := client.New(client.Options{BaseURL: "http://relay.local", Token: "garbage"})
	assert.Error(t, err)

	_, err = client.New(client.Options{BaseURL: "relay.local", Token: testToken(t, "client")})
	assert.Error(t, err)
}
