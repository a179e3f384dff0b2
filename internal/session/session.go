// Package session carries the signed-in participant's identity through the
// messaging core. Components receive a Context value in their constructors
// instead of reading ambient globals.
package session

import (
	"fmt"

	jwt "github.com/golang-jwt/jwt/v5"

	"coachlink/messaging/internal/models"
)

// Context identifies the signed-in participant and holds the bearer token
// presented to every backend surface (channel, history, roster, upload).
type Context struct {
	ParticipantID string
	DisplayName   string
	Role          models.Role
	Token         string
}

// Self returns the participant descriptor for the session owner.
func (c Context) Self() models.Participant {
	return models.Participant{ID: c.ParticipantID, Name: c.DisplayName, Role: c.Role}
}

// FromToken extracts the session identity from a bearer token issued by the
// relay. Claims are read without signature verification: the client is not a
// party to the signing secret, and the relay re-verifies the token on every
// request anyway.
func FromToken(token string) (Context, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return Context{}, fmt.Errorf("session: parse token: %w", err)
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return Context{}, fmt.Errorf("session: token has no subject claim")
	}
	name, _ := claims["name"].(string)
	role, _ := claims["role"].(string)
	switch models.Role(role) {
	case models.RoleCoach, models.RoleClient:
	default:
		return Context{}, fmt.Errorf("session: unknown role claim %q", role)
	}

	return Context{
		ParticipantID: sub,
		DisplayName:   name,
		Role:          models.Role(role),
		Token:         token,
	}, nil
}
