package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"

	"coachlink/messaging/internal/models"
)

const tokenTTL = 72 * time.Hour

// mintToken issues a session bearer token for a participant.
func (h *Handler) mintToken(p models.ParticipantRecord) (string, error) {
	claims := jwt.MapClaims{
		"sub":  p.ID,
		"name": p.Name,
		"role": p.Role,
		"exp":  time.Now().Add(tokenTTL).Unix(),
		"iss":  "coachlink-relay",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(h.jwtSecret)
}

// validateToken verifies a bearer token and returns the participant id and
// role baked into it.
func (h *Handler) validateToken(tokenString string) (participantID string, role models.Role, err error) {
	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return h.jwtSecret, nil
	})
	if err != nil {
		return "", "", err
	}
	sub, _ := claims["sub"].(string)
	r, _ := claims["role"].(string)
	if sub == "" {
		return "", "", fmt.Errorf("token has no subject")
	}
	return sub, models.Role(r), nil
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(c *gin.Context) (string, bool) {
	auth := c.GetHeader("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", false
	}
	return strings.TrimPrefix(auth, "Bearer "), true
}

// authenticate aborts with 401 unless the request carries a valid token.
func (h *Handler) authenticate(c *gin.Context) (string, models.Role, bool) {
	token, ok := bearerToken(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization token missing"})
		return "", "", false
	}
	id, role, err := h.validateToken(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token or expired"})
		return "", "", false
	}
	return id, role, true
}

type sessionRequest struct {
	ParticipantID string `json:"participantId" binding:"required"`
}

// CreateSession mints a token for an existing participant. Sign-in itself
// (passwords, OAuth) lives in the main platform backend; the relay only
// attributes channel traffic.
func (h *Handler) CreateSession(c *gin.Context) {
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "participantId is required"})
		return
	}

	rec, err := h.Storage.GetParticipant(req.ParticipantID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown participant"})
		return
	}

	token, err := h.mintToken(*rec)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "participant": rec.ToParticipant()})
}
