package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"coachlink/messaging/internal/models"
)

type rosterEntry struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Photo string `json:"photo"`
	Role  string `json:"role"`
}

// GetRoster serves the counterpart descriptors for a participant: a coach's
// active clients, or a client's single assigned coach.
func (h *Handler) GetRoster(c *gin.Context) {
	callerID, _, ok := h.authenticate(c)
	if !ok {
		return
	}
	participantID := c.Param("participantID")
	if callerID != participantID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Roster belongs to another participant"})
		return
	}

	records, err := h.Storage.GetRoster(participantID)
	if err != nil {
		h.log.Error("roster query failed", "participant", participantID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load roster"})
		return
	}

	entries := lo.Map(records, func(r models.ParticipantRecord, _ int) rosterEntry {
		return rosterEntry{ID: r.ID, Name: r.Name, Photo: r.Photo, Role: r.Role}
	})
	c.JSON(http.StatusOK, entries)
}
