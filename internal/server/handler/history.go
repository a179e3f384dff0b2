package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"coachlink/messaging/internal/models"
)

// GetHistory serves the ordered message backlog for a conversation pair.
// Only the participant side of the pair may ask for it.
func (h *Handler) GetHistory(c *gin.Context) {
	callerID, _, ok := h.authenticate(c)
	if !ok {
		return
	}
	participantID := c.Param("participantID")
	counterpartID := c.Param("counterpartID")
	if callerID != participantID {
		c.JSON(http.StatusForbidden, gin.H{"error": "History belongs to another participant"})
		return
	}

	records, err := h.Storage.GetHistory(participantID, counterpartID)
	if err != nil {
		h.log.Error("history query failed", "participant", participantID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load history"})
		return
	}

	wire := lo.Map(records, func(r models.MessageRecord, _ int) models.WireMessage {
		return r.ToWire()
	})
	c.JSON(http.StatusOK, wire)
}
