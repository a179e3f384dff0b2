package handler

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// maxUploadBytes bounds a single attachment.
const maxUploadBytes = 20 << 20

// Upload accepts one multipart file, verifies it really is an image or a
// video by sniffing the bytes, stores it, and returns the retrievable URL.
func (h *Handler) Upload(c *gin.Context) {
	if _, _, ok := h.authenticate(c); !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A 'file' form field is required"})
		return
	}
	if fileHeader.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Attachment exceeds the 20 MB limit"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unreadable upload"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unreadable upload"})
		return
	}

	detected := mimetype.Detect(data)
	if !strings.HasPrefix(detected.String(), "image/") && !strings.HasPrefix(detected.String(), "video/") {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": fmt.Sprintf("Only image and video attachments are allowed, got %s", detected.String()),
		})
		return
	}

	name := uuid.NewString() + detected.Extension()
	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		h.log.Error("upload dir unavailable", "dir", h.uploadDir, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store attachment"})
		return
	}
	if err := os.WriteFile(filepath.Join(h.uploadDir, name), data, 0o644); err != nil {
		h.log.Error("attachment write failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store attachment"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":      h.publicURL + "/uploads/" + name,
		"mimeType": detected.String(),
	})
}
