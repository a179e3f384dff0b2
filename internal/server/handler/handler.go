// Package handler exposes the relay's HTTP surface: session tokens, roster,
// history, attachment upload, and the websocket upgrade.
package handler

import (
	"log/slog"

	"coachlink/messaging/internal/server/hub"
	"coachlink/messaging/internal/storage"
)

type Handler struct {
	Hub     *hub.Hub
	Storage storage.Storage

	jwtSecret []byte
	uploadDir string
	publicURL string
	log       *slog.Logger
}

func New(h *hub.Hub, s storage.Storage, jwtSecret, uploadDir, publicURL string, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		Hub:       h,
		Storage:   s,
		jwtSecret: []byte(jwtSecret),
		uploadDir: uploadDir,
		publicURL: publicURL,
		log:       log,
	}
}
