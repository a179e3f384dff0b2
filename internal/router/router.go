// Package router moves inbound channel events into the active conversation
// log, or drops them.
package router

import (
	"log/slog"

	"coachlink/messaging/internal/conversation"
	"coachlink/messaging/internal/models"
	"coachlink/messaging/internal/session"
)

// Selection exposes the directory's current counterpart.
type Selection interface {
	Current() (models.Participant, bool)
}

// Router is the single registered inbound handler of the channel manager.
type Router struct {
	session session.Context
	sel     Selection
	log     *conversation.Log
	slog    *slog.Logger

	// OnMessage signals the presentation layer after an inbound event
	// changed the visible log. Set before registering the router.
	OnMessage func(models.Message)
}

func New(sess session.Context, sel Selection, log *conversation.Log, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{session: sess, sel: sel, log: log, slog: logger}
}

// HandleInbound routes one channel event. Events from the currently selected
// counterpart are appended in arrival order; an echo of the session's own
// send promotes the optimistic copy to confirmed-sent; everything else is
// dropped, not queued. Reselecting that conversation later refetches
// history, which already includes the dropped message server-side.
func (r *Router) HandleInbound(w models.WireMessage) {
	if w.SenderID == r.session.ParticipantID {
		if r.log.ConfirmSent(w.CorrelationID) {
			r.notify(w.ToMessage(models.OriginConfirmedSent))
		}
		return
	}

	current, ok := r.sel.Current()
	if !ok || current.ID != w.SenderID {
		r.slog.Debug("dropped event for non-selected conversation", "sender", w.SenderID)
		return
	}

	msg := w.ToMessage(models.OriginReceived)
	if r.log.Append(msg) {
		r.notify(msg)
	}
}

func (r *Router) notify(m models.Message) {
	if r.OnMessage != nil {
		r.OnMessage(m)
	}
}
