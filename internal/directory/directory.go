// Package directory resolves who the signed-in participant may converse with
// and tracks which conversation is currently selected.
package directory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"coachlink/messaging/internal/conversation"
	"coachlink/messaging/internal/history"
	"coachlink/messaging/internal/models"
	"coachlink/messaging/internal/session"
)

// RosterProvider returns the counterparts a participant may talk to: the
// list of active clients for a coach, the single assigned coach for a client.
type RosterProvider interface {
	Roster(ctx context.Context, participantID string) ([]models.Participant, error)
}

// Directory owns the roster and the selected-conversation state. Exactly one
// instance exists per signed-in session.
type Directory struct {
	session session.Context
	roster  RosterProvider
	loader  history.Loader
	log     *conversation.Log
	slog    *slog.Logger

	// OnChange is fired whenever the visible log may have changed; OnError
	// carries user-displayable failures (history fetch). Set both before
	// Init; the zero value drops the notification.
	OnChange func()
	OnError  func(error)

	mu           sync.Mutex
	counterparts []models.Participant
	current      *models.Participant
	// selToken tags each history fetch with the selection active at
	// dispatch time; a completion whose token no longer matches is stale
	// and discarded.
	selToken uint64
}

func New(sess session.Context, roster RosterProvider, loader history.Loader, log *conversation.Log, logger *slog.Logger) *Directory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Directory{
		session: sess,
		roster:  roster,
		loader:  loader,
		log:     log,
		slog:    logger,
	}
}

// Init fetches the roster. For a client the counterpart is fixed to the
// assigned coach, so the selection is populated right away without any
// selection UI.
func (d *Directory) Init(ctx context.Context) error {
	list, err := d.roster.Roster(ctx, d.session.ParticipantID)
	if err != nil {
		return fmt.Errorf("directory: roster: %w", err)
	}

	d.mu.Lock()
	d.counterparts = list
	d.mu.Unlock()

	if d.session.Role == models.RoleClient && len(list) > 0 {
		d.Select(ctx, list[0])
	}
	return nil
}

// Counterparts returns the selectable counterparts.
func (d *Directory) Counterparts() []models.Participant {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]models.Participant, len(d.counterparts))
	copy(out, d.counterparts)
	return out
}

// Current returns the selected counterpart, if any.
func (d *Directory) Current() (models.Participant, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.current == nil {
		return models.Participant{}, false
	}
	return *d.current, true
}

// Select makes counterpart the active conversation: the previous log is
// cleared and a history fetch is dispatched. An in-flight fetch for a
// previously selected counterpart is not cancelled; its late result is
// discarded by the token guard when it lands.
func (d *Directory) Select(ctx context.Context, counterpart models.Participant) {
	d.mu.Lock()
	cp := counterpart
	d.current = &cp
	d.selToken++
	token := d.selToken
	d.log.Clear()
	d.log.BeginBacklog()
	d.mu.Unlock()

	d.notifyChange()
	go d.fetchBacklog(ctx, token, counterpart)
}

func (d *Directory) fetchBacklog(ctx context.Context, token uint64, counterpart models.Participant) {
	msgs, err := d.loader.Load(ctx, d.session.ParticipantID, counterpart.ID)

	d.mu.Lock()
	if token != d.selToken {
		d.mu.Unlock()
		d.slog.Debug("discarding stale history response", "counterpart", counterpart.ID)
		return
	}
	if err != nil {
		// Flush whatever arrived live during the fetch; the selection stays
		// active so reselecting retries.
		d.log.InstallBacklog(nil)
		d.mu.Unlock()
		d.notifyError(err)
		d.notifyChange()
		return
	}
	d.log.InstallBacklog(msgs)
	d.mu.Unlock()
	d.notifyChange()
}

func (d *Directory) notifyChange() {
	if d.OnChange != nil {
		d.OnChange()
	}
}

func (d *Directory) notifyError(err error) {
	if d.OnError != nil {
		d.OnError(err)
	}
}
