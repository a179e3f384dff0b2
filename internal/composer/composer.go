// Package composer turns a user's send intent (text, optional attachment)
// into a committed wire message, uploading the attachment first if present.
package composer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"coachlink/messaging/internal/conversation"
	"coachlink/messaging/internal/models"
	"coachlink/messaging/internal/session"
)

// ErrNothingToCompose is returned when a compose action carries neither text
// nor an attachment. No message is built and nothing reaches the channel.
var ErrNothingToCompose = errors.New("composer: nothing to compose")

// ErrNoSelection is returned when no conversation is selected.
var ErrNoSelection = errors.New("composer: no conversation selected")

// ValidationError rejects an attachment before any network call is made.
type ValidationError struct {
	MediaType string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("composer: media type %q is not allowed, only image/* and video/*", e.MediaType)
}

// UploadError wraps an object-store failure. The draft has already been
// cleared when this is returned; the user must reselect the file.
type UploadError struct {
	Err error
}

func (e *UploadError) Error() string { return fmt.Sprintf("composer: upload failed: %v", e.Err) }
func (e *UploadError) Unwrap() error { return e.Err }

// UploadedFile is the object store's answer to a successful upload.
type UploadedFile struct {
	URL      string `json:"url"`
	MimeType string `json:"mimeType"`
}

// Uploader pushes attachment bytes to the binary object store.
type Uploader interface {
	Upload(ctx context.Context, draft models.AttachmentDraft) (UploadedFile, error)
}

// Sender is the outbound side of the channel manager.
type Sender interface {
	Send(models.WireMessage) error
}

// Selection exposes the directory's current counterpart.
type Selection interface {
	Current() (models.Participant, bool)
}

// ValidateMediaType enforces the attachment rule: only images and videos may
// be attached. Pure; callable before any draft state exists.
func ValidateMediaType(mediaType string) error {
	if strings.HasPrefix(mediaType, "image/") || strings.HasPrefix(mediaType, "video/") {
		return nil
	}
	return &ValidationError{MediaType: mediaType}
}

// DetectMediaType sniffs the draft bytes and falls back to the declared type
// when sniffing is inconclusive. File pickers routinely misreport types, so
// the bytes win when they say something concrete.
func DetectMediaType(draft models.AttachmentDraft) string {
	detected := mimetype.Detect(draft.Data)
	if detected.Is("application/octet-stream") && draft.MediaType != "" {
		return draft.MediaType
	}
	return detected.String()
}

// Composer holds at most one attachment draft and commits compose actions.
// The draft exists only between file selection and send or discard.
type Composer struct {
	session  session.Context
	uploader Uploader
	sender   Sender
	sel      Selection
	log      *conversation.Log

	mu    sync.Mutex
	draft *models.AttachmentDraft
}

func New(sess session.Context, uploader Uploader, sender Sender, sel Selection, log *conversation.Log) *Composer {
	return &Composer{
		session:  sess,
		uploader: uploader,
		sender:   sender,
		sel:      sel,
		log:      log,
	}
}

// AttachFile stages a draft. A media type outside image/* and video/* is
// rejected immediately, before any upload is attempted, and nothing is
// staged.
func (c *Composer) AttachFile(draft models.AttachmentDraft) error {
	if err := ValidateMediaType(DetectMediaType(draft)); err != nil {
		return err
	}
	c.mu.Lock()
	c.draft = &draft
	c.mu.Unlock()
	return nil
}

// Draft returns the staged attachment, if any.
func (c *Composer) Draft() (models.AttachmentDraft, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.draft == nil {
		return models.AttachmentDraft{}, false
	}
	return *c.draft, true
}

// DiscardDraft drops the staged attachment without sending.
func (c *Composer) DiscardDraft() {
	c.mu.Lock()
	c.draft = nil
	c.mu.Unlock()
}

// Compose commits the current intent: validates, uploads the draft if one is
// staged, builds the wire message with a fresh correlation id, and hands it
// to the channel. On successful hand-off the optimistic local copy is
// appended to the active log as local-pending; the backend echo later
// promotes it to confirmed-sent. On a rejected send nothing is appended.
func (c *Composer) Compose(ctx context.Context, text string) (models.Message, error) {
	c.mu.Lock()
	draft := c.draft
	c.mu.Unlock()

	if strings.TrimSpace(text) == "" && draft == nil {
		return models.Message{}, ErrNothingToCompose
	}
	counterpart, ok := c.sel.Current()
	if !ok {
		return models.Message{}, ErrNoSelection
	}

	msg := models.Message{
		CorrelationID: uuid.NewString(),
		SenderID:      c.session.ParticipantID,
		ReceiverID:    counterpart.ID,
		Content:       text,
		Timestamp:     time.Now().UTC(),
		Origin:        models.OriginLocalPending,
	}

	if draft != nil {
		mediaType := DetectMediaType(*draft)
		if err := ValidateMediaType(mediaType); err != nil {
			return models.Message{}, err
		}
		uploaded, err := c.uploader.Upload(ctx, *draft)
		if err != nil {
			// The draft does not survive a failed upload; the user
			// reselects the file.
			c.DiscardDraft()
			return models.Message{}, &UploadError{Err: err}
		}
		msg.FileURL = uploaded.URL
		msg.FileType = uploaded.MimeType
	}

	if err := c.sender.Send(msg.ToWire()); err != nil {
		return models.Message{}, err
	}

	c.DiscardDraft()
	c.log.Append(msg)
	return msg, nil
}
