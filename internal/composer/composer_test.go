package composer_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"coachlink/messaging/internal/channel"
	"coachlink/messaging/internal/composer"
	"coachlink/messaging/internal/conversation"
	"coachlink/messaging/internal/models"
	"coachlink/messaging/internal/session"
)

type MockUploader struct {
	mock.Mock
}

func (m *MockUploader) Upload(ctx context.Context, draft models.AttachmentDraft) (composer.UploadedFile, error) {
	args := m.Called(ctx, draft)
	return args.Get(0).(composer.UploadedFile), args.Error(1)
}

type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(w models.WireMessage) error {
	args := m.Called(w)
	return args.Error(0)
}

type fixedSelection struct {
	counterpart *models.Participant
}

func (s fixedSelection) Current() (models.Participant, bool) {
	if s.counterpart == nil {
		return models.Participant{}, false
	}
	return *s.counterpart, true
}

// pngBytes carries the PNG magic so mimetype sniffing sees a real image.
var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

// pdfBytes sniff as application/pdf regardless of the declared type.
var pdfBytes = []byte("%PDF-1.7 fake body")

func newComposer(uploader *MockUploader, sender *MockSender, log *conversation.Log) *composer.Composer {
	sess := session.Context{ParticipantID: "coach-1", Role: models.RoleCoach, Token: "t"}
	sel := fixedSelection{counterpart: &models.Participant{ID: "client-1"}}
	return composer.New(sess, uploader, sender, sel, log)
}

func TestValidateMediaType(t *testing.T) {
	assert.NoError(t, composer.ValidateMediaType("image/png"))
	assert.NoError(t, composer.ValidateMediaType("video/mp4"))

	for _, mt := range []string{"application/pdf", "text/plain", "audio/mpeg", ""} {
		err := composer.ValidateMediaType(mt)
		var ve *composer.ValidationError
		assert.ErrorAs(t, err, &ve, mt)
	}
}

func TestComposer_AttachFileRejectsNonMediaBeforeUpload(t *testing.T) {
	uploader := new(MockUploader)
	sender := new(MockSender)
	c := newComposer(uploader, sender, conversation.NewLog())

	err := c.AttachFile(models.AttachmentDraft{
		FileName:  "plan.pdf",
		MediaType: "application/pdf",
		Data:      pdfBytes,
	})

	var ve *composer.ValidationError
	require.ErrorAs(t, err, &ve)
	_, staged := c.Draft()
	assert.False(t, staged, "rejected drafts must not be staged")
	uploader.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
}

func TestComposer_SniffingOverridesDeclaredType(t *testing.T) {
	c := newComposer(new(MockUploader), new(MockSender), conversation.NewLog())

	// A PDF renamed to .png with a lying declared type still gets rejected.
	err := c.AttachFile(models.AttachmentDraft{
		FileName:  "sneaky.png",
		MediaType: "image/png",
		Data:      pdfBytes,
	})

	var ve *composer.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestComposer_EmptyComposeIsNoOp(t *testing.T) {
	uploader := new(MockUploader)
	sender := new(MockSender)
	log := conversation.NewLog()
	c := newComposer(uploader, sender, log)

	_, err := c.Compose(context.Background(), "   ")

	assert.ErrorIs(t, err, composer.ErrNothingToCompose)
	assert.Equal(t, 0, log.Len())
	sender.AssertNotCalled(t, "Send", mock.Anything)
}

func TestComposer_SendRejectedAppendsNothing(t *testing.T) {
	sender := new(MockSender)
	sender.On("Send", mock.AnythingOfType("models.WireMessage")).Return(channel.ErrSendRejected)
	log := conversation.NewLog()
	c := newComposer(new(MockUploader), sender, log)

	_, err := c.Compose(context.Background(), "hello")

	assert.ErrorIs(t, err, channel.ErrSendRejected)
	assert.Equal(t, 0, log.Len(), "a rejected send must not leave a ghost message in the log")
}

func TestComposer_UploadFailureClearsDraft(t *testing.T) {
	uploader := new(MockUploader)
	uploader.On("Upload", mock.Anything, mock.AnythingOfType("models.AttachmentDraft")).
		Return(composer.UploadedFile{}, assert.AnError)
	sender := new(MockSender)
	log := conversation.NewLog()
	c := newComposer(uploader, sender, log)

	require.NoError(t, c.AttachFile(models.AttachmentDraft{
		FileName:  "photo.png",
		MediaType: "image/png",
		Data:      pngBytes,
	}))

	_, err := c.Compose(context.Background(), "check this out")

	var ue *composer.UploadError
	require.ErrorAs(t, err, &ue)
	_, staged := c.Draft()
	assert.False(t, staged, "the draft does not survive a failed upload")
	assert.Equal(t, 0, log.Len())
	sender.AssertNotCalled(t, "Send", mock.Anything)
}

func TestComposer_TextOnlyComposeAppendsPendingCopy(t *testing.T) {
	sender := new(MockSender)
	sender.On("Send", mock.AnythingOfType("models.WireMessage")).Return(nil)
	log := conversation.NewLog()
	c := newComposer(new(MockUploader), sender, log)

	msg, err := c.Compose(context.Background(), "hello")

	require.NoError(t, err)
	assert.NotEmpty(t, msg.CorrelationID)
	assert.Equal(t, "coach-1", msg.SenderID)
	assert.Equal(t, "client-1", msg.ReceiverID)

	snap := log.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, models.OriginLocalPending, snap[0].Origin)

	sent := sender.Calls[0].Arguments.Get(0).(models.WireMessage)
	assert.Equal(t, msg.CorrelationID, sent.CorrelationID)
	assert.Nil(t, sent.FileURL)
}

func TestComposer_AttachmentComposeCarriesUploadedURL(t *testing.T) {
	uploader := new(MockUploader)
	uploader.On("Upload", mock.Anything, mock.AnythingOfType("models.AttachmentDraft")).
		Return(composer.UploadedFile{URL: "https://cdn.local/a.png", MimeType: "image/png"}, nil)
	sender := new(MockSender)
	sender.On("Send", mock.AnythingOfType("models.WireMessage")).Return(nil)
	log := conversation.NewLog()
	c := newComposer(uploader, sender, log)

	require.NoError(t, c.AttachFile(models.AttachmentDraft{
		FileName:  "a.png",
		MediaType: "image/png",
		Data:      pngBytes,
	}))

	msg, err := c.Compose(context.Background(), "")

	require.NoError(t, err)
	assert.Equal(t, "https://cdn.local/a.png", msg.FileURL)
	assert.Equal(t, "image/png", msg.FileType)

	_, staged := c.Draft()
	assert.False(t, staged, "the draft is consumed by a successful compose")

	sent := sender.Calls[0].Arguments.Get(0).(models.WireMessage)
	require.NotNil(t, sent.FileURL)
	assert.Equal(t, "https://cdn.local/a.png", *sent.FileURL)
}

func TestComposer_NoSelection(t *testing.T) {
	sess := session.Context{ParticipantID: "coach-1", Role: models.RoleCoach}
	c := composer.New(sess, new(MockUploader), new(MockSender), fixedSelection{}, conversation.NewLog())

	_, err := c.Compose(context.Background(), "hello")

	assert.ErrorIs(t, err, composer.ErrNoSelection)
}
