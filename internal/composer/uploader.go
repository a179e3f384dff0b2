package composer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"coachlink/messaging/internal/models"
)

// HTTPUploader posts attachment bytes to the relay's object store endpoint
// as a multipart form and returns the retrievable URL.
type HTTPUploader struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewHTTPUploader(baseURL, token string, client *http.Client) *HTTPUploader {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPUploader{baseURL: baseURL, token: token, client: client}
}

func (u *HTTPUploader) Upload(ctx context.Context, draft models.AttachmentDraft) (UploadedFile, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename=%q`, draft.FileName))
	header.Set("Content-Type", DetectMediaType(draft))
	part, err := form.CreatePart(header)
	if err != nil {
		return UploadedFile{}, err
	}
	if _, err := part.Write(draft.Data); err != nil {
		return UploadedFile{}, err
	}
	if err := form.Close(); err != nil {
		return UploadedFile{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.baseURL+"/upload", &body)
	if err != nil {
		return UploadedFile{}, err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+u.token)

	resp, err := u.client.Do(req)
	if err != nil {
		return UploadedFile{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return UploadedFile{}, fmt.Errorf("upload returned status %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
	}

	var uploaded UploadedFile
	if err := json.NewDecoder(resp.Body).Decode(&uploaded); err != nil {
		return UploadedFile{}, err
	}
	return uploaded, nil
}
