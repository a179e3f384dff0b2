package models

// Role distinguishes the two kinds of participants on the platform.
type Role string

const (
	RoleCoach  Role = "coach"
	RoleClient Role = "client"
)

// Participant identifies a signed-in coach or client. Created at sign-in and
// immutable for the session's duration.
type Participant struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Photo string `json:"photo"`
	Role  Role   `json:"role,omitempty"`
}

// AttachmentDraft is a transient, unsent file selected by the user. It lives
// only between selection and send (or discard) and is never persisted.
type AttachmentDraft struct {
	FileName string
	// MediaType is the type declared by the file picker. The composer
	// sniffs the bytes as well and only trusts this when sniffing is
	// inconclusive.
	MediaType string
	Data      []byte
	// Preview is a locally generated preview reference for the UI layer.
	Preview string
}
