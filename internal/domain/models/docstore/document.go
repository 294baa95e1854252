package docstore

import (
	"time"
)

// Document is a registered file. The bytes live in blob storage under the
// opaque FileLocation key; this layer never inspects file content.
// CurrentVersion always points at an existing row in the version history.
type Document struct {
	ID             string    `json:"id" db:"id"`
	OwnerID        string    `json:"owner_id" db:"owner_id"`
	FolderID       *string   `json:"folder_id" db:"folder_id"` // NULL = root level
	Title          string    `json:"title" db:"title"`
	Description    *string   `json:"description,omitempty" db:"description"`
	FileLocation   string    `json:"file_location" db:"file_location"`
	FileType       string    `json:"file_type" db:"file_type"`
	FileSize       int64     `json:"file_size" db:"file_size"`
	CurrentVersion int       `json:"current_version" db:"current_version"`
	Path           string    `json:"path,omitempty"` // Computed display path, not stored in DB
	Tags           []Tag     `json:"tags,omitempty"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}
