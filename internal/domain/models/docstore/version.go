package docstore

import (
	"time"
)

// DocumentVersion is an immutable snapshot of a document's file content.
// VersionNumber is monotonic per document, starting at 1.
type DocumentVersion struct {
	ID                string    `json:"id" db:"id"`
	DocumentID        string    `json:"document_id" db:"document_id"`
	VersionNumber     int       `json:"version_number" db:"version_number"`
	FileLocation      string    `json:"file_location" db:"file_location"`
	FileSize          int64     `json:"file_size" db:"file_size"`
	CreatedByID       string    `json:"created_by_id" db:"created_by_id"`
	ChangeDescription *string   `json:"change_description,omitempty" db:"change_description"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}
