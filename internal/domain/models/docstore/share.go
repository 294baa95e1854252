package docstore

import (
	"time"
)

// DocumentShare grants a non-owner user VIEW or EDIT access to a document.
// At most one share row exists per (document_id, user_id) pair; re-sharing
// overwrites the permission instead of duplicating the row.
type DocumentShare struct {
	ID         string     `json:"id" db:"id"`
	DocumentID string     `json:"document_id" db:"document_id"`
	UserID     string     `json:"user_id" db:"user_id"`
	Permission Permission `json:"permission" db:"permission"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}
