package docstore

import (
	"time"
)

// Tag is an owner-scoped label attached to documents (many-to-many).
// Names are unique per owner, compared case-insensitively.
type Tag struct {
	ID        string    `json:"id" db:"id"`
	OwnerID   string    `json:"owner_id" db:"owner_id"`
	Name      string    `json:"name" db:"name"`
	Color     string    `json:"color" db:"color"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
