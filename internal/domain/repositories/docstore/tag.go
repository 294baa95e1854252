package docstore

import (
	"context"

	"dokudoku/internal/domain/models/docstore"
)

// TagRepository defines data access operations for tags and the
// document-tag association.
type TagRepository interface {
	// Create creates a tag. Names are unique per owner, case-insensitively.
	Create(ctx context.Context, tag *docstore.Tag) error

	// GetByID retrieves a tag by ID.
	GetByID(ctx context.Context, id string) (*docstore.Tag, error)

	// GetByName finds an owner's tag by name (case-insensitive), or nil.
	GetByName(ctx context.Context, ownerID, name string) (*docstore.Tag, error)

	// ListByOwner lists an owner's tags ordered by name.
	ListByOwner(ctx context.Context, ownerID string) ([]docstore.Tag, error)

	// Delete removes a tag and its document associations.
	Delete(ctx context.Context, id string) error

	// Attach links a tag to a document. Idempotent.
	Attach(ctx context.Context, documentID, tagID string) error

	// Detach unlinks a tag from a document. Idempotent.
	Detach(ctx context.Context, documentID, tagID string) error

	// ListByDocument lists the tags attached to a document.
	ListByDocument(ctx context.Context, documentID string) ([]docstore.Tag, error)

	// DetachByDocuments removes all tag links of the given documents.
	DetachByDocuments(ctx context.Context, documentIDs []string) error
}
