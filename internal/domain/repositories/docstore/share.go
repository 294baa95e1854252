package docstore

import (
	"context"

	"dokudoku/internal/domain/models/docstore"
)

// ShareRepository defines data access operations for document shares.
type ShareRepository interface {
	// Upsert inserts a share or, if one exists for the (document, user)
	// pair, overwrites its permission. Never duplicates rows.
	Upsert(ctx context.Context, share *docstore.DocumentShare) error

	// Get retrieves the share for a (document, user) pair, or nil.
	Get(ctx context.Context, documentID, userID string) (*docstore.DocumentShare, error)

	// Delete removes the share for a (document, user) pair. Returns false
	// when no share existed; that is not an error.
	Delete(ctx context.Context, documentID, userID string) (bool, error)

	// ListByDocument lists all shares of a document.
	ListByDocument(ctx context.Context, documentID string) ([]docstore.DocumentShare, error)

	// DeleteByDocuments removes all shares of the given documents.
	DeleteByDocuments(ctx context.Context, documentIDs []string) error
}
