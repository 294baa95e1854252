package docstore

import (
	"context"

	"dokudoku/internal/domain/models/docstore"
)

// VersionRepository defines data access operations for document versions.
// Version rows are immutable once created.
type VersionRepository interface {
	// Create inserts a version row. A unique constraint on
	// (document_id, version_number) backs the serialization guarantee.
	Create(ctx context.Context, version *docstore.DocumentVersion) error

	// ListByDocument lists versions ascending by version number.
	ListByDocument(ctx context.Context, documentID string) ([]docstore.DocumentVersion, error)

	// DeleteByDocuments removes all versions of the given documents.
	DeleteByDocuments(ctx context.Context, documentIDs []string) error
}
