package docstore

import (
	"context"

	"dokudoku/internal/domain/models/docstore"
)

// DocumentRepository defines data access operations for documents.
type DocumentRepository interface {
	// Create creates a new document row.
	Create(ctx context.Context, doc *docstore.Document) error

	// GetByID retrieves a document by ID regardless of owner; callers are
	// responsible for authorization against the returned OwnerID.
	GetByID(ctx context.Context, id string) (*docstore.Document, error)

	// GetByIDForUpdate retrieves a document and locks its row for the
	// duration of the surrounding transaction. Version numbering relies on
	// this lock to serialize concurrent writers per document.
	GetByIDForUpdate(ctx context.Context, id string) (*docstore.Document, error)

	// Update persists metadata, placement and current_version changes.
	Update(ctx context.Context, doc *docstore.Document) error

	// Delete deletes a single document row.
	Delete(ctx context.Context, id string) error

	// ListByFolder lists documents in a folder (nil = root level),
	// ordered by title then creation time.
	ListByFolder(ctx context.Context, ownerID string, folderID *string) ([]docstore.Document, error)

	// ListIDsByFolders returns the ids of all documents placed in any of
	// the given folders. Used to compute a cascade set before deletion.
	ListIDsByFolders(ctx context.Context, folderIDs []string) ([]string, error)

	// DeleteAll deletes a set of document rows in one statement.
	DeleteAll(ctx context.Context, ids []string) error

	// GetAllMetadataByOwner retrieves all documents of an owner.
	GetAllMetadataByOwner(ctx context.Context, ownerID string) ([]docstore.Document, error)

	// Search returns the accessible-document search page for the options'
	// user: documents they own plus documents shared with them.
	Search(ctx context.Context, opts *docstore.SearchOptions) (*docstore.SearchResults, error)
}
