package docstore

import (
	"context"

	"dokudoku/internal/domain/models/docstore"
)

// FolderRepository defines data access operations for folders.
type FolderRepository interface {
	// Create creates a new folder.
	Create(ctx context.Context, folder *docstore.Folder) error

	// GetByID retrieves a folder by ID regardless of owner; callers are
	// responsible for authorization against the returned OwnerID.
	GetByID(ctx context.Context, id string) (*docstore.Folder, error)

	// GetByIDForUpdate retrieves a folder and locks its row until the
	// surrounding transaction ends. Structural mutations (move, cascade
	// delete) lock every folder they read so concurrent reparenting
	// serializes instead of committing on stale ancestry.
	GetByIDForUpdate(ctx context.Context, id string) (*docstore.Folder, error)

	// GetByNameAndParent finds a sibling by name, or nil if absent.
	GetByNameAndParent(ctx context.Context, ownerID, name string, parentID *string) (*docstore.Folder, error)

	// Update persists name/parent changes.
	Update(ctx context.Context, folder *docstore.Folder) error

	// Delete deletes a single folder row.
	Delete(ctx context.Context, id string) error

	// DeleteAll deletes a set of folder rows in one statement.
	DeleteAll(ctx context.Context, ids []string) error

	// ListChildren lists immediate child folders, ordered by name then
	// creation time. parentID nil means root level.
	ListChildren(ctx context.Context, ownerID string, parentID *string) ([]docstore.Folder, error)

	// GetAllByOwner retrieves all folders of an owner (flat list).
	GetAllByOwner(ctx context.Context, ownerID string) ([]docstore.Folder, error)

	// GetPath computes the display path for a folder.
	GetPath(ctx context.Context, folderID string) (string, error)
}
