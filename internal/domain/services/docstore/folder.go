package docstore

import (
	"context"

	"dokudoku/internal/domain/models/docstore"
	"dokudoku/internal/httputil"
)

// FolderService handles folder business logic. Every operation receives an
// already-authenticated actor id and performs its own authorization.
type FolderService interface {
	// CreateFolder creates a new folder under an optional parent.
	CreateFolder(ctx context.Context, req *CreateFolderRequest) (*docstore.Folder, error)

	// GetFolder retrieves a folder with its computed path.
	GetFolder(ctx context.Context, actorID, folderID string) (*docstore.Folder, error)

	// RenameFolder renames a folder; sibling name collisions fail.
	RenameFolder(ctx context.Context, actorID, folderID, newName string) (*docstore.Folder, error)

	// MoveFolder reparents a folder. nil newParentID moves it to root.
	// Moving a folder under itself or a descendant is rejected.
	MoveFolder(ctx context.Context, actorID, folderID string, newParentID *string) (*docstore.Folder, error)

	// UpdateFolder applies a rename and/or a move as one atomic unit:
	// if either part fails, neither is applied.
	UpdateFolder(ctx context.Context, actorID, folderID string, req *UpdateFolderRequest) (*docstore.Folder, error)

	// DeleteFolder deletes a folder. With cascade=false the folder must be
	// empty; with cascade=true all descendant folders and contained
	// documents (and their versions, shares and tag links) go with it,
	// atomically.
	DeleteFolder(ctx context.Context, actorID, folderID string, cascade bool) error

	// ListChildren lists immediate child folders and documents.
	// folderID nil means root level.
	ListChildren(ctx context.Context, actorID string, folderID *string) (*FolderContents, error)
}

// CreateFolderRequest represents a folder creation request.
type CreateFolderRequest struct {
	OwnerID  string  `json:"-"`
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id,omitempty"` // nil for root
}

// UpdateFolderRequest carries a rename and/or a move. ParentID uses
// tri-state PATCH semantics: absent = keep, null = move to root,
// string = move under that folder.
type UpdateFolderRequest struct {
	Name     *string                 `json:"name,omitempty"`
	ParentID httputil.OptionalString `json:"parent_id,omitempty"`
}

// FolderContents represents a folder with its immediate children.
type FolderContents struct {
	Folder    *docstore.Folder    `json:"folder,omitempty"` // nil for root
	Folders   []docstore.Folder   `json:"folders"`
	Documents []docstore.Document `json:"documents"`
}
