package docstore

import (
	"context"

	"dokudoku/internal/domain/models/docstore"
	"dokudoku/internal/httputil"
)

// DocumentService handles document business logic: registration, version
// history, placement, tagging and deletion.
type DocumentService interface {
	// Upload registers a document and its version 1 as one atomic unit.
	Upload(ctx context.Context, req *UploadRequest) (*docstore.Document, error)

	// GetDocument retrieves a document the actor can at least view.
	GetDocument(ctx context.Context, actorID, documentID string) (*docstore.Document, error)

	// UpdateMetadata edits title/description. Requires EDIT rights.
	UpdateMetadata(ctx context.Context, actorID, documentID string, req *UpdateDocumentRequest) (*docstore.Document, error)

	// CreateVersion appends an immutable version and advances the
	// document's current version. Requires EDIT rights. Concurrent calls
	// on the same document serialize; no two versions share a number.
	CreateVersion(ctx context.Context, req *CreateVersionRequest) (*docstore.DocumentVersion, error)

	// MoveDocument places a document into a folder of the same owner
	// (nil = root). Requires EDIT rights.
	MoveDocument(ctx context.Context, actorID, documentID string, newFolderID *string) (*docstore.Document, error)

	// DeleteDocument removes the document with all versions, shares and
	// tag links as one atomic unit. Owner only.
	DeleteDocument(ctx context.Context, actorID, documentID string) error

	// ListVersions lists a document's versions ascending by number.
	ListVersions(ctx context.Context, actorID, documentID string) ([]docstore.DocumentVersion, error)

	// TagDocument attaches an owner's tag to a document. Idempotent.
	TagDocument(ctx context.Context, actorID, documentID, tagID string) error

	// UntagDocument detaches a tag from a document. Idempotent.
	UntagDocument(ctx context.Context, actorID, documentID, tagID string) error
}

// UploadRequest represents a document registration. FileLocation is the
// opaque blob key returned by the storage collaborator.
type UploadRequest struct {
	OwnerID      string  `json:"-"`
	Title        string  `json:"title"`
	Description  *string `json:"description,omitempty"`
	FolderID     *string `json:"folder_id,omitempty"`
	FileLocation string  `json:"file_location"`
	FileType     string  `json:"file_type"`
	FileSize     int64   `json:"file_size"`
}

// UpdateDocumentRequest edits document metadata. Description uses tri-state
// PATCH semantics: absent = keep, null = clear, string = set.
type UpdateDocumentRequest struct {
	Title       *string                 `json:"title,omitempty"`
	Description httputil.OptionalString `json:"description,omitempty"`
}

// CreateVersionRequest appends a new version to a document.
type CreateVersionRequest struct {
	ActorID           string  `json:"-"`
	DocumentID        string  `json:"-"`
	FileLocation      string  `json:"file_location"`
	FileSize          int64   `json:"file_size"`
	ChangeDescription *string `json:"change_description,omitempty"`
}
