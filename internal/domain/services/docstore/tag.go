package docstore

import (
	"context"

	"dokudoku/internal/domain/models/docstore"
)

// TagService manages owner-scoped tags.
type TagService interface {
	// CreateTag creates a tag; names are unique per owner (case-insensitive).
	CreateTag(ctx context.Context, req *CreateTagRequest) (*docstore.Tag, error)

	// ListTags lists the owner's tags ordered by name.
	ListTags(ctx context.Context, ownerID string) ([]docstore.Tag, error)

	// DeleteTag removes a tag and detaches it from all documents. Owner only.
	DeleteTag(ctx context.Context, actorID, tagID string) error
}

// CreateTagRequest represents a tag creation request.
type CreateTagRequest struct {
	OwnerID string `json:"-"`
	Name    string `json:"name"`
	Color   string `json:"color"`
}
