package docstore

import (
	"context"

	"dokudoku/internal/domain/models/docstore"
)

// TreeService builds the nested folder/document forest for an owner.
type TreeService interface {
	// GetTree returns the owner's full tree, folders ordered by name then
	// creation time at every level, each node annotated with its depth.
	GetTree(ctx context.Context, ownerID string) (*docstore.TreeNode, error)
}
