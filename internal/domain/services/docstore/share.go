package docstore

import (
	"context"

	"dokudoku/internal/domain/models/docstore"
)

// ShareService handles the sharing ledger: per-document access grants
// independent of ownership. Only the document owner manages shares.
type ShareService interface {
	// Grant gives targetUserID VIEW or EDIT access. Upsert semantics: an
	// existing grant for the pair is overwritten with the new permission.
	// Sharing with the owner is rejected.
	Grant(ctx context.Context, actorID, documentID, targetUserID string, permission docstore.Permission) (*docstore.DocumentShare, error)

	// Revoke removes a grant. Revoking an absent grant is a no-op.
	Revoke(ctx context.Context, actorID, documentID, targetUserID string) error

	// PermissionFor resolves a user's effective permission on a document:
	// OWNER for the owner, the granted level for shared users, NONE otherwise.
	PermissionFor(ctx context.Context, documentID, userID string) (docstore.Permission, error)

	// ListShares lists a document's shares. Owner only.
	ListShares(ctx context.Context, actorID, documentID string) ([]docstore.DocumentShare, error)
}
