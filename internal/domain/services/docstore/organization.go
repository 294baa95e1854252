package docstore

import (
	"context"

	"dokudoku/internal/domain/models/docstore"
)

// OrganizationService composes the folder, document and sharing components
// to answer "what can this user see" queries.
type OrganizationService interface {
	// SearchAccessible returns documents the user owns or has a share on,
	// narrowed by the options' filters. Ranked by full-text relevance when
	// a query is present, by recency otherwise. Never returns documents
	// the user cannot access.
	SearchAccessible(ctx context.Context, opts *docstore.SearchOptions) (*docstore.SearchResults, error)

	// EffectivePermission resolves the actor's permission on a document.
	EffectivePermission(ctx context.Context, documentID, userID string) (docstore.Permission, error)
}
