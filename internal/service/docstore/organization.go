package docstore

import (
	"context"
	"fmt"
	"log/slog"

	"dokudoku/internal/domain"
	models "dokudoku/internal/domain/models/docstore"
	docstoreRepo "dokudoku/internal/domain/repositories/docstore"
	docstoreSvc "dokudoku/internal/domain/services/docstore"
)

type organizationService struct {
	docRepo   docstoreRepo.DocumentRepository
	shareRepo docstoreRepo.ShareRepository
	logger    *slog.Logger
}

// NewOrganizationService creates a new organization service
func NewOrganizationService(
	docRepo docstoreRepo.DocumentRepository,
	shareRepo docstoreRepo.ShareRepository,
	logger *slog.Logger,
) docstoreSvc.OrganizationService {
	return &organizationService{
		docRepo:   docRepo,
		shareRepo: shareRepo,
		logger:    logger,
	}
}

// SearchAccessible returns documents the user owns or has a share on,
// narrowed by the options' filters. The accessibility scope is applied
// in the same query as the filters so no inaccessible document can
// surface regardless of filter combination.
func (s *organizationService) SearchAccessible(ctx context.Context, opts *models.SearchOptions) (*models.SearchResults, error) {
	opts.ApplyDefaults()
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	results, err := s.docRepo.Search(ctx, opts)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("search executed",
		"user_id", opts.UserID,
		"query", opts.Query,
		"total", results.Total,
	)

	return results, nil
}

// EffectivePermission resolves a user's permission on a document.
// Ownership always wins; otherwise the share row decides; absence is NONE.
func (s *organizationService) EffectivePermission(ctx context.Context, documentID, userID string) (models.Permission, error) {
	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return models.PermissionNone, err
	}

	if doc.OwnerID == userID {
		return models.PermissionOwner, nil
	}

	share, err := s.shareRepo.Get(ctx, documentID, userID)
	if err != nil {
		return models.PermissionNone, err
	}
	if share == nil {
		return models.PermissionNone, nil
	}

	return share.Permission, nil
}
