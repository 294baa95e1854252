package docstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"dokudoku/internal/domain"
	models "dokudoku/internal/domain/models/docstore"
	docstoreRepo "dokudoku/internal/domain/repositories/docstore"
	docstoreSvc "dokudoku/internal/domain/services/docstore"
)

type shareService struct {
	shareRepo docstoreRepo.ShareRepository
	docRepo   docstoreRepo.DocumentRepository
	logger    *slog.Logger
}

// NewShareService creates a new share service
func NewShareService(
	shareRepo docstoreRepo.ShareRepository,
	docRepo docstoreRepo.DocumentRepository,
	logger *slog.Logger,
) docstoreSvc.ShareService {
	return &shareService{
		shareRepo: shareRepo,
		docRepo:   docRepo,
		logger:    logger,
	}
}

// Grant gives targetUserID VIEW or EDIT access to a document.
// Owner-only; sharing with the owner is redundant and rejected.
func (s *shareService) Grant(ctx context.Context, actorID, documentID, targetUserID string, permission models.Permission) (*models.DocumentShare, error) {
	if targetUserID == "" {
		return nil, fmt.Errorf("%w: target user id is required", domain.ErrValidation)
	}
	if !permission.Shareable() {
		return nil, fmt.Errorf("%w: only VIEW or EDIT can be granted", domain.ErrValidation)
	}

	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.OwnerID != actorID {
		return nil, &domain.ForbiddenError{Message: "only the document owner can manage shares"}
	}
	if targetUserID == doc.OwnerID {
		return nil, fmt.Errorf("user %s owns this document: %w", targetUserID, domain.ErrSelfShare)
	}

	now := time.Now()
	share := &models.DocumentShare{
		ID:         uuid.NewString(),
		DocumentID: documentID,
		UserID:     targetUserID,
		Permission: permission,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.shareRepo.Upsert(ctx, share); err != nil {
		return nil, err
	}

	s.logger.Info("share granted",
		"document_id", documentID,
		"user_id", targetUserID,
		"permission", permission.String(),
	)

	return share, nil
}

// Revoke removes a grant. Revoking an absent grant is a no-op.
func (s *shareService) Revoke(ctx context.Context, actorID, documentID, targetUserID string) error {
	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return err
	}
	if doc.OwnerID != actorID {
		return &domain.ForbiddenError{Message: "only the document owner can manage shares"}
	}

	deleted, err := s.shareRepo.Delete(ctx, documentID, targetUserID)
	if err != nil {
		return err
	}

	if deleted {
		s.logger.Info("share revoked", "document_id", documentID, "user_id", targetUserID)
	}

	return nil
}

// PermissionFor resolves a user's effective permission on a document.
// Ownership always wins; otherwise the share row decides; absence is NONE.
func (s *shareService) PermissionFor(ctx context.Context, documentID, userID string) (models.Permission, error) {
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

// ListShares lists a document's shares. Owner only.
func (s *shareService) ListShares(ctx context.Context, actorID, documentID string) ([]models.DocumentShare, error) {
	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.OwnerID != actorID {
		return nil, &domain.ForbiddenError{Message: "only the document owner can list shares"}
	}

	return s.shareRepo.ListByDocument(ctx, documentID)
}
