package docstore

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"dokudoku/internal/config"
	"dokudoku/internal/domain"
	models "dokudoku/internal/domain/models/docstore"
	"dokudoku/internal/domain/repositories"
	docstoreRepo "dokudoku/internal/domain/repositories/docstore"
	docstoreSvc "dokudoku/internal/domain/services/docstore"
	"dokudoku/internal/filetypes"
)

type documentService struct {
	docRepo     docstoreRepo.DocumentRepository
	folderRepo  docstoreRepo.FolderRepository
	versionRepo docstoreRepo.VersionRepository
	shareRepo   docstoreRepo.ShareRepository
	tagRepo     docstoreRepo.TagRepository
	txManager   repositories.TransactionManager
	blobs       domain.BlobStorage
	registry    *filetypes.Registry
	logger      *slog.Logger
}

// NewDocumentService creates a new document service
func NewDocumentService(
	docRepo docstoreRepo.DocumentRepository,
	folderRepo docstoreRepo.FolderRepository,
	versionRepo docstoreRepo.VersionRepository,
	shareRepo docstoreRepo.ShareRepository,
	tagRepo docstoreRepo.TagRepository,
	txManager repositories.TransactionManager,
	blobs domain.BlobStorage,
	registry *filetypes.Registry,
	logger *slog.Logger,
) docstoreSvc.DocumentService {
	return &documentService{
		docRepo:     docRepo,
		folderRepo:  folderRepo,
		versionRepo: versionRepo,
		shareRepo:   shareRepo,
		tagRepo:     tagRepo,
		txManager:   txManager,
		blobs:       blobs,
		registry:    registry,
		logger:      logger,
	}
}

// Upload registers a document and its version 1 as one atomic unit.
// The blob is already stored; req.FileLocation is its key. If the
// registration fails the caller is expected to clean up the blob.
func (s *documentService) Upload(ctx context.Context, req *docstoreSvc.UploadRequest) (*models.Document, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := s.validateUpload(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	// Normalize empty string to nil for root-level documents
	if req.FolderID != nil && *req.FolderID == "" {
		req.FolderID = nil
	}

	if req.FolderID != nil {
		folder, err := s.folderRepo.GetByID(ctx, *req.FolderID)
		if err != nil {
			return nil, fmt.Errorf("folder %s: %w", *req.FolderID, domain.ErrInvalidParent)
		}
		if folder.OwnerID != req.OwnerID {
			return nil, fmt.Errorf("folder %s: %w", *req.FolderID, domain.ErrInvalidParent)
		}
	}

	now := time.Now()
	doc := &models.Document{
		ID:             uuid.NewString(),
		OwnerID:        req.OwnerID,
		FolderID:       req.FolderID,
		Title:          req.Title,
		Description:    req.Description,
		FileLocation:   req.FileLocation,
		FileType:       req.FileType,
		FileSize:       req.FileSize,
		CurrentVersion: 1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.docRepo.Create(txCtx, doc); err != nil {
			return err
		}
		return s.versionRepo.Create(txCtx, &models.DocumentVersion{
			ID:            uuid.NewString(),
			DocumentID:    doc.ID,
			VersionNumber: 1,
			FileLocation:  req.FileLocation,
			FileSize:      req.FileSize,
			CreatedByID:   req.OwnerID,
			CreatedAt:     now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("document uploaded",
		"id", doc.ID,
		"title", doc.Title,
		"owner_id", doc.OwnerID,
		"file_type", doc.FileType,
		"file_size", doc.FileSize,
	)

	return doc, nil
}

// GetDocument retrieves a document the actor can at least view
func (s *documentService) GetDocument(ctx context.Context, actorID, documentID string) (*models.Document, error) {
	doc, err := s.authorize(ctx, actorID, documentID, models.PermissionView)
	if err != nil {
		return nil, err
	}

	tags, err := s.tagRepo.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	doc.Tags = tags

	return doc, nil
}

// UpdateMetadata edits title/description. Requires EDIT rights.
func (s *documentService) UpdateMetadata(ctx context.Context, actorID, documentID string, req *docstoreSvc.UpdateDocumentRequest) (*models.Document, error) {
	doc, err := s.authorize(ctx, actorID, documentID, models.PermissionEdit)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if err := validation.Validate(title,
			validation.Required,
			validation.Length(1, config.MaxDocumentTitleLength),
		); err != nil {
			return nil, fmt.Errorf("%w: title: %v", domain.ErrValidation, err)
		}
		doc.Title = title
	}

	// Tri-state description: absent = keep, null = clear, string = set
	if req.Description.Present {
		if req.Description.Value == nil {
			doc.Description = nil
		} else {
			desc := *req.Description.Value
			if err := validation.Validate(desc, validation.Length(0, config.MaxDescriptionLength)); err != nil {
				return nil, fmt.Errorf("%w: description: %v", domain.ErrValidation, err)
			}
			doc.Description = &desc
		}
	}

	doc.UpdatedAt = time.Now()
	if err := s.docRepo.Update(ctx, doc); err != nil {
		return nil, err
	}

	s.logger.Info("document metadata updated", "id", doc.ID)

	return doc, nil
}

// CreateVersion appends an immutable version and advances the document's
// current version. The row lock taken by GetByIDForUpdate serializes
// concurrent writers so numbers stay contiguous, and the unique
// constraint on (document_id, version_number) backstops the lock.
func (s *documentService) CreateVersion(ctx context.Context, req *docstoreSvc.CreateVersionRequest) (*models.DocumentVersion, error) {
	if req.FileLocation == "" {
		return nil, fmt.Errorf("%w: file location is required", domain.ErrValidation)
	}
	if req.ChangeDescription != nil {
		if err := validation.Validate(*req.ChangeDescription, validation.Length(0, config.MaxDescriptionLength)); err != nil {
			return nil, fmt.Errorf("%w: change description: %v", domain.ErrValidation, err)
		}
	}

	var version *models.DocumentVersion
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		doc, err := s.docRepo.GetByIDForUpdate(txCtx, req.DocumentID)
		if err != nil {
			return err
		}
		if err := s.requirePermission(txCtx, doc, req.ActorID, models.PermissionEdit); err != nil {
			return err
		}

		version = &models.DocumentVersion{
			ID:                uuid.NewString(),
			DocumentID:        doc.ID,
			VersionNumber:     doc.CurrentVersion + 1,
			FileLocation:      req.FileLocation,
			FileSize:          req.FileSize,
			CreatedByID:       req.ActorID,
			ChangeDescription: req.ChangeDescription,
			CreatedAt:         time.Now(),
		}
		if err := s.versionRepo.Create(txCtx, version); err != nil {
			return err
		}

		doc.CurrentVersion = version.VersionNumber
		doc.FileLocation = version.FileLocation
		doc.FileSize = version.FileSize
		doc.UpdatedAt = version.CreatedAt
		return s.docRepo.Update(txCtx, doc)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("version created",
		"document_id", version.DocumentID,
		"version", version.VersionNumber,
		"created_by", version.CreatedByID,
	)

	return version, nil
}

// MoveDocument places a document into a folder of the same owner.
// nil folder means root. Requires EDIT rights.
func (s *documentService) MoveDocument(ctx context.Context, actorID, documentID string, newFolderID *string) (*models.Document, error) {
	// Normalize empty string to nil for moves to root
	if newFolderID != nil && *newFolderID == "" {
		newFolderID = nil
	}

	doc, err := s.authorize(ctx, actorID, documentID, models.PermissionEdit)
	if err != nil {
		return nil, err
	}

	if newFolderID != nil {
		folder, err := s.folderRepo.GetByID(ctx, *newFolderID)
		if err != nil {
			return nil, fmt.Errorf("folder %s: %w", *newFolderID, domain.ErrInvalidParent)
		}
		// Documents live in their owner's hierarchy even when an editor
		// moves them.
		if folder.OwnerID != doc.OwnerID {
			return nil, fmt.Errorf("folder %s: %w", *newFolderID, domain.ErrInvalidParent)
		}
	}

	doc.FolderID = newFolderID
	doc.UpdatedAt = time.Now()
	if err := s.docRepo.Update(ctx, doc); err != nil {
		return nil, err
	}

	s.logger.Info("document moved", "id", doc.ID, "folder_id", doc.FolderID)

	return doc, nil
}

// DeleteDocument removes the document with all versions, shares and tag
// links as one atomic unit. Owner only. Blob removal happens after the
// commit and is best-effort.
func (s *documentService) DeleteDocument(ctx context.Context, actorID, documentID string) error {
	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return err
	}
	if doc.OwnerID != actorID {
		return &domain.ForbiddenError{Message: "only the document owner can delete it"}
	}

	versions, err := s.versionRepo.ListByDocument(ctx, documentID)
	if err != nil {
		return err
	}

	ids := []string{documentID}
	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.versionRepo.DeleteByDocuments(txCtx, ids); err != nil {
			return err
		}
		if err := s.shareRepo.DeleteByDocuments(txCtx, ids); err != nil {
			return err
		}
		if err := s.tagRepo.DetachByDocuments(txCtx, ids); err != nil {
			return err
		}
		return s.docRepo.Delete(txCtx, documentID)
	})
	if err != nil {
		return err
	}

	if s.blobs != nil {
		for _, v := range versions {
			if err := s.blobs.Remove(ctx, v.FileLocation); err != nil {
				s.logger.Warn("failed to remove blob", "key", v.FileLocation, "error", err)
			}
		}
	}

	s.logger.Info("document deleted", "id", documentID, "title", doc.Title)

	return nil
}

// ListVersions lists a document's versions ascending by number.
// Requires at least VIEW rights.
func (s *documentService) ListVersions(ctx context.Context, actorID, documentID string) ([]models.DocumentVersion, error) {
	if _, err := s.authorize(ctx, actorID, documentID, models.PermissionView); err != nil {
		return nil, err
	}

	return s.versionRepo.ListByDocument(ctx, documentID)
}

// TagDocument attaches an owner's tag to a document. Idempotent.
func (s *documentService) TagDocument(ctx context.Context, actorID, documentID, tagID string) error {
	doc, err := s.authorize(ctx, actorID, documentID, models.PermissionEdit)
	if err != nil {
		return err
	}

	tag, err := s.tagRepo.GetByID(ctx, tagID)
	if err != nil {
		return err
	}
	// Tags are scoped to the document owner's namespace
	if tag.OwnerID != doc.OwnerID {
		return fmt.Errorf("tag %s: %w", tagID, domain.ErrNotFound)
	}

	if err := s.tagRepo.Attach(ctx, documentID, tagID); err != nil {
		return err
	}

	s.logger.Info("document tagged", "document_id", documentID, "tag_id", tagID)

	return nil
}

// UntagDocument detaches a tag from a document. Idempotent.
func (s *documentService) UntagDocument(ctx context.Context, actorID, documentID, tagID string) error {
	if _, err := s.authorize(ctx, actorID, documentID, models.PermissionEdit); err != nil {
		return err
	}

	if err := s.tagRepo.Detach(ctx, documentID, tagID); err != nil {
		return err
	}

	s.logger.Info("document untagged", "document_id", documentID, "tag_id", tagID)

	return nil
}

// authorize loads a document and checks the actor holds at least the
// required permission.
func (s *documentService) authorize(ctx context.Context, actorID, documentID string, required models.Permission) (*models.Document, error) {
	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if err := s.requirePermission(ctx, doc, actorID, required); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *documentService) requirePermission(ctx context.Context, doc *models.Document, actorID string, required models.Permission) error {
	if doc.OwnerID == actorID {
		return nil
	}

	share, err := s.shareRepo.Get(ctx, doc.ID, actorID)
	if err != nil {
		return err
	}

	effective := models.PermissionNone
	if share != nil {
		effective = share.Permission
	}
	if !effective.AtLeast(required) {
		// A user with no access at all gets NotFound so document
		// existence does not leak through the error.
		if effective == models.PermissionNone {
			return fmt.Errorf("document %s: %w", doc.ID, domain.ErrNotFound)
		}
		return &domain.ForbiddenError{
			Message: fmt.Sprintf("requires %s access", required.String()),
		}
	}

	return nil
}

func (s *documentService) validateUpload(req *docstoreSvc.UploadRequest) error {
	if err := validation.Validate(req.Title,
		validation.Required,
		validation.Length(1, config.MaxDocumentTitleLength),
	); err != nil {
		return fmt.Errorf("title: %w", err)
	}
	if req.Description != nil {
		if err := validation.Validate(*req.Description, validation.Length(0, config.MaxDescriptionLength)); err != nil {
			return fmt.Errorf("description: %w", err)
		}
	}
	if req.FileLocation == "" {
		return fmt.Errorf("file location is required")
	}
	if req.FileSize < 0 {
		return fmt.Errorf("file size cannot be negative")
	}
	if s.registry != nil && !s.registry.Accepts(req.FileType) {
		return fmt.Errorf("file type %q is not accepted", req.FileType)
	}
	return nil
}
