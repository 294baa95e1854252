package docstore

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
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
	"dokudoku/internal/httputil"
)

var folderNamePattern = regexp.MustCompile(`^[^/]+$`)

type folderService struct {
	folderRepo  docstoreRepo.FolderRepository
	docRepo     docstoreRepo.DocumentRepository
	versionRepo docstoreRepo.VersionRepository
	shareRepo   docstoreRepo.ShareRepository
	tagRepo     docstoreRepo.TagRepository
	txManager   repositories.TransactionManager
	blobs       domain.BlobStorage
	logger      *slog.Logger
}

// NewFolderService creates a new folder service
func NewFolderService(
	folderRepo docstoreRepo.FolderRepository,
	docRepo docstoreRepo.DocumentRepository,
	versionRepo docstoreRepo.VersionRepository,
	shareRepo docstoreRepo.ShareRepository,
	tagRepo docstoreRepo.TagRepository,
	txManager repositories.TransactionManager,
	blobs domain.BlobStorage,
	logger *slog.Logger,
) docstoreSvc.FolderService {
	return &folderService{
		folderRepo:  folderRepo,
		docRepo:     docRepo,
		versionRepo: versionRepo,
		shareRepo:   shareRepo,
		tagRepo:     tagRepo,
		txManager:   txManager,
		blobs:       blobs,
		logger:      logger,
	}
}

// CreateFolder creates a new folder under an optional parent
func (s *folderService) CreateFolder(ctx context.Context, req *docstoreSvc.CreateFolderRequest) (*models.Folder, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validateFolderName(req.Name); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	// Normalize empty string to nil for root-level folders
	if req.ParentID != nil && *req.ParentID == "" {
		req.ParentID = nil
	}

	if req.ParentID != nil {
		parent, err := s.folderRepo.GetByID(ctx, *req.ParentID)
		if err != nil {
			return nil, fmt.Errorf("parent folder %s: %w", *req.ParentID, domain.ErrInvalidParent)
		}
		if parent.OwnerID != req.OwnerID {
			return nil, fmt.Errorf("parent folder %s: %w", *req.ParentID, domain.ErrInvalidParent)
		}
	}

	if err := s.checkSiblingName(ctx, req.OwnerID, req.Name, req.ParentID, ""); err != nil {
		return nil, err
	}

	now := time.Now()
	folder := &models.Folder{
		ID:        uuid.NewString(),
		OwnerID:   req.OwnerID,
		ParentID:  req.ParentID,
		Name:      req.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.folderRepo.Create(ctx, folder); err != nil {
		return nil, err
	}

	s.computePath(ctx, folder)

	s.logger.Info("folder created",
		"id", folder.ID,
		"name", folder.Name,
		"owner_id", folder.OwnerID,
		"parent_id", folder.ParentID,
	)

	return folder, nil
}

// GetFolder retrieves a folder with its computed path
func (s *folderService) GetFolder(ctx context.Context, actorID, folderID string) (*models.Folder, error) {
	folder, err := s.folderRepo.GetByID(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if folder.OwnerID != actorID {
		return nil, &domain.ForbiddenError{Message: "folder belongs to another user"}
	}

	s.computePath(ctx, folder)
	return folder, nil
}

// RenameFolder renames a folder; sibling name collisions fail
func (s *folderService) RenameFolder(ctx context.Context, actorID, folderID, newName string) (*models.Folder, error) {
	return s.UpdateFolder(ctx, actorID, folderID, &docstoreSvc.UpdateFolderRequest{Name: &newName})
}

// MoveFolder reparents a folder
func (s *folderService) MoveFolder(ctx context.Context, actorID, folderID string, newParentID *string) (*models.Folder, error) {
	return s.UpdateFolder(ctx, actorID, folderID, &docstoreSvc.UpdateFolderRequest{
		ParentID: httputil.OptionalString{Present: true, Value: newParentID},
	})
}

// UpdateFolder applies a rename and/or a move in one transaction; a
// combined request that fails either part leaves the folder untouched.
// The cycle check runs inside the same transaction as the update, and
// every folder it reads is locked with FOR UPDATE: under READ COMMITTED
// two unlocked opposite-direction moves would each validate against a
// snapshot where the other folder is still a root, then both commit a
// cycle. With the locks one transaction blocks on the other's rows and
// revalidates after it commits.
func (s *folderService) UpdateFolder(ctx context.Context, actorID, folderID string, req *docstoreSvc.UpdateFolderRequest) (*models.Folder, error) {
	if req.Name == nil && !req.ParentID.Present {
		return nil, fmt.Errorf("%w: nothing to update", domain.ErrValidation)
	}

	var newName string
	if req.Name != nil {
		newName = strings.TrimSpace(*req.Name)
		if err := validateFolderName(newName); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
		}
	}

	newParentID := req.ParentID.Value
	// Normalize empty string to nil for moves to root
	if newParentID != nil && *newParentID == "" {
		newParentID = nil
	}

	var updated *models.Folder
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		folder, err := s.folderRepo.GetByIDForUpdate(txCtx, folderID)
		if err != nil {
			return err
		}
		if folder.OwnerID != actorID {
			return &domain.ForbiddenError{Message: "folder belongs to another user"}
		}

		targetName := folder.Name
		if req.Name != nil {
			targetName = newName
		}
		targetParent := folder.ParentID
		if req.ParentID.Present {
			targetParent = newParentID
		}

		if req.ParentID.Present && newParentID != nil {
			parent, err := s.folderRepo.GetByIDForUpdate(txCtx, *newParentID)
			if err != nil {
				return fmt.Errorf("parent folder %s: %w", *newParentID, domain.ErrInvalidParent)
			}
			if parent.OwnerID != folder.OwnerID {
				return fmt.Errorf("parent folder %s: %w", *newParentID, domain.ErrInvalidParent)
			}
			if err := s.checkNoCycle(txCtx, folderID, *newParentID); err != nil {
				return err
			}
		}

		if targetName != folder.Name || !ptrsEqual(targetParent, folder.ParentID) {
			if err := s.checkSiblingName(txCtx, folder.OwnerID, targetName, targetParent, folder.ID); err != nil {
				return err
			}
		}

		folder.Name = targetName
		folder.ParentID = targetParent
		folder.UpdatedAt = time.Now()
		if err := s.folderRepo.Update(txCtx, folder); err != nil {
			return err
		}

		updated = folder
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.computePath(ctx, updated)

	s.logger.Info("folder updated",
		"id", updated.ID,
		"name", updated.Name,
		"parent_id", updated.ParentID,
	)

	return updated, nil
}

func ptrsEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// DeleteFolder deletes a folder, optionally cascading to all descendants.
// The cascade runs as one transaction: either the whole subtree with its
// documents, versions, shares and tag links disappears, or nothing does.
func (s *folderService) DeleteFolder(ctx context.Context, actorID, folderID string, cascade bool) error {
	var folder *models.Folder
	var orphanedBlobs []string
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		// Locking the root serializes against moves into or out of the
		// subtree: their ancestor walk has to pass through this row.
		var err error
		folder, err = s.folderRepo.GetByIDForUpdate(txCtx, folderID)
		if err != nil {
			return err
		}
		if folder.OwnerID != actorID {
			return &domain.ForbiddenError{Message: "folder belongs to another user"}
		}

		folderIDs, err := s.collectSubtree(txCtx, folder)
		if err != nil {
			return err
		}

		docIDs, err := s.docRepo.ListIDsByFolders(txCtx, folderIDs)
		if err != nil {
			return err
		}

		if !cascade && (len(folderIDs) > 1 || len(docIDs) > 0) {
			return fmt.Errorf("folder %q: %w", folder.Name, domain.ErrNotEmpty)
		}

		for _, docID := range docIDs {
			versions, err := s.versionRepo.ListByDocument(txCtx, docID)
			if err != nil {
				return err
			}
			for _, v := range versions {
				orphanedBlobs = append(orphanedBlobs, v.FileLocation)
			}
		}

		if err := s.versionRepo.DeleteByDocuments(txCtx, docIDs); err != nil {
			return err
		}
		if err := s.shareRepo.DeleteByDocuments(txCtx, docIDs); err != nil {
			return err
		}
		if err := s.tagRepo.DetachByDocuments(txCtx, docIDs); err != nil {
			return err
		}
		if err := s.docRepo.DeleteAll(txCtx, docIDs); err != nil {
			return err
		}
		return s.folderRepo.DeleteAll(txCtx, folderIDs)
	})
	if err != nil {
		return err
	}

	// Blob cleanup is best-effort after commit; the registry rows are the
	// source of truth and they are already gone.
	s.removeBlobs(ctx, orphanedBlobs)

	s.logger.Info("folder deleted",
		"id", folderID,
		"name", folder.Name,
		"cascade", cascade,
	)

	return nil
}

// ListChildren lists immediate child folders and documents
func (s *folderService) ListChildren(ctx context.Context, actorID string, folderID *string) (*docstoreSvc.FolderContents, error) {
	var folder *models.Folder

	if folderID != nil && *folderID != "" {
		var err error
		folder, err = s.folderRepo.GetByID(ctx, *folderID)
		if err != nil {
			return nil, err
		}
		if folder.OwnerID != actorID {
			return nil, &domain.ForbiddenError{Message: "folder belongs to another user"}
		}
		s.computePath(ctx, folder)
	} else {
		folderID = nil
	}

	childFolders, err := s.folderRepo.ListChildren(ctx, actorID, folderID)
	if err != nil {
		return nil, err
	}

	docs, err := s.docRepo.ListByFolder(ctx, actorID, folderID)
	if err != nil {
		return nil, err
	}

	return &docstoreSvc.FolderContents{
		Folder:    folder,
		Folders:   childFolders,
		Documents: docs,
	}, nil
}

// collectSubtree returns the folder plus all descendants, breadth-first.
func (s *folderService) collectSubtree(ctx context.Context, root *models.Folder) ([]string, error) {
	ids := []string{root.ID}
	queue := []string{root.ID}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		children, err := s.folderRepo.ListChildren(ctx, root.OwnerID, &current)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			ids = append(ids, child.ID)
			queue = append(queue, child.ID)
		}
	}

	return ids, nil
}

// checkNoCycle walks the ancestor chain of newParentID up to the root;
// finding folderID on the way means the move would create a cycle. Each
// ancestor is locked so a concurrent move cannot rewrite the chain under
// the walk before this transaction commits.
func (s *folderService) checkNoCycle(ctx context.Context, folderID, newParentID string) error {
	if folderID == newParentID {
		return fmt.Errorf("folder cannot contain itself: %w", domain.ErrCycleDetected)
	}

	currentID := newParentID
	for {
		current, err := s.folderRepo.GetByIDForUpdate(ctx, currentID)
		if err != nil {
			return err
		}
		if current.ParentID == nil {
			return nil
		}
		if *current.ParentID == folderID {
			return fmt.Errorf("target folder is a descendant: %w", domain.ErrCycleDetected)
		}
		currentID = *current.ParentID
	}
}

// checkSiblingName rejects a name already used by a different sibling.
func (s *folderService) checkSiblingName(ctx context.Context, ownerID, name string, parentID *string, selfID string) error {
	sibling, err := s.folderRepo.GetByNameAndParent(ctx, ownerID, name, parentID)
	if err != nil {
		return err
	}
	if sibling != nil && sibling.ID != selfID {
		return &domain.ConflictError{
			Message:      fmt.Sprintf("a folder named %q already exists in this location", name),
			ResourceType: "folder",
			ResourceID:   sibling.ID,
		}
	}
	return nil
}

func (s *folderService) computePath(ctx context.Context, folder *models.Folder) {
	path, err := s.folderRepo.GetPath(ctx, folder.ID)
	if err != nil {
		s.logger.Warn("failed to compute path", "folder_id", folder.ID, "error", err)
		folder.Path = folder.Name
		return
	}
	folder.Path = path
}

func (s *folderService) removeBlobs(ctx context.Context, keys []string) {
	if s.blobs == nil {
		return
	}
	for _, key := range keys {
		if err := s.blobs.Remove(ctx, key); err != nil {
			s.logger.Warn("failed to remove blob", "key", key, "error", err)
		}
	}
}

func validateFolderName(name string) error {
	return validation.Validate(name,
		validation.Required,
		validation.Length(1, config.MaxFolderNameLength),
		validation.Match(folderNamePattern).Error("folder name cannot contain slashes"),
	)
}
