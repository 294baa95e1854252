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
	docstoreRepo "dokudoku/internal/domain/repositories/docstore"
	docstoreSvc "dokudoku/internal/domain/services/docstore"
)

var tagColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

type tagService struct {
	tagRepo docstoreRepo.TagRepository
	logger  *slog.Logger
}

// NewTagService creates a new tag service
func NewTagService(tagRepo docstoreRepo.TagRepository, logger *slog.Logger) docstoreSvc.TagService {
	return &tagService{tagRepo: tagRepo, logger: logger}
}

// CreateTag creates a tag; names are unique per owner, case-insensitive
func (s *tagService) CreateTag(ctx context.Context, req *docstoreSvc.CreateTagRequest) (*models.Tag, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validation.Validate(req.Name,
		validation.Required,
		validation.Length(1, config.MaxTagNameLength),
	); err != nil {
		return nil, fmt.Errorf("%w: name: %v", domain.ErrValidation, err)
	}
	if req.Color == "" {
		req.Color = "#808080"
	}
	if err := validation.Validate(req.Color,
		validation.Match(tagColorPattern).Error("color must be a hex value like #336699"),
	); err != nil {
		return nil, fmt.Errorf("%w: color: %v", domain.ErrValidation, err)
	}

	tag := &models.Tag{
		ID:        uuid.NewString(),
		OwnerID:   req.OwnerID,
		Name:      req.Name,
		Color:     req.Color,
		CreatedAt: time.Now(),
	}

	if err := s.tagRepo.Create(ctx, tag); err != nil {
		return nil, err
	}

	s.logger.Info("tag created", "id", tag.ID, "name", tag.Name, "owner_id", tag.OwnerID)

	return tag, nil
}

// ListTags lists the owner's tags ordered by name
func (s *tagService) ListTags(ctx context.Context, ownerID string) ([]models.Tag, error) {
	return s.tagRepo.ListByOwner(ctx, ownerID)
}

// DeleteTag removes a tag and detaches it from all documents. Owner only.
func (s *tagService) DeleteTag(ctx context.Context, actorID, tagID string) error {
	tag, err := s.tagRepo.GetByID(ctx, tagID)
	if err != nil {
		return err
	}
	if tag.OwnerID != actorID {
		return &domain.ForbiddenError{Message: "tag belongs to another user"}
	}

	if err := s.tagRepo.Delete(ctx, tagID); err != nil {
		return err
	}

	s.logger.Info("tag deleted", "id", tagID, "name", tag.Name)

	return nil
}
