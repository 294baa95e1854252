package docstore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"dokudoku/internal/domain"
	models "dokudoku/internal/domain/models/docstore"
	docstoreRepo "dokudoku/internal/domain/repositories/docstore"
	"dokudoku/internal/repository/postgres"
)

// PostgresTagRepository implements the TagRepository interface
type PostgresTagRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewTagRepository creates a new tag repository
func NewTagRepository(config *postgres.RepositoryConfig) docstoreRepo.TagRepository {
	return &PostgresTagRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create creates a tag. A unique index on (owner_id, LOWER(name)) enforces
// case-insensitive per-owner name uniqueness.
func (r *PostgresTagRepository) Create(ctx context.Context, tag *models.Tag) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, owner_id, name, color, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, r.tables.Tags)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		tag.ID,
		tag.OwnerID,
		tag.Name,
		tag.Color,
		tag.CreatedAt,
	).Scan(&tag.CreatedAt)

	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("a tag named %q already exists", tag.Name),
				ResourceType: "tag",
			}
		}
		return postgres.WrapTransient(fmt.Errorf("create tag: %w", err))
	}

	return nil
}

// GetByID retrieves a tag by ID
func (r *PostgresTagRepository) GetByID(ctx context.Context, id string) (*models.Tag, error) {
	query := fmt.Sprintf(`
		SELECT id, owner_id, name, color, created_at
		FROM %s
		WHERE id = $1
	`, r.tables.Tags)

	executor := postgres.GetExecutor(ctx, r.pool)
	var tag models.Tag
	err := executor.QueryRow(ctx, query, id).Scan(
		&tag.ID,
		&tag.OwnerID,
		&tag.Name,
		&tag.Color,
		&tag.CreatedAt,
	)

	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("tag %s: %w", id, domain.ErrNotFound)
		}
		return nil, postgres.WrapTransient(fmt.Errorf("get tag: %w", err))
	}

	return &tag, nil
}

// GetByName finds an owner's tag by name (case-insensitive), or nil
func (r *PostgresTagRepository) GetByName(ctx context.Context, ownerID, name string) (*models.Tag, error) {
	query := fmt.Sprintf(`
		SELECT id, owner_id, name, color, created_at
		FROM %s
		WHERE owner_id = $1 AND LOWER(name) = LOWER($2)
	`, r.tables.Tags)

	executor := postgres.GetExecutor(ctx, r.pool)
	var tag models.Tag
	err := executor.QueryRow(ctx, query, ownerID, name).Scan(
		&tag.ID,
		&tag.OwnerID,
		&tag.Name,
		&tag.Color,
		&tag.CreatedAt,
	)

	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, nil // Not found, not an error
		}
		return nil, postgres.WrapTransient(fmt.Errorf("get tag by name: %w", err))
	}

	return &tag, nil
}

// ListByOwner lists an owner's tags ordered by name
func (r *PostgresTagRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Tag, error) {
	query := fmt.Sprintf(`
		SELECT id, owner_id, name, color, created_at
		FROM %s
		WHERE owner_id = $1
		ORDER BY name ASC
	`, r.tables.Tags)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, ownerID)
	if err != nil {
		return nil, postgres.WrapTransient(fmt.Errorf("list tags: %w", err))
	}
	defer rows.Close()

	var tags []models.Tag
	for rows.Next() {
		var tag models.Tag
		if err := rows.Scan(&tag.ID, &tag.OwnerID, &tag.Name, &tag.Color, &tag.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, tag)
	}

	if err := rows.Err(); err != nil {
		return nil, postgres.WrapTransient(fmt.Errorf("iterate tags: %w", err))
	}

	return tags, nil
}

// Delete removes a tag; document associations go via ON DELETE CASCADE
func (r *PostgresTagRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Tags)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		return postgres.WrapTransient(fmt.Errorf("delete tag: %w", err))
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("tag %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// Attach links a tag to a document. ON CONFLICT DO NOTHING makes repeat
// tagging a no-op rather than an error.
func (r *PostgresTagRepository) Attach(ctx context.Context, documentID, tagID string) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (document_id, tag_id)
		VALUES ($1, $2)
		ON CONFLICT (document_id, tag_id) DO NOTHING
	`, r.tables.DocumentTags)

	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, documentID, tagID); err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("document or tag: %w", domain.ErrNotFound)
		}
		return postgres.WrapTransient(fmt.Errorf("attach tag: %w", err))
	}

	return nil
}

// Detach unlinks a tag from a document. Absent links are a no-op.
func (r *PostgresTagRepository) Detach(ctx context.Context, documentID, tagID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE document_id = $1 AND tag_id = $2`, r.tables.DocumentTags)

	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, documentID, tagID); err != nil {
		return postgres.WrapTransient(fmt.Errorf("detach tag: %w", err))
	}

	return nil
}

// ListByDocument lists the tags attached to a document
func (r *PostgresTagRepository) ListByDocument(ctx context.Context, documentID string) ([]models.Tag, error) {
	query := fmt.Sprintf(`
		SELECT t.id, t.owner_id, t.name, t.color, t.created_at
		FROM %s t
		JOIN %s dt ON dt.tag_id = t.id
		WHERE dt.document_id = $1
		ORDER BY t.name ASC
	`, r.tables.Tags, r.tables.DocumentTags)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, documentID)
	if err != nil {
		return nil, postgres.WrapTransient(fmt.Errorf("list document tags: %w", err))
	}
	defer rows.Close()

	var tags []models.Tag
	for rows.Next() {
		var tag models.Tag
		if err := rows.Scan(&tag.ID, &tag.OwnerID, &tag.Name, &tag.Color, &tag.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, tag)
	}

	if err := rows.Err(); err != nil {
		return nil, postgres.WrapTransient(fmt.Errorf("iterate document tags: %w", err))
	}

	return tags, nil
}

// DetachByDocuments removes all tag links of the given documents
func (r *PostgresTagRepository) DetachByDocuments(ctx context.Context, documentIDs []string) error {
	if len(documentIDs) == 0 {
		return nil
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE document_id = ANY($1)`, r.tables.DocumentTags)

	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, documentIDs); err != nil {
		return postgres.WrapTransient(fmt.Errorf("detach document tags: %w", err))
	}

	return nil
}
