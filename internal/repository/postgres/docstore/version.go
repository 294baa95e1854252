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

// PostgresVersionRepository implements the VersionRepository interface
type PostgresVersionRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewVersionRepository creates a new version repository
func NewVersionRepository(config *postgres.RepositoryConfig) docstoreRepo.VersionRepository {
	return &PostgresVersionRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create inserts a version row. The unique constraint on
// (document_id, version_number) turns a lost numbering race into
// ErrVersionConflict instead of a silent overwrite.
func (r *PostgresVersionRepository) Create(ctx context.Context, version *models.DocumentVersion) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, document_id, version_number, file_location, file_size, created_by_id, change_description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`, r.tables.Versions)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		version.ID,
		version.DocumentID,
		version.VersionNumber,
		version.FileLocation,
		version.FileSize,
		version.CreatedByID,
		version.ChangeDescription,
		version.CreatedAt,
	).Scan(&version.CreatedAt)

	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return fmt.Errorf("version %d of document %s: %w",
				version.VersionNumber, version.DocumentID, domain.ErrVersionConflict)
		}
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("document %s: %w", version.DocumentID, domain.ErrNotFound)
		}
		return postgres.WrapTransient(fmt.Errorf("create version: %w", err))
	}

	return nil
}

// ListByDocument lists versions ascending by version number
func (r *PostgresVersionRepository) ListByDocument(ctx context.Context, documentID string) ([]models.DocumentVersion, error) {
	query := fmt.Sprintf(`
		SELECT id, document_id, version_number, file_location, file_size, created_by_id, change_description, created_at
		FROM %s
		WHERE document_id = $1
		ORDER BY version_number ASC
	`, r.tables.Versions)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, documentID)
	if err != nil {
		return nil, postgres.WrapTransient(fmt.Errorf("list versions: %w", err))
	}
	defer rows.Close()

	var versions []models.DocumentVersion
	for rows.Next() {
		var v models.DocumentVersion
		err := rows.Scan(
			&v.ID,
			&v.DocumentID,
			&v.VersionNumber,
			&v.FileLocation,
			&v.FileSize,
			&v.CreatedByID,
			&v.ChangeDescription,
			&v.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		versions = append(versions, v)
	}

	if err := rows.Err(); err != nil {
		return nil, postgres.WrapTransient(fmt.Errorf("iterate versions: %w", err))
	}

	return versions, nil
}

// DeleteByDocuments removes all versions of the given documents
func (r *PostgresVersionRepository) DeleteByDocuments(ctx context.Context, documentIDs []string) error {
	if len(documentIDs) == 0 {
		return nil
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE document_id = ANY($1)`, r.tables.Versions)

	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, documentIDs); err != nil {
		return postgres.WrapTransient(fmt.Errorf("delete versions: %w", err))
	}

	return nil
}
