package docstore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	models "dokudoku/internal/domain/models/docstore"
	docstoreRepo "dokudoku/internal/domain/repositories/docstore"
	"dokudoku/internal/repository/postgres"
)

// PostgresShareRepository implements the ShareRepository interface
type PostgresShareRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewShareRepository creates a new share repository
func NewShareRepository(config *postgres.RepositoryConfig) docstoreRepo.ShareRepository {
	return &PostgresShareRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Upsert inserts a share or overwrites the permission of an existing one.
// The unique index on (document_id, user_id) backs the at-most-one-row
// invariant; ON CONFLICT keeps the operation a single atomic statement.
func (r *PostgresShareRepository) Upsert(ctx context.Context, share *models.DocumentShare) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, document_id, user_id, permission, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (document_id, user_id)
		DO UPDATE SET permission = EXCLUDED.permission, updated_at = EXCLUDED.updated_at
		RETURNING id, created_at, updated_at
	`, r.tables.Shares)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		share.ID,
		share.DocumentID,
		share.UserID,
		share.Permission.String(),
		share.CreatedAt,
		share.UpdatedAt,
	).Scan(&share.ID, &share.CreatedAt, &share.UpdatedAt)

	if err != nil {
		return postgres.WrapTransient(fmt.Errorf("upsert share: %w", err))
	}

	return nil
}

// Get retrieves the share for a (document, user) pair, or nil
func (r *PostgresShareRepository) Get(ctx context.Context, documentID, userID string) (*models.DocumentShare, error) {
	query := fmt.Sprintf(`
		SELECT id, document_id, user_id, permission, created_at, updated_at
		FROM %s
		WHERE document_id = $1 AND user_id = $2
	`, r.tables.Shares)

	executor := postgres.GetExecutor(ctx, r.pool)
	share, err := scanShare(executor.QueryRow(ctx, query, documentID, userID))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, nil // No share, not an error
		}
		return nil, postgres.WrapTransient(fmt.Errorf("get share: %w", err))
	}

	return share, nil
}

// Delete removes the share for a (document, user) pair
func (r *PostgresShareRepository) Delete(ctx context.Context, documentID, userID string) (bool, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE document_id = $1 AND user_id = $2`, r.tables.Shares)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, documentID, userID)
	if err != nil {
		return false, postgres.WrapTransient(fmt.Errorf("delete share: %w", err))
	}

	return result.RowsAffected() > 0, nil
}

// ListByDocument lists all shares of a document
func (r *PostgresShareRepository) ListByDocument(ctx context.Context, documentID string) ([]models.DocumentShare, error) {
	query := fmt.Sprintf(`
		SELECT id, document_id, user_id, permission, created_at, updated_at
		FROM %s
		WHERE document_id = $1
		ORDER BY created_at ASC
	`, r.tables.Shares)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, documentID)
	if err != nil {
		return nil, postgres.WrapTransient(fmt.Errorf("list shares: %w", err))
	}
	defer rows.Close()

	var shares []models.DocumentShare
	for rows.Next() {
		share, err := scanShare(rows)
		if err != nil {
			return nil, fmt.Errorf("scan share: %w", err)
		}
		shares = append(shares, *share)
	}

	if err := rows.Err(); err != nil {
		return nil, postgres.WrapTransient(fmt.Errorf("iterate shares: %w", err))
	}

	return shares, nil
}

// DeleteByDocuments removes all shares of the given documents
func (r *PostgresShareRepository) DeleteByDocuments(ctx context.Context, documentIDs []string) error {
	if len(documentIDs) == 0 {
		return nil
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE document_id = ANY($1)`, r.tables.Shares)

	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, documentIDs); err != nil {
		return postgres.WrapTransient(fmt.Errorf("delete shares: %w", err))
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanShare(row rowScanner) (*models.DocumentShare, error) {
	var share models.DocumentShare
	var permission string
	err := row.Scan(
		&share.ID,
		&share.DocumentID,
		&share.UserID,
		&permission,
		&share.CreatedAt,
		&share.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	share.Permission, err = models.ParsePermission(permission)
	if err != nil {
		return nil, fmt.Errorf("share %s: %w", share.ID, err)
	}

	return &share, nil
}
