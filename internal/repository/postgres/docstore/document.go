package docstore

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dokudoku/internal/domain"
	models "dokudoku/internal/domain/models/docstore"
	docstoreRepo "dokudoku/internal/domain/repositories/docstore"
	"dokudoku/internal/repository/postgres"
)

const documentColumns = "id, owner_id, folder_id, title, description, file_location, file_type, file_size, current_version, created_at, updated_at"

// PostgresDocumentRepository implements the DocumentRepository interface
type PostgresDocumentRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(config *postgres.RepositoryConfig) docstoreRepo.DocumentRepository {
	return &PostgresDocumentRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

func scanDocument(row pgx.Row, doc *models.Document) error {
	return row.Scan(
		&doc.ID,
		&doc.OwnerID,
		&doc.FolderID,
		&doc.Title,
		&doc.Description,
		&doc.FileLocation,
		&doc.FileType,
		&doc.FileSize,
		&doc.CurrentVersion,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
}

// Create creates a new document row
func (r *PostgresDocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, owner_id, folder_id, title, description, file_location, file_type, file_size, current_version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		doc.ID,
		doc.OwnerID,
		doc.FolderID,
		doc.Title,
		doc.Description,
		doc.FileLocation,
		doc.FileType,
		doc.FileSize,
		doc.CurrentVersion,
		doc.CreatedAt,
		doc.UpdatedAt,
	).Scan(&doc.CreatedAt, &doc.UpdatedAt)

	if err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("folder for document %q: %w", doc.Title, domain.ErrInvalidParent)
		}
		return postgres.WrapTransient(fmt.Errorf("create document: %w", err))
	}

	return nil
}

// GetByID retrieves a document by ID
func (r *PostgresDocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, documentColumns, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	var doc models.Document
	if err := scanDocument(executor.QueryRow(ctx, query, id), &doc); err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
		}
		return nil, postgres.WrapTransient(fmt.Errorf("get document: %w", err))
	}

	return &doc, nil
}

// GetByIDForUpdate retrieves a document and locks its row for the duration
// of the surrounding transaction. Callers must be inside ExecTx; the lock
// serializes concurrent version creation per document.
func (r *PostgresDocumentRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1 FOR UPDATE`, documentColumns, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	var doc models.Document
	if err := scanDocument(executor.QueryRow(ctx, query, id), &doc); err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
		}
		return nil, postgres.WrapTransient(fmt.Errorf("lock document: %w", err))
	}

	return &doc, nil
}

// Update persists metadata, placement and current_version changes
func (r *PostgresDocumentRepository) Update(ctx context.Context, doc *models.Document) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET folder_id = $1, title = $2, description = $3, file_location = $4,
		    file_type = $5, file_size = $6, current_version = $7, updated_at = $8
		WHERE id = $9
	`, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		doc.FolderID,
		doc.Title,
		doc.Description,
		doc.FileLocation,
		doc.FileType,
		doc.FileSize,
		doc.CurrentVersion,
		doc.UpdatedAt,
		doc.ID,
	)

	if err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("folder for document %q: %w", doc.Title, domain.ErrInvalidParent)
		}
		return postgres.WrapTransient(fmt.Errorf("update document: %w", err))
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", doc.ID, domain.ErrNotFound)
	}

	return nil
}

// Delete deletes a single document row
func (r *PostgresDocumentRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		return postgres.WrapTransient(fmt.Errorf("delete document: %w", err))
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// ListByFolder lists documents in a folder (nil = root level)
func (r *PostgresDocumentRepository) ListByFolder(ctx context.Context, ownerID string, folderID *string) ([]models.Document, error) {
	var query string
	var args []interface{}

	if folderID == nil {
		query = fmt.Sprintf(`
			SELECT %s FROM %s
			WHERE owner_id = $1 AND folder_id IS NULL
			ORDER BY title ASC, created_at ASC
		`, documentColumns, r.tables.Documents)
		args = append(args, ownerID)
	} else {
		query = fmt.Sprintf(`
			SELECT %s FROM %s
			WHERE owner_id = $1 AND folder_id = $2
			ORDER BY title ASC, created_at ASC
		`, documentColumns, r.tables.Documents)
		args = append(args, ownerID, *folderID)
	}

	return r.queryDocuments(ctx, query, args...)
}

// ListIDsByFolders returns ids of documents placed in any of the folders
func (r *PostgresDocumentRepository) ListIDsByFolders(ctx context.Context, folderIDs []string) ([]string, error) {
	if len(folderIDs) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT id FROM %s WHERE folder_id = ANY($1)`, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, folderIDs)
	if err != nil {
		return nil, postgres.WrapTransient(fmt.Errorf("list document ids: %w", err))
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan document id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, postgres.WrapTransient(fmt.Errorf("iterate document ids: %w", err))
	}

	return ids, nil
}

// DeleteAll deletes a set of document rows in one statement
func (r *PostgresDocumentRepository) DeleteAll(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ANY($1)`, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, ids); err != nil {
		return postgres.WrapTransient(fmt.Errorf("delete documents: %w", err))
	}

	return nil
}

// GetAllMetadataByOwner retrieves all documents of an owner
func (r *PostgresDocumentRepository) GetAllMetadataByOwner(ctx context.Context, ownerID string) ([]models.Document, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE owner_id = $1
		ORDER BY title ASC, created_at ASC
	`, documentColumns, r.tables.Documents)

	return r.queryDocuments(ctx, query, ownerID)
}

// Search returns the accessible-document page for the options' user.
//
// Accessibility is enforced in SQL: a document qualifies when the user
// owns it or holds a share row, so inaccessible documents can never leak
// into a page. With a query string, ranking uses websearch_to_tsquery +
// ts_rank over title (weighted 2x) and description; otherwise recency.
func (r *PostgresDocumentRepository) Search(ctx context.Context, opts *models.SearchOptions) (*models.SearchResults, error) {
	opts.ApplyDefaults()
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	var conditions []string
	var args []interface{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	userArg := arg(opts.UserID)
	sharedClause := fmt.Sprintf(
		"EXISTS (SELECT 1 FROM %s s WHERE s.document_id = d.id AND s.user_id = %s)",
		r.tables.Shares, userArg,
	)
	if opts.SharedOnly {
		conditions = append(conditions, sharedClause)
	} else {
		conditions = append(conditions, fmt.Sprintf("(d.owner_id = %s OR %s)", userArg, sharedClause))
	}

	if opts.FolderID != nil {
		conditions = append(conditions, fmt.Sprintf("d.folder_id = %s", arg(*opts.FolderID)))
	}
	if opts.FileType != "" {
		conditions = append(conditions, fmt.Sprintf("d.file_type = %s", arg(opts.FileType)))
	}
	if len(opts.TagIDs) > 0 {
		conditions = append(conditions, fmt.Sprintf(
			"(SELECT COUNT(DISTINCT dt.tag_id) FROM %s dt WHERE dt.document_id = d.id AND dt.tag_id = ANY(%s)) = %s",
			r.tables.DocumentTags, arg(opts.TagIDs), arg(len(opts.TagIDs)),
		))
	}

	scoreExpr := "0::float8"
	orderBy := "d.updated_at DESC, d.id ASC"
	if opts.Query != "" {
		langArg := arg(opts.Language)
		queryArg := arg(opts.Query)
		conditions = append(conditions, fmt.Sprintf(
			"to_tsvector(%s::regconfig, d.title || ' ' || COALESCE(d.description, '')) @@ websearch_to_tsquery(%s::regconfig, %s)",
			langArg, langArg, queryArg,
		))
		scoreExpr = fmt.Sprintf(
			"ts_rank(to_tsvector(%s::regconfig, d.title), websearch_to_tsquery(%s::regconfig, %s)) * 2.0 + "+
				"ts_rank(to_tsvector(%s::regconfig, COALESCE(d.description, '')), websearch_to_tsquery(%s::regconfig, %s))",
			langArg, langArg, queryArg, langArg, langArg, queryArg,
		)
		orderBy = "score DESC, d.updated_at DESC, d.id ASC"
	}

	where := strings.Join(conditions, " AND ")
	executor := postgres.GetExecutor(ctx, r.pool)

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s d WHERE %s`, r.tables.Documents, where)
	var total int
	if err := executor.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, postgres.WrapTransient(fmt.Errorf("count search results: %w", err))
	}

	pageQuery := fmt.Sprintf(`
		SELECT d.id, d.owner_id, d.folder_id, d.title, d.description, d.file_location,
		       d.file_type, d.file_size, d.current_version, d.created_at, d.updated_at,
		       %s AS score
		FROM %s d
		WHERE %s
		ORDER BY %s
		LIMIT %s OFFSET %s
	`, scoreExpr, r.tables.Documents, where, orderBy, arg(opts.Limit), arg(opts.Offset))

	rows, err := executor.Query(ctx, pageQuery, args...)
	if err != nil {
		return nil, postgres.WrapTransient(fmt.Errorf("search documents: %w", err))
	}
	defer rows.Close()

	results := make([]models.SearchResult, 0, opts.Limit)
	for rows.Next() {
		var res models.SearchResult
		err := rows.Scan(
			&res.Document.ID,
			&res.Document.OwnerID,
			&res.Document.FolderID,
			&res.Document.Title,
			&res.Document.Description,
			&res.Document.FileLocation,
			&res.Document.FileType,
			&res.Document.FileSize,
			&res.Document.CurrentVersion,
			&res.Document.CreatedAt,
			&res.Document.UpdatedAt,
			&res.Score,
		)
		if err != nil {
			return nil, fmt.Errorf("scan search result: %w", err)
		}
		results = append(results, res)
	}

	if err := rows.Err(); err != nil {
		return nil, postgres.WrapTransient(fmt.Errorf("iterate search results: %w", err))
	}

	return &models.SearchResults{
		Results: results,
		Total:   total,
		Limit:   opts.Limit,
		Offset:  opts.Offset,
	}, nil
}

func (r *PostgresDocumentRepository) queryDocuments(ctx context.Context, query string, args ...interface{}) ([]models.Document, error) {
	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, postgres.WrapTransient(fmt.Errorf("list documents: %w", err))
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		var doc models.Document
		err := rows.Scan(
			&doc.ID,
			&doc.OwnerID,
			&doc.FolderID,
			&doc.Title,
			&doc.Description,
			&doc.FileLocation,
			&doc.FileType,
			&doc.FileSize,
			&doc.CurrentVersion,
			&doc.CreatedAt,
			&doc.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, postgres.WrapTransient(fmt.Errorf("iterate documents: %w", err))
	}

	return docs, nil
}
