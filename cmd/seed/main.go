package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"os"

	"dokudoku/internal/config"
	"dokudoku/internal/directory"
	"dokudoku/internal/domain"
	docstoreSvc "dokudoku/internal/domain/services/docstore"
	"dokudoku/internal/filetypes"
	"dokudoku/internal/repository/postgres"
	postgresDocstore "dokudoku/internal/repository/postgres/docstore"
	serviceDocstore "dokudoku/internal/service/docstore"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

// defaultSeedUserID is the demo owner all seeded data belongs to when no
// user directory is configured. Override with SEED_USER_ID.
const (
	defaultSeedUserID       = "00000000-0000-0000-0000-000000000001"
	defaultSeedUserEmail    = "demo@dokudoku.dev"
	defaultSeedUserPassword = "demo-password-1"
)

func main() {
	// Parse command-line flags
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed data")
	clearData := flag.Bool("clear-data", false, "Clear the seed user's data (keep schema)")
	flag.Parse()

	// Load .env file
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && (*dropTables || *clearData) {
		log.Fatalf("BLOCKED: Cannot run destructive operations (--drop-tables or --clear-data) in production environment")
	}

	seedUserID, err := resolveSeedUser(cfg)
	if err != nil {
		log.Fatalf("Failed to resolve seed user: %v", err)
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	log.Printf("Seeding database (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)

	// Create database connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// Create table names
	tables := postgres.NewTableNames(cfg.TablePrefix)

	// Drop tables if requested
	if *dropTables {
		log.Println("Dropping all tables...")
		if err := dropAllTables(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Println("Tables dropped")
	}

	// Run schema to ensure tables exist
	log.Println("Ensuring database schema is up to date...")
	if err := runSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	log.Println("Schema ready")

	if *schemaOnly {
		log.Println("Schema setup complete (schema-only mode)")
		return
	}

	// Clear existing data for the seed user
	log.Println("Clearing the seed user's documents and folders...")
	if err := clearOwnerData(ctx, pool, tables, seedUserID); err != nil {
		log.Fatalf("Failed to clear data: %v", err)
	}
	if *clearData {
		// Deprovision the demo login along with its data
		if cfg.DirectoryURL != "" && os.Getenv("SEED_USER_ID") == "" {
			dir := directory.NewClient(cfg.DirectoryURL, cfg.DirectoryKey)
			if err := dir.DeleteUserByEmail(seedUserEmail()); err != nil {
				log.Fatalf("Failed to delete demo user: %v", err)
			}
			log.Printf("Deleted demo user %s", seedUserEmail())
		}
		log.Println("Data cleared successfully")
		return
	}

	// Create repositories and services
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	folderRepo := postgresDocstore.NewFolderRepository(repoConfig)
	docRepo := postgresDocstore.NewDocumentRepository(repoConfig)
	versionRepo := postgresDocstore.NewVersionRepository(repoConfig)
	shareRepo := postgresDocstore.NewShareRepository(repoConfig)
	tagRepo := postgresDocstore.NewTagRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool, logger)

	registry, err := filetypes.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to initialize file type registry: %v", err)
	}

	// No blob storage for seeding; the storage keys below are synthetic
	folderService := serviceDocstore.NewFolderService(folderRepo, docRepo, versionRepo, shareRepo, tagRepo, txManager, nil, logger)
	docService := serviceDocstore.NewDocumentService(docRepo, folderRepo, versionRepo, shareRepo, tagRepo, txManager, nil, registry, logger)
	tagService := serviceDocstore.NewTagService(tagRepo, logger)

	log.Println("Seeding folders, documents and tags...")

	// Folder hierarchy: Reports/{Quarterly, Annual}, Contracts, Notes
	folderIDs := map[string]string{}
	for _, f := range []struct{ name, parent string }{
		{"Reports", ""},
		{"Quarterly", "Reports"},
		{"Annual", "Reports"},
		{"Contracts", ""},
		{"Notes", ""},
	} {
		req := &docstoreSvc.CreateFolderRequest{OwnerID: seedUserID, Name: f.name}
		if f.parent != "" {
			parentID := folderIDs[f.parent]
			req.ParentID = &parentID
		}
		folder, err := folderService.CreateFolder(ctx, req)
		if err != nil {
			log.Fatalf("Failed to create folder %q: %v", f.name, err)
		}
		folderIDs[f.name] = folder.ID
		log.Printf("Created folder %s (ID: %s)", folder.Path, folder.ID)
	}

	// Tags
	tagIDs := map[string]string{}
	for _, t := range []struct{ name, color string }{
		{"finance", "#2d7ff9"},
		{"legal", "#d9480f"},
		{"draft", "#808080"},
	} {
		tag, err := tagService.CreateTag(ctx, &docstoreSvc.CreateTagRequest{
			OwnerID: seedUserID, Name: t.name, Color: t.color,
		})
		if err != nil {
			log.Fatalf("Failed to create tag %q: %v", t.name, err)
		}
		tagIDs[t.name] = tag.ID
	}

	// Documents
	for i, d := range []struct {
		title, folder, fileType string
		size                    int64
		tags                    []string
	}{
		{"Q1 Report.pdf", "Quarterly", "application/pdf", 482113, []string{"finance"}},
		{"Q2 Report.pdf", "Quarterly", "application/pdf", 518227, []string{"finance"}},
		{"2025 Annual Review.docx", "Annual", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", 1048576, []string{"finance", "draft"}},
		{"Office Lease.pdf", "Contracts", "application/pdf", 231004, []string{"legal"}},
		{"Meeting Notes.md", "Notes", "text/markdown", 2048, nil},
		{"Scratchpad.txt", "", "text/plain", 512, []string{"draft"}},
	} {
		req := &docstoreSvc.UploadRequest{
			OwnerID:      seedUserID,
			Title:        d.title,
			FileLocation: syntheticKey(i),
			FileType:     d.fileType,
			FileSize:     d.size,
		}
		if d.folder != "" {
			folderID := folderIDs[d.folder]
			req.FolderID = &folderID
		}
		doc, err := docService.Upload(ctx, req)
		if err != nil {
			log.Fatalf("Failed to create document %q: %v", d.title, err)
		}
		for _, tagName := range d.tags {
			if err := docService.TagDocument(ctx, seedUserID, doc.ID, tagIDs[tagName]); err != nil {
				log.Fatalf("Failed to tag document %q: %v", d.title, err)
			}
		}
		log.Printf("Created document %s (ID: %s)", d.title, doc.ID)
	}

	log.Println("Seeding complete!")
}

// resolveSeedUser decides which owner the seeded data belongs to.
// SEED_USER_ID wins; otherwise, with a user directory configured, the
// demo user is provisioned there so the seeded rows line up with a real
// login; failing both, a fixed UUID is used.
func resolveSeedUser(cfg *config.Config) (string, error) {
	if id := os.Getenv("SEED_USER_ID"); id != "" {
		return id, nil
	}
	if cfg.DirectoryURL == "" {
		return defaultSeedUserID, nil
	}

	dir := directory.NewClient(cfg.DirectoryURL, cfg.DirectoryKey)
	email := seedUserEmail()
	id, err := dir.LookupByEmail(email)
	if err == nil {
		log.Printf("Using existing demo user %s (ID: %s)", email, id)
		return id, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return "", err
	}

	password := os.Getenv("SEED_USER_PASSWORD")
	if password == "" {
		password = defaultSeedUserPassword
	}
	id, err = dir.CreateUser(email, password)
	if err != nil {
		return "", err
	}
	log.Printf("Provisioned demo user %s (ID: %s)", email, id)
	return id, nil
}

func seedUserEmail() string {
	if email := os.Getenv("SEED_USER_EMAIL"); email != "" {
		return email
	}
	return defaultSeedUserEmail
}

// syntheticKey fabricates a content-addressed-looking storage key for
// seed rows that have no real blob behind them.
func syntheticKey(i int) string {
	return "sha256/" + string(rune('a'+i)) + "000000000000000000000000000000000000000000000000000000000000000"
}

// runSchema creates tables if they don't exist
func runSchema(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, tablePrefix string) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,

		`CREATE TABLE IF NOT EXISTS ` + tables.Folders + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			owner_id UUID NOT NULL,
			parent_id UUID REFERENCES ` + tables.Folders + `(id),
			name TEXT NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW(),
			UNIQUE(owner_id, parent_id, name)
		)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.Documents + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			owner_id UUID NOT NULL,
			folder_id UUID REFERENCES ` + tables.Folders + `(id),
			title TEXT NOT NULL,
			description TEXT,
			file_location TEXT NOT NULL,
			file_type TEXT NOT NULL,
			file_size BIGINT NOT NULL DEFAULT 0,
			current_version INTEGER NOT NULL DEFAULT 1,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.Versions + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			document_id UUID NOT NULL REFERENCES ` + tables.Documents + `(id),
			version_number INTEGER NOT NULL,
			file_location TEXT NOT NULL,
			file_size BIGINT NOT NULL DEFAULT 0,
			created_by_id UUID NOT NULL,
			change_description TEXT,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			UNIQUE(document_id, version_number)
		)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.Shares + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			document_id UUID NOT NULL REFERENCES ` + tables.Documents + `(id),
			user_id UUID NOT NULL,
			permission TEXT NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW(),
			UNIQUE(document_id, user_id)
		)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.Tags + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			owner_id UUID NOT NULL,
			name TEXT NOT NULL,
			color TEXT NOT NULL DEFAULT '#808080',
			created_at TIMESTAMPTZ DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.DocumentTags + ` (
			document_id UUID NOT NULL REFERENCES ` + tables.Documents + `(id),
			tag_id UUID NOT NULL REFERENCES ` + tables.Tags + `(id) ON DELETE CASCADE,
			PRIMARY KEY (document_id, tag_id)
		)`,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}

	indexes := []string{
		// Root-level sibling uniqueness (NULL parent_id escapes the UNIQUE constraint)
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_` + tablePrefix + `folders_root_unique ON ` + tables.Folders + `(owner_id, name) WHERE parent_id IS NULL`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `folders_owner_parent ON ` + tables.Folders + `(owner_id, parent_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `documents_owner_folder ON ` + tables.Documents + `(owner_id, folder_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `shares_user ON ` + tables.Shares + `(user_id)`,
		// Case-insensitive per-owner tag names
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_` + tablePrefix + `tags_owner_name ON ` + tables.Tags + `(owner_id, LOWER(name))`,
		// Full-text search over title and description
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `documents_fts ON ` + tables.Documents + ` USING GIN (to_tsvector('english', title || ' ' || COALESCE(description, '')))`,
	}

	for _, indexSQL := range indexes {
		if _, err := pool.Exec(ctx, indexSQL); err != nil {
			return err
		}
	}

	return nil
}

// dropAllTables drops all tables in reverse order (to respect foreign keys)
func dropAllTables(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	tableNames := []string{
		tables.DocumentTags,
		tables.Tags,
		tables.Shares,
		tables.Versions,
		tables.Documents,
		tables.Folders,
	}

	for _, table := range tableNames {
		dropSQL := "DROP TABLE IF EXISTS " + table + " CASCADE"
		if _, err := pool.Exec(ctx, dropSQL); err != nil {
			return err
		}
		log.Printf("  Dropped %s", table)
	}

	return nil
}

// clearOwnerData clears all data belonging to an owner
func clearOwnerData(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, ownerID string) error {
	statements := []string{
		`DELETE FROM ` + tables.DocumentTags + ` WHERE document_id IN (SELECT id FROM ` + tables.Documents + ` WHERE owner_id = $1)`,
		`DELETE FROM ` + tables.Tags + ` WHERE owner_id = $1`,
		`DELETE FROM ` + tables.Shares + ` WHERE document_id IN (SELECT id FROM ` + tables.Documents + ` WHERE owner_id = $1)`,
		`DELETE FROM ` + tables.Versions + ` WHERE document_id IN (SELECT id FROM ` + tables.Documents + ` WHERE owner_id = $1)`,
		`DELETE FROM ` + tables.Documents + ` WHERE owner_id = $1`,
		`DELETE FROM ` + tables.Folders + ` WHERE owner_id = $1`,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt, ownerID); err != nil {
			return err
		}
	}

	return nil
}
