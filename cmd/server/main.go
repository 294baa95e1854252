package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"dokudoku/internal/auth"
	"dokudoku/internal/config"
	"dokudoku/internal/directory"
	"dokudoku/internal/filetypes"
	"dokudoku/internal/handler"
	"dokudoku/internal/middleware"
	"dokudoku/internal/repository/postgres"
	postgresDocstore "dokudoku/internal/repository/postgres/docstore"
	serviceDocstore "dokudoku/internal/service/docstore"
	"dokudoku/internal/storage/s3"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	logOut := io.Writer(os.Stdout)
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
		// In dev, tee logs into a rotating file for easier debugging
		if logFile, err := config.SetupLogFile("logs", 5); err == nil {
			defer logFile.Close()
			logOut = io.MultiWriter(os.Stdout, logFile)
		}
	}

	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger) // Set as default logger

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	// Create JWT verifier
	jwtVerifier, err := auth.NewJWTVerifier(cfg.JWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

	// Create pgx connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected",
		"max_conns", 25,
		"min_conns", 5,
	)

	// Create blob storage
	blobs, err := s3.New(ctx, s3.Config{
		Endpoint:  cfg.S3Endpoint,
		Bucket:    cfg.S3Bucket,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		UseSSL:    cfg.S3UseSSL,
		PathStyle: true,
	})
	if err != nil {
		log.Fatalf("Failed to create blob storage: %v", err)
	}
	logger.Info("blob storage connected", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)

	// Initialize file type registry
	registry, err := filetypes.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to initialize file type registry: %v", err)
	}
	logger.Info("file type registry initialized", "types", len(registry.List()))

	// Create table names
	tables := postgres.NewTableNames(cfg.TablePrefix)

	// Create repositories
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

	// Create services
	folderService := serviceDocstore.NewFolderService(folderRepo, docRepo, versionRepo, shareRepo, tagRepo, txManager, blobs, logger)
	docService := serviceDocstore.NewDocumentService(docRepo, folderRepo, versionRepo, shareRepo, tagRepo, txManager, blobs, registry, logger)
	shareService := serviceDocstore.NewShareService(shareRepo, docRepo, logger)
	orgService := serviceDocstore.NewOrganizationService(docRepo, shareRepo, logger)
	treeService := serviceDocstore.NewTreeService(folderRepo, docRepo, logger)
	tagService := serviceDocstore.NewTagService(tagRepo, logger)

	// User directory for share-by-email (optional)
	var userDirectory handler.UserDirectory
	if cfg.DirectoryURL != "" {
		userDirectory = directory.NewClient(cfg.DirectoryURL, cfg.DirectoryKey)
		logger.Info("user directory configured", "url", cfg.DirectoryURL)
	}

	// Create handlers
	folderHandler := handler.NewFolderHandler(folderService, logger)
	docHandler := handler.NewDocumentHandler(docService, orgService, blobs, registry, logger)
	shareHandler := handler.NewShareHandler(shareService, userDirectory, logger)
	tagHandler := handler.NewTagHandler(tagService, logger)
	treeHandler := handler.NewTreeHandler(treeService, logger)
	searchHandler := handler.NewSearchHandler(orgService, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", docHandler.HealthCheck)

	// Folder routes
	mux.HandleFunc("POST /api/folders", folderHandler.CreateFolder)
	mux.HandleFunc("GET /api/folders", folderHandler.ListRoot)
	mux.HandleFunc("GET /api/folders/tree", treeHandler.GetTree) // Must come before {id} route
	mux.HandleFunc("GET /api/folders/{id}", folderHandler.GetFolder)
	mux.HandleFunc("GET /api/folders/{id}/children", folderHandler.ListChildren)
	mux.HandleFunc("PATCH /api/folders/{id}", folderHandler.UpdateFolder)
	mux.HandleFunc("DELETE /api/folders/{id}", folderHandler.DeleteFolder)

	// Document routes
	mux.HandleFunc("POST /api/documents", docHandler.Upload)
	mux.HandleFunc("GET /api/documents/search", searchHandler.Search) // Must come before {id} route
	mux.HandleFunc("GET /api/documents/shared-with-me", docHandler.SharedWithMe)
	mux.HandleFunc("GET /api/documents/{id}", docHandler.GetDocument)
	mux.HandleFunc("PATCH /api/documents/{id}", docHandler.UpdateDocument)
	mux.HandleFunc("DELETE /api/documents/{id}", docHandler.DeleteDocument)
	mux.HandleFunc("GET /api/documents/{id}/download", docHandler.Download)
	mux.HandleFunc("GET /api/documents/{id}/permission", docHandler.GetPermission)
	mux.HandleFunc("PATCH /api/documents/{id}/move", docHandler.MoveDocument)

	// Version routes
	mux.HandleFunc("POST /api/documents/{id}/versions", docHandler.CreateVersion)
	mux.HandleFunc("GET /api/documents/{id}/versions", docHandler.ListVersions)

	// Share routes
	mux.HandleFunc("POST /api/documents/{id}/shares", shareHandler.Grant)
	mux.HandleFunc("GET /api/documents/{id}/shares", shareHandler.ListShares)
	mux.HandleFunc("DELETE /api/documents/{id}/shares/{userId}", shareHandler.Revoke)

	// Tag routes
	mux.HandleFunc("POST /api/documents/{id}/tags/{tagId}", docHandler.TagDocument)
	mux.HandleFunc("DELETE /api/documents/{id}/tags/{tagId}", docHandler.UntagDocument)
	mux.HandleFunc("POST /api/tags", tagHandler.CreateTag)
	mux.HandleFunc("GET /api/tags", tagHandler.ListTags)
	mux.HandleFunc("DELETE /api/tags/{id}", tagHandler.DeleteTag)

	// Build middleware chain
	var root http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → Auth → Routes
	root = middleware.Auth(jwtVerifier, logger)(root)
	root = middleware.Recovery(logger)(root)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "Range"},
		ExposedHeaders:   []string{"Content-Range", "Content-Disposition"},
		AllowCredentials: true,
	})
	root = corsHandler.Handler(root)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // Disabled to allow large downloads
		IdleTimeout:  60 * time.Second,
	}

	// Start server, shut down cleanly on SIGINT/SIGTERM
	go func() {
		logger.Info("server listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
