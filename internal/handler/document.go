package handler

import (
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"

	"dokudoku/internal/config"
	"dokudoku/internal/domain"
	models "dokudoku/internal/domain/models/docstore"
	docstoreSvc "dokudoku/internal/domain/services/docstore"
	"dokudoku/internal/filetypes"
	"dokudoku/internal/httputil"
)

// DocumentHandler handles document HTTP requests
type DocumentHandler struct {
	docService docstoreSvc.DocumentService
	orgService docstoreSvc.OrganizationService
	blobs      domain.BlobStorage
	registry   *filetypes.Registry
	logger     *slog.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(
	docService docstoreSvc.DocumentService,
	orgService docstoreSvc.OrganizationService,
	blobs domain.BlobStorage,
	registry *filetypes.Registry,
	logger *slog.Logger,
) *DocumentHandler {
	return &DocumentHandler{
		docService: docService,
		orgService: orgService,
		blobs:      blobs,
		registry:   registry,
		logger:     logger,
	}
}

// HealthCheck responds to health probes
// GET /health
func (h *DocumentHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Upload stores the file bytes and registers the document with version 1
// POST /api/documents (multipart: file, title, description?, folder_id?)
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	file, header, contentType, ok := h.parseUpload(w, r)
	if !ok {
		return
	}
	defer file.Close()

	result, err := h.blobs.Put(r.Context(), file, header.Filename, contentType)
	if err != nil {
		h.logger.Error("blob upload failed", "filename", header.Filename, "error", err)
		httputil.RespondError(w, http.StatusServiceUnavailable, "file storage unavailable")
		return
	}

	title := r.FormValue("title")
	if title == "" {
		title = header.Filename
	}

	req := &docstoreSvc.UploadRequest{
		OwnerID:      httputil.GetUserID(r),
		Title:        title,
		FolderID:     optionalFormValue(r, "folder_id"),
		Description:  optionalFormValue(r, "description"),
		FileLocation: result.StorageKey,
		FileType:     contentType,
		FileSize:     result.Size,
	}

	doc, err := h.docService.Upload(r.Context(), req)
	if err != nil {
		// The orphaned blob is left in place; keys are content-addressed,
		// so a retry of the same file reuses it.
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, doc)
}

// GetDocument retrieves a document with its tags
// GET /api/documents/{id}
func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "document ID is required")
		return
	}

	doc, err := h.docService.GetDocument(r.Context(), httputil.GetUserID(r), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// GetPermission returns the caller's effective permission on a document
// GET /api/documents/{id}/permission
func (h *DocumentHandler) GetPermission(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "document ID is required")
		return
	}

	permission, err := h.orgService.EffectivePermission(r.Context(), id, httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}
	// NONE is reported as not found so unshared documents stay invisible
	if permission == models.PermissionNone {
		httputil.RespondError(w, http.StatusNotFound, "document not found")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]string{"permission": permission.String()})
}

// UpdateDocument edits title/description
// PATCH /api/documents/{id}
func (h *DocumentHandler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "document ID is required")
		return
	}

	var req docstoreSvc.UpdateDocumentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	doc, err := h.docService.UpdateMetadata(r.Context(), httputil.GetUserID(r), id, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// DeleteDocument removes a document with all versions, shares and tag links
// DELETE /api/documents/{id}
func (h *DocumentHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "document ID is required")
		return
	}

	if err := h.docService.DeleteDocument(r.Context(), httputil.GetUserID(r), id); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Download streams the current version's bytes. Honors Range requests.
// GET /api/documents/{id}/download
func (h *DocumentHandler) Download(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "document ID is required")
		return
	}

	doc, err := h.docService.GetDocument(r.Context(), httputil.GetUserID(r), id)
	if err != nil {
		handleError(w, err)
		return
	}

	rc, contentLen, contentRange, contentType, err := h.blobs.Get(r.Context(), doc.FileLocation, r.Header.Get("Range"))
	if err != nil {
		h.logger.Error("blob download failed", "document_id", id, "key", doc.FileLocation, "error", err)
		httputil.RespondError(w, http.StatusServiceUnavailable, "file storage unavailable")
		return
	}
	defer rc.Close()

	if contentType == "" {
		contentType = doc.FileType
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.FormatInt(contentLen, 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Title))
	w.Header().Set("Accept-Ranges", "bytes")

	status := http.StatusOK
	if contentRange != "" {
		w.Header().Set("Content-Range", contentRange)
		status = http.StatusPartialContent
	}
	w.WriteHeader(status)

	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Debug("download interrupted", "document_id", id, "error", err)
	}
}

// CreateVersion uploads a new file as the next version of a document
// POST /api/documents/{id}/versions (multipart: file, change_description?)
func (h *DocumentHandler) CreateVersion(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "document ID is required")
		return
	}

	file, header, contentType, ok := h.parseUpload(w, r)
	if !ok {
		return
	}
	defer file.Close()

	result, err := h.blobs.Put(r.Context(), file, header.Filename, contentType)
	if err != nil {
		h.logger.Error("blob upload failed", "filename", header.Filename, "error", err)
		httputil.RespondError(w, http.StatusServiceUnavailable, "file storage unavailable")
		return
	}

	req := &docstoreSvc.CreateVersionRequest{
		ActorID:           httputil.GetUserID(r),
		DocumentID:        id,
		FileLocation:      result.StorageKey,
		FileSize:          result.Size,
		ChangeDescription: optionalFormValue(r, "change_description"),
	}

	version, err := h.docService.CreateVersion(r.Context(), req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, version)
}

// ListVersions lists a document's version history
// GET /api/documents/{id}/versions
func (h *DocumentHandler) ListVersions(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "document ID is required")
		return
	}

	versions, err := h.docService.ListVersions(r.Context(), httputil.GetUserID(r), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{"versions": versions})
}

// moveDocumentRequest targets a folder; null moves to root.
type moveDocumentRequest struct {
	FolderID *string `json:"folder_id"`
}

// MoveDocument places a document into a folder
// PATCH /api/documents/{id}/move
func (h *DocumentHandler) MoveDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "document ID is required")
		return
	}

	var req moveDocumentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	doc, err := h.docService.MoveDocument(r.Context(), httputil.GetUserID(r), id, req.FolderID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// TagDocument attaches a tag to a document
// POST /api/documents/{id}/tags/{tagId}
func (h *DocumentHandler) TagDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	tagID := r.PathValue("tagId")
	if id == "" || tagID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "document ID and tag ID are required")
		return
	}

	if err := h.docService.TagDocument(r.Context(), httputil.GetUserID(r), id, tagID); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UntagDocument detaches a tag from a document
// DELETE /api/documents/{id}/tags/{tagId}
func (h *DocumentHandler) UntagDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	tagID := r.PathValue("tagId")
	if id == "" || tagID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "document ID and tag ID are required")
		return
	}

	if err := h.docService.UntagDocument(r.Context(), httputil.GetUserID(r), id, tagID); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SharedWithMe lists documents shared to the actor
// GET /api/documents/shared-with-me
func (h *DocumentHandler) SharedWithMe(w http.ResponseWriter, r *http.Request) {
	opts := searchOptionsFromQuery(r)
	opts.SharedOnly = true

	results, err := h.orgService.SearchAccessible(r.Context(), opts)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, results)
}

// parseUpload extracts and validates the multipart file part.
func (h *DocumentHandler) parseUpload(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, config.MaxUploadBytes)

	// 32MB in memory, rest spills to temp files
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid multipart request")
		return nil, nil, "", false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "file part is required")
		return nil, nil, "", false
	}

	contentType := header.Header.Get("Content-Type")
	ft, err := h.registry.Lookup(contentType)
	if err != nil {
		// Fall back to the filename extension when the client sent a
		// generic content type
		ft, err = h.registry.ByExtension(filepath.Ext(header.Filename))
		if err != nil {
			file.Close()
			httputil.RespondError(w, http.StatusBadRequest,
				fmt.Sprintf("file type %q is not accepted", contentType))
			return nil, nil, "", false
		}
		contentType = ft.ID
	}

	maxBytes := int64(config.MaxUploadBytes)
	if ft.MaxBytes > 0 && ft.MaxBytes < maxBytes {
		maxBytes = ft.MaxBytes
	}
	if header.Size > maxBytes {
		file.Close()
		httputil.RespondError(w, http.StatusBadRequest,
			fmt.Sprintf("%s files are limited to %d bytes", ft.DisplayName, maxBytes))
		return nil, nil, "", false
	}

	return file, header, contentType, true
}

func optionalFormValue(r *http.Request, key string) *string {
	if v := r.FormValue(key); v != "" {
		return &v
	}
	return nil
}

// searchOptionsFromQuery builds SearchOptions from URL query parameters.
func searchOptionsFromQuery(r *http.Request) *models.SearchOptions {
	q := r.URL.Query()

	opts := &models.SearchOptions{
		UserID:   httputil.GetUserID(r),
		Query:    q.Get("q"),
		FileType: q.Get("file_type"),
		Language: q.Get("language"),
	}

	if folderID := q.Get("folder_id"); folderID != "" {
		opts.FolderID = &folderID
	}
	if tags, ok := q["tag_id"]; ok {
		opts.TagIDs = tags
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil {
		opts.Limit = limit
	}
	if offset, err := strconv.Atoi(q.Get("offset")); err == nil {
		opts.Offset = offset
	}

	return opts
}
