package handler

import (
	"log/slog"
	"net/http"

	models "dokudoku/internal/domain/models/docstore"
	docstoreSvc "dokudoku/internal/domain/services/docstore"
	"dokudoku/internal/httputil"
)

// UserDirectory resolves e-mail addresses to user ids for share-by-email.
type UserDirectory interface {
	LookupByEmail(email string) (string, error)
}

// ShareHandler handles document sharing HTTP requests
type ShareHandler struct {
	shareService docstoreSvc.ShareService
	directory    UserDirectory
	logger       *slog.Logger
}

// NewShareHandler creates a new share handler. directory may be nil, in
// which case share-by-email is unavailable and grants require a user id.
func NewShareHandler(shareService docstoreSvc.ShareService, directory UserDirectory, logger *slog.Logger) *ShareHandler {
	return &ShareHandler{
		shareService: shareService,
		directory:    directory,
		logger:       logger,
	}
}

// grantRequest identifies the grantee by user id or by e-mail.
type grantRequest struct {
	UserID     string `json:"user_id,omitempty"`
	Email      string `json:"email,omitempty"`
	Permission string `json:"permission"`
}

// Grant creates or updates a share
// POST /api/documents/{id}/shares
func (h *ShareHandler) Grant(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "document ID is required")
		return
	}

	var req grantRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	permission, err := models.ParsePermission(req.Permission)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "permission must be VIEW or EDIT")
		return
	}

	targetID := req.UserID
	if targetID == "" && req.Email != "" {
		if h.directory == nil {
			httputil.RespondError(w, http.StatusBadRequest, "sharing by e-mail is not configured, provide user_id")
			return
		}
		targetID, err = h.directory.LookupByEmail(req.Email)
		if err != nil {
			handleError(w, err)
			return
		}
	}
	if targetID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "user_id or email is required")
		return
	}

	share, err := h.shareService.Grant(r.Context(), httputil.GetUserID(r), id, targetID, permission)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, share)
}

// ListShares lists a document's shares
// GET /api/documents/{id}/shares
func (h *ShareHandler) ListShares(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "document ID is required")
		return
	}

	shares, err := h.shareService.ListShares(r.Context(), httputil.GetUserID(r), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{"shares": shares})
}

// Revoke removes a share
// DELETE /api/documents/{id}/shares/{userId}
func (h *ShareHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	userID := r.PathValue("userId")
	if id == "" || userID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "document ID and user ID are required")
		return
	}

	if err := h.shareService.Revoke(r.Context(), httputil.GetUserID(r), id, userID); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
