package handler

import (
	"log/slog"
	"net/http"

	docstoreSvc "dokudoku/internal/domain/services/docstore"
	"dokudoku/internal/httputil"
)

// TreeHandler handles folder tree HTTP requests
type TreeHandler struct {
	treeService docstoreSvc.TreeService
	logger      *slog.Logger
}

// NewTreeHandler creates a new tree handler
func NewTreeHandler(treeService docstoreSvc.TreeService, logger *slog.Logger) *TreeHandler {
	return &TreeHandler{
		treeService: treeService,
		logger:      logger,
	}
}

// GetTree returns the actor's full folder/document tree
// GET /api/folders/tree
func (h *TreeHandler) GetTree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.treeService.GetTree(r.Context(), httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, tree)
}
