package handler

import (
	"log/slog"
	"net/http"

	docstoreSvc "dokudoku/internal/domain/services/docstore"
	"dokudoku/internal/httputil"
)

// SearchHandler handles document search HTTP requests
type SearchHandler struct {
	orgService docstoreSvc.OrganizationService
	logger     *slog.Logger
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(orgService docstoreSvc.OrganizationService, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{
		orgService: orgService,
		logger:     logger,
	}
}

// Search returns the accessible-document search page
// GET /api/documents/search?q=&folder_id=&tag_id=&file_type=&limit=&offset=
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	opts := searchOptionsFromQuery(r)

	results, err := h.orgService.SearchAccessible(r.Context(), opts)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, results)
}
