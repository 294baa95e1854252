package handler

import (
	"errors"
	"net/http"

	"dokudoku/internal/domain"
	"dokudoku/internal/httputil"
)

// handleError maps domain errors to HTTP responses. Typed errors carry
// their own status via HTTPError; sentinels map by identity.
func handleError(w http.ResponseWriter, err error) {
	var httpErr domain.HTTPError
	if errors.As(err, &httpErr) {
		httputil.RespondError(w, httpErr.StatusCode(), httpErr.Error())
		return
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		httputil.RespondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrNotEmpty),
		errors.Is(err, domain.ErrVersionConflict),
		errors.Is(err, domain.ErrConflict):
		httputil.RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInvalidParent),
		errors.Is(err, domain.ErrCycleDetected),
		errors.Is(err, domain.ErrSelfShare),
		errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrTransient):
		httputil.RespondError(w, http.StatusServiceUnavailable, "storage temporarily unavailable, retry later")
	default:
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}
