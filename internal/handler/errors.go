package handler

import (
	"errors"
	"net/http"

	"apdvault/internal/domain"
	"apdvault/internal/httputil"
)

// respondDomainError maps domain errors to RFC 7807 responses. Structured
// errors carry their own status code; sentinels fall back to errors.Is
// matching; anything else is a 500 with the details kept server-side.
func respondDomainError(w http.ResponseWriter, err error) {
	var httpErr domain.HTTPError
	if errors.As(err, &httpErr) {
		httputil.RespondError(w, httpErr.StatusCode(), httpErr.Error())
		return
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, "resource not found")
	case errors.Is(err, domain.ErrNoUncommittedChanges):
		httputil.RespondError(w, http.StatusConflict, "working copy has no uncommitted changes")
	case errors.Is(err, domain.ErrConflict):
		httputil.RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, "unauthorized")
	default:
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}
