// Package handler provides HTTP handlers for the archive API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pryanikov/archiveapp/internal/domain"
	"github.com/pryanikov/archiveapp/internal/service"
)

// errorResponse is the JSON body returned for failed requests.
type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeError maps a service error to an HTTP status and writes it.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusForError(err), errorResponse{Error: err.Error()})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrTitleRequired),
		errors.Is(err, domain.ErrAuthorRequired),
		errors.Is(err, service.ErrEmailRequired),
		errors.Is(err, service.ErrPasswordRequired):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrNoActiveSession):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrDeleteForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrDocumentNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateTitle):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
