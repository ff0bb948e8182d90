package http

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/chaabi-dev/demandhub/internal/service"
	"github.com/chaabi-dev/demandhub/internal/workflow"
)

// errorResponse is the JSON error shape returned by every endpoint.
type errorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Status: status, Message: message})
}

// writeServiceError maps service and workflow errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	var verr *workflow.ValidationError
	if errors.As(err, &verr) {
		writeError(w, http.StatusBadRequest, verr.Error())
		return
	}
	var invalid *workflow.InvalidTransitionError
	if errors.As(err, &invalid) {
		writeError(w, http.StatusConflict, invalid.Error())
		return
	}
	switch {
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, "Access denied. Insufficient permissions")
	case errors.Is(err, sql.ErrNoRows):
		writeError(w, http.StatusNotFound, "demand not found")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
