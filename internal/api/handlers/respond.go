package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/fleetops/premia/backend/internal/contracts"
)

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes a JSON error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}

// respondServiceError maps engine error kinds to HTTP status codes.
// Unclassified errors become a 500 without leaking internals.
func respondServiceError(w http.ResponseWriter, err error) {
	switch contracts.KindOf(err) {
	case contracts.KindValidation:
		respondError(w, http.StatusBadRequest, err.Error())
	case contracts.KindConflict:
		respondError(w, http.StatusConflict, err.Error())
	case contracts.KindNotFound:
		respondError(w, http.StatusNotFound, err.Error())
	case contracts.KindForbidden:
		respondError(w, http.StatusForbidden, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}
