package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hugh/boardstack/internal/api/dto"
	"github.com/hugh/boardstack/internal/dal"
	"github.com/hugh/boardstack/internal/tenancy"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// respondError maps the three authorization error kinds onto HTTP
// statuses. NOT_FOUND covers foreign-tenant resources too; the response
// body never reveals which case it was.
func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tenancy.ErrUnauthenticated):
		writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Error: "Unauthorized"})
	case errors.Is(err, tenancy.ErrForbidden):
		writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "Forbidden"})
	case errors.Is(err, tenancy.ErrNotFound):
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Not found"})
	case errors.Is(err, dal.ErrAlreadyMember):
		writeJSON(w, http.StatusConflict, dto.ErrorResponse{Error: "Already a member"})
	default:
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Internal server error"})
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return false
	}
	return true
}
