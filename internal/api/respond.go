package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/civisched/appointment-scheduling/internal/scheduling"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

// writeDomainError maps the domain error taxonomy onto HTTP statuses in one
// place; anything unclassified is a 500.
func writeDomainError(w http.ResponseWriter, err error) {
	var derr *scheduling.Error
	if errors.As(err, &derr) {
		writeError(w, kindStatus(derr.Kind), derr.Code, derr.Message)
		return
	}
	writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
}

func kindStatus(k scheduling.Kind) int {
	switch k {
	case scheduling.KindBadRequest:
		return http.StatusBadRequest
	case scheduling.KindNotFound:
		return http.StatusNotFound
	case scheduling.KindForbidden:
		return http.StatusForbidden
	case scheduling.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
