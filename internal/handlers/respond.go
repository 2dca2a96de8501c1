package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/motorent/backoffice/internal/maintenance"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("failed to encode response")
	}
}

// writeError maps the maintenance error taxonomy onto HTTP statuses:
// not-found 404, invalid state and conflicts 409, validation 400,
// everything else 500.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, maintenance.ErrScheduleNotFound),
		errors.Is(err, maintenance.ErrRecordNotFound),
		errors.Is(err, maintenance.ErrVehicleNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, maintenance.ErrAlreadyCompleted),
		errors.Is(err, maintenance.ErrInvalidTransition),
		errors.Is(err, maintenance.ErrOpenRecordExists),
		errors.Is(err, maintenance.ErrScheduleInactive):
		http.Error(w, err.Error(), http.StatusConflict)
	case maintenance.IsValidation(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.WithError(err).Error("request failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
