package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Gianlz/MedBayes/internal/bayes"
	"github.com/Gianlz/MedBayes/internal/network"
	"github.com/Gianlz/MedBayes/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeQueryError maps inference and labelling errors to HTTP status codes.
// Unknown errors are reported as 500 without their message.
func writeQueryError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrNetworkNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, bayes.ErrDegenerateEvidence):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, bayes.ErrEmptyQuery),
		errors.Is(err, bayes.ErrUnknownQueryVariable),
		errors.Is(err, bayes.ErrUnknownVariable),
		errors.Is(err, bayes.ErrInvalidDomain),
		errors.Is(err, bayes.ErrConflictingEvidence),
		errors.Is(err, network.ErrUnknownLabel),
		errors.Is(err, service.ErrSymptomMissing):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, fallback)
	}
}
