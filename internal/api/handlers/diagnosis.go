package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/Gianlz/MedBayes/internal/domain"
	"github.com/Gianlz/MedBayes/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	defaultSimilarLimit = 5
	maxSimilarLimit     = 50
)

type DiagnosisHandler struct {
	svc *service.DiagnosisService
}

func NewDiagnosisHandler(svc *service.DiagnosisService) *DiagnosisHandler {
	return &DiagnosisHandler{svc: svc}
}

func (h *DiagnosisHandler) Diagnose(w http.ResponseWriter, r *http.Request) {
	var req domain.Symptoms
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	d, err := h.svc.Diagnose(r.Context(), req)
	if err != nil {
		writeQueryError(w, err, "failed to compute diagnosis")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *DiagnosisHandler) GetConsultation(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid consultation id")
		return
	}

	c, err := h.svc.GetConsultation(r.Context(), id)
	if err != nil {
		writeConsultationError(w, err, "failed to get consultation")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *DiagnosisHandler) Similar(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid consultation id")
		return
	}

	limit := defaultSimilarLimit
	if k := r.URL.Query().Get("k"); k != "" {
		limit, err = strconv.Atoi(k)
		if err != nil || limit < 1 || limit > maxSimilarLimit {
			writeError(w, http.StatusBadRequest, "k must be between 1 and 50")
			return
		}
	}

	similar, err := h.svc.SimilarConsultations(r.Context(), id, limit)
	if err != nil {
		writeConsultationError(w, err, "failed to find similar consultations")
		return
	}
	if similar == nil {
		similar = []domain.ConsultationWithDistance{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"consultations": similar})
}

func writeConsultationError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrHistoryDisabled):
		writeError(w, http.StatusNotImplemented, err.Error())
	case errors.Is(err, service.ErrConsultationNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrConsultationIDMissing):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, fallback)
	}
}
