package billing

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/caresuite/platform/pkg/auth"
	"github.com/caresuite/platform/pkg/common/logger"
	"github.com/caresuite/platform/pkg/common/models"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// PatientResolver maps an authenticated user to their patient profile ID.
type PatientResolver interface {
	PatientIDForUser(ctx context.Context, userID uuid.UUID) (uint, error)
}

type Handler struct {
	service  *Service
	patients PatientResolver
}

func NewHandler(service *Service, patients PatientResolver) *Handler {
	return &Handler{service: service, patients: patients}
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/payments", h.handleLedger).Methods(http.MethodGet)
	r.HandleFunc("/payments/history", h.handleHistory).Methods(http.MethodGet)
	r.HandleFunc("/payments/apply", h.handleApplyPayment).Methods(http.MethodPost)
}

func (h *Handler) handleLedger(w http.ResponseWriter, r *http.Request) {
	patientID, ok := h.resolvePatient(w, r)
	if !ok {
		return
	}

	ledger, err := h.service.Ledger(r.Context(), patientID)
	if err != nil {
		logger.Log.WithError(err).Error("failed to build payment ledger")
		http.Error(w, "failed to load payments", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, ledger)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	patientID, ok := h.resolvePatient(w, r)
	if !ok {
		return
	}

	entries, err := h.service.History(r.Context(), patientID)
	if err != nil {
		logger.Log.WithError(err).Error("failed to load payment history")
		http.Error(w, "failed to load payment history", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": entries})
}

func (h *Handler) handleApplyPayment(w http.ResponseWriter, r *http.Request) {
	patientID, ok := h.resolvePatient(w, r)
	if !ok {
		return
	}

	var req models.ApplyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	outcome, err := h.service.ApplyPayment(r.Context(), patientID, req)
	if err != nil {
		writePaymentError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (h *Handler) resolvePatient(w http.ResponseWriter, r *http.Request) (uint, bool) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return 0, false
	}

	patientID, err := h.patients.PatientIDForUser(r.Context(), claims.UserID)
	if err != nil {
		http.Error(w, "patient profile not found", http.StatusNotFound)
		return 0, false
	}
	return patientID, true
}

func writePaymentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrPaymentNotFound):
		http.Error(w, "payment not found", http.StatusNotFound)
	case errors.Is(err, ErrPaymentOwnership),
		errors.Is(err, ErrAlreadySettled),
		errors.Is(err, ErrInvalidAmount):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{"error": err.Error()})
	default:
		logger.Log.WithError(err).Error("failed to apply payment")
		http.Error(w, "failed to apply payment", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
