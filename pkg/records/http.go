package records

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/caresuite/platform/pkg/auth"
	"github.com/caresuite/platform/pkg/common/logger"
	"github.com/caresuite/platform/pkg/common/models"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// ProfileResolver maps an authenticated user to their clinical profile.
type ProfileResolver interface {
	PatientIDForUser(ctx context.Context, userID uuid.UUID) (uint, error)
	DoctorIDForUser(ctx context.Context, userID uuid.UUID) (uint, error)
}

type Handler struct {
	service  *Service
	profiles ProfileResolver
}

func NewHandler(service *Service, profiles ProfileResolver) *Handler {
	return &Handler{service: service, profiles: profiles}
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/medical-records", h.handleAddRecord).Methods(http.MethodPost)
	r.HandleFunc("/medical-records", h.handleMyHistory).Methods(http.MethodGet)
	r.HandleFunc("/patients/{id}/medical-records", h.handlePatientHistory).Methods(http.MethodGet)
	r.HandleFunc("/feedback", h.handleSubmitFeedback).Methods(http.MethodPost)
	r.HandleFunc("/feedback", h.handleListFeedback).Methods(http.MethodGet)
}

func (h *Handler) handleAddRecord(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok || claims.Role != models.RoleDoctor {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	doctorID, err := h.profiles.DoctorIDForUser(r.Context(), claims.UserID)
	if err != nil {
		http.Error(w, "no doctor profile for user", http.StatusNotFound)
		return
	}

	var req models.AddMedicalRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PatientID == 0 {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	record, err := h.service.AddRecord(r.Context(), doctorID, req)
	if err != nil {
		if errors.Is(err, ErrEmptyRecord) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
			return
		}
		logger.Log.WithError(err).Error("failed to add medical record")
		http.Error(w, "failed to add medical record", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"record": record})
}

// handleMyHistory returns the calling patient's own history.
func (h *Handler) handleMyHistory(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok || claims.Role != models.RolePatient {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	patientID, err := h.profiles.PatientIDForUser(r.Context(), claims.UserID)
	if err != nil {
		http.Error(w, "no patient profile for user", http.StatusNotFound)
		return
	}

	history, err := h.service.HistoryForPatient(r.Context(), patientID)
	if err != nil {
		logger.Log.WithError(err).Error("failed to load medical history")
		http.Error(w, "failed to load medical history", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": history})
}

// handlePatientHistory is the staff-side view of a patient's history.
func (h *Handler) handlePatientHistory(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok || claims.Role == models.RolePatient {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	id, ok := parseID(w, r)
	if !ok {
		return
	}

	history, err := h.service.HistoryForPatient(r.Context(), id)
	if err != nil {
		logger.Log.WithError(err).Error("failed to load medical history")
		http.Error(w, "failed to load medical history", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": history})
}

func (h *Handler) handleSubmitFeedback(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok || claims.Role != models.RolePatient {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	patientID, err := h.profiles.PatientIDForUser(r.Context(), claims.UserID)
	if err != nil {
		http.Error(w, "no patient profile for user", http.StatusNotFound)
		return
	}

	var req models.SubmitFeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	feedback, err := h.service.SubmitFeedback(r.Context(), patientID, req)
	if err != nil {
		if errors.Is(err, ErrInvalidRating) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
			return
		}
		logger.Log.WithError(err).Error("failed to submit feedback")
		http.Error(w, "failed to submit feedback", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"feedback": feedback})
}

// handleListFeedback shows doctors the feedback they received and patients
// the feedback they gave.
func (h *Handler) handleListFeedback(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var (
		feedback []models.Feedback
		err      error
	)
	switch claims.Role {
	case models.RoleDoctor:
		var doctorID uint
		doctorID, err = h.profiles.DoctorIDForUser(r.Context(), claims.UserID)
		if err == nil {
			feedback, err = h.service.FeedbackForDoctor(r.Context(), doctorID)
		}
	case models.RolePatient:
		var patientID uint
		patientID, err = h.profiles.PatientIDForUser(r.Context(), claims.UserID)
		if err == nil {
			feedback, err = h.service.FeedbackForPatient(r.Context(), patientID)
		}
	default:
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	if err != nil {
		logger.Log.WithError(err).Error("failed to list feedback")
		http.Error(w, "failed to list feedback", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": feedback})
}

func parseID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}
	return uint(id), true
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
