package booking

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/caresuite/platform/pkg/auth"
	"github.com/caresuite/platform/pkg/billing"
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
	r.HandleFunc("/appointments", h.handleBook).Methods(http.MethodPost)
	r.HandleFunc("/appointments", h.handleList).Methods(http.MethodGet)
	r.HandleFunc("/appointments/{id}", h.handleGet).Methods(http.MethodGet)
	r.HandleFunc("/appointments/{id}/confirm", h.handleConfirm).Methods(http.MethodPost)
	r.HandleFunc("/appointments/{id}/cancel", h.handleCancel).Methods(http.MethodPost)
	r.HandleFunc("/appointments/{id}/reschedule", h.handleReschedule).Methods(http.MethodPost)
	r.HandleFunc("/dashboard", h.handleDashboard).Methods(http.MethodGet)
}

func (h *Handler) handleBook(w http.ResponseWriter, r *http.Request) {
	patientID, ok := h.resolvePatient(w, r)
	if !ok {
		return
	}

	var req models.BookAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	result, err := h.service.Book(r.Context(), patientID, req)
	if err != nil {
		writeBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	switch claims.Role {
	case models.RolePatient:
		patientID, ok := h.resolvePatient(w, r)
		if !ok {
			return
		}
		appointments, err := h.service.ListForPatient(r.Context(), patientID)
		if err != nil {
			logger.Log.WithError(err).Error("failed to list appointments")
			http.Error(w, "failed to list appointments", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"items": appointments})

	case models.RoleDoctor:
		doctorID, ok := h.resolveDoctor(w, r)
		if !ok {
			return
		}
		var (
			appointments []models.Appointment
			err          error
		)
		if date := r.URL.Query().Get("date"); date != "" {
			appointments, err = h.service.ListForDoctorOnDate(r.Context(), doctorID, date)
		} else {
			appointments, err = h.service.ListForDoctor(r.Context(), doctorID)
		}
		if err != nil {
			writeBookingError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"items": appointments})

	default:
		http.Error(w, "Forbidden", http.StatusForbidden)
	}
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	appointment, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeBookingError(w, err)
		return
	}

	claims, _ := auth.ClaimsFromContext(r.Context())
	if claims.Role == models.RolePatient {
		patientID, ok := h.resolvePatient(w, r)
		if !ok {
			return
		}
		if appointment.PatientID != patientID {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"appointment": appointment})
}

func (h *Handler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok || (claims.Role != models.RoleDoctor && claims.Role != models.RoleAdmin) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	id, ok := parseID(w, r)
	if !ok {
		return
	}

	appointment, err := h.service.Confirm(r.Context(), id)
	if err != nil {
		writeBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"appointment": appointment})
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, ok := parseID(w, r)
	if !ok {
		return
	}

	// Patients may only cancel their own visits; staff may cancel any.
	var patientID uint
	if claims.Role == models.RolePatient {
		patientID, ok = h.resolvePatient(w, r)
		if !ok {
			return
		}
	}

	appointment, err := h.service.Cancel(r.Context(), id, patientID)
	if err != nil {
		writeBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"appointment": appointment})
}

func (h *Handler) handleReschedule(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req struct {
		Date      string `json:"date"`
		TimeOfDay string `json:"time_of_day"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	var patientID uint
	if claims.Role == models.RolePatient {
		patientID, ok = h.resolvePatient(w, r)
		if !ok {
			return
		}
	}

	appointment, err := h.service.Reschedule(r.Context(), id, patientID, req.Date, req.TimeOfDay)
	if err != nil {
		writeBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"appointment": appointment})
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := h.resolveDoctor(w, r)
	if !ok {
		return
	}

	counts, err := h.service.DoctorDashboard(r.Context(), doctorID)
	if err != nil {
		logger.Log.WithError(err).Error("failed to load doctor dashboard")
		http.Error(w, "failed to load dashboard", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func (h *Handler) resolvePatient(w http.ResponseWriter, r *http.Request) (uint, bool) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return 0, false
	}
	patientID, err := h.profiles.PatientIDForUser(r.Context(), claims.UserID)
	if err != nil {
		http.Error(w, "no patient profile for user", http.StatusNotFound)
		return 0, false
	}
	return patientID, true
}

func (h *Handler) resolveDoctor(w http.ResponseWriter, r *http.Request) (uint, bool) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return 0, false
	}
	doctorID, err := h.profiles.DoctorIDForUser(r.Context(), claims.UserID)
	if err != nil {
		http.Error(w, "no doctor profile for user", http.StatusNotFound)
		return 0, false
	}
	return doctorID, true
}

func writeBookingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrAppointmentNotFound):
		writeJSONError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrAppointmentOwnership):
		writeJSONError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, ErrSlotTaken),
		errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrInvalidDate),
		errors.Is(err, ErrInvalidTime),
		errors.Is(err, billing.ErrInvalidAmount):
		writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		logger.Log.WithError(err).Error("booking request failed")
		writeJSONError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
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
