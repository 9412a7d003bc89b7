package directory

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/caresuite/platform/pkg/auth"
	"github.com/caresuite/platform/pkg/common/logger"
	"github.com/caresuite/platform/pkg/common/models"
	"github.com/gorilla/mux"
)

type Handler struct {
	service *Service
	tokens  *auth.JWTManager
	oidc    *auth.OIDCAuthenticator // nil unless staff SSO is configured
}

func NewHandler(service *Service, tokens *auth.JWTManager, oidc *auth.OIDCAuthenticator) *Handler {
	return &Handler{service: service, tokens: tokens, oidc: oidc}
}

func (h *Handler) RegisterPublic(r *mux.Router) {
	r.HandleFunc("/auth/login", h.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/auth/sso/login", h.handleSSOLogin).Methods(http.MethodGet)
	r.HandleFunc("/auth/sso/callback", h.handleSSOCallback).Methods(http.MethodGet)
	r.HandleFunc("/patients/register", h.handleRegisterPatient).Methods(http.MethodPost)
	r.HandleFunc("/doctors", h.handleSearchDoctors).Methods(http.MethodGet)
	r.HandleFunc("/doctors/{id}", h.handleGetDoctor).Methods(http.MethodGet)
	r.HandleFunc("/catalog/specialties", h.handleListSpecialties).Methods(http.MethodGet)
	r.HandleFunc("/catalog/locations", h.handleListLocations).Methods(http.MethodGet)
}

func (h *Handler) RegisterAuthenticated(r *mux.Router) {
	r.HandleFunc("/me", h.handleMe).Methods(http.MethodGet)
}

func (h *Handler) RegisterAdmin(r *mux.Router) {
	r.HandleFunc("/doctors", h.handleListAllDoctors).Methods(http.MethodGet)
	r.HandleFunc("/doctors", h.handleAddDoctor).Methods(http.MethodPost)
	r.HandleFunc("/doctors/{id}/activate", h.setDoctorActive(true)).Methods(http.MethodPost)
	r.HandleFunc("/doctors/{id}/deactivate", h.setDoctorActive(false)).Methods(http.MethodPost)
	r.HandleFunc("/patients", h.handleListPatients).Methods(http.MethodGet)
	r.HandleFunc("/patients/{id}/activate", h.setPatientActive(true)).Methods(http.MethodPost)
	r.HandleFunc("/patients/{id}/deactivate", h.setPatientActive(false)).Methods(http.MethodPost)
	r.HandleFunc("/stats", h.handleStats).Methods(http.MethodGet)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		logger.Log.WithError(err).Error("login failed")
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}

	token, err := h.tokens.IssueToken(user)
	if err != nil {
		logger.Log.WithError(err).Error("failed to issue token")
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, models.LoginResponse{Token: token, User: user})
}

func (h *Handler) handleSSOLogin(w http.ResponseWriter, r *http.Request) {
	if h.oidc == nil {
		http.Error(w, "single sign-on not configured", http.StatusNotFound)
		return
	}
	state := r.URL.Query().Get("state")
	http.Redirect(w, r, h.oidc.AuthCodeURL(state), http.StatusFound)
}

// handleSSOCallback finishes the staff SSO flow: the provider identity must
// match an existing local account, federated users are never auto-created.
func (h *Handler) handleSSOCallback(w http.ResponseWriter, r *http.Request) {
	if h.oidc == nil {
		http.Error(w, "single sign-on not configured", http.StatusNotFound)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing authorization code", http.StatusBadRequest)
		return
	}

	claims, err := h.oidc.Exchange(r.Context(), code)
	if err != nil {
		logger.Log.WithError(err).Error("sso code exchange failed")
		http.Error(w, "sso login failed", http.StatusUnauthorized)
		return
	}

	username, _ := claims["preferred_username"].(string)
	if username == "" {
		username, _ = claims["email"].(string)
	}
	if username == "" {
		http.Error(w, "provider returned no usable identity", http.StatusUnauthorized)
		return
	}

	user, err := h.service.repo.GetUserByUsername(r.Context(), username)
	if err != nil || !user.Active || user.Role == models.RolePatient {
		http.Error(w, "no matching staff account", http.StatusForbidden)
		return
	}

	token, err := h.tokens.IssueToken(mapUserModel(user))
	if err != nil {
		logger.Log.WithError(err).Error("failed to issue token")
		http.Error(w, "sso login failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, models.LoginResponse{Token: token, User: mapUserModel(user)})
}

func (h *Handler) handleRegisterPatient(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterPatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	patient, err := h.service.RegisterPatient(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			http.Error(w, "username already registered", http.StatusConflict)
			return
		}
		logger.Log.WithError(err).Error("failed to register patient")
		http.Error(w, "failed to register patient", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"patient": patient})
}

func (h *Handler) handleSearchDoctors(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	doctors, err := h.service.SearchDoctors(r.Context(), q.Get("specialty"), q.Get("location"), q.Get("search"))
	if err != nil {
		logger.Log.WithError(err).Error("failed to search doctors")
		http.Error(w, "failed to search doctors", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": doctors})
}

func (h *Handler) handleGetDoctor(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	doctor, err := h.service.GetDoctor(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			http.Error(w, "doctor not found", http.StatusNotFound)
			return
		}
		logger.Log.WithError(err).Error("failed to get doctor")
		http.Error(w, "failed to get doctor", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"doctor": doctor})
}

func (h *Handler) handleListAllDoctors(w http.ResponseWriter, r *http.Request) {
	doctors, err := h.service.ListAllDoctors(r.Context())
	if err != nil {
		logger.Log.WithError(err).Error("failed to list doctors")
		http.Error(w, "failed to list doctors", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": doctors})
}

func (h *Handler) handleAddDoctor(w http.ResponseWriter, r *http.Request) {
	var req models.AddDoctorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	doctor, err := h.service.AddDoctor(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			http.Error(w, "username already registered", http.StatusConflict)
			return
		}
		logger.Log.WithError(err).Error("failed to add doctor")
		http.Error(w, "failed to add doctor", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"doctor": doctor})
}

func (h *Handler) setDoctorActive(active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		if err := h.service.SetDoctorActive(r.Context(), id, active); err != nil {
			if errors.Is(err, ErrDoctorNotFound) {
				http.Error(w, "doctor not found", http.StatusNotFound)
				return
			}
			logger.Log.WithError(err).Error("failed to update doctor status")
			http.Error(w, "failed to update doctor status", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) handleListPatients(w http.ResponseWriter, r *http.Request) {
	patients, err := h.service.ListPatients(r.Context())
	if err != nil {
		logger.Log.WithError(err).Error("failed to list patients")
		http.Error(w, "failed to list patients", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": patients})
}

func (h *Handler) setPatientActive(active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		if err := h.service.SetPatientActive(r.Context(), id, active); err != nil {
			if errors.Is(err, ErrPatientNotFound) {
				http.Error(w, "patient not found", http.StatusNotFound)
				return
			}
			logger.Log.WithError(err).Error("failed to update patient status")
			http.Error(w, "failed to update patient status", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	counts, err := h.service.Counts(r.Context())
	if err != nil {
		logger.Log.WithError(err).Error("failed to load directory stats")
		http.Error(w, "failed to load stats", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := h.service.GetUser(r.Context(), claims.UserID)
	if err != nil {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

func (h *Handler) handleListSpecialties(w http.ResponseWriter, r *http.Request) {
	specialties, err := h.service.ListSpecialties(r.Context())
	if err != nil {
		logger.Log.WithError(err).Error("failed to list specialties")
		http.Error(w, "failed to list specialties", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": specialties})
}

func (h *Handler) handleListLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := h.service.ListLocations(r.Context())
	if err != nil {
		logger.Log.WithError(err).Error("failed to list locations")
		http.Error(w, "failed to list locations", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": locations})
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
