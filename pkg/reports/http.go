package reports

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/caresuite/platform/pkg/common/logger"
	"github.com/gorilla/mux"
)

type Handler struct {
	repo    *Repository
	revenue *RevenueAggregator
}

func NewHandler(repo *Repository, revenue *RevenueAggregator) *Handler {
	return &Handler{repo: repo, revenue: revenue}
}

// Register mounts the reporting endpoints. Every route here is admin-only,
// the caller wraps the router with the role middleware.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/reports/appointments", h.handleAppointments).Methods(http.MethodGet)
	r.HandleFunc("/reports/payments", h.handlePayments).Methods(http.MethodGet)
	r.HandleFunc("/reports/patients", h.handlePatients).Methods(http.MethodGet)
	r.HandleFunc("/reports/revenue/{day}", h.handleRevenue).Methods(http.MethodGet)
}

func (h *Handler) handleAppointments(w http.ResponseWriter, r *http.Request) {
	from, to, ok := parseWindow(w, r)
	if !ok {
		return
	}

	data, err := h.repo.AppointmentReport(r.Context(), from, to)
	if err != nil {
		logger.Log.WithError(err).Error("failed to build appointment report")
		http.Error(w, "failed to build report", http.StatusInternalServerError)
		return
	}

	if wantsHTML(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := RenderAppointmentReport(w, data); err != nil {
			logger.Log.WithError(err).Error("failed to render appointment report")
		}
		return
	}
	writeJSON(w, data)
}

func (h *Handler) handlePayments(w http.ResponseWriter, r *http.Request) {
	from, to, ok := parseWindow(w, r)
	if !ok {
		return
	}

	data, err := h.repo.PaymentReport(r.Context(), from, to)
	if err != nil {
		logger.Log.WithError(err).Error("failed to build payment report")
		http.Error(w, "failed to build report", http.StatusInternalServerError)
		return
	}

	if wantsHTML(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := RenderPaymentReport(w, data); err != nil {
			logger.Log.WithError(err).Error("failed to render payment report")
		}
		return
	}
	writeJSON(w, data)
}

func (h *Handler) handlePatients(w http.ResponseWriter, r *http.Request) {
	from, to, ok := parseWindow(w, r)
	if !ok {
		return
	}

	data, err := h.repo.PatientReport(r.Context(), from, to)
	if err != nil {
		logger.Log.WithError(err).Error("failed to build patient report")
		http.Error(w, "failed to build report", http.StatusInternalServerError)
		return
	}

	if wantsHTML(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := RenderPatientReport(w, data); err != nil {
			logger.Log.WithError(err).Error("failed to render patient report")
		}
		return
	}
	writeJSON(w, data)
}

func (h *Handler) handleRevenue(w http.ResponseWriter, r *http.Request) {
	if h.revenue == nil {
		http.Error(w, "revenue aggregation not configured", http.StatusNotFound)
		return
	}

	report, err := h.revenue.RevenueFor(r.Context(), mux.Vars(r)["day"])
	if err != nil {
		http.Error(w, "invalid day, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	writeJSON(w, report)
}

// parseWindow reads ?from= and ?to= (YYYY-MM-DD), defaulting to the last 30
// days. The to-bound is pushed to end of day so same-day rows are included.
func parseWindow(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	q := r.URL.Query()
	now := time.Now().UTC()
	from := now.AddDate(0, 0, -30)
	to := now

	if raw := q.Get("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			http.Error(w, "invalid from date, expected YYYY-MM-DD", http.StatusBadRequest)
			return time.Time{}, time.Time{}, false
		}
		from = parsed
	}
	if raw := q.Get("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			http.Error(w, "invalid to date, expected YYYY-MM-DD", http.StatusBadRequest)
			return time.Time{}, time.Time{}, false
		}
		to = parsed.Add(24*time.Hour - time.Second)
	}
	if to.Before(from) {
		http.Error(w, "to date precedes from date", http.StatusBadRequest)
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

func wantsHTML(r *http.Request) bool {
	return r.URL.Query().Get("format") == "html"
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payload)
}
