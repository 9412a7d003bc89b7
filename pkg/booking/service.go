package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caresuite/platform/pkg/billing"
	"github.com/caresuite/platform/pkg/common/logger"
	"github.com/caresuite/platform/pkg/common/models"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// FeeResolver looks up the consultation fee for a doctor. A missing doctor
// yields a zero fee, not an error; the booking proceeds as free.
type FeeResolver interface {
	ResolveFee(ctx context.Context, doctorID uint) (decimal.Decimal, error)
}

// EventPublisher pushes booking events onto the clinic event bus.
type EventPublisher interface {
	PublishEvent(ctx context.Context, eventType string, source string, data map[string]interface{}) error
}

const eventSource = "booking"

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

var (
	ErrInvalidDate = errors.New("date must be today or later, formatted YYYY-MM-DD")
	ErrInvalidTime = errors.New("time must be formatted HH:MM")
)

type Service struct {
	repo              *Repository
	payments          *billing.Service
	paymentRepo       *billing.Repository
	fees              FeeResolver
	events            EventPublisher
	cache             *redis.Client
	cacheTTL          time.Duration
	checkAvailability bool
}

type ServiceOptions struct {
	CheckDoctorAvailability bool
	DashboardCacheTTL       time.Duration
}

func NewService(repo *Repository, payments *billing.Service, paymentRepo *billing.Repository, fees FeeResolver, events EventPublisher, cache *redis.Client, opts ServiceOptions) *Service {
	return &Service{
		repo:              repo,
		payments:          payments,
		paymentRepo:       paymentRepo,
		fees:              fees,
		events:            events,
		cache:             cache,
		cacheTTL:          opts.DashboardCacheTTL,
		checkAvailability: opts.CheckDoctorAvailability,
	}
}

// Book creates an appointment together with its payment rows in a single
// transaction: either the visit and its booking reference both exist, or
// neither does.
func (s *Service) Book(ctx context.Context, patientID uint, req models.BookAppointmentRequest) (models.BookingResult, error) {
	date, err := parseBookingDate(req.Date)
	if err != nil {
		return models.BookingResult{}, err
	}
	timeOfDay, err := parseBookingTime(req.TimeOfDay)
	if err != nil {
		return models.BookingResult{}, err
	}
	if req.DoctorID == 0 {
		return models.BookingResult{}, fmt.Errorf("doctor is required")
	}
	if req.PayNow.IsNegative() {
		return models.BookingResult{}, billing.ErrInvalidAmount
	}

	if s.checkAvailability {
		free, err := s.repo.IsDoctorFree(ctx, req.DoctorID, date, timeOfDay)
		if err != nil {
			return models.BookingResult{}, err
		}
		if !free {
			return models.BookingResult{}, ErrSlotTaken
		}
	}

	fee, err := s.fees.ResolveFee(ctx, req.DoctorID)
	if err != nil {
		return models.BookingResult{}, fmt.Errorf("resolve consultation fee: %w", err)
	}

	var (
		appointment AppointmentModel
		billed      billing.InitiateResult
	)
	err = s.repo.Transaction(ctx, func(txRepo *Repository, tx *gorm.DB) error {
		appointment = AppointmentModel{
			PatientID:  patientID,
			DoctorID:   req.DoctorID,
			LocationID: req.LocationID,
			Date:       date,
			TimeOfDay:  timeOfDay,
			Status:     models.AppointmentScheduled,
		}
		if err := txRepo.Create(ctx, &appointment); err != nil {
			return err
		}

		billed, err = s.payments.Initiate(ctx, s.paymentRepo.WithTx(tx), billing.InitiateInput{
			PatientID:     patientID,
			AppointmentID: appointment.ID,
			Fee:           fee,
			PayNow:        req.PayNow,
			Instrument:    req.Instrument,
		})
		return err
	})
	if err != nil {
		return models.BookingResult{}, err
	}

	s.publish(ctx, models.EventAppointmentBooked, map[string]interface{}{
		"appointment_id": appointment.ID,
		"patient_id":     patientID,
		"doctor_id":      req.DoctorID,
		"booking_ref":    billed.BookingRef,
		"date":           date.Format(dateLayout),
		"time_of_day":    timeOfDay,
		"fee":            fee.StringFixed(2),
		"paid_now":       req.PayNow.StringFixed(2),
	})
	if req.PayNow.IsPositive() {
		s.publish(ctx, models.EventPaymentRecorded, map[string]interface{}{
			"booking_ref": billed.BookingRef,
			"patient_id":  patientID,
			"amount":      req.PayNow.StringFixed(2),
			"remaining":   billed.Plan.Remaining.StringFixed(2),
		})
	}
	if billed.Plan.MainStatus == models.PaymentCompleted {
		s.publish(ctx, models.EventPaymentSettled, map[string]interface{}{
			"booking_ref": billed.BookingRef,
			"patient_id":  patientID,
		})
	}

	paid := req.PayNow
	if paid.GreaterThan(fee) {
		paid = fee
	}
	return models.BookingResult{
		Appointment:   mapAppointmentRow(appointmentRow{AppointmentModel: appointment}),
		BookingRef:    billed.BookingRef,
		Fee:           fee,
		PaidNow:       paid,
		Remaining:     billed.Plan.Remaining,
		PaymentStatus: billed.Plan.MainStatus,
		Message:       billed.Plan.Message,
	}, nil
}

// CanTransition reports whether an appointment may move between the two
// statuses. Cancelled is terminal; confirmed visits cannot revert.
func CanTransition(from, to string) bool {
	switch from {
	case models.AppointmentScheduled:
		return to == models.AppointmentConfirmed || to == models.AppointmentCancelled
	case models.AppointmentConfirmed:
		return to == models.AppointmentCancelled
	default:
		return false
	}
}

func (s *Service) transition(ctx context.Context, appointmentID uint, to string, requirePatient uint) (models.Appointment, error) {
	err := s.repo.Transaction(ctx, func(txRepo *Repository, _ *gorm.DB) error {
		appointment, err := txRepo.GetModelForUpdate(ctx, appointmentID)
		if err != nil {
			return err
		}
		if requirePatient != 0 && appointment.PatientID != requirePatient {
			return ErrAppointmentOwnership
		}
		if !CanTransition(appointment.Status, to) {
			return ErrInvalidTransition
		}
		return txRepo.UpdateStatus(ctx, appointmentID, to)
	})
	if err != nil {
		return models.Appointment{}, err
	}
	return s.repo.GetByID(ctx, appointmentID)
}

// Confirm is the doctor-side acknowledgement of a scheduled visit.
func (s *Service) Confirm(ctx context.Context, appointmentID uint) (models.Appointment, error) {
	return s.transition(ctx, appointmentID, models.AppointmentConfirmed, 0)
}

// Cancel marks the visit cancelled. When patientID is non-zero the
// appointment must belong to that patient.
func (s *Service) Cancel(ctx context.Context, appointmentID uint, patientID uint) (models.Appointment, error) {
	appointment, err := s.transition(ctx, appointmentID, models.AppointmentCancelled, patientID)
	if err != nil {
		return models.Appointment{}, err
	}
	s.publish(ctx, "appointment.cancelled", map[string]interface{}{
		"appointment_id": appointment.ID,
		"patient_id":     appointment.PatientID,
		"doctor_id":      appointment.DoctorID,
	})
	return appointment, nil
}

// Reschedule moves a scheduled or confirmed visit to a new slot.
func (s *Service) Reschedule(ctx context.Context, appointmentID uint, patientID uint, newDate, newTime string) (models.Appointment, error) {
	date, err := parseBookingDate(newDate)
	if err != nil {
		return models.Appointment{}, err
	}
	timeOfDay, err := parseBookingTime(newTime)
	if err != nil {
		return models.Appointment{}, err
	}

	err = s.repo.Transaction(ctx, func(txRepo *Repository, _ *gorm.DB) error {
		appointment, err := txRepo.GetModelForUpdate(ctx, appointmentID)
		if err != nil {
			return err
		}
		if patientID != 0 && appointment.PatientID != patientID {
			return ErrAppointmentOwnership
		}
		if appointment.Status == models.AppointmentCancelled {
			return ErrInvalidTransition
		}
		if s.checkAvailability {
			free, err := txRepo.IsDoctorFree(ctx, appointment.DoctorID, date, timeOfDay)
			if err != nil {
				return err
			}
			if !free {
				return ErrSlotTaken
			}
		}
		return txRepo.UpdateSchedule(ctx, appointmentID, date, timeOfDay)
	})
	if err != nil {
		return models.Appointment{}, err
	}
	return s.repo.GetByID(ctx, appointmentID)
}

func (s *Service) Get(ctx context.Context, id uint) (models.Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListForPatient(ctx context.Context, patientID uint) ([]models.Appointment, error) {
	return s.repo.ListByPatient(ctx, patientID)
}

func (s *Service) ListForDoctor(ctx context.Context, doctorID uint) ([]models.Appointment, error) {
	return s.repo.ListByDoctor(ctx, doctorID)
}

func (s *Service) ListForDoctorOnDate(ctx context.Context, doctorID uint, rawDate string) ([]models.Appointment, error) {
	date, err := time.Parse(dateLayout, rawDate)
	if err != nil {
		return nil, ErrInvalidDate
	}
	return s.repo.ListByDoctorOnDate(ctx, doctorID, date)
}

// DoctorDashboard serves the doctor's landing-page counters, cached briefly
// in Redis since they are polled on every page load.
func (s *Service) DoctorDashboard(ctx context.Context, doctorID uint) (DoctorDashboardCounts, error) {
	key := fmt.Sprintf("booking:dashboard:%d", doctorID)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key).Bytes(); err == nil {
			var counts DoctorDashboardCounts
			if json.Unmarshal(cached, &counts) == nil {
				return counts, nil
			}
		}
	}

	counts, err := s.repo.DashboardCounts(ctx, doctorID, time.Now().UTC())
	if err != nil {
		return DoctorDashboardCounts{}, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(counts); err == nil {
			if err := s.cache.Set(ctx, key, data, s.cacheTTL).Err(); err != nil {
				logger.Log.WithError(err).Debug("failed to cache doctor dashboard")
			}
		}
	}
	return counts, nil
}

// DoctorForPayment resolves the doctor name and visit date behind a payment
// for the billing ledger. Rows created by the booking flow carry the
// appointment ID; older rows fall back to matching the patient's visit on
// the day the payment was made.
func (s *Service) DoctorForPayment(ctx context.Context, patientID uint, appointmentID *uint, paidOn time.Time) (string, *time.Time) {
	if appointmentID != nil {
		name, date, err := s.repo.DoctorNameForAppointment(ctx, *appointmentID)
		if err == nil {
			return name, &date
		}
		if !errors.Is(err, ErrAppointmentNotFound) {
			logger.Log.WithError(err).Debug("failed to resolve appointment for payment")
		}
	}

	name, date, err := s.repo.DoctorNameForPatientOnDate(ctx, patientID, paidOn)
	if err != nil {
		if !errors.Is(err, ErrAppointmentNotFound) {
			logger.Log.WithError(err).Debug("failed to resolve appointment for payment")
		}
		return "", nil
	}
	return name, &date
}

func (s *Service) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishEvent(ctx, eventType, eventSource, data); err != nil {
		logger.Log.WithError(err).WithField("event_type", eventType).Warn("failed to publish booking event")
	}
}

func parseBookingDate(raw string) (time.Time, error) {
	date, err := time.Parse(dateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)
	if date.Before(today) {
		return time.Time{}, ErrInvalidDate
	}
	return date, nil
}

func parseBookingTime(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if _, err := time.Parse(timeLayout, trimmed); err != nil {
		return "", ErrInvalidTime
	}
	return trimmed, nil
}
