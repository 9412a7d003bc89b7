package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/caresuite/platform/pkg/common/logger"
	"github.com/caresuite/platform/pkg/common/models"
	"github.com/shopspring/decimal"
)

// EventPublisher pushes billing events onto the clinic event bus.
type EventPublisher interface {
	PublishEvent(ctx context.Context, eventType string, source string, data map[string]interface{}) error
}

// AppointmentResolver supplies the doctor behind a payment for ledger
// rendering. Payments created by the booking flow carry the appointment ID;
// older rows fall back to a paid-on-date match.
type AppointmentResolver interface {
	DoctorForPayment(ctx context.Context, patientID uint, appointmentID *uint, paidOn time.Time) (string, *time.Time)
}

const eventSource = "billing"

// generalPaymentLabel is shown when no appointment can be tied to a payment.
const generalPaymentLabel = "General Payment"

type Service struct {
	repo         *Repository
	events       EventPublisher
	appointments AppointmentResolver
}

func NewService(repo *Repository, events EventPublisher, appointments AppointmentResolver) *Service {
	return &Service{repo: repo, events: events, appointments: appointments}
}

// SetAppointmentResolver wires the booking side in after construction; the
// two services reference each other.
func (s *Service) SetAppointmentResolver(appointments AppointmentResolver) {
	s.appointments = appointments
}

type InitiateInput struct {
	PatientID     uint
	AppointmentID uint
	Fee           decimal.Decimal
	PayNow        decimal.Decimal
	Instrument    *models.PaymentInstrument
}

type InitiateResult struct {
	BookingRef string
	Main       models.Payment
	Partial    *models.Payment
	Plan       InitiationPlan
}

// Initiate creates the booking's payment rows on the given transaction-bound
// repository: one main row holding the full fee, plus an installment row when
// the up-front amount covers only part of it. The caller owns the
// transaction so appointment and payment rows commit together.
func (s *Service) Initiate(ctx context.Context, txRepo *Repository, input InitiateInput) (InitiateResult, error) {
	ref, err := txRepo.NextBookingRef(ctx)
	if err != nil {
		return InitiateResult{}, fmt.Errorf("allocate booking reference: %w", err)
	}

	plan := PlanInitiation(input.Fee, input.PayNow)
	now := time.Now().UTC()
	appointmentID := input.AppointmentID

	main := PaymentModel{
		BookingRef:    ref,
		PatientID:     input.PatientID,
		AppointmentID: &appointmentID,
		Amount:        input.Fee,
		Status:        plan.MainStatus,
		PaidAt:        now,
	}
	if input.PayNow.IsPositive() {
		applyInstrument(&main, input.Instrument)
	}
	if err := txRepo.CreatePayment(ctx, &main); err != nil {
		return InitiateResult{}, err
	}

	result := InitiateResult{
		BookingRef: ref,
		Main:       mapPaymentModel(main),
		Plan:       plan,
	}

	if plan.CreatePartial {
		partial := PaymentModel{
			BookingRef:    PartialRef(ref, 1),
			PatientID:     input.PatientID,
			AppointmentID: &appointmentID,
			Amount:        plan.PartialAmount,
			Status:        models.PaymentCompleted,
			PaidAt:        now,
		}
		applyInstrument(&partial, input.Instrument)
		if err := txRepo.CreatePayment(ctx, &partial); err != nil {
			return InitiateResult{}, err
		}
		mapped := mapPaymentModel(partial)
		result.Partial = &mapped
	}

	return result, nil
}

// ApplyPayment records one installment against a pending booking. The whole
// read-balance-decide-write step runs in a single transaction with the main
// row locked, so concurrent installments cannot both observe the same
// balance.
func (s *Service) ApplyPayment(ctx context.Context, patientID uint, req models.ApplyPaymentRequest) (models.PaymentOutcome, error) {
	var outcome models.PaymentOutcome

	err := s.repo.Transaction(ctx, func(txRepo *Repository) error {
		main, err := txRepo.GetPaymentByIDForUpdate(ctx, req.PaymentID)
		if err != nil {
			return err
		}
		if err := ValidateApplication(mapPaymentModel(main), patientID, req.Amount); err != nil {
			return err
		}

		group, err := txRepo.PaymentsForBooking(ctx, patientID, main.BookingRef)
		if err != nil {
			return err
		}

		totalPaid := decimal.Zero
		partialCount := 0
		for _, p := range group {
			if p.Status == models.PaymentCompleted {
				totalPaid = totalPaid.Add(p.Amount)
			}
			if IsPartialRef(p.BookingRef) {
				partialCount++
			}
		}

		plan, err := PlanApplication(main.Amount, totalPaid, req.Amount, partialCount)
		if err != nil {
			return err
		}

		partial := PaymentModel{
			BookingRef:    PartialRef(main.BookingRef, plan.PartialSeq),
			PatientID:     patientID,
			AppointmentID: main.AppointmentID,
			Amount:        req.Amount,
			Status:        models.PaymentCompleted,
			PaidAt:        time.Now().UTC(),
		}
		applyInstrument(&partial, req.Instrument)
		if err := txRepo.CreatePayment(ctx, &partial); err != nil {
			return err
		}

		if plan.SettlesBooking {
			if err := txRepo.MarkCompleted(ctx, main.ID); err != nil {
				return err
			}
		}

		outcome = models.PaymentOutcome{
			BookingRef:    main.BookingRef,
			AmountApplied: req.Amount,
			Remaining:     plan.Remaining,
			Settled:       plan.SettlesBooking,
			Message:       plan.Message,
		}
		return nil
	})
	if err != nil {
		return models.PaymentOutcome{}, err
	}

	s.publish(ctx, models.EventPaymentRecorded, map[string]interface{}{
		"booking_ref": outcome.BookingRef,
		"patient_id":  patientID,
		"amount":      outcome.AmountApplied.StringFixed(2),
		"remaining":   outcome.Remaining.StringFixed(2),
	})
	if outcome.Settled {
		s.publish(ctx, models.EventPaymentSettled, map[string]interface{}{
			"booking_ref": outcome.BookingRef,
			"patient_id":  patientID,
		})
	}

	return outcome, nil
}

// Ledger builds the per-booking payment summaries a patient sees on the
// pay-fees screen, with patient-level due and paid totals.
func (s *Service) Ledger(ctx context.Context, patientID uint) (models.PatientLedger, error) {
	payments, err := s.repo.PaymentsByPatient(ctx, patientID)
	if err != nil {
		return models.PatientLedger{}, err
	}

	groups := make(map[string][]PaymentModel)
	order := make([]string, 0)
	for _, p := range payments {
		main := MainRef(p.BookingRef)
		if _, seen := groups[main]; !seen {
			order = append(order, main)
		}
		groups[main] = append(groups[main], p)
	}

	ledger := models.PatientLedger{
		Summaries: make([]models.PaymentSummary, 0, len(order)),
		TotalDue:  decimal.Zero,
		TotalPaid: decimal.Zero,
	}

	for _, mainRef := range order {
		group := groups[mainRef]

		var main *PaymentModel
		for i := range group {
			if group[i].BookingRef == mainRef {
				main = &group[i]
				break
			}
		}
		if main == nil {
			// Orphan installments without a main row; nothing to settle.
			continue
		}

		totalPaid := decimal.Zero
		for _, p := range group {
			if p.Status == models.PaymentCompleted {
				totalPaid = totalPaid.Add(p.Amount)
			}
		}

		remaining := main.Amount.Sub(totalPaid)
		status := models.PaymentCompleted
		if remaining.IsPositive() {
			status = models.PaymentPending
		} else {
			remaining = decimal.Zero
		}

		summary := models.PaymentSummary{
			Payment:    mapPaymentModel(*main),
			DoctorName: generalPaymentLabel,
			TotalPaid:  totalPaid,
			Remaining:  remaining,
			Status:     status,
		}
		if s.appointments != nil {
			name, date := s.appointments.DoctorForPayment(ctx, patientID, main.AppointmentID, main.PaidAt)
			if name != "" {
				summary.DoctorName = name
			}
			summary.AppointmentDate = date
		}

		ledger.Summaries = append(ledger.Summaries, summary)
		ledger.TotalDue = ledger.TotalDue.Add(remaining)
		ledger.TotalPaid = ledger.TotalPaid.Add(totalPaid)
	}

	return ledger, nil
}

// History lists every payment row for a patient, newest first, labelling
// main and installment rows.
func (s *Service) History(ctx context.Context, patientID uint) ([]models.PaymentHistoryEntry, error) {
	payments, err := s.repo.PaymentsByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}

	entries := make([]models.PaymentHistoryEntry, 0, len(payments))
	for _, p := range payments {
		kind := "main"
		if IsPartialRef(p.BookingRef) {
			kind = "installment"
		}
		entries = append(entries, models.PaymentHistoryEntry{
			Payment: mapPaymentModel(p),
			Kind:    kind,
		})
	}
	return entries, nil
}

func (s *Service) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishEvent(ctx, eventType, eventSource, data); err != nil {
		logger.Log.WithError(err).WithField("event_type", eventType).Warn("failed to publish billing event")
	}
}

func applyInstrument(payment *PaymentModel, instrument *models.PaymentInstrument) {
	if instrument == nil {
		return
	}
	if instrument.BankName != "" {
		bank := instrument.BankName
		payment.BankName = &bank
	}
	if instrument.CardNumber != "" {
		masked := MaskCard(instrument.CardNumber)
		payment.CardNumber = &masked
	}
	if instrument.Expiry != "" {
		expiry := instrument.Expiry
		payment.Expiry = &expiry
	}
	if instrument.CVN != "" {
		redacted := RedactedCVN
		payment.CVN = &redacted
	}
}
