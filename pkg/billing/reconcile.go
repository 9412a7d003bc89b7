package billing

import (
	"errors"
	"fmt"

	"github.com/caresuite/platform/pkg/common/models"
	"github.com/shopspring/decimal"
)

var (
	ErrPaymentNotFound  = errors.New("payment not found")
	ErrPaymentOwnership = errors.New("payment does not belong to this patient")
	ErrAlreadySettled   = errors.New("payment already completed")
	ErrInvalidAmount    = errors.New("amount must be greater than zero")
)

// InitiationPlan describes the payment rows to create when a booking is made.
// The main row always carries the full fee; an installment row is added only
// for a partial up-front payment.
type InitiationPlan struct {
	MainStatus    string
	CreatePartial bool
	PartialAmount decimal.Decimal
	Remaining     decimal.Decimal
	Message       string
}

func PlanInitiation(fee, payNow decimal.Decimal) InitiationPlan {
	switch {
	case payNow.GreaterThanOrEqual(fee):
		return InitiationPlan{
			MainStatus: models.PaymentCompleted,
			Remaining:  decimal.Zero,
			Message:    "Appointment booked and payment completed.",
		}
	case payNow.IsPositive():
		remaining := fee.Sub(payNow)
		return InitiationPlan{
			MainStatus:    models.PaymentPending,
			CreatePartial: true,
			PartialAmount: payNow,
			Remaining:     remaining,
			Message: fmt.Sprintf("Appointment booked. Paid %s, remaining %s.",
				payNow.StringFixed(2), remaining.StringFixed(2)),
		}
	default:
		return InitiationPlan{
			MainStatus: models.PaymentPending,
			Remaining:  fee,
			Message:    "Appointment booked. Payment pending.",
		}
	}
}

// ApplicationPlan describes how one installment settles against a booking's
// outstanding balance.
type ApplicationPlan struct {
	PartialSeq     int
	SettlesBooking bool
	Remaining      decimal.Decimal
	Message        string
}

// PlanApplication decides the outcome of applying amount to a booking whose
// main payment holds fee, given the sum of already-completed installments and
// how many installment rows exist. The main row's amount is the fee ceiling,
// never a paid amount, so it is excluded from totalPaidSoFar while pending.
func PlanApplication(fee, totalPaidSoFar, amount decimal.Decimal, partialCount int) (ApplicationPlan, error) {
	if !amount.IsPositive() {
		return ApplicationPlan{}, ErrInvalidAmount
	}

	remainingDue := fee.Sub(totalPaidSoFar)
	if amount.GreaterThanOrEqual(remainingDue) {
		return ApplicationPlan{
			PartialSeq:     partialCount + 1,
			SettlesBooking: true,
			Remaining:      decimal.Zero,
			Message:        "Payment completed. Full amount paid.",
		}, nil
	}

	remaining := remainingDue.Sub(amount)
	return ApplicationPlan{
		PartialSeq: partialCount + 1,
		Remaining:  remaining,
		Message: fmt.Sprintf("Partial payment of %s recorded, %s still due.",
			amount.StringFixed(2), remaining.StringFixed(2)),
	}, nil
}

// ValidateApplication runs the business checks on an apply-payment request
// before any row is written. Validation failures leave the store untouched.
func ValidateApplication(main models.Payment, patientID uint, amount decimal.Decimal) error {
	if main.PatientID != patientID {
		return ErrPaymentOwnership
	}
	if main.Status == models.PaymentCompleted {
		return ErrAlreadySettled
	}
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}
