package billing

import (
	"errors"
	"testing"

	"github.com/caresuite/platform/pkg/common/models"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestPlanInitiationFullPayment(t *testing.T) {
	plan := PlanInitiation(dec("100.00"), dec("100.00"))
	if plan.MainStatus != models.PaymentCompleted {
		t.Fatalf("expected completed main, got %s", plan.MainStatus)
	}
	if plan.CreatePartial {
		t.Fatal("full payment must not create an installment row")
	}
	if !plan.Remaining.IsZero() {
		t.Fatalf("expected zero remaining, got %s", plan.Remaining)
	}
}

func TestPlanInitiationPartialPayment(t *testing.T) {
	plan := PlanInitiation(dec("100.00"), dec("40.00"))
	if plan.MainStatus != models.PaymentPending {
		t.Fatalf("expected pending main, got %s", plan.MainStatus)
	}
	if !plan.CreatePartial {
		t.Fatal("partial payment must create an installment row")
	}
	if !plan.PartialAmount.Equal(dec("40.00")) {
		t.Fatalf("expected installment of 40.00, got %s", plan.PartialAmount)
	}
	if !plan.Remaining.Equal(dec("60.00")) {
		t.Fatalf("expected 60.00 remaining, got %s", plan.Remaining)
	}
}

func TestPlanInitiationZeroPayment(t *testing.T) {
	plan := PlanInitiation(dec("100.00"), decimal.Zero)
	if plan.MainStatus != models.PaymentPending {
		t.Fatalf("expected pending main, got %s", plan.MainStatus)
	}
	if plan.CreatePartial {
		t.Fatal("zero payment must not create an installment row")
	}
	if !plan.Remaining.Equal(dec("100.00")) {
		t.Fatalf("expected full fee remaining, got %s", plan.Remaining)
	}
}

func TestPlanInitiationOverpayment(t *testing.T) {
	plan := PlanInitiation(dec("100.00"), dec("150.00"))
	if plan.MainStatus != models.PaymentCompleted {
		t.Fatalf("overpayment should complete the booking, got %s", plan.MainStatus)
	}
	if plan.CreatePartial {
		t.Fatal("overpayment must not create an installment row")
	}
}

func TestPlanApplicationSettlesBalance(t *testing.T) {
	// After a 40.00 installment against a 100.00 fee, paying 60.00 settles.
	plan, err := PlanApplication(dec("100.00"), dec("40.00"), dec("60.00"), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !plan.SettlesBooking {
		t.Fatal("expected booking to settle")
	}
	if plan.PartialSeq != 2 {
		t.Fatalf("expected installment sequence 2, got %d", plan.PartialSeq)
	}
	if !plan.Remaining.IsZero() {
		t.Fatalf("expected zero remaining, got %s", plan.Remaining)
	}
}

func TestPlanApplicationPartial(t *testing.T) {
	plan, err := PlanApplication(dec("100.00"), decimal.Zero, dec("25.00"), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.SettlesBooking {
		t.Fatal("25.00 against 100.00 must not settle")
	}
	if plan.PartialSeq != 1 {
		t.Fatalf("expected installment sequence 1, got %d", plan.PartialSeq)
	}
	if !plan.Remaining.Equal(dec("75.00")) {
		t.Fatalf("expected 75.00 remaining, got %s", plan.Remaining)
	}
}

func TestPlanApplicationRejectsNonPositiveAmounts(t *testing.T) {
	for _, amount := range []string{"0", "-10.00"} {
		_, err := PlanApplication(dec("100.00"), decimal.Zero, dec(amount), 0)
		if !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("amount %s: expected ErrInvalidAmount, got %v", amount, err)
		}
	}
}

func TestValidateApplicationOwnership(t *testing.T) {
	main := models.Payment{PatientID: 7, Status: models.PaymentPending}
	if err := ValidateApplication(main, 8, dec("10.00")); !errors.Is(err, ErrPaymentOwnership) {
		t.Fatalf("expected ownership rejection, got %v", err)
	}
}

func TestValidateApplicationAlreadySettled(t *testing.T) {
	main := models.Payment{PatientID: 7, Status: models.PaymentCompleted}
	if err := ValidateApplication(main, 7, dec("10.00")); !errors.Is(err, ErrAlreadySettled) {
		t.Fatalf("expected already-settled rejection, got %v", err)
	}
}

func TestValidateApplicationAcceptsValidRequest(t *testing.T) {
	main := models.Payment{PatientID: 7, Status: models.PaymentPending}
	if err := ValidateApplication(main, 7, dec("10.00")); err != nil {
		t.Fatalf("unexpected rejection: %v", err)
	}
}
