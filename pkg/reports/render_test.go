package reports

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/caresuite/platform/pkg/common/models"
	"github.com/shopspring/decimal"
)

func TestRenderPaymentReport(t *testing.T) {
	data := models.PaymentReportData{
		FromDate:                time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		ToDate:                  time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		TotalRevenue:            decimal.RequireFromString("350.00"),
		CompletedRevenue:        decimal.RequireFromString("250.00"),
		PendingRevenue:          decimal.RequireFromString("100.00"),
		TotalTransactions:       2,
		CompletedPayments:       1,
		PendingPayments:         1,
		AverageTransactionValue: decimal.RequireFromString("175.00"),
		Details: []models.PaymentReportItem{
			{
				PaymentID:   1,
				PatientName: "Asha Rao",
				BookingRef:  "BK001",
				Amount:      decimal.RequireFromString("250.00"),
				Status:      models.PaymentCompleted,
				PaidAt:      time.Date(2026, 8, 3, 10, 30, 0, 0, time.UTC),
			},
		},
	}

	var buf bytes.Buffer
	if err := RenderPaymentReport(&buf, data); err != nil {
		t.Fatalf("render failed: %v", err)
	}

	html := buf.String()
	for _, want := range []string{"BK001", "Asha Rao", "250.00", "175.00", "Completed"} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered report missing %q", want)
		}
	}
}

func TestRenderAppointmentReportEscapesInput(t *testing.T) {
	data := models.AppointmentReportData{
		FromDate:          time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		ToDate:            time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		TotalAppointments: 1,
		Details: []models.AppointmentReportItem{
			{
				AppointmentID: 7,
				PatientName:   "<script>alert(1)</script>",
				DoctorName:    "Dr. Mehta",
				Date:          time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC),
				TimeOfDay:     "09:30",
				Status:        models.AppointmentScheduled,
			},
		},
	}

	var buf bytes.Buffer
	if err := RenderAppointmentReport(&buf, data); err != nil {
		t.Fatalf("render failed: %v", err)
	}

	html := buf.String()
	if strings.Contains(html, "<script>alert(1)</script>") {
		t.Fatal("patient name was not escaped")
	}
	if !strings.Contains(html, "Dr. Mehta") {
		t.Error("rendered report missing doctor name")
	}
}
