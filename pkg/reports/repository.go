package reports

import (
	"context"
	"time"

	"github.com/caresuite/platform/pkg/common/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// AppointmentReport aggregates the clinic's appointments inside the window,
// with a per-specialty breakdown.
func (r *Repository) AppointmentReport(ctx context.Context, from, to time.Time) (models.AppointmentReportData, error) {
	data := models.AppointmentReportData{FromDate: from, ToDate: to}

	var rows []struct {
		AppointmentID uint
		PatientName   string
		DoctorName    string
		SpecialtyName string
		Date          time.Time
		TimeOfDay     string
		Status        string
	}
	err := r.db.WithContext(ctx).
		Table("appointments").
		Select(`appointments.id AS appointment_id,
			patients.name AS patient_name,
			doctors.name AS doctor_name,
			COALESCE(specialties.name, '') AS specialty_name,
			appointments.date AS date,
			appointments.time_of_day AS time_of_day,
			appointments.status AS status`).
		Joins("JOIN patients ON patients.id = appointments.patient_id").
		Joins("JOIN doctors ON doctors.id = appointments.doctor_id").
		Joins("LEFT JOIN specialties ON specialties.id = doctors.specialty_id").
		Where("appointments.date BETWEEN ? AND ?", from.Format("2006-01-02"), to.Format("2006-01-02")).
		Order("appointments.date ASC, appointments.time_of_day ASC").
		Scan(&rows).Error
	if err != nil {
		return data, err
	}

	bySpecialty := make(map[string]int)
	specialtyOrder := make([]string, 0)
	for _, row := range rows {
		data.Details = append(data.Details, models.AppointmentReportItem{
			AppointmentID: row.AppointmentID,
			PatientName:   row.PatientName,
			DoctorName:    row.DoctorName,
			SpecialtyName: row.SpecialtyName,
			Date:          row.Date,
			TimeOfDay:     row.TimeOfDay,
			Status:        row.Status,
		})

		data.TotalAppointments++
		switch row.Status {
		case models.AppointmentConfirmed:
			data.ConfirmedAppointments++
		case models.AppointmentCancelled:
			data.CancelledAppointments++
		case models.AppointmentScheduled:
			data.ScheduledAppointments++
		}

		name := row.SpecialtyName
		if name == "" {
			name = "Unassigned"
		}
		if _, seen := bySpecialty[name]; !seen {
			specialtyOrder = append(specialtyOrder, name)
		}
		bySpecialty[name]++
	}

	for _, name := range specialtyOrder {
		data.BySpecialty = append(data.BySpecialty, models.SpecialtyAppointmentCount{
			SpecialtyName: name,
			Count:         bySpecialty[name],
		})
	}
	return data, nil
}

// PaymentReport aggregates revenue over the window. Only main booking rows
// count toward revenue; installments are details of their booking, counting
// them too would double the money.
func (r *Repository) PaymentReport(ctx context.Context, from, to time.Time) (models.PaymentReportData, error) {
	data := models.PaymentReportData{
		FromDate:                from,
		ToDate:                  to,
		TotalRevenue:            decimal.Zero,
		CompletedRevenue:        decimal.Zero,
		PendingRevenue:          decimal.Zero,
		AverageTransactionValue: decimal.Zero,
	}

	var rows []struct {
		PaymentID   uint
		PatientName string
		BookingRef  string
		Amount      decimal.Decimal
		Status      string
		PaidAt      time.Time
	}
	err := r.db.WithContext(ctx).
		Table("payments").
		Select(`payments.id AS payment_id,
			patients.name AS patient_name,
			payments.booking_ref AS booking_ref,
			payments.amount AS amount,
			payments.status AS status,
			payments.paid_at AS paid_at`).
		Joins("JOIN patients ON patients.id = payments.patient_id").
		Where("payments.paid_at BETWEEN ? AND ?", from, to).
		Where("payments.booking_ref NOT LIKE ?", "%\\_P%").
		Order("payments.paid_at ASC").
		Scan(&rows).Error
	if err != nil {
		return data, err
	}

	for _, row := range rows {
		data.Details = append(data.Details, models.PaymentReportItem{
			PaymentID:   row.PaymentID,
			PatientName: row.PatientName,
			BookingRef:  row.BookingRef,
			Amount:      row.Amount,
			Status:      row.Status,
			PaidAt:      row.PaidAt,
		})

		data.TotalTransactions++
		data.TotalRevenue = data.TotalRevenue.Add(row.Amount)
		switch row.Status {
		case models.PaymentCompleted:
			data.CompletedPayments++
			data.CompletedRevenue = data.CompletedRevenue.Add(row.Amount)
		case models.PaymentPending:
			data.PendingPayments++
			data.PendingRevenue = data.PendingRevenue.Add(row.Amount)
		}
	}

	if data.TotalTransactions > 0 {
		data.AverageTransactionValue = data.TotalRevenue.
			Div(decimal.NewFromInt(int64(data.TotalTransactions))).
			Round(2)
	}
	return data, nil
}

// PatientReport summarizes registrations and activity over the window.
func (r *Repository) PatientReport(ctx context.Context, from, to time.Time) (models.PatientReportData, error) {
	data := models.PatientReportData{FromDate: from, ToDate: to}

	var rows []struct {
		PatientID         uint
		PatientName       string
		Username          string
		RegisteredAt      time.Time
		Active            bool
		TotalAppointments int
	}
	err := r.db.WithContext(ctx).
		Table("patients").
		Select(`patients.id AS patient_id,
			patients.name AS patient_name,
			users.username AS username,
			users.created_at AS registered_at,
			users.active AS active,
			COUNT(appointments.id) AS total_appointments`).
		Joins("JOIN users ON users.id = patients.user_id").
		Joins("LEFT JOIN appointments ON appointments.patient_id = patients.id").
		Group("patients.id, patients.name, users.username, users.created_at, users.active").
		Order("users.created_at ASC").
		Scan(&rows).Error
	if err != nil {
		return data, err
	}

	for _, row := range rows {
		data.Details = append(data.Details, models.PatientReportItem{
			PatientID:         row.PatientID,
			PatientName:       row.PatientName,
			Username:          row.Username,
			RegisteredAt:      row.RegisteredAt,
			Active:            row.Active,
			TotalAppointments: row.TotalAppointments,
		})

		data.TotalPatients++
		if !row.RegisteredAt.Before(from) && !row.RegisteredAt.After(to) {
			data.NewPatients++
		}
		if row.Active {
			data.ActivePatients++
		} else {
			data.InactivePatients++
		}
	}
	return data, nil
}
