package booking

import (
	"context"
	"errors"
	"time"

	"github.com/caresuite/platform/pkg/common/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrAppointmentNotFound  = errors.New("appointment not found")
	ErrAppointmentOwnership = errors.New("appointment belongs to another patient")
	ErrSlotTaken            = errors.New("doctor is not available at the requested time")
	ErrInvalidTransition    = errors.New("invalid appointment status transition")
)

type AppointmentModel struct {
	ID         uint `gorm:"primaryKey"`
	PatientID  uint `gorm:"index"`
	DoctorID   uint `gorm:"index"`
	LocationID *uint
	Date       time.Time `gorm:"type:date;index"`
	TimeOfDay  string    `gorm:"size:5"`
	Status     string    `gorm:"size:20;index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (AppointmentModel) TableName() string {
	return "appointments"
}

// appointmentRow is an appointment joined with the display names the
// API returns alongside it.
type appointmentRow struct {
	AppointmentModel
	PatientName  string
	DoctorName   string
	LocationName string
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&AppointmentModel{})
}

// WithTx returns a repository bound to the given transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Transaction runs fn inside a database transaction. The raw tx handle is
// passed through so the caller can bind other repositories to the same
// transaction.
func (r *Repository) Transaction(ctx context.Context, fn func(txRepo *Repository, tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx), tx)
	})
}

func (r *Repository) Create(ctx context.Context, appointment *AppointmentModel) error {
	return r.db.WithContext(ctx).Create(appointment).Error
}

func (r *Repository) appointmentQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("appointments").
		Select("appointments.*, patients.name AS patient_name, doctors.name AS doctor_name, locations.name AS location_name").
		Joins("JOIN patients ON patients.id = appointments.patient_id").
		Joins("JOIN doctors ON doctors.id = appointments.doctor_id").
		Joins("LEFT JOIN locations ON locations.id = appointments.location_id")
}

func (r *Repository) GetByID(ctx context.Context, id uint) (models.Appointment, error) {
	var row appointmentRow
	err := r.appointmentQuery(ctx).Where("appointments.id = ?", id).Scan(&row).Error
	if err != nil {
		return models.Appointment{}, err
	}
	if row.ID == 0 {
		return models.Appointment{}, ErrAppointmentNotFound
	}
	return mapAppointmentRow(row), nil
}

// GetModelForUpdate locks the bare appointment row for a status change.
func (r *Repository) GetModelForUpdate(ctx context.Context, id uint) (AppointmentModel, error) {
	var appointment AppointmentModel
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&appointment, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return AppointmentModel{}, ErrAppointmentNotFound
	}
	return appointment, err
}

func (r *Repository) ListByPatient(ctx context.Context, patientID uint) ([]models.Appointment, error) {
	var rows []appointmentRow
	err := r.appointmentQuery(ctx).
		Where("appointments.patient_id = ?", patientID).
		Order("appointments.date DESC, appointments.time_of_day DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return mapAppointmentRows(rows), nil
}

func (r *Repository) ListByDoctor(ctx context.Context, doctorID uint) ([]models.Appointment, error) {
	var rows []appointmentRow
	err := r.appointmentQuery(ctx).
		Where("appointments.doctor_id = ?", doctorID).
		Order("appointments.date DESC, appointments.time_of_day DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return mapAppointmentRows(rows), nil
}

func (r *Repository) ListByDoctorOnDate(ctx context.Context, doctorID uint, date time.Time) ([]models.Appointment, error) {
	var rows []appointmentRow
	err := r.appointmentQuery(ctx).
		Where("appointments.doctor_id = ? AND appointments.date = ?", doctorID, date.Format("2006-01-02")).
		Order("appointments.time_of_day ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return mapAppointmentRows(rows), nil
}

// IsDoctorFree reports whether the doctor has no live appointment in the
// given slot. Cancelled appointments do not block the slot.
func (r *Repository) IsDoctorFree(ctx context.Context, doctorID uint, date time.Time, timeOfDay string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&AppointmentModel{}).
		Where("doctor_id = ? AND date = ? AND time_of_day = ? AND status <> ?",
			doctorID, date.Format("2006-01-02"), timeOfDay, models.AppointmentCancelled).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

func (r *Repository) UpdateSchedule(ctx context.Context, id uint, date time.Time, timeOfDay string) error {
	result := r.db.WithContext(ctx).
		Model(&AppointmentModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"date":        date.Format("2006-01-02"),
			"time_of_day": timeOfDay,
			"updated_at":  time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *Repository) UpdateStatus(ctx context.Context, id uint, status string) error {
	result := r.db.WithContext(ctx).
		Model(&AppointmentModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

// DoctorNameForAppointment resolves the doctor behind a specific appointment.
func (r *Repository) DoctorNameForAppointment(ctx context.Context, id uint) (string, time.Time, error) {
	var row struct {
		DoctorName string
		Date       time.Time
	}
	err := r.db.WithContext(ctx).
		Table("appointments").
		Select("doctors.name AS doctor_name, appointments.date AS date").
		Joins("JOIN doctors ON doctors.id = appointments.doctor_id").
		Where("appointments.id = ?", id).
		Scan(&row).Error
	if err != nil {
		return "", time.Time{}, err
	}
	if row.DoctorName == "" {
		return "", time.Time{}, ErrAppointmentNotFound
	}
	return row.DoctorName, row.Date, nil
}

// DoctorNameForPatientOnDate is the fallback lookup for payment rows that
// predate appointment linkage: match the patient's appointment on the day the
// payment was made.
func (r *Repository) DoctorNameForPatientOnDate(ctx context.Context, patientID uint, date time.Time) (string, time.Time, error) {
	var row struct {
		DoctorName string
		Date       time.Time
	}
	err := r.db.WithContext(ctx).
		Table("appointments").
		Select("doctors.name AS doctor_name, appointments.date AS date").
		Joins("JOIN doctors ON doctors.id = appointments.doctor_id").
		Where("appointments.patient_id = ? AND appointments.date = ?", patientID, date.Format("2006-01-02")).
		Order("appointments.id ASC").
		Limit(1).
		Scan(&row).Error
	if err != nil {
		return "", time.Time{}, err
	}
	if row.DoctorName == "" {
		return "", time.Time{}, ErrAppointmentNotFound
	}
	return row.DoctorName, row.Date, nil
}

// DoctorDashboardCounts are the numbers on the doctor's landing page.
type DoctorDashboardCounts struct {
	Today               int64 `json:"today"`
	Upcoming            int64 `json:"upcoming"`
	PendingConfirmation int64 `json:"pending_confirmation"`
	Total               int64 `json:"total"`
}

func (r *Repository) DashboardCounts(ctx context.Context, doctorID uint, today time.Time) (DoctorDashboardCounts, error) {
	var counts DoctorDashboardCounts
	day := today.Format("2006-01-02")

	base := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&AppointmentModel{}).Where("doctor_id = ?", doctorID)
	}

	if err := base().Where("date = ? AND status <> ?", day, models.AppointmentCancelled).Count(&counts.Today).Error; err != nil {
		return counts, err
	}
	if err := base().Where("date >= ? AND status <> ?", day, models.AppointmentCancelled).Count(&counts.Upcoming).Error; err != nil {
		return counts, err
	}
	if err := base().Where("date >= ? AND status = ?", day, models.AppointmentScheduled).Count(&counts.PendingConfirmation).Error; err != nil {
		return counts, err
	}
	if err := base().Count(&counts.Total).Error; err != nil {
		return counts, err
	}
	return counts, nil
}

func mapAppointmentRow(row appointmentRow) models.Appointment {
	return models.Appointment{
		ID:           row.ID,
		PatientID:    row.PatientID,
		DoctorID:     row.DoctorID,
		LocationID:   row.LocationID,
		Date:         row.Date,
		TimeOfDay:    row.TimeOfDay,
		Status:       row.Status,
		PatientName:  row.PatientName,
		DoctorName:   row.DoctorName,
		LocationName: row.LocationName,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

func mapAppointmentRows(rows []appointmentRow) []models.Appointment {
	appointments := make([]models.Appointment, 0, len(rows))
	for _, row := range rows {
		appointments = append(appointments, mapAppointmentRow(row))
	}
	return appointments
}
