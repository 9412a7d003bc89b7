package records

import (
	"context"
	"time"

	"github.com/caresuite/platform/pkg/common/models"
	"gorm.io/gorm"
)

type MedicalRecordModel struct {
	ID         uint `gorm:"primaryKey"`
	PatientID  uint `gorm:"index"`
	DoctorID   *uint
	RecordDate time.Time `gorm:"type:date"`
	Notes      string    `gorm:"type:text"`
	Medicine   string    `gorm:"type:text"`
	CreatedAt  time.Time
}

func (MedicalRecordModel) TableName() string {
	return "medical_records"
}

type FeedbackModel struct {
	ID            uint `gorm:"primaryKey"`
	PatientID     uint `gorm:"index"`
	DoctorID      *uint
	AppointmentID *uint
	Rating        int
	Comments      string `gorm:"type:text"`
	CreatedAt     time.Time
}

func (FeedbackModel) TableName() string {
	return "feedbacks"
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&MedicalRecordModel{}, &FeedbackModel{})
}

func (r *Repository) CreateRecord(ctx context.Context, record *MedicalRecordModel) error {
	return r.db.WithContext(ctx).Create(record).Error
}

type recordRow struct {
	MedicalRecordModel
	DoctorName string
}

func (r *Repository) RecordsByPatient(ctx context.Context, patientID uint) ([]models.MedicalRecord, error) {
	var rows []recordRow
	err := r.db.WithContext(ctx).
		Table("medical_records").
		Select("medical_records.*, doctors.name AS doctor_name").
		Joins("LEFT JOIN doctors ON doctors.id = medical_records.doctor_id").
		Where("medical_records.patient_id = ?", patientID).
		Order("medical_records.record_date DESC, medical_records.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	records := make([]models.MedicalRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, models.MedicalRecord{
			ID:         row.ID,
			PatientID:  row.PatientID,
			DoctorID:   row.DoctorID,
			DoctorName: row.DoctorName,
			RecordDate: row.RecordDate,
			Notes:      row.Notes,
			Medicine:   row.Medicine,
		})
	}
	return records, nil
}

func (r *Repository) CreateFeedback(ctx context.Context, feedback *FeedbackModel) error {
	return r.db.WithContext(ctx).Create(feedback).Error
}

func (r *Repository) FeedbackByDoctor(ctx context.Context, doctorID uint) ([]models.Feedback, error) {
	var rows []FeedbackModel
	err := r.db.WithContext(ctx).
		Where("doctor_id = ?", doctorID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return mapFeedbackModels(rows), nil
}

func (r *Repository) FeedbackByPatient(ctx context.Context, patientID uint) ([]models.Feedback, error) {
	var rows []FeedbackModel
	err := r.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return mapFeedbackModels(rows), nil
}

func mapFeedbackModels(rows []FeedbackModel) []models.Feedback {
	feedback := make([]models.Feedback, 0, len(rows))
	for _, row := range rows {
		feedback = append(feedback, models.Feedback{
			ID:            row.ID,
			PatientID:     row.PatientID,
			DoctorID:      row.DoctorID,
			AppointmentID: row.AppointmentID,
			Rating:        row.Rating,
			Comments:      row.Comments,
			CreatedAt:     row.CreatedAt,
		})
	}
	return feedback
}
