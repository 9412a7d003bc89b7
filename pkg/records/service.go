package records

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/caresuite/platform/pkg/common/models"
)

var (
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
	ErrEmptyRecord   = errors.New("a medical record needs notes or medicine")
)

type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// ValidateRating bounds feedback ratings to the 1..5 star scale.
func ValidateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return ErrInvalidRating
	}
	return nil
}

// AddRecord files a visit note written by a doctor against a patient's
// history. The record date is always the day it was filed.
func (s *Service) AddRecord(ctx context.Context, doctorID uint, req models.AddMedicalRecordRequest) (models.MedicalRecord, error) {
	notes := strings.TrimSpace(req.Notes)
	medicine := strings.TrimSpace(req.Medicine)
	if notes == "" && medicine == "" {
		return models.MedicalRecord{}, ErrEmptyRecord
	}

	record := MedicalRecordModel{
		PatientID:  req.PatientID,
		DoctorID:   &doctorID,
		RecordDate: time.Now().UTC(),
		Notes:      notes,
		Medicine:   medicine,
	}
	if err := s.repo.CreateRecord(ctx, &record); err != nil {
		return models.MedicalRecord{}, err
	}

	return models.MedicalRecord{
		ID:         record.ID,
		PatientID:  record.PatientID,
		DoctorID:   record.DoctorID,
		RecordDate: record.RecordDate,
		Notes:      record.Notes,
		Medicine:   record.Medicine,
	}, nil
}

func (s *Service) HistoryForPatient(ctx context.Context, patientID uint) ([]models.MedicalRecord, error) {
	return s.repo.RecordsByPatient(ctx, patientID)
}

// SubmitFeedback files a patient's rating of a doctor or visit.
func (s *Service) SubmitFeedback(ctx context.Context, patientID uint, req models.SubmitFeedbackRequest) (models.Feedback, error) {
	if err := ValidateRating(req.Rating); err != nil {
		return models.Feedback{}, err
	}

	feedback := FeedbackModel{
		PatientID:     patientID,
		DoctorID:      req.DoctorID,
		AppointmentID: req.AppointmentID,
		Rating:        req.Rating,
		Comments:      strings.TrimSpace(req.Comments),
	}
	if err := s.repo.CreateFeedback(ctx, &feedback); err != nil {
		return models.Feedback{}, err
	}

	return models.Feedback{
		ID:            feedback.ID,
		PatientID:     feedback.PatientID,
		DoctorID:      feedback.DoctorID,
		AppointmentID: feedback.AppointmentID,
		Rating:        feedback.Rating,
		Comments:      feedback.Comments,
		CreatedAt:     feedback.CreatedAt,
	}, nil
}

func (s *Service) FeedbackForDoctor(ctx context.Context, doctorID uint) ([]models.Feedback, error) {
	return s.repo.FeedbackByDoctor(ctx, doctorID)
}

func (s *Service) FeedbackForPatient(ctx context.Context, patientID uint) ([]models.Feedback, error) {
	return s.repo.FeedbackByPatient(ctx, patientID)
}
