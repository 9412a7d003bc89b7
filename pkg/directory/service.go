package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caresuite/platform/pkg/common/logger"
	"github.com/caresuite/platform/pkg/common/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

const countsCacheKey = "directory:counts"

type Service struct {
	repo     *Repository
	cache    *redis.Client
	cacheTTL time.Duration
}

func NewService(repo *Repository, cache *redis.Client, cacheTTL time.Duration) *Service {
	return &Service{repo: repo, cache: cache, cacheTTL: cacheTTL}
}

func (s *Service) Authenticate(ctx context.Context, username, password string) (models.User, error) {
	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, err
	}
	if !user.Active {
		return models.User{}, ErrInvalidCredentials
	}
	if password == "" {
		return models.User{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return models.User{}, ErrInvalidCredentials
	}
	return mapUserModel(user), nil
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (models.User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	return mapUserModel(user), nil
}

func (s *Service) RegisterPatient(ctx context.Context, req models.RegisterPatientRequest) (models.Patient, error) {
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return models.Patient{}, fmt.Errorf("username and password required")
	}
	if strings.TrimSpace(req.Name) == "" {
		return models.Patient{}, fmt.Errorf("name required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.Patient{}, err
	}

	var patient PatientModel
	err = s.repo.Transaction(ctx, func(txRepo *Repository) error {
		user, err := txRepo.CreateUser(ctx, CreateUserInput{
			Username:     req.Username,
			Role:         models.RolePatient,
			PasswordHash: string(hash),
			Metadata:     req.Metadata,
		})
		if err != nil {
			return err
		}

		patient = PatientModel{
			UserID:  user.ID,
			Name:    strings.TrimSpace(req.Name),
			Address: req.Address,
			PhoneNo: req.PhoneNo,
		}
		patient.User = user
		return txRepo.CreatePatient(ctx, &patient)
	})
	if err != nil {
		return models.Patient{}, err
	}

	s.invalidateCounts(ctx)
	return mapPatientModel(patient), nil
}

func (s *Service) AddDoctor(ctx context.Context, req models.AddDoctorRequest) (models.Doctor, error) {
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return models.Doctor{}, fmt.Errorf("username and password required")
	}
	if strings.TrimSpace(req.Name) == "" {
		return models.Doctor{}, fmt.Errorf("name required")
	}
	if req.Fee.IsNegative() {
		return models.Doctor{}, fmt.Errorf("fee cannot be negative")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.Doctor{}, err
	}

	var doctor DoctorModel
	err = s.repo.Transaction(ctx, func(txRepo *Repository) error {
		user, err := txRepo.CreateUser(ctx, CreateUserInput{
			Username:     req.Username,
			Role:         models.RoleDoctor,
			PasswordHash: string(hash),
		})
		if err != nil {
			return err
		}

		doctor = DoctorModel{
			UserID:        user.ID,
			Name:          strings.TrimSpace(req.Name),
			ContactNo:     req.ContactNo,
			SpecialtyID:   req.SpecialtyID,
			LocationID:    req.LocationID,
			AvailableTime: req.AvailableTime,
			Fee:           req.Fee,
		}
		return txRepo.CreateDoctor(ctx, &doctor)
	})
	if err != nil {
		return models.Doctor{}, err
	}

	s.invalidateCounts(ctx)
	return s.repo.GetDoctorByID(ctx, doctor.ID)
}

// EnsureDefaultAdmin creates the bootstrap administrator account when the
// user table is empty.
func (s *Service) EnsureDefaultAdmin(ctx context.Context, username, password, name string) error {
	count, err := s.repo.CountUsers(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return s.repo.Transaction(ctx, func(txRepo *Repository) error {
		user, err := txRepo.CreateUser(ctx, CreateUserInput{
			Username:     username,
			Role:         models.RoleAdmin,
			PasswordHash: string(hash),
		})
		if err != nil {
			return err
		}
		return txRepo.CreateAdmin(ctx, &AdminModel{UserID: user.ID, Name: name})
	})
}

func (s *Service) SearchDoctors(ctx context.Context, specialty, location, searchTerm string) ([]models.Doctor, error) {
	return s.repo.ListDoctors(ctx, DoctorFilter{
		Specialty:  specialty,
		Location:   location,
		SearchTerm: searchTerm,
		OnlyActive: true,
	})
}

func (s *Service) ListAllDoctors(ctx context.Context) ([]models.Doctor, error) {
	return s.repo.ListDoctors(ctx, DoctorFilter{})
}

func (s *Service) GetDoctor(ctx context.Context, id uint) (models.Doctor, error) {
	return s.repo.GetDoctorByID(ctx, id)
}

func (s *Service) ListPatients(ctx context.Context) ([]models.Patient, error) {
	return s.repo.ListPatients(ctx)
}

func (s *Service) GetPatient(ctx context.Context, id uint) (models.Patient, error) {
	return s.repo.GetPatientByID(ctx, id)
}

func (s *Service) SetDoctorActive(ctx context.Context, doctorID uint, active bool) error {
	userID, err := s.repo.GetDoctorUserID(ctx, doctorID)
	if err != nil {
		return err
	}
	return s.repo.SetUserActive(ctx, userID, active)
}

func (s *Service) SetPatientActive(ctx context.Context, patientID uint, active bool) error {
	userID, err := s.repo.GetPatientUserID(ctx, patientID)
	if err != nil {
		return err
	}
	return s.repo.SetUserActive(ctx, userID, active)
}

// ResolveFee implements the booking fee lookup: the doctor's consultation
// fee, or zero when the doctor cannot be found. Never an error for absence.
func (s *Service) ResolveFee(ctx context.Context, doctorID uint) (decimal.Decimal, error) {
	return s.repo.DoctorFee(ctx, doctorID)
}

// PatientIDForUser maps an authenticated user to their patient profile.
func (s *Service) PatientIDForUser(ctx context.Context, userID uuid.UUID) (uint, error) {
	patient, err := s.repo.GetPatientByUserID(ctx, userID)
	if err != nil {
		return 0, err
	}
	return patient.ID, nil
}

// DoctorIDForUser maps an authenticated user to their doctor profile.
func (s *Service) DoctorIDForUser(ctx context.Context, userID uuid.UUID) (uint, error) {
	doctor, err := s.repo.GetDoctorByUserID(ctx, userID)
	if err != nil {
		return 0, err
	}
	return doctor.ID, nil
}

func (s *Service) ListSpecialties(ctx context.Context) ([]models.Specialty, error) {
	return s.repo.ListSpecialties(ctx)
}

func (s *Service) ListLocations(ctx context.Context) ([]models.Location, error) {
	return s.repo.ListLocations(ctx)
}

// Counts serves the admin dashboard numbers, cached briefly in Redis.
func (s *Service) Counts(ctx context.Context) (DirectoryCounts, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, countsCacheKey).Bytes(); err == nil {
			var counts DirectoryCounts
			if json.Unmarshal(cached, &counts) == nil {
				return counts, nil
			}
		}
	}

	counts, err := s.repo.Counts(ctx)
	if err != nil {
		return DirectoryCounts{}, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(counts); err == nil {
			if err := s.cache.Set(ctx, countsCacheKey, data, s.cacheTTL).Err(); err != nil {
				logger.Log.WithError(err).Debug("failed to cache directory counts")
			}
		}
	}
	return counts, nil
}

func (s *Service) invalidateCounts(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, countsCacheKey).Err(); err != nil {
		logger.Log.WithError(err).Debug("failed to invalidate directory counts cache")
	}
}
