package directory

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/caresuite/platform/pkg/common/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrUsernameTaken   = errors.New("username already registered")
	ErrDoctorNotFound  = errors.New("doctor not found")
	ErrPatientNotFound = errors.New("patient not found")
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type UserModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username     string    `gorm:"uniqueIndex"`
	Role         string    `gorm:"index"`
	PasswordHash string
	Active       bool
	Metadata     datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (UserModel) TableName() string {
	return "users"
}

type AdminModel struct {
	ID      uint      `gorm:"primaryKey"`
	UserID  uuid.UUID `gorm:"type:uuid;index"`
	Name    string    `gorm:"size:100"`
	Email   string    `gorm:"size:100"`
	Contact string    `gorm:"size:20"`

	User UserModel `gorm:"foreignKey:UserID"`
}

func (AdminModel) TableName() string {
	return "admins"
}

type DoctorModel struct {
	ID            uint      `gorm:"primaryKey"`
	UserID        uuid.UUID `gorm:"type:uuid;index"`
	Name          string    `gorm:"size:100"`
	ContactNo     string    `gorm:"size:20"`
	SpecialtyID   *uint
	LocationID    *uint
	AvailableTime string          `gorm:"size:100"`
	Fee           decimal.Decimal `gorm:"type:numeric(12,2)"`

	User UserModel `gorm:"foreignKey:UserID"`
}

func (DoctorModel) TableName() string {
	return "doctors"
}

type PatientModel struct {
	ID      uint      `gorm:"primaryKey"`
	UserID  uuid.UUID `gorm:"type:uuid;index"`
	Name    string    `gorm:"size:100"`
	Address string    `gorm:"size:300"`
	PhoneNo string    `gorm:"size:20"`

	User UserModel `gorm:"foreignKey:UserID"`
}

func (PatientModel) TableName() string {
	return "patients"
}

type SpecialtyModel struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"size:100;uniqueIndex"`
	Description string `gorm:"size:500"`
}

func (SpecialtyModel) TableName() string {
	return "specialties"
}

type LocationModel struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"size:100;uniqueIndex"`
	Description string `gorm:"size:200"`
}

func (LocationModel) TableName() string {
	return "locations"
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(
		&UserModel{},
		&AdminModel{},
		&DoctorModel{},
		&PatientModel{},
		&SpecialtyModel{},
		&LocationModel{},
	)
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) Transaction(ctx context.Context, fn func(txRepo *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}

type CreateUserInput struct {
	Username     string
	Role         string
	PasswordHash string
	Metadata     map[string]interface{}
}

func (r *Repository) CreateUser(ctx context.Context, input CreateUserInput) (UserModel, error) {
	username := strings.ToLower(strings.TrimSpace(input.Username))

	var existing int64
	if err := r.db.WithContext(ctx).Model(&UserModel{}).Where("username = ?", username).Count(&existing).Error; err != nil {
		return UserModel{}, err
	}
	if existing > 0 {
		return UserModel{}, ErrUsernameTaken
	}

	user := UserModel{
		ID:           uuid.New(),
		Username:     username,
		Role:         input.Role,
		PasswordHash: input.PasswordHash,
		Active:       true,
		Metadata:     datatypes.JSONMap(input.Metadata),
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}

	if err := r.db.WithContext(ctx).Create(&user).Error; err != nil {
		return UserModel{}, err
	}
	return user, nil
}

func (r *Repository) GetUserByUsername(ctx context.Context, username string) (UserModel, error) {
	var user UserModel
	err := r.db.WithContext(ctx).
		Where("username = ?", strings.ToLower(strings.TrimSpace(username))).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return UserModel{}, ErrUserNotFound
	}
	if err != nil {
		return UserModel{}, err
	}
	return user, nil
}

func (r *Repository) GetUserByID(ctx context.Context, id uuid.UUID) (UserModel, error) {
	var user UserModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return UserModel{}, ErrUserNotFound
	}
	if err != nil {
		return UserModel{}, err
	}
	return user, nil
}

func (r *Repository) SetUserActive(ctx context.Context, id uuid.UUID, active bool) error {
	return r.db.WithContext(ctx).Model(&UserModel{}).Where("id = ?", id).Updates(map[string]interface{}{
		"active":     active,
		"updated_at": time.Now().UTC(),
	}).Error
}

func (r *Repository) CreateAdmin(ctx context.Context, admin *AdminModel) error {
	return r.db.WithContext(ctx).Create(admin).Error
}

func (r *Repository) CreateDoctor(ctx context.Context, doctor *DoctorModel) error {
	return r.db.WithContext(ctx).Create(doctor).Error
}

func (r *Repository) CreatePatient(ctx context.Context, patient *PatientModel) error {
	return r.db.WithContext(ctx).Create(patient).Error
}

// doctorRow carries a doctor profile joined with its user, specialty, and
// location for listing and search.
type doctorRow struct {
	ID            uint
	UserID        uuid.UUID
	Name          string
	ContactNo     string
	SpecialtyID   *uint
	LocationID    *uint
	AvailableTime string
	Fee           decimal.Decimal
	SpecialtyName string
	LocationName  string
	Active        bool
}

func (r *Repository) doctorQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("doctors").
		Select("doctors.id, doctors.user_id, doctors.name, doctors.contact_no, doctors.specialty_id, doctors.location_id, doctors.available_time, doctors.fee, specialties.name AS specialty_name, locations.name AS location_name, users.active").
		Joins("JOIN users ON users.id = doctors.user_id").
		Joins("LEFT JOIN specialties ON specialties.id = doctors.specialty_id").
		Joins("LEFT JOIN locations ON locations.id = doctors.location_id")
}

type DoctorFilter struct {
	Specialty  string
	Location   string
	SearchTerm string
	OnlyActive bool
}

func (r *Repository) ListDoctors(ctx context.Context, filter DoctorFilter) ([]models.Doctor, error) {
	query := r.doctorQuery(ctx)
	if filter.OnlyActive {
		query = query.Where("users.active = ?", true)
	}
	if filter.Specialty != "" {
		query = query.Where("specialties.name ILIKE ?", "%"+filter.Specialty+"%")
	}
	if filter.Location != "" {
		query = query.Where("locations.name ILIKE ?", "%"+filter.Location+"%")
	}
	if filter.SearchTerm != "" {
		term := "%" + filter.SearchTerm + "%"
		query = query.Where("doctors.name ILIKE ? OR users.username ILIKE ?", term, term)
	}

	var rows []doctorRow
	if err := query.Order("doctors.name").Scan(&rows).Error; err != nil {
		return nil, err
	}

	doctors := make([]models.Doctor, 0, len(rows))
	for _, row := range rows {
		doctors = append(doctors, mapDoctorRow(row))
	}
	return doctors, nil
}

func (r *Repository) GetDoctorByID(ctx context.Context, id uint) (models.Doctor, error) {
	var row doctorRow
	err := r.doctorQuery(ctx).Where("doctors.id = ?", id).Scan(&row).Error
	if err != nil {
		return models.Doctor{}, err
	}
	if row.ID == 0 {
		return models.Doctor{}, ErrDoctorNotFound
	}
	return mapDoctorRow(row), nil
}

func (r *Repository) GetDoctorByUserID(ctx context.Context, userID uuid.UUID) (models.Doctor, error) {
	var row doctorRow
	err := r.doctorQuery(ctx).Where("doctors.user_id = ?", userID).Scan(&row).Error
	if err != nil {
		return models.Doctor{}, err
	}
	if row.ID == 0 {
		return models.Doctor{}, ErrDoctorNotFound
	}
	return mapDoctorRow(row), nil
}

// DoctorFee returns the doctor's consultation fee, or zero when the doctor
// does not exist. Absence of a fee is not an error.
func (r *Repository) DoctorFee(ctx context.Context, id uint) (decimal.Decimal, error) {
	var doctor DoctorModel
	err := r.db.WithContext(ctx).Select("fee").Where("id = ?", id).First(&doctor).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return doctor.Fee, nil
}

func (r *Repository) ListPatients(ctx context.Context) ([]models.Patient, error) {
	var patients []PatientModel
	err := r.db.WithContext(ctx).Preload("User").Order("name").Find(&patients).Error
	if err != nil {
		return nil, err
	}

	out := make([]models.Patient, 0, len(patients))
	for _, p := range patients {
		out = append(out, mapPatientModel(p))
	}
	return out, nil
}

func (r *Repository) GetPatientByID(ctx context.Context, id uint) (models.Patient, error) {
	var patient PatientModel
	err := r.db.WithContext(ctx).Preload("User").Where("id = ?", id).First(&patient).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Patient{}, ErrPatientNotFound
	}
	if err != nil {
		return models.Patient{}, err
	}
	return mapPatientModel(patient), nil
}

func (r *Repository) GetPatientByUserID(ctx context.Context, userID uuid.UUID) (PatientModel, error) {
	var patient PatientModel
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&patient).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return PatientModel{}, ErrPatientNotFound
	}
	if err != nil {
		return PatientModel{}, err
	}
	return patient, nil
}

func (r *Repository) GetDoctorUserID(ctx context.Context, id uint) (uuid.UUID, error) {
	var doctor DoctorModel
	err := r.db.WithContext(ctx).Select("user_id").Where("id = ?", id).First(&doctor).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, ErrDoctorNotFound
	}
	if err != nil {
		return uuid.Nil, err
	}
	return doctor.UserID, nil
}

func (r *Repository) GetPatientUserID(ctx context.Context, id uint) (uuid.UUID, error) {
	var patient PatientModel
	err := r.db.WithContext(ctx).Select("user_id").Where("id = ?", id).First(&patient).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, ErrPatientNotFound
	}
	if err != nil {
		return uuid.Nil, err
	}
	return patient.UserID, nil
}

type DirectoryCounts struct {
	Users    int64 `json:"users"`
	Doctors  int64 `json:"doctors"`
	Patients int64 `json:"patients"`
}

func (r *Repository) Counts(ctx context.Context) (DirectoryCounts, error) {
	var counts DirectoryCounts
	if err := r.db.WithContext(ctx).Model(&UserModel{}).Count(&counts.Users).Error; err != nil {
		return counts, err
	}
	if err := r.db.WithContext(ctx).Model(&DoctorModel{}).Count(&counts.Doctors).Error; err != nil {
		return counts, err
	}
	if err := r.db.WithContext(ctx).Model(&PatientModel{}).Count(&counts.Patients).Error; err != nil {
		return counts, err
	}
	return counts, nil
}

func (r *Repository) UpsertSpecialty(ctx context.Context, name, description string) error {
	var existing SpecialtyModel
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.WithContext(ctx).Create(&SpecialtyModel{Name: name, Description: description}).Error
	}
	if err != nil {
		return err
	}
	if existing.Description != description {
		existing.Description = description
		return r.db.WithContext(ctx).Save(&existing).Error
	}
	return nil
}

func (r *Repository) UpsertLocation(ctx context.Context, name, description string) error {
	var existing LocationModel
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.WithContext(ctx).Create(&LocationModel{Name: name, Description: description}).Error
	}
	if err != nil {
		return err
	}
	if existing.Description != description {
		existing.Description = description
		return r.db.WithContext(ctx).Save(&existing).Error
	}
	return nil
}

func (r *Repository) ListSpecialties(ctx context.Context) ([]models.Specialty, error) {
	var specialties []SpecialtyModel
	if err := r.db.WithContext(ctx).Order("name").Find(&specialties).Error; err != nil {
		return nil, err
	}
	out := make([]models.Specialty, 0, len(specialties))
	for _, s := range specialties {
		out = append(out, models.Specialty{ID: s.ID, Name: s.Name, Description: s.Description})
	}
	return out, nil
}

func (r *Repository) ListLocations(ctx context.Context) ([]models.Location, error) {
	var locations []LocationModel
	if err := r.db.WithContext(ctx).Order("name").Find(&locations).Error; err != nil {
		return nil, err
	}
	out := make([]models.Location, 0, len(locations))
	for _, l := range locations {
		out = append(out, models.Location{ID: l.ID, Name: l.Name, Description: l.Description})
	}
	return out, nil
}

func (r *Repository) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&UserModel{}).Count(&count).Error
	return count, err
}

func mapUserModel(user UserModel) models.User {
	return models.User{
		ID:        user.ID,
		Username:  user.Username,
		Role:      user.Role,
		Active:    user.Active,
		Metadata:  map[string]interface{}(user.Metadata),
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

func mapDoctorRow(row doctorRow) models.Doctor {
	return models.Doctor{
		ID:            row.ID,
		UserID:        row.UserID,
		Name:          row.Name,
		ContactNo:     row.ContactNo,
		SpecialtyID:   row.SpecialtyID,
		SpecialtyName: row.SpecialtyName,
		LocationID:    row.LocationID,
		LocationName:  row.LocationName,
		AvailableTime: row.AvailableTime,
		Fee:           row.Fee,
		Active:        row.Active,
	}
}

func mapPatientModel(patient PatientModel) models.Patient {
	return models.Patient{
		ID:      patient.ID,
		UserID:  patient.UserID,
		Name:    patient.Name,
		Address: patient.Address,
		PhoneNo: patient.PhoneNo,
		Active:  patient.User.Active,
	}
}
