package billing

import (
	"context"
	"errors"
	"time"

	"github.com/caresuite/platform/pkg/common/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type PaymentModel struct {
	ID            uint   `gorm:"primaryKey"`
	BookingRef    string `gorm:"size:50;index"`
	PatientID     uint   `gorm:"index"`
	AppointmentID *uint
	Amount        decimal.Decimal `gorm:"type:numeric(12,2)"`
	Status        string          `gorm:"size:20;index"`
	PaidAt        time.Time
	BankName      *string `gorm:"size:100"`
	CardNumber    *string `gorm:"size:20"` // masked, last four only
	Expiry        *string `gorm:"size:7"`
	CVN           *string `gorm:"size:4"` // redacted placeholder only
	CreatedAt     time.Time
}

func (PaymentModel) TableName() string {
	return "payments"
}

// BookingCounterModel is the single-row counter behind booking-reference
// allocation. The legacy system derived the next reference by scanning the
// most recently inserted payment row, which races and can collide; the
// counter row is updated under a row lock instead.
type BookingCounterModel struct {
	ID         uint `gorm:"primaryKey"`
	LastNumber int  `gorm:"not null"`
	UpdatedAt  time.Time
}

func (BookingCounterModel) TableName() string {
	return "booking_counters"
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&PaymentModel{}, &BookingCounterModel{})
}

// WithTx returns a repository bound to the given transaction handle.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) Transaction(ctx context.Context, fn func(txRepo *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}

// NextBookingRef allocates the next BK reference. Callers must invoke it on a
// transaction-bound repository; the counter row stays locked until commit so
// concurrent bookings cannot derive the same reference. On first use the
// counter is seeded from the highest numeric suffix among existing
// references, not the most recently inserted row.
func (r *Repository) NextBookingRef(ctx context.Context) (string, error) {
	var counter BookingCounterModel
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&counter).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		seed, seedErr := r.highestRefNumber(ctx)
		if seedErr != nil {
			return "", seedErr
		}
		counter = BookingCounterModel{LastNumber: seed, UpdatedAt: time.Now().UTC()}
		if err := r.db.WithContext(ctx).Create(&counter).Error; err != nil {
			return "", err
		}
	} else if err != nil {
		return "", err
	}

	counter.LastNumber++
	counter.UpdatedAt = time.Now().UTC()
	if err := r.db.WithContext(ctx).Save(&counter).Error; err != nil {
		return "", err
	}

	return FormatBookingRef(counter.LastNumber), nil
}

func (r *Repository) highestRefNumber(ctx context.Context) (int, error) {
	var refs []string
	err := r.db.WithContext(ctx).
		Model(&PaymentModel{}).
		Where("booking_ref LIKE ?", refPrefix+"%").
		Pluck("booking_ref", &refs).Error
	if err != nil {
		return 0, err
	}

	highest := 0
	for _, ref := range refs {
		if n, ok := ParseBookingRefNumber(ref); ok && n > highest {
			highest = n
		}
	}
	return highest, nil
}

func (r *Repository) CreatePayment(ctx context.Context, payment *PaymentModel) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *Repository) GetPaymentByID(ctx context.Context, id uint) (PaymentModel, error) {
	var payment PaymentModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return PaymentModel{}, ErrPaymentNotFound
	}
	if err != nil {
		return PaymentModel{}, err
	}
	return payment, nil
}

// GetPaymentByIDForUpdate locks the main payment row for the duration of the
// surrounding transaction so concurrent installments serialize on it.
func (r *Repository) GetPaymentByIDForUpdate(ctx context.Context, id uint) (PaymentModel, error) {
	var payment PaymentModel
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return PaymentModel{}, ErrPaymentNotFound
	}
	if err != nil {
		return PaymentModel{}, err
	}
	return payment, nil
}

// PaymentsForBooking returns the main payment plus every installment sharing
// its reference prefix, for one patient.
func (r *Repository) PaymentsForBooking(ctx context.Context, patientID uint, mainRef string) ([]PaymentModel, error) {
	var payments []PaymentModel
	err := r.db.WithContext(ctx).
		Where("patient_id = ? AND (booking_ref = ? OR booking_ref LIKE ?)",
			patientID, mainRef, mainRef+partialMarker+"%").
		Order("id").
		Find(&payments).Error
	return payments, err
}

func (r *Repository) PaymentsByPatient(ctx context.Context, patientID uint) ([]PaymentModel, error) {
	var payments []PaymentModel
	err := r.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("paid_at DESC").
		Find(&payments).Error
	return payments, err
}

func (r *Repository) MarkCompleted(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).
		Model(&PaymentModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":  models.PaymentCompleted,
			"paid_at": time.Now().UTC(),
		}).Error
}

func mapPaymentModel(p PaymentModel) models.Payment {
	payment := models.Payment{
		ID:            p.ID,
		BookingRef:    p.BookingRef,
		PatientID:     p.PatientID,
		AppointmentID: p.AppointmentID,
		Amount:        p.Amount,
		Status:        p.Status,
		PaidAt:        p.PaidAt,
	}
	if p.BankName != nil {
		payment.BankName = *p.BankName
	}
	if p.CardNumber != nil {
		payment.MaskedCard = *p.CardNumber
	}
	if p.Expiry != nil {
		payment.Expiry = *p.Expiry
	}
	return payment
}
